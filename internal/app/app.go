package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"shipdesk/internal/carrier"
	"shipdesk/internal/command"
	"shipdesk/internal/config"
	"shipdesk/internal/dispatch"
	"shipdesk/internal/facility"
	"shipdesk/internal/logger"
	"shipdesk/internal/memory"
	"shipdesk/internal/notify"
	"shipdesk/internal/orders"
	enginehttp "shipdesk/internal/transport/http/engine"
)

// App wires the routing engine together: load config, build the
// provider registry and facility directory, open the memory store,
// then serve HTTP until the context ends.
type App struct {
	cfg       *config.Config
	server    *enginehttp.Server
	store     *memory.Store
	directory *facility.Directory
	closeDB   func() error
}

// NewApp builds the application object without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	registry, err := carrier.NewRegistry(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("build provider registry: %w", err)
	}

	directory, err := facility.LoadDirectory(cfg.Facilities.Path)
	if err != nil {
		return nil, fmt.Errorf("load facilities %s: %w", cfg.Facilities.Path, err)
	}
	locator := facility.NewLocator(directory, nil)

	db, err := memory.Open(cfg.Memory.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open memory db %s: %w", cfg.Memory.DBPath, err)
	}
	store, err := memory.NewStore(db, cfg.Memory.WindowCap)
	if err != nil {
		memory.Close(db)
		return nil, fmt.Errorf("load memory windows: %w", err)
	}
	history, err := memory.NewHistory(db, cfg.Memory.HistoryCap)
	if err != nil {
		memory.Close(db)
		return nil, fmt.Errorf("load quote history: %w", err)
	}

	if cfg.Notify.Telegram.Enabled {
		tg := notify.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		store.RegisterObserver(&decisionNotifier{notifier: tg})
	}

	aggregator := dispatch.NewAggregator(cfg.Aggregator)
	selector := dispatch.NewModeSelector(aggregator, registry)
	book := orders.NewBook()
	orch := dispatch.NewOrchestrator(locator, selector, registry, store, history, book)
	commands := command.NewDispatcher(orch, store)

	server, err := enginehttp.NewServer(enginehttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Store:    store,
		History:  history,
		Orch:     orch,
		Orders:   book,
		Commands: commands,
	})
	if err != nil {
		memory.Close(db)
		return nil, err
	}

	return &App{
		cfg:       cfg,
		server:    server,
		store:     store,
		directory: directory,
		closeDB:   func() error { return memory.Close(db) },
	}, nil
}

// Run serves HTTP and, when configured, watches the facility file for
// edits. It returns after both goroutines exit.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	logger.Infof("shipdesk listening on %s (parcel=%d transport=%d facilities=%d)",
		a.server.Addr(),
		len(a.cfg.Providers.Parcel),
		len(a.cfg.Providers.Transport),
		a.directory.Len())

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("engine http server error: %w", err)
		}
		return nil
	})
	if a.cfg.Facilities.Watch {
		group.Go(func() error {
			if err := facility.Watch(ctx, a.cfg.Facilities.Path, a.directory); err != nil {
				logger.Warnf("facility watcher stopped: %v", err)
			}
			return nil
		})
	}

	err := group.Wait()
	if cerr := a.closeDB(); cerr != nil {
		logger.Warnf("close memory db: %v", cerr)
	}
	return err
}

// decisionNotifier forwards route and delivery records to the text
// notifier. It runs on the store's observer path, so it keeps the
// message cheap and never blocks on retries here.
type decisionNotifier struct {
	notifier notify.TextNotifier
}

func (n *decisionNotifier) RecordStored(kind memory.Kind, rec memory.Record) {
	if kind != memory.KindRoute && kind != memory.KindDelivery {
		return
	}
	go func() {
		msg := fmt.Sprintf("[%s] %s", kind, rec.Summary)
		if err := n.notifier.SendText(msg); err != nil {
			logger.Warnf("notify %s record: %v", kind, err)
		}
	}()
}

var _ memory.Observer = (*decisionNotifier)(nil)
