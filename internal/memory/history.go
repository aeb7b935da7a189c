package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"shipdesk/internal/dispatch"
	"shipdesk/internal/logger"
	"shipdesk/internal/memory/model"
	"shipdesk/internal/quote"
)

// History keeps one small capped FIFO log of raw aggregator outputs per
// category, for audit and replay. No derived analytics here.
type History struct {
	mu      sync.Mutex
	db      *gorm.DB
	cap     int
	entries map[quote.Category][]dispatch.HistoryEntry // oldest first
}

func NewHistory(db *gorm.DB, cap int) (*History, error) {
	if cap <= 0 {
		return nil, fmt.Errorf("history log: cap must be > 0")
	}
	h := &History{
		db:      db,
		cap:     cap,
		entries: make(map[quote.Category][]dispatch.HistoryEntry, 2),
	}
	if db != nil {
		if err := h.load(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *History) load() error {
	for _, cat := range []quote.Category{quote.CategoryParcel, quote.CategoryTransport} {
		var rows []model.HistoryEntryModel
		err := h.db.
			Where("category = ?", string(cat)).
			Order("created_at DESC, id DESC").
			Limit(h.cap).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("loading %s history: %w", cat, err)
		}
		entries := make([]dispatch.HistoryEntry, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- {
			var entry dispatch.HistoryEntry
			if err := json.Unmarshal(rows[i].Payload, &entry); err != nil {
				logger.Warnf("skipping unreadable history row %s: %v", rows[i].EntryID, err)
				continue
			}
			entries = append(entries, entry)
		}
		h.entries[cat] = entries
	}
	return nil
}

// Append implements dispatch.HistorySink. The in-memory log is
// authoritative; durable write failures are logged and surfaced, never
// blocking the caller's decision path.
func (h *History) Append(ctx context.Context, cat quote.Category, entry dispatch.HistoryEntry) error {
	if _, ok := quote.ParseCategory(string(cat)); !ok {
		return fmt.Errorf("unknown history category %q", cat)
	}
	h.mu.Lock()
	log := append(h.entries[cat], entry)
	var evicted []dispatch.HistoryEntry
	if len(log) > h.cap {
		evicted = log[:len(log)-h.cap]
		log = log[len(log)-h.cap:]
	}
	h.entries[cat] = log
	h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &model.HistoryEntryModel{
			EntryID:       entry.ID,
			Category:      string(cat),
			Payload:       payload,
			CreatedAtUnix: entry.CreatedAt.UnixMilli(),
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if len(evicted) == 0 {
			return nil
		}
		ids := make([]string, 0, len(evicted))
		for _, old := range evicted {
			ids = append(ids, old.ID)
		}
		return tx.Where("entry_id IN ?", ids).Delete(&model.HistoryEntryModel{}).Error
	})
	if err != nil {
		perr := &PersistenceWriteError{Op: "history " + string(cat), Err: err}
		logger.Warnf("%v", perr)
		return perr
	}
	return nil
}

// All returns the current log for a category, oldest first.
func (h *History) All(cat quote.Category) []dispatch.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	log := h.entries[cat]
	out := make([]dispatch.HistoryEntry, len(log))
	copy(out, log)
	return out
}

var _ dispatch.HistorySink = (*History)(nil)
