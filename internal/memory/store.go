package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shipdesk/internal/logger"
	"shipdesk/internal/memory/model"
)

// Kind names one of the four independent sliding windows.
type Kind string

const (
	KindObservation Kind = "observation"
	KindOrder       Kind = "order"
	KindRoute       Kind = "route"
	KindDelivery    Kind = "delivery"
)

func Kinds() []Kind {
	return []Kind{KindObservation, KindOrder, KindRoute, KindDelivery}
}

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindObservation:
		return KindObservation, true
	case KindOrder:
		return KindOrder, true
	case KindRoute:
		return KindRoute, true
	case KindDelivery:
		return KindDelivery, true
	}
	return "", false
}

// Record is one append-only window entry. Provider/Service/Price feed
// the delivery analytics; Payload keeps the full original entry.
type Record struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Provider  string          `json:"provider,omitempty"`
	Service   string          `json:"service,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Summary   string          `json:"summary,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AnalyticsSummary is derived, never stored independently. The totals
// reflect the current windows; the delivery-derived fields are
// recomputed after every delivery write.
type AnalyticsSummary struct {
	TotalOrders      int             `json:"total_orders"`
	TotalDeliveries  int             `json:"total_deliveries"`
	TotalRoutes      int             `json:"total_routes"`
	AvgDeliveryPrice decimal.Decimal `json:"avg_delivery_price"`
	MostUsedProvider string          `json:"most_used_provider"`
}

// Observer is called after each successful record. Observer failures
// (including panics) are contained; they can never fail the write.
type Observer interface {
	RecordStored(kind Kind, rec Record)
}

// PersistenceWriteError marks a durable write that failed while the
// in-memory window stayed authoritative.
type PersistenceWriteError struct {
	Op  string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persistence write failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

// Store owns the four capped windows. One mutex serializes every
// read-modify-write cycle so two concurrent records can never race a
// trim. Reads copy out under the same lock and stay cheap.
type Store struct {
	mu        sync.Mutex
	db        *gorm.DB
	cap       int
	windows   map[Kind][]Record // oldest first
	avgPrice  decimal.Decimal
	topSource string
	observers []Observer
	degraded  atomic.Bool

	now func() time.Time
}

// NewStore loads any durable windows into memory; with an empty
// database it starts with all windows empty and counters at zero.
func NewStore(db *gorm.DB, windowCap int) (*Store, error) {
	if windowCap <= 0 {
		return nil, fmt.Errorf("memory store: window cap must be > 0")
	}
	s := &Store{
		db:       db,
		cap:      windowCap,
		windows:  make(map[Kind][]Record, 4),
		avgPrice: decimal.Zero,
		now:      time.Now,
	}
	for _, kind := range Kinds() {
		s.windows[kind] = nil
	}
	if db != nil {
		if err := s.loadWindows(); err != nil {
			return nil, err
		}
	}
	s.recomputeDeliveryStats()
	return s, nil
}

func (s *Store) loadWindows() error {
	for _, kind := range Kinds() {
		var rows []model.MemoryRecordModel
		err := s.db.
			Where("kind = ?", string(kind)).
			Order("created_at DESC, id DESC").
			Limit(s.cap).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("loading %s window: %w", kind, err)
		}
		window := make([]Record, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- { // back to insertion order
			window = append(window, recordFromModel(rows[i]))
		}
		s.windows[kind] = window
	}
	return nil
}

// RegisterObserver adds a post-write callback.
func (s *Store) RegisterObserver(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Record timestamps the entry, appends it to its kind's window, trims
// the window to the cap, and persists best-effort. The in-memory window
// is authoritative: a failed durable write degrades health but does not
// fail the record.
func (s *Store) Record(ctx context.Context, kind Kind, rec Record) (Record, error) {
	if _, ok := ParseKind(string(kind)); !ok {
		return Record{}, fmt.Errorf("unknown record kind %q", kind)
	}
	s.mu.Lock()
	rec.Kind = kind
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = s.now().UTC()

	window := append(s.windows[kind], rec)
	var evicted []Record
	if len(window) > s.cap {
		evicted = window[:len(window)-s.cap]
		window = window[len(window)-s.cap:]
	}
	s.windows[kind] = window
	if kind == KindDelivery {
		s.recomputeDeliveryStats()
	}
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	s.persistRecord(ctx, rec, evicted)
	for _, o := range observers {
		notifyObserver(o, kind, rec)
	}
	return rec, nil
}

func notifyObserver(o Observer, kind Kind, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("memory observer panicked on %s record %s: %v", kind, rec.ID, r)
		}
	}()
	o.RecordStored(kind, rec)
}

func (s *Store) persistRecord(ctx context.Context, rec Record, evicted []Record) {
	if s.db == nil {
		return
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recordToModel(rec)).Error; err != nil {
			return err
		}
		if len(evicted) == 0 {
			return nil
		}
		ids := make([]string, 0, len(evicted))
		for _, old := range evicted {
			ids = append(ids, old.ID)
		}
		return tx.Where("record_id IN ?", ids).Delete(&model.MemoryRecordModel{}).Error
	})
	if err != nil {
		s.degraded.Store(true)
		perr := &PersistenceWriteError{Op: "record " + string(rec.Kind), Err: err}
		logger.Warnf("%v (in-memory window remains authoritative)", perr)
		return
	}
	s.degraded.Store(false)
}

// Recent returns up to limit entries of a kind, most recent first.
// Repeated calls with no intervening writes return identical results.
func (s *Store) Recent(kind Kind, limit int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := s.windows[kind]
	if limit <= 0 || limit > len(window) {
		limit = len(window)
	}
	out := make([]Record, 0, limit)
	for i := len(window) - 1; i >= len(window)-limit; i-- {
		out = append(out, window[i])
	}
	return out
}

// Clear resets one window and its durable rows, zeroing the derived
// counters that depended on it.
func (s *Store) Clear(ctx context.Context, kind Kind) error {
	if _, ok := ParseKind(string(kind)); !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	s.mu.Lock()
	s.windows[kind] = nil
	if kind == KindDelivery {
		s.recomputeDeliveryStats()
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("kind = ?", string(kind)).Delete(&model.MemoryRecordModel{}).Error; err != nil {
		s.degraded.Store(true)
		perr := &PersistenceWriteError{Op: "clear " + string(kind), Err: err}
		logger.Warnf("%v", perr)
		return perr
	}
	return nil
}

// Analytics snapshots the derived summary.
func (s *Store) Analytics() AnalyticsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AnalyticsSummary{
		TotalOrders:      len(s.windows[KindOrder]),
		TotalDeliveries:  len(s.windows[KindDelivery]),
		TotalRoutes:      len(s.windows[KindRoute]),
		AvgDeliveryPrice: s.avgPrice,
		MostUsedProvider: s.topSource,
	}
}

// Degraded reports whether the last durable write failed.
func (s *Store) Degraded() bool { return s.degraded.Load() }

// recomputeDeliveryStats derives the delivery average and the modal
// provider from the post-trim delivery window. Caller holds the lock.
func (s *Store) recomputeDeliveryStats() {
	window := s.windows[KindDelivery]
	if len(window) == 0 {
		s.avgPrice = decimal.Zero
		s.topSource = ""
		return
	}
	sum := decimal.Zero
	counts := make(map[string]int)
	for _, rec := range window {
		sum = sum.Add(rec.Price)
		key := rec.Service
		if key == "" {
			key = rec.Provider
		}
		if key != "" {
			counts[key]++
		}
	}
	s.avgPrice = sum.Div(decimal.NewFromInt(int64(len(window)))).Round(4)
	top, topCount := "", 0
	for _, rec := range window { // window order keeps ties deterministic
		key := rec.Service
		if key == "" {
			key = rec.Provider
		}
		if key != "" && counts[key] > topCount {
			top, topCount = key, counts[key]
		}
	}
	s.topSource = top
}

func recordToModel(rec Record) *model.MemoryRecordModel {
	return &model.MemoryRecordModel{
		RecordID:      rec.ID,
		Kind:          string(rec.Kind),
		Provider:      rec.Provider,
		Service:       rec.Service,
		Price:         rec.Price.String(),
		Summary:       rec.Summary,
		Payload:       []byte(rec.Payload),
		CreatedAtUnix: rec.CreatedAt.UnixMilli(),
	}
}

func recordFromModel(m model.MemoryRecordModel) Record {
	price, err := decimal.NewFromString(m.Price)
	if err != nil {
		price = decimal.Zero
	}
	return Record{
		ID:        m.RecordID,
		Kind:      Kind(m.Kind),
		Provider:  m.Provider,
		Service:   m.Service,
		Price:     price,
		Summary:   m.Summary,
		Payload:   json.RawMessage(m.Payload),
		CreatedAt: time.UnixMilli(m.CreatedAtUnix).UTC(),
	}
}
