package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shipdesk/internal/carrier"
	"shipdesk/internal/facility"
	"shipdesk/internal/logger"
	"shipdesk/internal/quote"
)

// ErrUnknownOrder means the order id could not be resolved by the
// configured order source.
var ErrUnknownOrder = errors.New("unknown order")

// RouteDecision is the immutable outcome of one routing request.
type RouteDecision struct {
	ID             string            `json:"id"`
	CustomerZip    string            `json:"customer_zip"`
	WeightLb       float64           `json:"weight_lb"`
	Facility       facility.Facility `json:"facility"`
	Category       quote.Category    `json:"category"`
	Provider       string            `json:"provider"`
	Service        string            `json:"service"`
	Price          decimal.Decimal   `json:"price"`
	Currency       string            `json:"currency"`
	Recommendation string            `json:"recommendation"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Order is the minimal shape the engine needs from the commerce side.
type Order struct {
	ID          string  `json:"id"`
	CustomerZip string  `json:"customer_zip"`
	WeightLb    float64 `json:"weight_lb"`
}

// OrderSource resolves order ids; it lives with the commerce/webhook
// collaborators, not in the engine.
type OrderSource interface {
	Order(ctx context.Context, id string) (Order, error)
}

// DecisionStore receives the records the orchestrator emits. The memory
// store implements it; failures there never block a decision.
type DecisionStore interface {
	RecordRoute(ctx context.Context, d *RouteDecision) error
	RecordOrder(ctx context.Context, order Order, d *RouteDecision) error
}

// HistoryEntry is one raw aggregation output kept for audit/replay.
type HistoryEntry struct {
	ID        string           `json:"id"`
	Request   quote.Request    `json:"request"`
	Result    *AggregateResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}

// HistorySink receives raw aggregation results per category.
type HistorySink interface {
	Append(ctx context.Context, cat quote.Category, entry HistoryEntry) error
}

// Orchestrator composes facility selection and mode selection into one
// routing decision and records it.
type Orchestrator struct {
	locator  *facility.Locator
	selector *ModeSelector
	registry *carrier.Registry
	store    DecisionStore
	history  HistorySink
	orders   OrderSource

	now func() time.Time
}

func NewOrchestrator(locator *facility.Locator, selector *ModeSelector, registry *carrier.Registry, store DecisionStore, history HistorySink, orders OrderSource) *Orchestrator {
	return &Orchestrator{
		locator:  locator,
		selector: selector,
		registry: registry,
		store:    store,
		history:  history,
		orders:   orders,
		now:      time.Now,
	}
}

// Route decides provider, service, and origin facility for one
// shipment. Persistence is best-effort: a failed write is logged and
// the decision still returns to the caller.
func (o *Orchestrator) Route(ctx context.Context, customerZip string, weightLb float64) (*RouteDecision, error) {
	if err := quote.ValidateZip(customerZip); err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrInvalidRequest, err)
	}
	if weightLb <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive, got %v", quote.ErrInvalidRequest, weightLb)
	}
	origin, err := o.locator.Nearest(customerZip)
	if err != nil {
		return nil, err
	}
	req := quote.Request{OriginZip: origin.Zip, DestZip: customerZip, WeightLb: weightLb}
	sel, err := o.selector.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	decision := &RouteDecision{
		ID:             uuid.NewString(),
		CustomerZip:    customerZip,
		WeightLb:       weightLb,
		Facility:       origin,
		Category:       sel.Mode,
		Provider:       sel.Best.Provider,
		Service:        sel.Best.Service,
		Price:          sel.Best.Price,
		Currency:       sel.Best.Currency,
		Recommendation: sel.Recommendation,
		CreatedAt:      o.now().UTC(),
	}

	if o.store != nil {
		if err := o.store.RecordRoute(ctx, decision); err != nil {
			logger.Warnf("route decision %s computed but not recorded: %v", decision.ID, err)
		}
	}
	o.appendHistory(ctx, req, sel.Parcel)
	o.appendHistory(ctx, req, sel.Transport)
	return decision, nil
}

// AssignOrder routes an order resolved through the order source and
// records it in the order window.
func (o *Orchestrator) AssignOrder(ctx context.Context, orderID string) (*RouteDecision, error) {
	if o.orders == nil {
		return nil, fmt.Errorf("%w: no order source configured", ErrUnknownOrder)
	}
	order, err := o.orders.Order(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownOrder, orderID, err)
	}
	decision, err := o.Route(ctx, order.CustomerZip, order.WeightLb)
	if err != nil {
		return nil, err
	}
	if o.store != nil {
		if err := o.store.RecordOrder(ctx, order, decision); err != nil {
			logger.Warnf("order %s routed but not recorded: %v", order.ID, err)
		}
	}
	return decision, nil
}

// QuoteCategory runs one category's aggregation for the command
// surface, capturing the raw result in that category's history log.
func (o *Orchestrator) QuoteCategory(ctx context.Context, cat quote.Category, req quote.Request) (*AggregateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result := o.selector.AggregateCategory(ctx, cat, req)
	o.appendHistory(ctx, req, result)
	return result, nil
}

// Track resolves a named adapter and asks it for a tracking snapshot.
func (o *Orchestrator) Track(ctx context.Context, provider, trackingNumber string) (*carrier.TrackingStatus, error) {
	adapter, err := o.registry.Lookup(provider)
	if err != nil {
		return nil, err
	}
	tracker, ok := adapter.(carrier.Tracker)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support tracking", provider)
	}
	return tracker.Track(ctx, trackingNumber)
}

func (o *Orchestrator) appendHistory(ctx context.Context, req quote.Request, result *AggregateResult) {
	if o.history == nil || result == nil {
		return
	}
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		Request:   req,
		Result:    result,
		CreatedAt: o.now().UTC(),
	}
	if err := o.history.Append(ctx, result.Category, entry); err != nil {
		logger.Warnf("history append failed for %s: %v", result.Category, err)
	}
}
