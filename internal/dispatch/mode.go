package dispatch

import (
	"context"
	"errors"
	"fmt"

	"shipdesk/internal/carrier"
	"shipdesk/internal/quote"
)

// ErrNoQuoteAvailable means every provider in every category failed;
// the request was fine, the market just had no answer.
var ErrNoQuoteAvailable = errors.New("no quote available in any category")

// Selection is the outcome of comparing both categories for one request.
type Selection struct {
	Mode           quote.Category   `json:"mode"`
	Best           quote.Quote      `json:"best"`
	Recommendation string           `json:"recommendation"`
	Parcel         *AggregateResult `json:"parcel"`
	Transport      *AggregateResult `json:"transport"`
}

// ModeSelector aggregates each category and picks the cheaper of the
// two. A category with no best quote simply cannot win.
type ModeSelector struct {
	agg      *Aggregator
	registry *carrier.Registry
}

func NewModeSelector(agg *Aggregator, registry *carrier.Registry) *ModeSelector {
	return &ModeSelector{agg: agg, registry: registry}
}

// AggregateCategory runs one category's fan-out; exposed for the
// category command surface and history capture.
func (m *ModeSelector) AggregateCategory(ctx context.Context, cat quote.Category, req quote.Request) *AggregateResult {
	return m.agg.Aggregate(ctx, cat, req, m.registry.ByCategory(cat))
}

// Select runs both categories for the same origin/destination and
// returns the cheaper one as the shipping mode.
func (m *ModeSelector) Select(ctx context.Context, req quote.Request) (*Selection, error) {
	parcel := m.AggregateCategory(ctx, quote.CategoryParcel, req)
	transport := m.AggregateCategory(ctx, quote.CategoryTransport, req)

	sel := &Selection{Parcel: parcel, Transport: transport}
	switch {
	case parcel.Best == nil && transport.Best == nil:
		return nil, ErrNoQuoteAvailable
	case transport.Best == nil:
		sel.Mode, sel.Best = quote.CategoryParcel, *parcel.Best
	case parcel.Best == nil:
		sel.Mode, sel.Best = quote.CategoryTransport, *transport.Best
	case transport.Best.Price.LessThan(parcel.Best.Price):
		sel.Mode, sel.Best = quote.CategoryTransport, *transport.Best
	default:
		// Equal prices keep the parcel mode; scheduled networks beat
		// on-demand couriers on predictability.
		sel.Mode, sel.Best = quote.CategoryParcel, *parcel.Best
	}
	sel.Recommendation = recommendation(sel)
	return sel, nil
}

func recommendation(sel *Selection) string {
	transit := "same-day"
	if sel.Best.TransitDays == 1 {
		transit = "1-day transit"
	} else if sel.Best.TransitDays > 1 {
		transit = fmt.Sprintf("%d-day transit", sel.Best.TransitDays)
	}
	return fmt.Sprintf("Ship via %s: %s %s at $%s (%s)",
		sel.Mode, sel.Best.Provider, sel.Best.Service, sel.Best.Price.StringFixed(2), transit)
}
