package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"shipdesk/internal/dispatch"
)

// RecordRoute implements dispatch.DecisionStore.
func (s *Store) RecordRoute(ctx context.Context, d *dispatch.RouteDecision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding route decision: %w", err)
	}
	_, err = s.Record(ctx, KindRoute, Record{
		ID:       d.ID,
		Provider: d.Provider,
		Service:  d.Service,
		Price:    d.Price,
		Summary:  d.Recommendation,
		Payload:  payload,
	})
	return err
}

// RecordOrder implements dispatch.DecisionStore.
func (s *Store) RecordOrder(ctx context.Context, order dispatch.Order, d *dispatch.RouteDecision) error {
	payload, err := json.Marshal(struct {
		Order    dispatch.Order `json:"order"`
		Decision string         `json:"decision_id"`
	}{Order: order, Decision: d.ID})
	if err != nil {
		return fmt.Errorf("encoding order record: %w", err)
	}
	_, err = s.Record(ctx, KindOrder, Record{
		Provider: d.Provider,
		Service:  d.Service,
		Price:    d.Price,
		Summary:  fmt.Sprintf("order %s assigned to %s via %s", order.ID, d.Facility.Name, d.Provider),
		Payload:  payload,
	})
	return err
}

var _ dispatch.DecisionStore = (*Store)(nil)
