package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdesk/internal/carrier"
	"shipdesk/internal/facility"
	"shipdesk/internal/quote"
)

type recordingStore struct {
	routes   []*RouteDecision
	orders   []Order
	routeErr error
}

func (s *recordingStore) RecordRoute(_ context.Context, d *RouteDecision) error {
	if s.routeErr != nil {
		return s.routeErr
	}
	s.routes = append(s.routes, d)
	return nil
}

func (s *recordingStore) RecordOrder(_ context.Context, order Order, _ *RouteDecision) error {
	s.orders = append(s.orders, order)
	return nil
}

type recordingSink struct {
	entries map[quote.Category][]HistoryEntry
}

func (s *recordingSink) Append(_ context.Context, cat quote.Category, entry HistoryEntry) error {
	if s.entries == nil {
		s.entries = make(map[quote.Category][]HistoryEntry)
	}
	s.entries[cat] = append(s.entries[cat], entry)
	return nil
}

type mapOrders map[string]Order

func (m mapOrders) Order(_ context.Context, id string) (Order, error) {
	o, ok := m[id]
	if !ok {
		return Order{}, fmt.Errorf("no such order")
	}
	return o, nil
}

func testOrchestrator(store DecisionStore, sink HistorySink, orders OrderSource) *Orchestrator {
	dir := facility.NewDirectory([]facility.Facility{
		{Name: "Newark DC", Zip: "07102"},
		{Name: "Reno DC", Zip: "89502"},
	})
	parcel := []carrier.Adapter{
		&fakeAdapter{name: "ups", cat: quote.CategoryParcel, quotes: []quote.Quote{parcelQuote("ups", "Ground", "9.10")}},
	}
	transport := []carrier.Adapter{
		&fakeAdapter{name: "uber", cat: quote.CategoryTransport, quotes: []quote.Quote{parcelQuote("uber", "On-Demand Courier", "18.00")}},
	}
	registry := carrier.NewStaticRegistry(parcel, transport)
	selector := NewModeSelector(NewAggregator(aggCfg()), registry)
	return NewOrchestrator(facility.NewLocator(dir, nil), selector, registry, store, sink, orders)
}

func TestRouteRecordsDecisionAndHistory(t *testing.T) {
	store := &recordingStore{}
	sink := &recordingSink{}
	orch := testOrchestrator(store, sink, nil)

	decision, err := orch.Route(context.Background(), "10001", 2.5)
	require.NoError(t, err)

	assert.NotEmpty(t, decision.ID)
	assert.Equal(t, "Newark DC", decision.Facility.Name)
	assert.Equal(t, quote.CategoryParcel, decision.Category)
	assert.Equal(t, "ups", decision.Provider)
	assert.False(t, decision.CreatedAt.IsZero())

	require.Len(t, store.routes, 1)
	assert.Equal(t, decision.ID, store.routes[0].ID)
	// Both category fan-outs land in their history logs.
	assert.Len(t, sink.entries[quote.CategoryParcel], 1)
	assert.Len(t, sink.entries[quote.CategoryTransport], 1)
}

func TestRouteSurvivesStoreFailure(t *testing.T) {
	store := &recordingStore{routeErr: errors.New("disk full")}
	orch := testOrchestrator(store, &recordingSink{}, nil)

	decision, err := orch.Route(context.Background(), "10001", 2.5)
	require.NoError(t, err)
	assert.NotNil(t, decision)
	assert.Empty(t, store.routes)
}

func TestRouteRejectsBadInput(t *testing.T) {
	orch := testOrchestrator(&recordingStore{}, nil, nil)

	_, err := orch.Route(context.Background(), "1000", 2.5)
	assert.ErrorIs(t, err, quote.ErrInvalidRequest)

	_, err = orch.Route(context.Background(), "10001", 0)
	assert.ErrorIs(t, err, quote.ErrInvalidRequest)
}

func TestRouteNoFacilities(t *testing.T) {
	registry := carrier.NewStaticRegistry(nil, nil)
	selector := NewModeSelector(NewAggregator(aggCfg()), registry)
	locator := facility.NewLocator(facility.NewDirectory(nil), nil)
	orch := NewOrchestrator(locator, selector, registry, nil, nil, nil)

	_, err := orch.Route(context.Background(), "10001", 1)
	assert.ErrorIs(t, err, facility.ErrNoFacilityConfigured)
}

func TestAssignOrder(t *testing.T) {
	store := &recordingStore{}
	orders := mapOrders{"ord-7": {ID: "ord-7", CustomerZip: "89501", WeightLb: 4}}
	orch := testOrchestrator(store, nil, orders)

	decision, err := orch.AssignOrder(context.Background(), "ord-7")
	require.NoError(t, err)
	assert.Equal(t, "Reno DC", decision.Facility.Name)
	require.Len(t, store.orders, 1)
	assert.Equal(t, "ord-7", store.orders[0].ID)
}

func TestAssignOrderUnknown(t *testing.T) {
	orch := testOrchestrator(&recordingStore{}, nil, mapOrders{})
	_, err := orch.AssignOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestAssignOrderNoSource(t *testing.T) {
	orch := testOrchestrator(&recordingStore{}, nil, nil)
	_, err := orch.AssignOrder(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestQuoteCategoryValidatesAndLogs(t *testing.T) {
	sink := &recordingSink{}
	orch := testOrchestrator(&recordingStore{}, sink, nil)

	result, err := orch.QuoteCategory(context.Background(), quote.CategoryParcel, testReq)
	require.NoError(t, err)
	assert.NotNil(t, result.Best)
	assert.Len(t, sink.entries[quote.CategoryParcel], 1)

	_, err = orch.QuoteCategory(context.Background(), quote.CategoryParcel, quote.Request{OriginZip: "x", DestZip: "10001", WeightLb: 1})
	assert.ErrorIs(t, err, quote.ErrInvalidRequest)
}

func TestTrackUnknownProvider(t *testing.T) {
	orch := testOrchestrator(&recordingStore{}, nil, nil)
	_, err := orch.Track(context.Background(), "nobody", "1Z999")
	assert.ErrorIs(t, err, carrier.ErrUnknownProvider)
}

func TestTrackUnsupportedAdapter(t *testing.T) {
	orch := testOrchestrator(&recordingStore{}, nil, nil)
	// fakeAdapter implements no Tracker capability.
	_, err := orch.Track(context.Background(), "ups", "1Z999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support tracking")
}
