package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, cap int) *Store {
	t.Helper()
	s, err := NewStore(nil, cap)
	require.NoError(t, err)
	return s
}

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStoreWindowCap(t *testing.T) {
	s := newTestStore(t, 5)
	for i := 0; i < 12; i++ {
		_, err := s.Record(context.Background(), KindObservation, Record{
			Summary: fmt.Sprintf("obs %d", i),
		})
		require.NoError(t, err)
	}

	recent := s.Recent(KindObservation, 0)
	require.Len(t, recent, 5)
	// Most recent first: the survivors are exactly the last five writes.
	assert.Equal(t, "obs 11", recent[0].Summary)
	assert.Equal(t, "obs 7", recent[4].Summary)
}

func TestStoreRecentIsIdempotent(t *testing.T) {
	s := newTestStore(t, 10)
	for i := 0; i < 3; i++ {
		_, err := s.Record(context.Background(), KindRoute, Record{Summary: fmt.Sprintf("r%d", i)})
		require.NoError(t, err)
	}
	first := s.Recent(KindRoute, 2)
	second := s.Recent(KindRoute, 2)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "r2", first[0].Summary)
}

func TestStoreRecordFillsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t, 10)
	rec, err := s.Record(context.Background(), KindOrder, Record{Summary: "order"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, KindOrder, rec.Kind)
}

func TestStoreRejectsUnknownKind(t *testing.T) {
	s := newTestStore(t, 10)
	_, err := s.Record(context.Background(), Kind("bogus"), Record{})
	assert.Error(t, err)
	assert.Error(t, s.Clear(context.Background(), Kind("bogus")))
}

func TestAnalyticsDeliveryStats(t *testing.T) {
	s := newTestStore(t, 10)
	deliveries := []Record{
		{Provider: "ups", Service: "Ground", Price: price("10.00")},
		{Provider: "ups", Service: "Ground", Price: price("14.00")},
		{Provider: "uber", Service: "On-Demand Courier", Price: price("30.00")},
	}
	for _, rec := range deliveries {
		_, err := s.Record(context.Background(), KindDelivery, rec)
		require.NoError(t, err)
	}
	_, err := s.Record(context.Background(), KindOrder, Record{Summary: "order"})
	require.NoError(t, err)

	got := s.Analytics()
	assert.Equal(t, 1, got.TotalOrders)
	assert.Equal(t, 3, got.TotalDeliveries)
	assert.Equal(t, 0, got.TotalRoutes)
	assert.True(t, got.AvgDeliveryPrice.Equal(price("18")), "avg %s", got.AvgDeliveryPrice)
	assert.Equal(t, "Ground", got.MostUsedProvider)
}

func TestAnalyticsReflectsEviction(t *testing.T) {
	s := newTestStore(t, 2)
	for _, p := range []string{"10.00", "20.00", "30.00"} {
		_, err := s.Record(context.Background(), KindDelivery, Record{Service: "Ground", Price: price(p)})
		require.NoError(t, err)
	}
	got := s.Analytics()
	assert.Equal(t, 2, got.TotalDeliveries)
	// Average covers only the surviving window (20 and 30).
	assert.True(t, got.AvgDeliveryPrice.Equal(price("25")), "avg %s", got.AvgDeliveryPrice)
}

func TestClearResetsDerivedStats(t *testing.T) {
	s := newTestStore(t, 10)
	_, err := s.Record(context.Background(), KindDelivery, Record{Service: "Ground", Price: price("12.00")})
	require.NoError(t, err)

	require.NoError(t, s.Clear(context.Background(), KindDelivery))
	got := s.Analytics()
	assert.Equal(t, 0, got.TotalDeliveries)
	assert.True(t, got.AvgDeliveryPrice.IsZero())
	assert.Empty(t, got.MostUsedProvider)
	assert.Empty(t, s.Recent(KindDelivery, 0))
}

type panicObserver struct{ calls int }

func (o *panicObserver) RecordStored(Kind, Record) {
	o.calls++
	panic("observer bug")
}

type countObserver struct {
	kinds []Kind
}

func (o *countObserver) RecordStored(kind Kind, _ Record) {
	o.kinds = append(o.kinds, kind)
}

func TestObserverPanicDoesNotFailWrite(t *testing.T) {
	s := newTestStore(t, 10)
	bad := &panicObserver{}
	good := &countObserver{}
	s.RegisterObserver(bad)
	s.RegisterObserver(good)

	_, err := s.Record(context.Background(), KindRoute, Record{Summary: "r"})
	require.NoError(t, err)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, []Kind{KindRoute}, good.kinds)
	assert.Len(t, s.Recent(KindRoute, 0), 1)
}

func TestStoreNotDegradedWithoutDB(t *testing.T) {
	s := newTestStore(t, 10)
	_, err := s.Record(context.Background(), KindObservation, Record{})
	require.NoError(t, err)
	assert.False(t, s.Degraded())
}
