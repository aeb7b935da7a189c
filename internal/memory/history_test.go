package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdesk/internal/dispatch"
	"shipdesk/internal/quote"
)

func historyEntry(id string) dispatch.HistoryEntry {
	return dispatch.HistoryEntry{
		ID:      id,
		Request: quote.Request{OriginZip: "07102", DestZip: "10001", WeightLb: 1},
	}
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	h, err := NewHistory(nil, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		err := h.Append(context.Background(), quote.CategoryParcel, historyEntry(fmt.Sprintf("e%d", i)))
		require.NoError(t, err)
	}

	got := h.All(quote.CategoryParcel)
	require.Len(t, got, 3)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e4", got[2].ID)
}

func TestHistoryCategoriesAreIndependent(t *testing.T) {
	h, err := NewHistory(nil, 2)
	require.NoError(t, err)

	require.NoError(t, h.Append(context.Background(), quote.CategoryParcel, historyEntry("p1")))
	require.NoError(t, h.Append(context.Background(), quote.CategoryTransport, historyEntry("t1")))

	assert.Len(t, h.All(quote.CategoryParcel), 1)
	assert.Len(t, h.All(quote.CategoryTransport), 1)
	assert.Equal(t, "t1", h.All(quote.CategoryTransport)[0].ID)
}

func TestHistoryRejectsUnknownCategory(t *testing.T) {
	h, err := NewHistory(nil, 2)
	require.NoError(t, err)
	assert.Error(t, h.Append(context.Background(), quote.Category("freight"), historyEntry("x")))
}

func TestHistoryRejectsNonPositiveCap(t *testing.T) {
	_, err := NewHistory(nil, 0)
	assert.Error(t, err)
}

func TestHistoryAllReturnsCopy(t *testing.T) {
	h, err := NewHistory(nil, 5)
	require.NoError(t, err)
	require.NoError(t, h.Append(context.Background(), quote.CategoryParcel, historyEntry("p1")))

	got := h.All(quote.CategoryParcel)
	got[0].ID = "mutated"
	assert.Equal(t, "p1", h.All(quote.CategoryParcel)[0].ID)
}
