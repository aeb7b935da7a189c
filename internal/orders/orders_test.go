package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdesk/internal/dispatch"
	"shipdesk/internal/quote"
)

func TestBookPutAndLookup(t *testing.T) {
	b := NewBook()
	order := dispatch.Order{ID: "ord-1", CustomerZip: "10001", WeightLb: 3}
	require.NoError(t, b.Put(order))
	assert.Equal(t, 1, b.Len())

	got, err := b.Order(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order, got)

	_, err = b.Order(context.Background(), "ord-2")
	assert.Error(t, err)
}

func TestBookPutReplaces(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.Put(dispatch.Order{ID: "ord-1", CustomerZip: "10001", WeightLb: 3}))
	require.NoError(t, b.Put(dispatch.Order{ID: "ord-1", CustomerZip: "90210", WeightLb: 5}))

	got, err := b.Order(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "90210", got.CustomerZip)
	assert.Equal(t, 1, b.Len())
}

func TestBookPutValidation(t *testing.T) {
	b := NewBook()
	assert.ErrorIs(t, b.Put(dispatch.Order{CustomerZip: "10001", WeightLb: 1}), quote.ErrInvalidRequest)
	assert.ErrorIs(t, b.Put(dispatch.Order{ID: "x", CustomerZip: "1000", WeightLb: 1}), quote.ErrInvalidRequest)
	assert.ErrorIs(t, b.Put(dispatch.Order{ID: "x", CustomerZip: "10001"}), quote.ErrInvalidRequest)
	assert.Equal(t, 0, b.Len())
}
