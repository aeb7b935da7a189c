package carrier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdesk/internal/config"
	"shipdesk/internal/quote"
)

func TestNewRegistryPreservesConfigOrder(t *testing.T) {
	cfg := config.ProvidersConfig{
		Parcel: []config.ProviderConfig{
			{Name: "shippo"},
			{Name: "ups"},
			{Name: "fedex"},
		},
		Transport: []config.ProviderConfig{
			{Name: "roadie"},
			{Name: "uber"},
		},
	}
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	parcel := reg.ByCategory(quote.CategoryParcel)
	require.Len(t, parcel, 3)
	assert.Equal(t, "shippo", parcel[0].Name())
	assert.Equal(t, "ups", parcel[1].Name())
	assert.Equal(t, "fedex", parcel[2].Name())

	transport := reg.ByCategory(quote.CategoryTransport)
	require.Len(t, transport, 2)
	assert.Equal(t, "roadie", transport[0].Name())
}

func TestNewRegistrySkipsDisabled(t *testing.T) {
	cfg := config.ProvidersConfig{
		Parcel: []config.ProviderConfig{
			{Name: "ups", Disabled: true},
			{Name: "fedex"},
		},
	}
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)
	parcel := reg.ByCategory(quote.CategoryParcel)
	require.Len(t, parcel, 1)
	assert.Equal(t, "fedex", parcel[0].Name())
}

func TestNewRegistryUnknownName(t *testing.T) {
	cfg := config.ProvidersConfig{
		Parcel: []config.ProviderConfig{{Name: "dhl"}},
	}
	_, err := NewRegistry(cfg)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistryLookup(t *testing.T) {
	cfg := config.ProvidersConfig{
		Parcel:    []config.ProviderConfig{{Name: "ups"}},
		Transport: []config.ProviderConfig{{Name: "uber"}},
	}
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	a, err := reg.Lookup("uber")
	require.NoError(t, err)
	assert.Equal(t, quote.CategoryTransport, a.Category())

	_, err = reg.Lookup("usps")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCredentiallessAdaptersQuoteOffline(t *testing.T) {
	cfg := config.ProvidersConfig{
		Parcel:    []config.ProviderConfig{{Name: "ups"}, {Name: "fedex"}, {Name: "shippo"}},
		Transport: []config.ProviderConfig{{Name: "uber"}, {Name: "roadie"}},
	}
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)

	req := quote.Request{OriginZip: "07102", DestZip: "30301", WeightLb: 5}
	for _, cat := range []quote.Category{quote.CategoryParcel, quote.CategoryTransport} {
		for _, a := range reg.ByCategory(cat) {
			quotes, err := a.GetQuotes(context.Background(), req)
			require.NoError(t, err, "adapter %s", a.Name())
			assert.NotEmpty(t, quotes, "adapter %s", a.Name())
			for _, q := range quotes {
				assert.Equal(t, a.Name(), q.Provider)
				assert.True(t, q.Price.IsPositive())
			}
		}
	}
}
