package carrier

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/shopspring/decimal"

	"shipdesk/internal/quote"
)

// mockService describes one service tier of a credential-less adapter.
type mockService struct {
	name        string
	baseUSD     float64
	perLbUSD    float64
	transitDays int
}

// mockQuotes produces a deterministic quote set for adapters running
// without credentials. Prices are a pure function of the request and
// provider name, so repeated calls (and tests) always see the same
// numbers. No network involved.
func mockQuotes(provider string, req quote.Request, services []mockService) []quote.Quote {
	distFee := mockDistanceFee(req.OriginZip, req.DestZip)
	weight := decimal.NewFromFloat(req.WeightLb)
	out := make([]quote.Quote, 0, len(services))
	for _, svc := range services {
		price := decimal.NewFromFloat(svc.baseUSD).
			Add(decimal.NewFromFloat(svc.perLbUSD).Mul(weight)).
			Add(distFee).
			Add(mockJitter(provider, svc.name, req))
		if req.Options.SignatureRequired {
			price = price.Add(decimal.NewFromFloat(3.50))
		}
		out = append(out, quote.Quote{
			Provider:    provider,
			Service:     svc.name,
			Price:       price.Round(2),
			TransitDays: svc.transitDays,
			Currency:    "USD",
		})
	}
	return out
}

// mockDistanceFee scales with the numeric zip spread, capped so
// cross-country requests stay plausible.
func mockDistanceFee(originZip, destZip string) decimal.Decimal {
	a, _ := strconv.Atoi(originZip)
	b, _ := strconv.Atoi(destZip)
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff > 25000 {
		diff = 25000
	}
	return decimal.NewFromInt(int64(diff)).Div(decimal.NewFromInt(2500)).Round(2)
}

// mockJitter spreads prices between providers without randomness:
// an FNV hash of the inputs mapped onto [0.00, 2.00).
func mockJitter(provider, service string, req quote.Request) decimal.Decimal {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%.2f", provider, service, req.OriginZip, req.DestZip, req.WeightLb)
	cents := int64(h.Sum64() % 200)
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
