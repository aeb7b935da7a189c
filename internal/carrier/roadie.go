package carrier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"shipdesk/internal/config"
	"shipdesk/internal/quote"
)

const roadieBaseURL = "https://connect.roadie.com"

// Roadie quotes same-day crowdsourced delivery. Plain HTTP Basic auth,
// no token lifecycle to manage.
type Roadie struct {
	cfg        config.ProviderConfig
	baseURL    string
	httpClient *http.Client
}

func NewRoadie(cfg config.ProviderConfig) *Roadie {
	base := cfg.BaseURL
	if base == "" {
		base = roadieBaseURL
	}
	return &Roadie{
		cfg:        cfg,
		baseURL:    base,
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
	}
}

func (r *Roadie) Name() string             { return "roadie" }
func (r *Roadie) Category() quote.Category { return quote.CategoryTransport }

func (r *Roadie) GetQuotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if !r.cfg.HasCredentials() {
		return mockQuotes(r.Name(), req, []mockService{
			{name: "Same-Day Local", baseUSD: 14.00, perLbUSD: 0.25, transitDays: 0},
			{name: "Next-Day Local", baseUSD: 10.50, perLbUSD: 0.20, transitDays: 1},
		}), nil
	}
	payload := map[string]any{
		"pickup_location":   map[string]any{"address": map[string]any{"zip": req.OriginZip}},
		"delivery_location": map[string]any{"address": map[string]any{"zip": req.DestZip}},
		"items": []map[string]any{{
			"weight":   req.WeightLb,
			"quantity": 1,
		}},
	}
	return r.estimate(ctx, payload)
}

func (r *Roadie) estimate(ctx context.Context, payload map[string]any) ([]quote.Quote, error) {
	httpReq, err := buildBasicAuthJSON(ctx, joinURL(r.baseURL, "/v1/estimates"), r.cfg.Username, r.cfg.Password, payload)
	if err != nil {
		return nil, &NetworkError{Provider: r.Name(), Err: err}
	}
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Provider: r.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Provider: r.Name(), Err: fmt.Errorf("basic auth rejected: %s", resp.Status)}
	}
	if resp.StatusCode >= 300 {
		return nil, &NetworkError{Provider: r.Name(), Err: httpStatusError(resp)}
	}
	var out roadieEstimateResponse
	if err := decodeJSONBody(resp, &out); err != nil {
		return nil, &NetworkError{Provider: r.Name(), Err: err}
	}
	price := decimal.NewFromFloat(out.Price)
	return []quote.Quote{{
		Provider:    r.Name(),
		Service:     "Same-Day Local",
		Price:       price,
		TransitDays: 0,
		Currency:    "USD",
	}}, nil
}

type roadieEstimateResponse struct {
	Price    float64 `json:"price"`
	Size     string  `json:"size"`
	Distance float64 `json:"estimated_distance"`
}
