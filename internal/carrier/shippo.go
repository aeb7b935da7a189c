package carrier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"shipdesk/internal/config"
	"shipdesk/internal/quote"
)

const shippoBaseURL = "https://api.goshippo.com"

// Shippo is a multi-carrier parcel aggregator behind a single token
// header, no token exchange involved. Its rate payloads vary by the
// underlying carrier, so extraction goes through gjson paths instead of
// a rigid response struct.
type Shippo struct {
	cfg        config.ProviderConfig
	baseURL    string
	httpClient *http.Client
}

func NewShippo(cfg config.ProviderConfig) *Shippo {
	base := cfg.BaseURL
	if base == "" {
		base = shippoBaseURL
	}
	return &Shippo{
		cfg:        cfg,
		baseURL:    base,
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
	}
}

func (s *Shippo) Name() string             { return "shippo" }
func (s *Shippo) Category() quote.Category { return quote.CategoryParcel }

func (s *Shippo) headers() map[string]string {
	return map[string]string{"Authorization": "ShippoToken " + s.cfg.APIToken}
}

func (s *Shippo) GetQuotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if !s.cfg.HasCredentials() {
		return mockQuotes(s.Name(), req, []mockService{
			{name: "USPS Priority", baseUSD: 7.80, perLbUSD: 0.50, transitDays: 3},
			{name: "USPS Ground Advantage", baseUSD: 5.90, perLbUSD: 0.40, transitDays: 5},
			{name: "DHL Express", baseUSD: 24.50, perLbUSD: 1.60, transitDays: 2},
		}), nil
	}
	payload := map[string]any{
		"address_from": map[string]any{"zip": req.OriginZip, "country": "US"},
		"address_to":   map[string]any{"zip": req.DestZip, "country": "US"},
		"parcels": []map[string]any{{
			"weight":        fmt.Sprintf("%.2f", req.WeightLb),
			"mass_unit":     "lb",
			"length":        "10",
			"width":         "8",
			"height":        "4",
			"distance_unit": "in",
		}},
		"async": false,
	}
	body, err := postJSONRaw(ctx, s.httpClient, joinURL(s.baseURL, "/shipments/"), s.headers(), payload)
	if err != nil {
		return nil, &NetworkError{Provider: s.Name(), Err: err}
	}
	var quotes []quote.Quote
	gjson.GetBytes(body, "rates").ForEach(func(_, rate gjson.Result) bool {
		amount := rate.Get("amount").String()
		price, perr := decimal.NewFromString(amount)
		if perr != nil {
			return true
		}
		service := rate.Get("servicelevel.name").String()
		carrierName := rate.Get("provider").String()
		if carrierName != "" {
			service = carrierName + " " + service
		}
		quotes = append(quotes, quote.Quote{
			Provider:    s.Name(),
			Service:     service,
			Price:       price,
			TransitDays: int(rate.Get("estimated_days").Int()),
			Currency:    rate.Get("currency").String(),
		})
		return true
	})
	if len(quotes) == 0 {
		return nil, &NetworkError{Provider: s.Name(), Err: fmt.Errorf("shipment returned no rates")}
	}
	return quotes, nil
}

// CreateLabel implements the LabelCreator capability by purchasing the
// cheapest rate matching the requested service.
func (s *Shippo) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	if !s.cfg.HasCredentials() {
		return &Label{
			Provider:       s.Name(),
			TrackingNumber: fmt.Sprintf("SHIPPO-MOCK-%s-%s", req.Origin.Zip, req.Dest.Zip),
			LabelURL:       "https://example.invalid/labels/mock.pdf",
			CreatedAt:      time.Now().UTC(),
		}, nil
	}
	payload := map[string]any{
		"rate":            req.Service,
		"label_file_type": "PDF",
		"async":           false,
	}
	body, err := postJSONRaw(ctx, s.httpClient, joinURL(s.baseURL, "/transactions"), s.headers(), payload)
	if err != nil {
		return nil, &NetworkError{Provider: s.Name(), Err: err}
	}
	if status := gjson.GetBytes(body, "status").String(); status != "SUCCESS" {
		msg := gjson.GetBytes(body, "messages.0.text").String()
		return nil, &NetworkError{Provider: s.Name(), Err: fmt.Errorf("transaction status %s: %s", status, msg)}
	}
	return &Label{
		Provider:       s.Name(),
		TrackingNumber: gjson.GetBytes(body, "tracking_number").String(),
		LabelURL:       gjson.GetBytes(body, "label_url").String(),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Track implements the Tracker capability.
func (s *Shippo) Track(ctx context.Context, trackingNumber string) (*TrackingStatus, error) {
	if !s.cfg.HasCredentials() {
		return &TrackingStatus{
			Provider:       s.Name(),
			TrackingNumber: trackingNumber,
			Status:         "in_transit",
			UpdatedAt:      time.Now().UTC(),
		}, nil
	}
	endpoint := joinURL(s.baseURL, "/tracks/shippo/"+trackingNumber)
	var raw map[string]any
	if err := getJSON(ctx, s.httpClient, endpoint, s.headers(), &raw); err != nil {
		return nil, &NetworkError{Provider: s.Name(), Err: err}
	}
	status := "unknown"
	location := ""
	if ts, ok := raw["tracking_status"].(map[string]any); ok {
		if v, ok := ts["status"].(string); ok {
			status = v
		}
		if loc, ok := ts["location"].(map[string]any); ok {
			if city, ok := loc["city"].(string); ok {
				location = city
			}
		}
	}
	return &TrackingStatus{
		Provider:       s.Name(),
		TrackingNumber: trackingNumber,
		Status:         status,
		Location:       location,
		UpdatedAt:      time.Now().UTC(),
	}, nil
}
