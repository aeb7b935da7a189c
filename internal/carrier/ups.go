package carrier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"shipdesk/internal/config"
	"shipdesk/internal/quote"
)

const (
	upsProductionURL = "https://onlinetools.ups.com"
	upsSandboxURL    = "https://wwwcie.ups.com"
)

var upsServiceNames = map[string]string{
	"01": "Next Day Air",
	"02": "2nd Day Air",
	"03": "Ground",
	"12": "3 Day Select",
}

// UPS quotes parcel shipments through the UPS Rating API. Authentication
// is OAuth2 client-credentials; the bearer token lives in this instance's
// tokenCache and nowhere else.
type UPS struct {
	cfg        config.ProviderConfig
	baseURL    string
	httpClient *http.Client
	tokens     tokenCache
}

func NewUPS(cfg config.ProviderConfig) *UPS {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Sandbox {
			base = upsSandboxURL
		} else {
			base = upsProductionURL
		}
	}
	return &UPS{
		cfg:        cfg,
		baseURL:    base,
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
	}
}

func (u *UPS) Name() string             { return "ups" }
func (u *UPS) Category() quote.Category { return quote.CategoryParcel }

func (u *UPS) authenticate(ctx context.Context) (string, error) {
	tok, err := u.tokens.get(ctx, func(ctx context.Context) (string, time.Time, error) {
		form := url.Values{"grant_type": {"client_credentials"}}
		var resp oauthTokenResponse
		endpoint := joinURL(u.baseURL, "/security/v1/oauth/token")
		if err := postForm(ctx, u.httpClient, endpoint, form, u.cfg.ClientID, u.cfg.ClientSecret, &resp); err != nil {
			return "", time.Time{}, err
		}
		if resp.AccessToken == "" {
			return "", time.Time{}, fmt.Errorf("token endpoint returned no access_token")
		}
		return resp.AccessToken, resp.expiryFrom(time.Now()), nil
	})
	if err != nil {
		return "", &AuthError{Provider: u.Name(), Err: err}
	}
	return tok, nil
}

func (u *UPS) GetQuotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if !u.cfg.HasCredentials() {
		return mockQuotes(u.Name(), req, []mockService{
			{name: "Ground", baseUSD: 9.40, perLbUSD: 0.55, transitDays: 5},
			{name: "3 Day Select", baseUSD: 14.10, perLbUSD: 0.85, transitDays: 3},
			{name: "2nd Day Air", baseUSD: 21.30, perLbUSD: 1.25, transitDays: 2},
			{name: "Next Day Air", baseUSD: 38.90, perLbUSD: 2.10, transitDays: 1},
		}), nil
	}
	token, err := u.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	payload := upsRateRequest(u.cfg.AccountID, req)
	headers := map[string]string{"Authorization": "Bearer " + token}
	var resp upsRateResponse
	endpoint := joinURL(u.baseURL, "/api/rating/v2409/Shop")
	if err := postJSON(ctx, u.httpClient, endpoint, headers, payload, &resp); err != nil {
		return nil, &NetworkError{Provider: u.Name(), Err: err}
	}
	quotes := make([]quote.Quote, 0, len(resp.RateResponse.RatedShipment))
	for _, rs := range resp.RateResponse.RatedShipment {
		price, err := decimal.NewFromString(rs.TotalCharges.MonetaryValue)
		if err != nil {
			continue
		}
		name := upsServiceNames[rs.Service.Code]
		if name == "" {
			name = "Service " + rs.Service.Code
		}
		days, _ := strconv.Atoi(rs.GuaranteedDelivery.BusinessDaysInTransit)
		quotes = append(quotes, quote.Quote{
			Provider:    u.Name(),
			Service:     name,
			Price:       price,
			TransitDays: days,
			Currency:    rs.TotalCharges.CurrencyCode,
		})
	}
	if len(quotes) == 0 {
		return nil, &NetworkError{Provider: u.Name(), Err: fmt.Errorf("rating returned no usable shipments")}
	}
	return quotes, nil
}

// Track implements the Tracker capability.
func (u *UPS) Track(ctx context.Context, trackingNumber string) (*TrackingStatus, error) {
	if !u.cfg.HasCredentials() {
		return &TrackingStatus{
			Provider:       u.Name(),
			TrackingNumber: trackingNumber,
			Status:         "in_transit",
			UpdatedAt:      time.Now().UTC(),
		}, nil
	}
	token, err := u.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	var resp upsTrackResponse
	endpoint := joinURL(u.baseURL, "/api/track/v1/details/"+url.PathEscape(trackingNumber))
	if err := getJSON(ctx, u.httpClient, endpoint, headers, &resp); err != nil {
		return nil, &NetworkError{Provider: u.Name(), Err: err}
	}
	status := "unknown"
	location := ""
	for _, shp := range resp.TrackResponse.Shipment {
		for _, pkg := range shp.Package {
			if len(pkg.Activity) == 0 {
				continue
			}
			latest := pkg.Activity[0]
			status = latest.Status.Description
			location = latest.Location.Address.City
		}
	}
	return &TrackingStatus{
		Provider:       u.Name(),
		TrackingNumber: trackingNumber,
		Status:         status,
		Location:       location,
		UpdatedAt:      time.Now().UTC(),
	}, nil
}

func upsRateRequest(accountID string, req quote.Request) map[string]any {
	shipment := map[string]any{
		"Shipper": map[string]any{
			"ShipperNumber": accountID,
			"Address":       map[string]any{"PostalCode": req.OriginZip, "CountryCode": "US"},
		},
		"ShipTo": map[string]any{
			"Address": map[string]any{"PostalCode": req.DestZip, "CountryCode": "US"},
		},
		"Package": []map[string]any{{
			"PackagingType": map[string]any{"Code": "02"},
			"PackageWeight": map[string]any{
				"UnitOfMeasurement": map[string]any{"Code": "LBS"},
				"Weight":            strconv.FormatFloat(req.WeightLb, 'f', 1, 64),
			},
		}},
	}
	return map[string]any{
		"RateRequest": map[string]any{
			"Request":  map[string]any{"RequestOption": "Shop"},
			"Shipment": shipment,
		},
	}
}

type upsRateResponse struct {
	RateResponse struct {
		RatedShipment []struct {
			Service struct {
				Code string `json:"Code"`
			} `json:"Service"`
			TotalCharges struct {
				CurrencyCode  string `json:"CurrencyCode"`
				MonetaryValue string `json:"MonetaryValue"`
			} `json:"TotalCharges"`
			GuaranteedDelivery struct {
				BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
			} `json:"GuaranteedDelivery"`
		} `json:"RatedShipment"`
	} `json:"RateResponse"`
}

type upsTrackResponse struct {
	TrackResponse struct {
		Shipment []struct {
			Package []struct {
				Activity []struct {
					Status struct {
						Description string `json:"description"`
					} `json:"status"`
					Location struct {
						Address struct {
							City string `json:"city"`
						} `json:"address"`
					} `json:"location"`
				} `json:"activity"`
			} `json:"package"`
		} `json:"shipment"`
	} `json:"trackResponse"`
}
