package carrier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shipdesk/internal/config"
	"shipdesk/internal/quote"
)

const (
	fedexProductionURL = "https://apis.fedex.com"
	fedexSandboxURL    = "https://apis-sandbox.fedex.com"
)

// FedEx quotes parcel shipments through the FedEx Rates API (OAuth2
// client-credentials, form-encoded token exchange).
type FedEx struct {
	cfg        config.ProviderConfig
	baseURL    string
	httpClient *http.Client
	tokens     tokenCache
}

func NewFedEx(cfg config.ProviderConfig) *FedEx {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Sandbox {
			base = fedexSandboxURL
		} else {
			base = fedexProductionURL
		}
	}
	return &FedEx{
		cfg:        cfg,
		baseURL:    base,
		httpClient: newHTTPClient(cfg.TimeoutSeconds),
	}
}

func (f *FedEx) Name() string             { return "fedex" }
func (f *FedEx) Category() quote.Category { return quote.CategoryParcel }

func (f *FedEx) authenticate(ctx context.Context) (string, error) {
	tok, err := f.tokens.get(ctx, func(ctx context.Context) (string, time.Time, error) {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {f.cfg.ClientID},
			"client_secret": {f.cfg.ClientSecret},
		}
		var resp oauthTokenResponse
		endpoint := joinURL(f.baseURL, "/oauth/token")
		if err := postForm(ctx, f.httpClient, endpoint, form, "", "", &resp); err != nil {
			return "", time.Time{}, err
		}
		if resp.AccessToken == "" {
			return "", time.Time{}, fmt.Errorf("token endpoint returned no access_token")
		}
		return resp.AccessToken, resp.expiryFrom(time.Now()), nil
	})
	if err != nil {
		return "", &AuthError{Provider: f.Name(), Err: err}
	}
	return tok, nil
}

func (f *FedEx) GetQuotes(ctx context.Context, req quote.Request) ([]quote.Quote, error) {
	if !f.cfg.HasCredentials() {
		return mockQuotes(f.Name(), req, []mockService{
			{name: "Ground", baseUSD: 8.90, perLbUSD: 0.60, transitDays: 5},
			{name: "Express Saver", baseUSD: 16.70, perLbUSD: 1.05, transitDays: 3},
			{name: "2Day", baseUSD: 22.60, perLbUSD: 1.35, transitDays: 2},
			{name: "Priority Overnight", baseUSD: 41.20, perLbUSD: 2.35, transitDays: 1},
		}), nil
	}
	token, err := f.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	payload := fedexRateRequest(f.cfg.AccountID, req)
	headers := map[string]string{"Authorization": "Bearer " + token}
	var resp fedexRateResponse
	endpoint := joinURL(f.baseURL, "/rate/v1/rates/quotes")
	if err := postJSON(ctx, f.httpClient, endpoint, headers, payload, &resp); err != nil {
		return nil, &NetworkError{Provider: f.Name(), Err: err}
	}
	quotes := make([]quote.Quote, 0, len(resp.Output.RateReplyDetails))
	for _, detail := range resp.Output.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		charge := detail.RatedShipmentDetails[0]
		quotes = append(quotes, quote.Quote{
			Provider:    f.Name(),
			Service:     fedexServiceName(detail.ServiceType),
			Price:       decimal.NewFromFloat(charge.TotalNetCharge),
			TransitDays: fedexTransitDays(detail.Commit.TransitDays.Description),
			Currency:    charge.Currency,
		})
	}
	if len(quotes) == 0 {
		return nil, &NetworkError{Provider: f.Name(), Err: fmt.Errorf("rates returned no usable services")}
	}
	return quotes, nil
}

// ValidateAddress implements the AddressValidator capability.
func (f *FedEx) ValidateAddress(ctx context.Context, addr Address) (bool, error) {
	if !f.cfg.HasCredentials() {
		return quote.ValidateZip(addr.Zip) == nil, nil
	}
	token, err := f.authenticate(ctx)
	if err != nil {
		return false, err
	}
	payload := map[string]any{
		"addressesToValidate": []map[string]any{{
			"address": map[string]any{
				"streetLines":         []string{addr.Street},
				"city":                addr.City,
				"stateOrProvinceCode": addr.State,
				"postalCode":          addr.Zip,
				"countryCode":         "US",
			},
		}},
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	var resp fedexAddressResponse
	endpoint := joinURL(f.baseURL, "/address/v1/addresses/resolve")
	if err := postJSON(ctx, f.httpClient, endpoint, headers, payload, &resp); err != nil {
		return false, &NetworkError{Provider: f.Name(), Err: err}
	}
	for _, res := range resp.Output.ResolvedAddresses {
		if strings.EqualFold(res.Classification, "UNKNOWN") {
			return false, nil
		}
	}
	return len(resp.Output.ResolvedAddresses) > 0, nil
}

func fedexServiceName(serviceType string) string {
	switch serviceType {
	case "FEDEX_GROUND":
		return "Ground"
	case "FEDEX_EXPRESS_SAVER":
		return "Express Saver"
	case "FEDEX_2_DAY":
		return "2Day"
	case "PRIORITY_OVERNIGHT":
		return "Priority Overnight"
	}
	return serviceType
}

func fedexTransitDays(desc string) int {
	switch strings.ToUpper(strings.TrimSpace(desc)) {
	case "ONE_DAY", "1 BUSINESS DAYS":
		return 1
	case "TWO_DAYS":
		return 2
	case "THREE_DAYS":
		return 3
	case "FOUR_DAYS":
		return 4
	case "FIVE_DAYS":
		return 5
	}
	return 0
}

func fedexRateRequest(accountID string, req quote.Request) map[string]any {
	return map[string]any{
		"accountNumber": map[string]any{"value": accountID},
		"requestedShipment": map[string]any{
			"shipper": map[string]any{
				"address": map[string]any{"postalCode": req.OriginZip, "countryCode": "US"},
			},
			"recipient": map[string]any{
				"address": map[string]any{
					"postalCode":  req.DestZip,
					"countryCode": "US",
					"residential": req.Options.Residential,
				},
			},
			"pickupType":      "DROPOFF_AT_FEDEX_LOCATION",
			"rateRequestType": []string{"ACCOUNT", "LIST"},
			"requestedPackageLineItems": []map[string]any{{
				"weight": map[string]any{"units": "LB", "value": req.WeightLb},
			}},
		},
	}
}

type fedexRateResponse struct {
	Output struct {
		RateReplyDetails []struct {
			ServiceType string `json:"serviceType"`
			Commit      struct {
				TransitDays struct {
					Description string `json:"description"`
				} `json:"transitDays"`
			} `json:"commit"`
			RatedShipmentDetails []struct {
				TotalNetCharge float64 `json:"totalNetCharge"`
				Currency       string  `json:"currency"`
			} `json:"ratedShipmentDetails"`
		} `json:"rateReplyDetails"`
	} `json:"output"`
}

type fedexAddressResponse struct {
	Output struct {
		ResolvedAddresses []struct {
			Classification string `json:"classification"`
		} `json:"resolvedAddresses"`
	} `json:"output"`
}
