package quote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category distinguishes the two classes of fulfillment option that
// compete for a shipment: parcel carriers and on-demand transport.
type Category string

const (
	CategoryParcel    Category = "parcel"
	CategoryTransport Category = "transport"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryParcel:
		return CategoryParcel, true
	case CategoryTransport:
		return CategoryTransport, true
	}
	return "", false
}

// Quote is the normalized shape every provider adapter produces.
// Immutable once returned by an adapter.
type Quote struct {
	Provider    string          `json:"provider"`
	Service     string          `json:"service"`
	Price       decimal.Decimal `json:"price"`
	TransitDays int             `json:"transit_days"`
	Currency    string          `json:"currency"`
}

// Options carries the optional knobs a caller may set on a quote request.
type Options struct {
	Residential       bool `json:"residential,omitempty"`
	SignatureRequired bool `json:"signature_required,omitempty"`
}

// Request describes one origin/destination/weight quoting request.
type Request struct {
	OriginZip string  `json:"origin_zip"`
	DestZip   string  `json:"dest_zip"`
	WeightLb  float64 `json:"weight_lb"`
	Options   Options `json:"options,omitempty"`
}

// ErrInvalidRequest marks a request that fails basic shape validation
// (malformed postal code, non-positive weight).
var ErrInvalidRequest = errors.New("invalid quote request")

// Validate checks postal codes and weight before any provider is called.
func (r Request) Validate() error {
	if err := ValidateZip(r.OriginZip); err != nil {
		return fmt.Errorf("%w: origin: %v", ErrInvalidRequest, err)
	}
	if err := ValidateZip(r.DestZip); err != nil {
		return fmt.Errorf("%w: destination: %v", ErrInvalidRequest, err)
	}
	if r.WeightLb <= 0 {
		return fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidRequest, r.WeightLb)
	}
	return nil
}

// ValidateZip accepts 5-digit US postal codes.
func ValidateZip(zip string) error {
	zip = strings.TrimSpace(zip)
	if len(zip) != 5 {
		return fmt.Errorf("postal code %q must be 5 digits", zip)
	}
	for _, r := range zip {
		if r < '0' || r > '9' {
			return fmt.Errorf("postal code %q must be numeric", zip)
		}
	}
	return nil
}
