package carrier

import (
	"context"
	"time"

	"shipdesk/internal/quote"
)

// Adapter normalizes one external quoting/shipping API to the core
// Quote contract. Implementations own their credentials and token state;
// nothing is shared between adapter instances.
type Adapter interface {
	Name() string
	Category() quote.Category
	GetQuotes(ctx context.Context, req quote.Request) ([]quote.Quote, error)
}

// LabelCreator is implemented by adapters that can purchase labels.
type LabelCreator interface {
	CreateLabel(ctx context.Context, req LabelRequest) (*Label, error)
}

// Tracker is implemented by adapters that can track shipments.
type Tracker interface {
	Track(ctx context.Context, trackingNumber string) (*TrackingStatus, error)
}

// AddressValidator is implemented by adapters that can verify a
// destination address before quoting.
type AddressValidator interface {
	ValidateAddress(ctx context.Context, addr Address) (bool, error)
}

// Address is the minimal destination shape adapters agree on.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// LabelRequest asks an adapter to purchase a label for a previously
// quoted service.
type LabelRequest struct {
	Service  string        `json:"service"`
	Origin   Address       `json:"origin"`
	Dest     Address       `json:"dest"`
	WeightLb float64       `json:"weight_lb"`
	Options  quote.Options `json:"options,omitempty"`
}

// Label is the normalized label-purchase result.
type Label struct {
	Provider       string    `json:"provider"`
	TrackingNumber string    `json:"tracking_number"`
	LabelURL       string    `json:"label_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// TrackingStatus is the normalized tracking snapshot.
type TrackingStatus struct {
	Provider       string    `json:"provider"`
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	Location       string    `json:"location,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
