package carrier

import (
	"errors"
	"fmt"

	"shipdesk/internal/config"
	"shipdesk/internal/logger"
	"shipdesk/internal/quote"
)

// ErrUnknownProvider means a provider name was requested that no
// configured adapter answers to.
var ErrUnknownProvider = errors.New("unknown provider")

type constructor func(config.ProviderConfig) Adapter

var parcelConstructors = map[string]constructor{
	"ups":    func(cfg config.ProviderConfig) Adapter { return NewUPS(cfg) },
	"fedex":  func(cfg config.ProviderConfig) Adapter { return NewFedEx(cfg) },
	"shippo": func(cfg config.ProviderConfig) Adapter { return NewShippo(cfg) },
}

var transportConstructors = map[string]constructor{
	"uber":   func(cfg config.ProviderConfig) Adapter { return NewUber(cfg) },
	"roadie": func(cfg config.ProviderConfig) Adapter { return NewRoadie(cfg) },
}

// Registry holds the configured adapters per category, preserving the
// config file's ordering (the aggregator's tie-break depends on it).
type Registry struct {
	parcel    []Adapter
	transport []Adapter
}

// NewRegistry builds every enabled adapter from configuration. A name
// with no constructor is a configuration error, not a silent skip.
func NewRegistry(cfg config.ProvidersConfig) (*Registry, error) {
	parcel, err := buildList(cfg.Parcel, parcelConstructors, "providers.parcel")
	if err != nil {
		return nil, err
	}
	transport, err := buildList(cfg.Transport, transportConstructors, "providers.transport")
	if err != nil {
		return nil, err
	}
	return &Registry{parcel: parcel, transport: transport}, nil
}

// NewStaticRegistry wraps pre-built adapters, keeping slice order as
// the tie-break order.
func NewStaticRegistry(parcel, transport []Adapter) *Registry {
	return &Registry{parcel: parcel, transport: transport}
}

func buildList(list []config.ProviderConfig, ctors map[string]constructor, section string) ([]Adapter, error) {
	out := make([]Adapter, 0, len(list))
	for _, pc := range list {
		if pc.Disabled {
			continue
		}
		ctor, ok := ctors[pc.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrUnknownProvider, pc.Name, section)
		}
		a := ctor(pc)
		if !pc.HasCredentials() {
			logger.Infof("provider %s has no credentials, serving mock quotes", a.Name())
		}
		out = append(out, a)
	}
	return out, nil
}

// ByCategory returns the ordered adapter list for a category.
func (r *Registry) ByCategory(cat quote.Category) []Adapter {
	switch cat {
	case quote.CategoryParcel:
		return r.parcel
	case quote.CategoryTransport:
		return r.transport
	}
	return nil
}

// Lookup finds one adapter by name across both categories.
func (r *Registry) Lookup(name string) (Adapter, error) {
	for _, a := range r.parcel {
		if a.Name() == name {
			return a, nil
		}
	}
	for _, a := range r.transport {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}
