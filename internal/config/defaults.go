package config

import (
	"fmt"
	"strings"
)

const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppHTTPAddr        = ":9980"
	defaultFacilitiesPath     = "configs/facilities.yaml"
	defaultAggregatorTimeout  = 20
	defaultProviderTimeout    = 8
	defaultBreakerThreshold   = 3
	defaultBreakerCooldown    = 60
	defaultMemoryDBPath       = "data/shipdesk.db"
	defaultMemoryWindowCap    = 50
	defaultMemoryHistoryCap   = 10
	defaultProviderAPITimeout = 10
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Providers.applyDefaults(keys)
	c.Facilities.applyDefaults(keys)
	c.Aggregator.applyDefaults(keys)
	c.Memory.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (p *ProvidersConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	if len(p.Parcel) == 0 {
		p.Parcel = defaultParcelProviders()
	}
	if len(p.Transport) == 0 {
		p.Transport = defaultTransportProviders()
	}
	normalizeProviderList(p.Parcel)
	normalizeProviderList(p.Transport)
}

// defaultParcelProviders is the zero-config lineup: every adapter runs
// in mock mode until credentials show up in the config file.
func defaultParcelProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "ups", Sandbox: true},
		{Name: "fedex", Sandbox: true},
		{Name: "shippo", Sandbox: true},
	}
}

func defaultTransportProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "uber", Sandbox: true},
		{Name: "roadie", Sandbox: true},
	}
}

func normalizeProviderList(list []ProviderConfig) {
	for i := range list {
		p := &list[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		if p.Name == "" {
			p.Name = fmt.Sprintf("provider_%d", i)
		}
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = defaultProviderAPITimeout
		}
	}
}

func (f *FacilitiesConfig) applyDefaults(keys keySet) {
	if f == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("facilities.path", &f.Path, defaultFacilitiesPath),
	)
}

func (a *AggregatorConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "aggregator.timeout_seconds",
			need:  func() bool { return a.TimeoutSeconds <= 0 },
			apply: func() { a.TimeoutSeconds = defaultAggregatorTimeout },
		},
		fieldDefault{
			key:   "aggregator.provider_timeout_seconds",
			need:  func() bool { return a.ProviderTimeoutSeconds <= 0 },
			apply: func() { a.ProviderTimeoutSeconds = defaultProviderTimeout },
		},
		fieldDefault{
			key:   "aggregator.breaker_threshold",
			need:  func() bool { return a.BreakerThreshold <= 0 },
			apply: func() { a.BreakerThreshold = defaultBreakerThreshold },
		},
		fieldDefault{
			key:   "aggregator.breaker_cooldown_seconds",
			need:  func() bool { return a.BreakerCooldownSeconds <= 0 },
			apply: func() { a.BreakerCooldownSeconds = defaultBreakerCooldown },
		},
	)
}

func (m *MemoryConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("memory.db_path", &m.DBPath, defaultMemoryDBPath),
		fieldDefault{
			key:   "memory.window_cap",
			need:  func() bool { return m.WindowCap <= 0 },
			apply: func() { m.WindowCap = defaultMemoryWindowCap },
		},
		fieldDefault{
			key:   "memory.history_cap",
			need:  func() bool { return m.HistoryCap <= 0 },
			apply: func() { m.HistoryCap = defaultMemoryHistoryCap },
		},
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
