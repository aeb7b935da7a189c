package config

import "strings"

// Config is the top-level configuration for shipdesk.
type Config struct {
	App        AppConfig        `toml:"app"`
	Providers  ProvidersConfig  `toml:"providers"`
	Facilities FacilitiesConfig `toml:"facilities"`
	Aggregator AggregatorConfig `toml:"aggregator"`
	Memory     MemoryConfig     `toml:"memory"`
	Notify     NotifyConfig     `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

/// ProvidersConfig lists the adapters per category. Order matters: the
// aggregator breaks price ties by position in these lists.
type ProvidersConfig struct {
	Parcel    []ProviderConfig `toml:"parcel"`
	Transport []ProviderConfig `toml:"transport"`
}

// ProviderConfig describes one adapter instance. Credential fields are
// optional; an adapter with no credentials serves deterministic mock
// quotes instead of calling out.
type ProviderConfig struct {
	Name           string `toml:"name"`
	Disabled       bool   `toml:"disabled"`
	BaseURL        string `toml:"base_url"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	APIToken       string `toml:"api_token"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	AccountID      string `toml:"account_id"`
	Sandbox        bool   `toml:"sandbox"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HasCredentials reports whether any credential material is configured.
func (p ProviderConfig) HasCredentials() bool {
	return strings.TrimSpace(p.ClientID) != "" ||
		strings.TrimSpace(p.APIToken) != "" ||
		strings.TrimSpace(p.Username) != ""
}

type FacilitiesConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// AggregatorConfig bounds the quote fan-out. The overall deadline caps
// one aggregate() call; the per-provider timeout keeps a single slow
// provider from eating the whole budget.
type AggregatorConfig struct {
	TimeoutSeconds         int `toml:"timeout_seconds"`
	ProviderTimeoutSeconds int `toml:"provider_timeout_seconds"`
	BreakerThreshold       int `toml:"breaker_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

type MemoryConfig struct {
	DBPath     string `toml:"db_path"`
	WindowCap  int    `toml:"window_cap"`
	HistoryCap int    `toml:"history_cap"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// keySet tracks the field paths explicitly present in config files so
// defaults never stomp an explicit zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
