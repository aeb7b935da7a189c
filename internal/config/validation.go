package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Providers.validate(); err != nil {
		return err
	}
	if err := c.Aggregator.validate(); err != nil {
		return err
	}
	if err := c.Memory.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (p *ProvidersConfig) validate() error {
	if len(p.Parcel) == 0 && len(p.Transport) == 0 {
		return fmt.Errorf("providers requires at least one adapter in parcel or transport")
	}
	if err := validateProviderList("providers.parcel", p.Parcel); err != nil {
		return err
	}
	return validateProviderList("providers.transport", p.Transport)
}

func validateProviderList(section string, list []ProviderConfig) error {
	seen := make(map[string]struct{}, len(list))
	for _, prov := range list {
		name := strings.TrimSpace(prov.Name)
		if name == "" {
			return fmt.Errorf("%s contains an entry without a name", section)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%s contains duplicate provider %q", section, name)
		}
		seen[name] = struct{}{}
		// OAuth-style adapters need the secret alongside the id.
		if strings.TrimSpace(prov.ClientID) != "" && strings.TrimSpace(prov.ClientSecret) == "" {
			return fmt.Errorf("%s.%s has client_id without client_secret", section, name)
		}
		if strings.TrimSpace(prov.Username) != "" && strings.TrimSpace(prov.Password) == "" {
			return fmt.Errorf("%s.%s has username without password", section, name)
		}
	}
	return nil
}

func (a *AggregatorConfig) validate() error {
	if a.TimeoutSeconds <= 0 {
		return fmt.Errorf("aggregator.timeout_seconds must be > 0")
	}
	if a.ProviderTimeoutSeconds <= 0 {
		return fmt.Errorf("aggregator.provider_timeout_seconds must be > 0")
	}
	if a.ProviderTimeoutSeconds > a.TimeoutSeconds {
		return fmt.Errorf("aggregator.provider_timeout_seconds cannot exceed aggregator.timeout_seconds")
	}
	return nil
}

func (m *MemoryConfig) validate() error {
	if strings.TrimSpace(m.DBPath) == "" {
		return fmt.Errorf("memory.db_path cannot be empty")
	}
	if m.WindowCap <= 0 {
		return fmt.Errorf("memory.window_cap must be > 0")
	}
	if m.HistoryCap <= 0 {
		return fmt.Errorf("memory.history_cap must be > 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if !tg.Enabled {
		return nil
	}
	if strings.TrimSpace(tg.BotToken) == "" {
		return fmt.Errorf("notify.telegram.bot_token cannot be empty when enabled")
	}
	if strings.TrimSpace(tg.ChatID) == "" {
		return fmt.Errorf("notify.telegram.chat_id cannot be empty when enabled")
	}
	return nil
}
