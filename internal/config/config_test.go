package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "app:\n  env: prod\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9980", cfg.App.HTTPAddr)
	assert.Equal(t, 20, cfg.Aggregator.TimeoutSeconds)
	assert.Equal(t, 50, cfg.Memory.WindowCap)
	assert.Equal(t, 10, cfg.Memory.HistoryCap)

	// Zero-config provider lineup runs in mock mode.
	require.Len(t, cfg.Providers.Parcel, 3)
	require.Len(t, cfg.Providers.Transport, 2)
	assert.Equal(t, "ups", cfg.Providers.Parcel[0].Name)
	assert.False(t, cfg.Providers.Parcel[0].HasCredentials())
}

func TestLoadExplicitValuesWin(t *testing.T) {
	content := `app:
  http_addr: ":8700"
memory:
  window_cap: 7
providers:
  parcel:
    - name: UPS
      timeout_seconds: 3
`
	path := writeConfig(t, t.TempDir(), "config.yaml", content)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8700", cfg.App.HTTPAddr)
	assert.Equal(t, 7, cfg.Memory.WindowCap)
	require.Len(t, cfg.Providers.Parcel, 1)
	assert.Equal(t, "ups", cfg.Providers.Parcel[0].Name) // normalized
	assert.Equal(t, 3, cfg.Providers.Parcel[0].TimeoutSeconds)
	// Transport list still defaulted.
	assert.Len(t, cfg.Providers.Transport, 2)
}

func TestLoadIncludeMerge(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "app:\n  env: base\n  log_level: debug\n")
	path := writeConfig(t, dir, "config.yaml", "include:\n  - base.yaml\napp:\n  env: prod\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	// The including file overrides, the included file fills gaps.
	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include:\n  - b.yaml\n")
	path := writeConfig(t, dir, "b.yaml", "include:\n  - a.yaml\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestValidateRejectsBadProviders(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantSub string
	}{
		{
			"duplicate names",
			"providers:\n  parcel:\n    - name: ups\n    - name: ups\n",
			"duplicate provider",
		},
		{
			"client_id without secret",
			"providers:\n  parcel:\n    - name: ups\n      client_id: abc\n",
			"client_id without client_secret",
		},
		{
			"username without password",
			"providers:\n  transport:\n    - name: roadie\n      username: ops\n",
			"username without password",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tc.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantSub)
		})
	}
}

func TestValidateAggregatorBounds(t *testing.T) {
	content := "aggregator:\n  timeout_seconds: 2\n  provider_timeout_seconds: 9\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", content)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot exceed")
}

func TestValidateTelegramRequiresCredentials(t *testing.T) {
	content := "notify:\n  telegram:\n    enabled: true\n"
	path := writeConfig(t, t.TempDir(), "config.yaml", content)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot_token")
}

func TestHasCredentials(t *testing.T) {
	assert.False(t, (ProviderConfig{Name: "ups"}).HasCredentials())
	assert.True(t, (ProviderConfig{ClientID: "id", ClientSecret: "sec"}).HasCredentials())
	assert.True(t, (ProviderConfig{APIToken: "tok"}).HasCredentials())
	assert.True(t, (ProviderConfig{Username: "u", Password: "p"}).HasCredentials())
}
