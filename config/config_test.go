package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lupasearch/catalog-export/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndexID = "0b5b1a0e-4b8e-4d51-9d0c-6ab1f0c2e001"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LUPA_DATABASE_DSN", "user:pass@tcp(localhost:3306)/prestashop?parseTime=true")
	t.Setenv("LUPA_LUPA_INDEX_ID", testIndexID)
	t.Setenv("LUPA_SHOP_COUNTRY_ID", "8")
	t.Setenv("LUPA_SHOP_CURRENCY_ID", "1")
}

func TestLoad_Defaults(t *testing.T) {
	// Arrange
	setRequiredEnv(t)

	// Act
	cfg, err := Load("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "ps_", cfg.Database.TablePrefix)
	assert.Equal(t, 20, cfg.Export.DefaultLimit)
	assert.Equal(t, 500, cfg.Export.MaxLimit)
	assert.Equal(t, testIndexID, cfg.Lupa.IndexID)
	assert.Equal(t, models.Scope{ShopID: 1, LanguageID: 1}, cfg.Scope())
	assert.Equal(t, models.Market{CountryID: 8, CurrencyID: 1}, cfg.Market())
	assert.Equal(t, 5*time.Minute, cfg.DB().ConnMaxLifetime)
	assert.Equal(t, "json", cfg.Logging().Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LUPA_DATABASE_DRIVER", "postgres")
	t.Setenv("LUPA_SHOP_LANGUAGE_ID", "3")
	t.Setenv("LUPA_EXPORT_MAX_LIMIT", "100")
	t.Setenv("LUPA_HOOKS_TIMEOUT", "750ms")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(3), cfg.Shop.LanguageID)
	assert.Equal(t, 100, cfg.Export.MaxLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.Hooks.Timeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[shop]
id = 2
base_url = "https://shop.example.com"

[lupa]
enabled = true
plugin_url = "https://cdn.example.com/plugin.js"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("LUPA_SHOP_ID", "4")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, int64(4), cfg.Shop.ID, "env wins over the file")
	assert.Equal(t, "https://shop.example.com", cfg.Shop.BaseURL)
	assert.True(t, cfg.Lupa.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))

	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "mysql", DSN: "dsn"},
			Shop:     ShopConfig{ID: 1, LanguageID: 1, CountryID: 8, CurrencyID: 1, BaseURL: "https://shop.example.com"},
			Lupa:     LupaConfig{IndexID: testIndexID},
			Export:   ExportConfig{DefaultLimit: 20, MaxLimit: 500},
		}
	}

	testCases := []struct {
		name          string
		mutate        func(c *Config)
		expectedError string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "Unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, expectedError: "unsupported database driver"},
		{name: "Missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, expectedError: "database.dsn is required"},
		{name: "Short index id", mutate: func(c *Config) { c.Lupa.IndexID = "abc" }, expectedError: "36 characters"},
		{name: "Zero language", mutate: func(c *Config) { c.Shop.LanguageID = 0 }, expectedError: "must be positive"},
		{name: "Missing country", mutate: func(c *Config) { c.Shop.CountryID = 0 }, expectedError: "shop.country_id"},
		{name: "Missing currency", mutate: func(c *Config) { c.Shop.CurrencyID = 0 }, expectedError: "shop.currency_id"},
		{name: "Max below default", mutate: func(c *Config) { c.Export.MaxLimit = 10 }, expectedError: "invalid export limits"},
		{name: "Relative webhook", mutate: func(c *Config) { c.Hooks.WebhookURL = "/hook" }, expectedError: "hooks.webhook_url"},
		{name: "Negative rate", mutate: func(c *Config) { c.RateLimit.RPS = -1 }, expectedError: "ratelimit"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)

			err := c.Validate()

			if tc.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.expectedError)
		})
	}
}

func TestLoad_RejectsMissingCountry(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LUPA_SHOP_COUNTRY_ID", "0")

	_, err := Load("")

	assert.ErrorContains(t, err, "shop.country_id")
}
