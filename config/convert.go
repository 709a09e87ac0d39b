package config

import (
	"github.com/lupasearch/catalog-export/logging"
	"github.com/lupasearch/catalog-export/models"
)

func (c *Config) DB() models.DBConfig {
	return models.DBConfig{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		SlowThreshold:   c.Database.SlowThreshold,
		LogLevel:        c.Database.LogLevel,
	}
}

func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		FilePath:   c.Log.FilePath,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		WithCaller: c.Log.WithCaller,
	}
}

// Market is the country and currency every price is quoted for.
func (c *Config) Market() models.Market {
	return models.Market{
		CountryID:  models.EntityID(c.Shop.CountryID),
		CurrencyID: models.EntityID(c.Shop.CurrencyID),
	}
}

// Scope is the default shop and language of every export.
func (c *Config) Scope() models.Scope {
	return models.Scope{ShopID: c.Shop.ID, LanguageID: c.Shop.LanguageID}
}
