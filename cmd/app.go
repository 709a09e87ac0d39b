package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lupasearch/catalog-export/app/aspects"
	"github.com/lupasearch/catalog-export/app/catalog"
	"github.com/lupasearch/catalog-export/app/categories"
	"github.com/lupasearch/catalog-export/app/hooks"
	"github.com/lupasearch/catalog-export/app/metrics"
	"github.com/lupasearch/catalog-export/app/middleware"
	"github.com/lupasearch/catalog-export/app/pricing"
	"github.com/lupasearch/catalog-export/app/respond"
	"github.com/lupasearch/catalog-export/app/storefront"
	"github.com/lupasearch/catalog-export/config"
	"github.com/lupasearch/catalog-export/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// application is everything a command needs, built once from config.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *gorm.DB
	repo     *models.CatalogRepository
	exporter *catalog.Exporter
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func newApplication(c *config.Config, l *slog.Logger) (*application, error) {
	db, err := models.Open(c.DB(), l)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	m := metrics.New(c.Metrics.Namespace)
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, c.Database.Driver),
	)

	repo := models.NewCatalogRepository(db, c.Database.TablePrefix)

	gateway := hooks.NewGateway(l.With("component", "hooks"), m)
	if c.Hooks.WebhookURL != "" {
		wh := hooks.NewWebhook(c.Hooks.WebhookURL, c.Hooks.Timeout)
		gateway.Register("webhook", wh)
		gateway.RegisterVariant("webhook", wh)
	}

	linker := aspects.NewLinker(c.Shop.BaseURL, c.Shop.ImageType)
	exporter := catalog.NewExporter(catalog.Deps{
		Store:      repo,
		Categories: categories.NewResolver(repo),
		Aspects:    aspects.NewJoiner(repo, linker),
		Linker:     linker,
		Oracle:     pricing.NewCatalogOracle(repo, c.Market(), pricing.SystemClock{}),
		Hooks:      gateway,
	})

	return &application{
		cfg:      c,
		logger:   l,
		db:       db,
		repo:     repo,
		exporter: exporter,
		metrics:  m,
		registry: reg,
	}, nil
}

func (a *application) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// routes mounts every endpoint. Export routes are authenticated, rate
// limited and instrumented; health, metrics and the plugin settings are not.
func (a *application) routes() http.Handler {
	mux := http.NewServeMux()

	var limiter *rate.Limiter
	if a.cfg.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), a.cfg.RateLimit.Burst)
	}
	wrap := func(route string, next http.Handler) http.Handler {
		mws := []middleware.Middleware{middleware.Instrument(a.metrics, route)}
		if limiter != nil {
			mws = append(mws, middleware.RateLimit(limiter))
		}
		mws = append(mws, middleware.IndexAuth(a.cfg.Lupa.IndexID))
		return middleware.Chain(next, mws...)
	}

	handler := catalog.NewCatalogHandler(a.exporter, catalog.HandlerConfig{
		Scope:        a.cfg.Scope(),
		DefaultLimit: a.cfg.Export.DefaultLimit,
		MaxLimit:     a.cfg.Export.MaxLimit,
	}, a.logger.With("component", "catalog"), a.metrics)
	handler.RegisterRoutes(mux, wrap)

	storefront.NewPluginHandler(a.cfg.Lupa.Enabled, a.cfg.Lupa.PluginURL).RegisterRoutes(mux)

	mux.HandleFunc("GET /healthz", a.handleHealth)
	if a.cfg.Metrics.Enabled {
		mux.Handle("GET "+a.cfg.Metrics.Path, metrics.Handler(a.registry))
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(a.logger),
		middleware.Recover(a.logger),
	)
}

func (a *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.repo.Ping(ctx); err != nil {
		a.logger.ErrorContext(ctx, "health check failed", "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
