package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lupasearch/catalog-export/app/respond"
	"github.com/lupasearch/catalog-export/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

type ExportProvider interface {
	Products(ctx context.Context, scope models.Scope, page models.PageRequest) (*models.Envelope, error)
	Variants(ctx context.Context, scope models.Scope, page models.PageRequest) (*models.Envelope, error)
	Properties(ctx context.Context, languageID int64) (map[string]string, error)
}

// ExportRecorder counts the records served per kind.
type ExportRecorder interface {
	RecordExport(kind string, n int)
}

type HandlerConfig struct {
	Scope        models.Scope
	DefaultLimit int
	MaxLimit     int
}

type CatalogHandler struct {
	repo     ExportProvider
	cfg      HandlerConfig
	logger   *slog.Logger
	recorder ExportRecorder
}

func NewCatalogHandler(r ExportProvider, cfg HandlerConfig, logger *slog.Logger, recorder ExportRecorder) *CatalogHandler {
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit < 1 {
		cfg.MaxLimit = MaxLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{
		repo:     r,
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
	}
}

// RegisterRoutes mounts the export endpoints. wrap decorates each route
// handler and receives the route name.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, wrap func(route string, next http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}
	mux.Handle("GET /rest/lupasearch/products", wrap("products", http.HandlerFunc(h.HandleProducts)))
	mux.Handle("GET /rest/lupasearch/variants", wrap("variants", http.HandlerFunc(h.HandleVariants)))
	mux.Handle("GET /rest/lupasearch/properties", wrap("properties", http.HandlerFunc(h.HandleProperties)))
}

func (h *CatalogHandler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	h.handlePage(w, r, "products", h.repo.Products)
}

func (h *CatalogHandler) HandleVariants(w http.ResponseWriter, r *http.Request) {
	h.handlePage(w, r, "variants", h.repo.Variants)
}

func (h *CatalogHandler) handlePage(w http.ResponseWriter, r *http.Request, kind string, fetch func(context.Context, models.Scope, models.PageRequest) (*models.Envelope, error)) {
	scope, err := h.parseScope(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.parsePage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	env, err := fetch(r.Context(), scope, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.recorder != nil {
		h.recorder.RecordExport(kind, len(env.Data))
	}
	respond.JSON(w, http.StatusOK, env)
}

func (h *CatalogHandler) HandleProperties(w http.ResponseWriter, r *http.Request) {
	scope, err := h.parseScope(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	props, err := h.repo.Properties(r.Context(), scope.LanguageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.recorder != nil {
		h.recorder.RecordExport("properties", len(props))
	}
	respond.JSON(w, http.StatusOK, props)
}

// parsePage rejects anything but positive integers. A limit above the
// maximum is clamped.
func (h *CatalogHandler) parsePage(r *http.Request) (models.PageRequest, error) {
	page := models.PageRequest{Page: 1, Limit: h.cfg.DefaultLimit}

	if pStr := r.URL.Query().Get("page"); pStr != "" {
		p, err := strconv.Atoi(pStr)
		if err != nil || p < 1 {
			return page, &models.ValidationError{Field: "page", Message: "Invalid page parameter"}
		}
		page.Page = p
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		l, err := strconv.Atoi(lStr)
		if err != nil || l < 1 {
			return page, &models.ValidationError{Field: "limit", Message: "Invalid limit parameter"}
		}
		page.Limit = min(l, h.cfg.MaxLimit)
	}

	return page, nil
}

// parseScope applies the optional shop_id and lang_id overrides.
func (h *CatalogHandler) parseScope(r *http.Request) (models.Scope, error) {
	scope := h.cfg.Scope
	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"shop_id", &scope.ShopID},
		{"lang_id", &scope.LanguageID},
	} {
		s := r.URL.Query().Get(p.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 1 {
			return scope, &models.ValidationError{Field: p.name, Message: "Invalid " + p.name + " parameter"}
		}
		*p.dst = v
	}
	return scope, nil
}

func (h *CatalogHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *models.ValidationError
		schema *models.SchemaIntegrityError
		store  *models.StorageError
	)
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &schema):
		h.logger.ErrorContext(r.Context(), "catalog row failed validation", "field", schema.Field, "error", err)
		respond.Error(w, http.StatusInternalServerError, schema.Error())
	case errors.As(err, &store):
		h.logger.ErrorContext(r.Context(), "catalog query failed", "op", store.Op, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to read catalog data")
	default:
		h.logger.ErrorContext(r.Context(), "export failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
