package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lupasearch/catalog-export/models"
)

// Request is what a listener is asked to augment.
type Request struct {
	EntityIDs  []models.EntityID
	ShopID     int64
	LanguageID int64
}

// Contribution holds extra fields per entity id.
type Contribution map[models.EntityID]models.Fields

type Listener interface {
	Augment(ctx context.Context, req Request) (Contribution, error)
}

type ListenerFunc func(ctx context.Context, req Request) (Contribution, error)

func (f ListenerFunc) Augment(ctx context.Context, req Request) (Contribution, error) {
	return f(ctx, req)
}

// VariantRequest asks for product-level and combination-level fields at once.
type VariantRequest struct {
	ProductIDs     []models.EntityID
	CombinationIDs []models.EntityID
	ShopID         int64
	LanguageID     int64
}

type VariantContribution struct {
	Products     Contribution
	Combinations Contribution
}

type VariantListener interface {
	AugmentVariants(ctx context.Context, req VariantRequest) (VariantContribution, error)
}

type VariantListenerFunc func(ctx context.Context, req VariantRequest) (VariantContribution, error)

func (f VariantListenerFunc) AugmentVariants(ctx context.Context, req VariantRequest) (VariantContribution, error) {
	return f(ctx, req)
}

// FailureRecorder is told about every listener whose contribution was dropped.
type FailureRecorder interface {
	RecordHookFailure(listener string)
}

type namedListener struct {
	name string
	l    Listener
}

type namedVariantListener struct {
	name string
	l    VariantListener
}

// Gateway fans a request out to every registered listener and merges what
// comes back. Listeners run in registration order and a later listener wins
// on overlapping keys. A failing listener never fails the request.
type Gateway struct {
	logger    *slog.Logger
	failures  FailureRecorder
	listeners []namedListener
	variants  []namedVariantListener
}

func NewGateway(logger *slog.Logger, failures FailureRecorder) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{logger: logger, failures: failures}
}

func (g *Gateway) Register(name string, l Listener) {
	g.listeners = append(g.listeners, namedListener{name: name, l: l})
}

func (g *Gateway) RegisterVariant(name string, l VariantListener) {
	g.variants = append(g.variants, namedVariantListener{name: name, l: l})
}

// Augment never returns ids outside req.EntityIDs.
func (g *Gateway) Augment(ctx context.Context, req Request) Contribution {
	out := make(Contribution)
	if len(req.EntityIDs) == 0 || len(g.listeners) == 0 {
		return out
	}
	allowed := models.NewIDSet(req.EntityIDs)
	for _, nl := range g.listeners {
		var c Contribution
		err := guard(func() (err error) {
			c, err = nl.l.Augment(ctx, req)
			return err
		})
		if err != nil {
			g.dropped(ctx, nl.name, err)
			continue
		}
		mergeInto(out, c, allowed)
	}
	return out
}

func (g *Gateway) AugmentVariants(ctx context.Context, req VariantRequest) VariantContribution {
	out := VariantContribution{Products: make(Contribution), Combinations: make(Contribution)}
	if len(req.ProductIDs) == 0 && len(req.CombinationIDs) == 0 {
		return out
	}
	products := models.NewIDSet(req.ProductIDs)
	combinations := models.NewIDSet(req.CombinationIDs)
	for _, nl := range g.variants {
		var c VariantContribution
		err := guard(func() (err error) {
			c, err = nl.l.AugmentVariants(ctx, req)
			return err
		})
		if err != nil {
			g.dropped(ctx, nl.name, err)
			continue
		}
		mergeInto(out.Products, c.Products, products)
		mergeInto(out.Combinations, c.Combinations, combinations)
	}
	return out
}

func (g *Gateway) dropped(ctx context.Context, name string, err error) {
	xerr := &models.ExtensionError{Listener: name, Err: err}
	g.logger.WarnContext(ctx, "hook listener contribution dropped", "listener", name, "error", xerr)
	if g.failures != nil {
		g.failures.RecordHookFailure(name)
	}
}

func guard(call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return call()
}

func mergeInto(dst, src Contribution, allowed models.IDSet) {
	for id, fields := range src {
		if !allowed.Has(id) || fields == nil {
			continue
		}
		cur, ok := dst[id]
		if !ok {
			cur = make(models.Fields, len(fields))
			dst[id] = cur
		}
		for k, v := range fields {
			cur[k] = v
		}
	}
}
