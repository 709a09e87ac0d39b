package catalog

import (
	"context"

	"github.com/lupasearch/catalog-export/app/aspects"
	"github.com/lupasearch/catalog-export/app/categories"
	"github.com/lupasearch/catalog-export/app/hooks"
	"github.com/lupasearch/catalog-export/app/pricing"
	"github.com/lupasearch/catalog-export/models"
	"golang.org/x/sync/errgroup"
)

// Store is the paginated base data the exporter starts from.
type Store interface {
	CountProducts(ctx context.Context, scope models.Scope) (int64, error)
	ProductPage(ctx context.Context, scope models.Scope, offset, limit int) ([]models.ProductRow, error)
	CountVariants(ctx context.Context, scope models.Scope) (int64, error)
	VariantPage(ctx context.Context, scope models.Scope, offset, limit int) ([]models.VariantRow, error)
	AttributeGroups(ctx context.Context, languageID int64) ([]models.PropertyRow, error)
	Features(ctx context.Context, languageID int64) ([]models.PropertyRow, error)
}

type Deps struct {
	Store      Store
	Categories *categories.Resolver
	Aspects    *aspects.Joiner
	Linker     aspects.Linker
	Oracle     pricing.Oracle
	Hooks      *hooks.Gateway
}

// Exporter assembles pages of flat product and variant records. A page is
// read once, then every aspect is fetched concurrently for the whole page,
// then records are built in page order.
type Exporter struct {
	store      Store
	categories *categories.Resolver
	aspects    *aspects.Joiner
	linker     aspects.Linker
	oracle     pricing.Oracle
	hooks      *hooks.Gateway
}

func NewExporter(d Deps) *Exporter {
	return &Exporter{
		store:      d.Store,
		categories: d.Categories,
		aspects:    d.Aspects,
		linker:     d.Linker,
		oracle:     d.Oracle,
		hooks:      d.Hooks,
	}
}

func (e *Exporter) Products(ctx context.Context, scope models.Scope, page models.PageRequest) (*models.Envelope, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	total, err := e.store.CountProducts(ctx, scope)
	if err != nil {
		return nil, err
	}
	if page.PastEnd(total) {
		return models.NewEnvelope(nil, total, page), nil
	}
	rows, err := e.store.ProductPage(ctx, scope, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	records, err := e.FormattedProducts(ctx, scope, rows)
	if err != nil {
		return nil, err
	}
	return models.NewEnvelope(records, total, page), nil
}

func (e *Exporter) Variants(ctx context.Context, scope models.Scope, page models.PageRequest) (*models.Envelope, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	total, err := e.store.CountVariants(ctx, scope)
	if err != nil {
		return nil, err
	}
	if page.PastEnd(total) {
		return models.NewEnvelope(nil, total, page), nil
	}
	rows, err := e.store.VariantPage(ctx, scope, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}
	records, err := e.FormattedVariants(ctx, scope, rows)
	if err != nil {
		return nil, err
	}
	return models.NewEnvelope(records, total, page), nil
}

// Properties names every attribute group and feature under the keys the
// records use for them.
func (e *Exporter) Properties(ctx context.Context, languageID int64) (map[string]string, error) {
	var groups, features []models.PropertyRow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		groups, err = e.store.AttributeGroups(gctx, languageID)
		return err
	})
	g.Go(func() (err error) {
		features, err = e.store.Features(gctx, languageID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(groups)+len(features))
	for _, p := range groups {
		out[models.AttributeGroupKey(p.ID)] = p.Name
	}
	for _, p := range features {
		out[models.FeatureKey(p.ID)] = p.Name
	}
	return out, nil
}

// productAspects is everything joined onto a page, keyed by owner id.
type productAspects struct {
	categories    map[models.EntityID]categories.Assignment
	images        map[models.EntityID]aspects.Images
	manufacturers map[models.EntityID]string
	features      map[models.EntityID]map[string]string
	attributes    map[models.EntityID]aspects.Grouped
	tags          map[models.EntityID][]string
	quotes        map[models.VariantKey]pricing.Quote
}

// fetchShared schedules the aspects products and variants have in common.
func (e *Exporter) fetchShared(ctx context.Context, g *errgroup.Group, scope models.Scope, productIDs, manufacturerIDs []models.EntityID, keys []models.VariantKey, a *productAspects) {
	g.Go(func() (err error) {
		a.categories, err = e.categories.ProductCategories(ctx, scope, productIDs)
		return err
	})
	g.Go(func() (err error) {
		a.images, err = e.aspects.ProductImages(ctx, scope, productIDs)
		return err
	})
	g.Go(func() (err error) {
		a.manufacturers, err = e.aspects.Manufacturers(ctx, scope, manufacturerIDs)
		return err
	})
	g.Go(func() (err error) {
		a.features, err = e.aspects.Features(ctx, scope, productIDs)
		return err
	})
	g.Go(func() (err error) {
		a.attributes, err = e.aspects.ProductAttributes(ctx, scope, productIDs)
		return err
	})
	g.Go(func() (err error) {
		a.tags, err = e.aspects.Tags(ctx, scope.LanguageID, productIDs)
		return err
	})
	g.Go(func() (err error) {
		a.quotes, err = e.oracle.Quote(ctx, scope, keys)
		return err
	})
}

// FormattedProducts turns one page of product rows into records. An empty
// page returns an empty list without touching any aspect.
func (e *Exporter) FormattedProducts(ctx context.Context, scope models.Scope, rows []models.ProductRow) ([]models.Record, error) {
	if len(rows) == 0 {
		return []models.Record{}, nil
	}

	productIDs := make([]models.EntityID, 0, len(rows))
	manufacturerIDs := make([]models.EntityID, 0, len(rows))
	keys := make([]models.VariantKey, 0, len(rows))
	for _, p := range rows {
		productIDs = append(productIDs, p.ID)
		manufacturerIDs = append(manufacturerIDs, p.ManufacturerID)
		keys = append(keys, models.VariantKey{ProductID: p.ID})
	}
	productIDs = models.Unique(productIDs)

	var (
		a     productAspects
		extra hooks.Contribution
	)
	g, gctx := errgroup.WithContext(ctx)
	e.fetchShared(gctx, g, scope, productIDs, manufacturerIDs, keys, &a)
	g.Go(func() error {
		extra = e.hooks.Augment(gctx, hooks.Request{
			EntityIDs:  productIDs,
			ShopID:     scope.ShopID,
			LanguageID: scope.LanguageID,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for _, p := range rows {
		images := a.images[p.ID]
		rec := models.Record{
			"id":                p.ID,
			"product_type":      p.ProductType,
			"visibility":        p.Visibility,
			"description":       p.Description,
			"description_short": p.DescriptionShort,
			"title":             p.Name,
		}
		pricing.Resolve(a.quotes[models.VariantKey{ProductID: p.ID}], p.WholesalePrice).Apply(rec)
		applyCategories(rec, a.categories[p.ID])
		rec["images"] = orEmpty(images.URLs)
		rec["main_image"] = orNil(images.Main)
		rec["link"] = e.linker.ProductURL(p.ID, p.LinkRewrite)
		rec["reference"] = p.Reference
		rec["ean13"] = p.EAN13
		rec["isbn"] = p.ISBN
		rec["upc"] = p.UPC
		rec["manufacturer"] = a.manufacturers[p.ManufacturerID]
		rec["tags"] = orEmpty(a.tags[p.ID])
		pricing.ApplyStock(rec, p.StockQuantity)
		applyAttributes(rec, a.attributes[p.ID])
		for k, v := range a.features[p.ID] {
			rec[k] = v
		}
		rec.Merge(extra[p.ID])
		records = append(records, rec)
	}
	return records, nil
}

// FormattedVariants turns one page of variant rows into records.
// Combination rows take their images and attributes from the combination,
// simple rows from the product. main_image falls back to the product's.
func (e *Exporter) FormattedVariants(ctx context.Context, scope models.Scope, rows []models.VariantRow) ([]models.Record, error) {
	if len(rows) == 0 {
		return []models.Record{}, nil
	}

	productIDs := make([]models.EntityID, 0, len(rows))
	combinationIDs := make([]models.EntityID, 0, len(rows))
	manufacturerIDs := make([]models.EntityID, 0, len(rows))
	keys := make([]models.VariantKey, 0, len(rows))
	for _, v := range rows {
		productIDs = append(productIDs, v.ProductID)
		if !v.Key().IsSimple() {
			combinationIDs = append(combinationIDs, v.CombinationID)
		}
		manufacturerIDs = append(manufacturerIDs, v.ManufacturerID)
		keys = append(keys, v.Key())
	}
	productIDs = models.Unique(productIDs)
	combinationIDs = models.Unique(combinationIDs)

	var (
		a           productAspects
		comboImages map[models.EntityID]aspects.Images
		comboAttrs  map[models.EntityID]aspects.Grouped
		extra       hooks.VariantContribution
	)
	g, gctx := errgroup.WithContext(ctx)
	e.fetchShared(gctx, g, scope, productIDs, manufacturerIDs, keys, &a)
	g.Go(func() (err error) {
		comboImages, err = e.aspects.CombinationImages(gctx, scope, combinationIDs)
		return err
	})
	g.Go(func() (err error) {
		comboAttrs, err = e.aspects.CombinationAttributes(gctx, scope, combinationIDs)
		return err
	})
	g.Go(func() error {
		extra = e.hooks.AugmentVariants(gctx, hooks.VariantRequest{
			ProductIDs:     productIDs,
			CombinationIDs: combinationIDs,
			ShopID:         scope.ShopID,
			LanguageID:     scope.LanguageID,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for _, v := range rows {
		key := v.Key()
		images := a.images[v.ProductID]
		attrs := a.attributes[v.ProductID]
		main := images.Main
		if !key.IsSimple() {
			combo := comboImages[v.CombinationID]
			images.URLs = combo.URLs
			if combo.Main != "" {
				main = combo.Main
			}
			attrs = comboAttrs[v.CombinationID]
		}

		rec := models.Record{
			"id":                key.ID(),
			"product_id":        v.ProductID,
			"combination_id":    v.CombinationID,
			"variant_type":      v.VariantType,
			"visibility":        v.Visibility,
			"description":       v.Description,
			"description_short": v.DescriptionShort,
			"title":             v.Name,
		}
		pricing.Resolve(a.quotes[key], v.WholesalePrice).Apply(rec)
		applyCategories(rec, a.categories[v.ProductID])
		rec["images"] = orEmpty(images.URLs)
		rec["main_image"] = orNil(main)
		rec["link"] = e.linker.VariantURL(key, v.LinkRewrite)
		rec["reference"] = v.Reference
		rec["ean13"] = v.EAN13
		rec["isbn"] = v.ISBN
		rec["upc"] = v.UPC
		rec["manufacturer"] = a.manufacturers[v.ManufacturerID]
		rec["tags"] = orEmpty(a.tags[v.ProductID])
		pricing.ApplyStock(rec, v.StockQuantity)
		applyAttributes(rec, attrs)
		for k, val := range a.features[v.ProductID] {
			rec[k] = val
		}
		rec.Merge(extra.Products[v.ProductID])
		if !key.IsSimple() {
			rec.Merge(extra.Combinations[v.CombinationID])
		}
		records = append(records, rec)
	}
	return records, nil
}

func applyCategories(rec models.Record, a categories.Assignment) {
	rec["categories"] = orEmpty(a.Names)
	rec["categories_hierarchy"] = orEmpty(a.Hierarchy)
	rec["categories_last"] = orEmpty(a.Last)
	rec["category_ids"] = orEmpty(a.IDs)
}

func applyAttributes(rec models.Record, g aspects.Grouped) {
	for key, names := range g {
		rec[key] = models.Unique(names)
	}
}

// orEmpty keeps absent lists encoding as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
