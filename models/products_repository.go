package models

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// RootCategoryIDs are the virtual root categories that never appear in a
// category path.
var RootCategoryIDs = []EntityID{0, 1}

// CatalogRepository runs the exporter's fixed, read-only queries against
// the store database. Every aspect query takes the full id set of a page
// and is issued once per page.
type CatalogRepository struct {
	db       *gorm.DB
	replacer *strings.Replacer
}

func NewCatalogRepository(db *gorm.DB, tablePrefix string) *CatalogRepository {
	return &CatalogRepository{
		db:       db,
		replacer: queryReplacer(db.Dialector.Name(), tablePrefix),
	}
}

func queryReplacer(dialect, tablePrefix string) *strings.Replacer {
	quote := "`"
	if dialect == "postgres" {
		quote = `"`
	}
	return strings.NewReplacer(
		"{p}", tablePrefix,
		"{from}", quote+"from"+quote,
		"{to}", quote+"to"+quote,
	)
}

func (r *CatalogRepository) fetch(ctx context.Context, op, query string, args map[string]any) ([]Row, error) {
	var rows []map[string]any
	if err := r.db.WithContext(ctx).Raw(r.replacer.Replace(query), args).Scan(&rows).Error; err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = Row(row)
	}
	return out, nil
}

func (r *CatalogRepository) count(ctx context.Context, op, query string, args map[string]any) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Raw(r.replacer.Replace(query), args).Scan(&total).Error; err != nil {
		return 0, &StorageError{Op: op, Err: err}
	}
	return total, nil
}

func fetchDecoded[T any](ctx context.Context, r *CatalogRepository, op, query string, args map[string]any, decode func(Row) (T, error)) ([]T, error) {
	rows, err := r.fetch(ctx, op, query, args)
	if err != nil {
		return nil, err
	}
	return DecodeRows(rows, decode)
}

func scopeArgs(scope Scope) map[string]any {
	return map[string]any{
		"shop": scope.ShopID,
		"lang": scope.LanguageID,
	}
}

func idArgs(scope Scope, ids []EntityID) map[string]any {
	args := scopeArgs(scope)
	values := make([]int64, len(ids))
	for i, id := range ids {
		values[i] = int64(id)
	}
	args["ids"] = values
	return args
}

func (r *CatalogRepository) CountProducts(ctx context.Context, scope Scope) (int64, error) {
	return r.count(ctx, "count products", countProductsQuery, scopeArgs(scope))
}

func (r *CatalogRepository) ProductPage(ctx context.Context, scope Scope, offset, limit int) ([]ProductRow, error) {
	args := scopeArgs(scope)
	args["offset"] = offset
	args["limit"] = limit
	return fetchDecoded(ctx, r, "product page", productPageQuery, args, DecodeProductRow)
}

func (r *CatalogRepository) CountVariants(ctx context.Context, scope Scope) (int64, error) {
	return r.count(ctx, "count variants", countVariantsQuery, scopeArgs(scope))
}

func (r *CatalogRepository) VariantPage(ctx context.Context, scope Scope, offset, limit int) ([]VariantRow, error) {
	args := scopeArgs(scope)
	args["offset"] = offset
	args["limit"] = limit
	return fetchDecoded(ctx, r, "variant page", variantPageQuery, args, DecodeVariantRow)
}

func (r *CatalogRepository) CategoryNodes(ctx context.Context, scope Scope) ([]CategoryNode, error) {
	args := scopeArgs(scope)
	roots := make([]int64, len(RootCategoryIDs))
	for i, id := range RootCategoryIDs {
		roots[i] = int64(id)
	}
	args["roots"] = roots
	return fetchDecoded(ctx, r, "category hierarchy", categoryHierarchyQuery, args, DecodeCategoryNode)
}

func (r *CatalogRepository) ProductCategories(ctx context.Context, scope Scope, productIDs []EntityID) ([]ProductCategoryRow, error) {
	return fetchDecoded(ctx, r, "product categories", productCategoriesQuery, idArgs(scope, productIDs), DecodeProductCategory)
}

func (r *CatalogRepository) ProductImages(ctx context.Context, scope Scope, productIDs []EntityID) ([]ImageRow, error) {
	return fetchDecoded(ctx, r, "product images", productImagesQuery, idArgs(scope, productIDs), DecodeProductImage)
}

func (r *CatalogRepository) CombinationImages(ctx context.Context, scope Scope, combinationIDs []EntityID) ([]ImageRow, error) {
	return fetchDecoded(ctx, r, "combination images", combinationImagesQuery, idArgs(scope, combinationIDs), DecodeCombinationImage)
}

func (r *CatalogRepository) Manufacturers(ctx context.Context, scope Scope, manufacturerIDs []EntityID) ([]ManufacturerRow, error) {
	return fetchDecoded(ctx, r, "manufacturers", manufacturersQuery, idArgs(scope, manufacturerIDs), DecodeManufacturer)
}

func (r *CatalogRepository) ProductFeatures(ctx context.Context, scope Scope, productIDs []EntityID) ([]FeatureRow, error) {
	return fetchDecoded(ctx, r, "product features", productFeaturesQuery, idArgs(scope, productIDs), DecodeFeatureValue)
}

func (r *CatalogRepository) ProductAttributes(ctx context.Context, scope Scope, productIDs []EntityID) ([]AttributeRow, error) {
	return fetchDecoded(ctx, r, "product attributes", productAttributesQuery, idArgs(scope, productIDs), DecodeProductAttribute)
}

func (r *CatalogRepository) CombinationAttributes(ctx context.Context, scope Scope, combinationIDs []EntityID) ([]AttributeRow, error) {
	return fetchDecoded(ctx, r, "combination attributes", combinationAttributesQuery, idArgs(scope, combinationIDs), DecodeCombinationAttribute)
}

// ProductTags is language scoped only; tags are shared by all shops.
func (r *CatalogRepository) ProductTags(ctx context.Context, languageID int64, productIDs []EntityID) ([]TagRow, error) {
	return fetchDecoded(ctx, r, "product tags", productTagsQuery, idArgs(Scope{LanguageID: languageID}, productIDs), DecodeTag)
}

func (r *CatalogRepository) AttributeGroups(ctx context.Context, languageID int64) ([]PropertyRow, error) {
	return fetchDecoded(ctx, r, "attribute groups", attributeGroupsQuery, map[string]any{"lang": languageID}, DecodeAttributeGroup)
}

func (r *CatalogRepository) Features(ctx context.Context, languageID int64) ([]PropertyRow, error) {
	return fetchDecoded(ctx, r, "features", featuresQuery, map[string]any{"lang": languageID}, DecodeFeature)
}

func (r *CatalogRepository) PriceBases(ctx context.Context, scope Scope, countryID int64, productIDs []EntityID) ([]PriceBaseRow, error) {
	args := idArgs(scope, productIDs)
	args["country"] = countryID
	return fetchDecoded(ctx, r, "price bases", priceBasesQuery, args, DecodePriceBase)
}

func (r *CatalogRepository) CombinationImpacts(ctx context.Context, scope Scope, combinationIDs []EntityID) ([]CombinationImpactRow, error) {
	return fetchDecoded(ctx, r, "combination impacts", combinationImpactsQuery, idArgs(scope, combinationIDs), DecodeCombinationImpact)
}

func (r *CatalogRepository) SpecificPrices(ctx context.Context, scope Scope, market Market, productIDs []EntityID) ([]SpecificPriceRow, error) {
	args := idArgs(scope, productIDs)
	args["country"] = market.CountryID
	args["currency"] = market.CurrencyID
	return fetchDecoded(ctx, r, "specific prices", specificPricesQuery, args, DecodeSpecificPrice)
}

// Ping checks the database connection.
func (r *CatalogRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}
