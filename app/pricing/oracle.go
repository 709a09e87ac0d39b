package pricing

import (
	"context"
	"time"

	"github.com/lupasearch/catalog-export/models"
	"github.com/shopspring/decimal"
)

// precision of every intermediate price step, as the store computes it.
const precision = 6

var hundred = decimal.NewFromInt(100)

// Quote is the tax-included price of one variant before and after its
// applicable price rule.
type Quote struct {
	Regular decimal.Decimal
	Final   decimal.Decimal
}

// Oracle prices a batch of variants. Keys it cannot price are absent from
// the result.
type Oracle interface {
	Quote(ctx context.Context, scope models.Scope, keys []models.VariantKey) (map[models.VariantKey]Quote, error)
}

type Store interface {
	PriceBases(ctx context.Context, scope models.Scope, countryID int64, productIDs []models.EntityID) ([]models.PriceBaseRow, error)
	CombinationImpacts(ctx context.Context, scope models.Scope, combinationIDs []models.EntityID) ([]models.CombinationImpactRow, error)
	SpecificPrices(ctx context.Context, scope models.Scope, market models.Market, productIDs []models.EntityID) ([]models.SpecificPriceRow, error)
}

// CatalogOracle computes prices from the store's own price tables: the
// shop price of the product, the combination impact, the tax rate of the
// configured country and the catalog-wide specific prices open to the
// configured country and currency.
type CatalogOracle struct {
	store  Store
	market models.Market
	clock  Clock
}

func NewCatalogOracle(s Store, market models.Market, c Clock) *CatalogOracle {
	if c == nil {
		c = SystemClock{}
	}
	return &CatalogOracle{store: s, market: market, clock: c}
}

func (o *CatalogOracle) Quote(ctx context.Context, scope models.Scope, keys []models.VariantKey) (map[models.VariantKey]Quote, error) {
	out := make(map[models.VariantKey]Quote, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var productIDs, combinationIDs []models.EntityID
	for _, k := range keys {
		productIDs = append(productIDs, k.ProductID)
		if !k.IsSimple() {
			combinationIDs = append(combinationIDs, k.CombinationID)
		}
	}
	productIDs = models.Unique(productIDs)
	combinationIDs = models.Unique(combinationIDs)

	baseRows, err := o.store.PriceBases(ctx, scope, int64(o.market.CountryID), productIDs)
	if err != nil {
		return nil, err
	}
	bases := make(map[models.EntityID]models.PriceBaseRow, len(baseRows))
	for _, b := range baseRows {
		bases[b.ProductID] = b
	}

	impacts := make(map[models.EntityID]decimal.Decimal)
	if len(combinationIDs) > 0 {
		rows, err := o.store.CombinationImpacts(ctx, scope, combinationIDs)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			impacts[r.CombinationID] = r.Impact
		}
	}

	ruleRows, err := o.store.SpecificPrices(ctx, scope, o.market, productIDs)
	if err != nil {
		return nil, err
	}
	rules := make(map[models.EntityID][]models.SpecificPriceRow)
	for _, r := range ruleRows {
		rules[r.ProductID] = append(rules[r.ProductID], r)
	}

	now := o.clock.Now()
	for _, k := range keys {
		base, ok := bases[k.ProductID]
		if !ok {
			continue
		}
		rule, hasRule := pickRule(rules[k.ProductID], k.CombinationID, o.market, now)
		out[k] = quote(base, impacts[k.CombinationID], rule, hasRule)
	}
	return out, nil
}

// pickRule returns the rule in effect for a combination: a rule bound to
// the combination beats a product-wide one, and among equals the last wins.
// Rules closed to the market are skipped.
func pickRule(rules []models.SpecificPriceRow, combinationID models.EntityID, market models.Market, now time.Time) (models.SpecificPriceRow, bool) {
	var best models.SpecificPriceRow
	found, exact := false, false
	for _, r := range rules {
		if !r.ActiveAt(now) || !r.AppliesTo(market) {
			continue
		}
		switch {
		case r.CombinationID == 0 && !exact:
			best, found = r, true
		case r.CombinationID != 0 && r.CombinationID == combinationID:
			best, found, exact = r, true, true
		}
	}
	return best, found
}

func quote(base models.PriceBaseRow, impact decimal.Decimal, rule models.SpecificPriceRow, hasRule bool) Quote {
	taxFactor := decimal.NewFromInt(1).Add(base.TaxRate.Div(hundred))

	price := base.Price
	if hasRule && !rule.Price.IsNegative() {
		price = rule.Price
	}
	regular := price.Add(impact).Mul(taxFactor).Round(precision)
	final := regular

	if hasRule && rule.Reduction.IsPositive() {
		switch rule.ReductionType {
		case models.ReductionPercentage:
			final = regular.Mul(decimal.NewFromInt(1).Sub(rule.Reduction))
		case models.ReductionAmount:
			reduction := rule.Reduction
			if !rule.ReductionTax {
				reduction = reduction.Mul(taxFactor)
			}
			final = regular.Sub(reduction)
		}
		final = final.Round(precision)
	}
	if final.IsNegative() {
		final = decimal.Zero
	}
	return Quote{Regular: regular, Final: final}
}
