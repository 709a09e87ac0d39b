package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lupasearch/catalog-export/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Store ---

type MockPriceStore struct {
	Bases   []models.PriceBaseRow
	Impacts []models.CombinationImpactRow
	Rules   []models.SpecificPriceRow
	Err     error

	impactCalls    int
	lastCountryID  int64
	lastMarket     models.Market
	lastProductIDs []models.EntityID
}

func (m *MockPriceStore) PriceBases(_ context.Context, _ models.Scope, countryID int64, ids []models.EntityID) ([]models.PriceBaseRow, error) {
	m.lastCountryID = countryID
	m.lastProductIDs = ids
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Bases, nil
}

func (m *MockPriceStore) CombinationImpacts(_ context.Context, _ models.Scope, _ []models.EntityID) ([]models.CombinationImpactRow, error) {
	m.impactCalls++
	return m.Impacts, nil
}

func (m *MockPriceStore) SpecificPrices(_ context.Context, _ models.Scope, market models.Market, _ []models.EntityID) ([]models.SpecificPriceRow, error) {
	m.lastMarket = market
	return m.Rules, nil
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	now    = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	market = models.Market{CountryID: 8, CurrencyID: 1}
)

func keepPrice() decimal.Decimal { return dec("-1") }

// --- Tests ---

func TestResolve(t *testing.T) {
	testCases := []struct {
		name           string
		quote          Quote
		wholesale      decimal.Decimal
		expectedPrice  string
		expectedFinal  string
		expectedWhole  string
		expectDiscount bool
		expectedPct    float64
	}{
		{
			name:           "Twenty percent off",
			quote:          Quote{Regular: dec("100"), Final: dec("80")},
			wholesale:      dec("40.5"),
			expectedPrice:  "100.00",
			expectedFinal:  "80.00",
			expectedWhole:  "40.50",
			expectDiscount: true,
			expectedPct:    20,
		},
		{
			name:          "Zero regular price has no discount",
			quote:         Quote{Regular: dec("0"), Final: dec("0")},
			wholesale:     dec("0"),
			expectedPrice: "0.00",
			expectedFinal: "0.00",
			expectedWhole: "0.00",
		},
		{
			name:          "No reduction",
			quote:         Quote{Regular: dec("12.345678"), Final: dec("12.345678")},
			wholesale:     dec("3"),
			expectedPrice: "12.35",
			expectedFinal: "12.35",
			expectedWhole: "3.00",
		},
		{
			name:           "Discount computed on rounded values",
			quote:          Quote{Regular: dec("29.994"), Final: dec("19.996")},
			wholesale:      dec("1"),
			expectedPrice:  "29.99",
			expectedFinal:  "20.00",
			expectedWhole:  "1.00",
			expectDiscount: true,
			expectedPct:    33.31,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			f := Resolve(tc.quote, tc.wholesale)
			rec := models.Record{}
			f.Apply(rec)

			// Assert
			assert.Equal(t, tc.expectedPrice, rec["price"])
			assert.Equal(t, tc.expectedFinal, rec["final_price"])
			assert.Equal(t, tc.expectedWhole, rec["wholesale_price"])
			if tc.expectDiscount {
				assert.Equal(t, tc.expectedPct, rec["discount_percent"])
				assert.Equal(t, true, rec["has_discount"])
			} else {
				assert.NotContains(t, rec, "discount_percent")
				assert.NotContains(t, rec, "has_discount")
			}
		})
	}
}

func TestApplyStock(t *testing.T) {
	rec := models.Record{}
	ApplyStock(rec, 3)
	assert.Equal(t, int64(3), rec["qty"])
	assert.Equal(t, true, rec["in_stock"])

	ApplyStock(rec, 0)
	assert.Equal(t, false, rec["in_stock"])

	ApplyStock(rec, -2)
	assert.Equal(t, false, rec["in_stock"])
}

func TestCatalogOracle_Quote(t *testing.T) {
	base := models.PriceBaseRow{ProductID: 1, Price: dec("100"), TaxRate: dec("20")}
	simple := models.VariantKey{ProductID: 1}
	combo := models.VariantKey{ProductID: 1, CombinationID: 9}

	testCases := []struct {
		name    string
		store   *MockPriceStore
		key     models.VariantKey
		regular string
		final   string
	}{
		{
			name:    "Tax only",
			store:   &MockPriceStore{Bases: []models.PriceBaseRow{base}},
			key:     simple,
			regular: "120",
			final:   "120",
		},
		{
			name: "Combination impact",
			store: &MockPriceStore{
				Bases:   []models.PriceBaseRow{base},
				Impacts: []models.CombinationImpactRow{{CombinationID: 9, Impact: dec("10")}},
			},
			key:     combo,
			regular: "132",
			final:   "132",
		},
		{
			name: "Percentage reduction",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, Price: keepPrice(), Reduction: dec("0.2"), ReductionType: models.ReductionPercentage}},
			},
			key:     simple,
			regular: "120",
			final:   "96",
		},
		{
			name: "Tax included amount reduction",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, Price: keepPrice(), Reduction: dec("15"), ReductionType: models.ReductionAmount, ReductionTax: true}},
			},
			key:     simple,
			regular: "120",
			final:   "105",
		},
		{
			name: "Tax excluded amount reduction",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, Price: keepPrice(), Reduction: dec("15"), ReductionType: models.ReductionAmount}},
			},
			key:     simple,
			regular: "120",
			final:   "102",
		},
		{
			name: "Final price never below zero",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, Price: keepPrice(), Reduction: dec("500"), ReductionType: models.ReductionAmount, ReductionTax: true}},
			},
			key:     simple,
			regular: "120",
			final:   "0",
		},
		{
			name: "Fixed price override",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, Price: dec("50")}},
			},
			key:     simple,
			regular: "60",
			final:   "60",
		},
		{
			name: "Expired rule ignored",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, Price: keepPrice(), Reduction: dec("0.5"), ReductionType: models.ReductionPercentage, To: now.Add(-time.Hour)}},
			},
			key:     simple,
			regular: "120",
			final:   "120",
		},
		{
			name: "Combination rule beats product rule",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{
					{ProductID: 1, CombinationID: 9, Price: keepPrice(), Reduction: dec("0.5"), ReductionType: models.ReductionPercentage},
					{ProductID: 1, Price: keepPrice(), Reduction: dec("0.1"), ReductionType: models.ReductionPercentage},
				},
			},
			key:     combo,
			regular: "120",
			final:   "60",
		},
		{
			name: "Rule for another country ignored",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, CountryID: 21, Price: keepPrice(), Reduction: dec("0.2"), ReductionType: models.ReductionPercentage}},
			},
			key:     simple,
			regular: "120",
			final:   "120",
		},
		{
			name: "Rule for another currency ignored",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, CurrencyID: 2, Price: keepPrice(), Reduction: dec("0.2"), ReductionType: models.ReductionPercentage}},
			},
			key:     simple,
			regular: "120",
			final:   "120",
		},
		{
			name: "Rule for the configured country applies",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{{ProductID: 1, CountryID: 8, CurrencyID: 1, Price: keepPrice(), Reduction: dec("0.2"), ReductionType: models.ReductionPercentage}},
			},
			key:     simple,
			regular: "120",
			final:   "96",
		},
		{
			name: "Rule for another combination ignored",
			store: &MockPriceStore{
				Bases: []models.PriceBaseRow{base},
				Rules: []models.SpecificPriceRow{
					{ProductID: 1, CombinationID: 8, Price: keepPrice(), Reduction: dec("0.5"), ReductionType: models.ReductionPercentage},
				},
			},
			key:     combo,
			regular: "120",
			final:   "120",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			oracle := NewCatalogOracle(tc.store, market, NewFixedClock(now))

			// Act
			quotes, err := oracle.Quote(context.Background(), models.Scope{ShopID: 1, LanguageID: 1}, []models.VariantKey{tc.key})

			// Assert
			require.NoError(t, err)
			require.Contains(t, quotes, tc.key)
			assert.True(t, dec(tc.regular).Equal(quotes[tc.key].Regular), "regular %s", quotes[tc.key].Regular)
			assert.True(t, dec(tc.final).Equal(quotes[tc.key].Final), "final %s", quotes[tc.key].Final)
			assert.Equal(t, int64(8), tc.store.lastCountryID)
			assert.Equal(t, market, tc.store.lastMarket)
		})
	}
}

func TestCatalogOracle_Batching(t *testing.T) {
	store := &MockPriceStore{Bases: []models.PriceBaseRow{{ProductID: 1, Price: dec("10")}}}
	oracle := NewCatalogOracle(store, market, NewFixedClock(now))

	keys := []models.VariantKey{{ProductID: 1}, {ProductID: 1}, {ProductID: 2}}
	quotes, err := oracle.Quote(context.Background(), models.Scope{}, keys)

	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{1, 2}, store.lastProductIDs)
	assert.Zero(t, store.impactCalls, "simple variants need no combination impacts")
	assert.Len(t, quotes, 1, "unpriced products are absent")

	empty, err := oracle.Quote(context.Background(), models.Scope{}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalogOracle_StorageError(t *testing.T) {
	store := &MockPriceStore{Err: &models.StorageError{Op: "price bases", Err: errors.New("gone")}}

	_, err := NewCatalogOracle(store, market, nil).Quote(context.Background(), models.Scope{}, []models.VariantKey{{ProductID: 1}})

	var serr *models.StorageError
	assert.True(t, errors.As(err, &serr))
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(now)
	c.Advance(time.Hour)
	assert.Equal(t, now.Add(time.Hour), c.Now())
	c.Set(now)
	assert.Equal(t, now, c.Now())
}
