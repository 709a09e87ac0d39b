package pricing

import (
	"github.com/lupasearch/catalog-export/models"
	"github.com/shopspring/decimal"
)

// Figures are the exported price fields of one record.
type Figures struct {
	Price           string
	FinalPrice      string
	WholesalePrice  string
	DiscountPercent decimal.Decimal
	HasDiscount     bool
}

// Resolve formats a quote to two decimals and derives the discount from the
// formatted values. A zero regular price never yields a discount.
func Resolve(q Quote, wholesale decimal.Decimal) Figures {
	regular := q.Regular.Round(2)
	final := q.Final.Round(2)

	discount := decimal.Zero
	if regular.IsPositive() {
		discount = regular.Sub(final).Mul(hundred).Div(regular).Round(2)
	}

	return Figures{
		Price:           regular.StringFixed(2),
		FinalPrice:      final.StringFixed(2),
		WholesalePrice:  wholesale.StringFixed(2),
		DiscountPercent: discount,
		HasDiscount:     discount.IsPositive(),
	}
}

// Apply writes the figures into rec. Discount keys are only present for a
// positive discount.
func (f Figures) Apply(rec models.Record) {
	rec["price"] = f.Price
	rec["final_price"] = f.FinalPrice
	rec["wholesale_price"] = f.WholesalePrice
	if f.HasDiscount {
		rec["discount_percent"] = f.DiscountPercent.InexactFloat64()
		rec["has_discount"] = true
	}
}

// ApplyStock writes the stock quantity and the derived availability.
func ApplyStock(rec models.Record, qty int64) {
	rec["qty"] = qty
	rec["in_stock"] = qty > 0
}
