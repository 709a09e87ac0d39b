package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	VariantSimple      = "simple"
	VariantCombination = "combination"
)

// ProductRow is one active product of the shop with its language fields
// and shop-level stock.
type ProductRow struct {
	ID               EntityID
	ProductType      string
	Visibility       string
	Name             string
	Description      string
	DescriptionShort string
	LinkRewrite      string
	ManufacturerID   EntityID
	Reference        string
	EAN13            string
	ISBN             string
	UPC              string
	WholesalePrice   decimal.Decimal
	StockQuantity    int64
}

func DecodeProductRow(row Row) (ProductRow, error) {
	if err := row.Require(
		"id_product",
		"visibility",
		"wholesale_price",
		"description",
		"description_short",
		"name",
		"id_manufacturer",
		"reference",
		"stock_quantity",
		"ean13",
		"isbn",
		"upc",
	); err != nil {
		return ProductRow{}, err
	}

	rd := reader{row: row}
	p := ProductRow{
		ID:               rd.id("id_product"),
		ProductType:      rd.optString("product_type"),
		Visibility:       rd.string("visibility"),
		Name:             rd.string("name"),
		Description:      rd.string("description"),
		DescriptionShort: rd.string("description_short"),
		LinkRewrite:      rd.optString("link_rewrite"),
		ManufacturerID:   rd.id("id_manufacturer"),
		Reference:        rd.string("reference"),
		EAN13:            rd.string("ean13"),
		ISBN:             rd.string("isbn"),
		UPC:              rd.string("upc"),
		WholesalePrice:   rd.decimal("wholesale_price"),
		StockQuantity:    rd.int64("stock_quantity"),
	}
	return p, rd.err
}

// VariantRow is either one combination of a product or the single simple
// variant of a product without combinations.
type VariantRow struct {
	ProductID        EntityID
	CombinationID    EntityID
	VariantType      string
	Visibility       string
	Name             string
	Description      string
	DescriptionShort string
	LinkRewrite      string
	ManufacturerID   EntityID
	Reference        string
	EAN13            string
	ISBN             string
	UPC              string
	WholesalePrice   decimal.Decimal
	StockQuantity    int64
}

func (v VariantRow) Key() VariantKey {
	return VariantKey{ProductID: v.ProductID, CombinationID: v.CombinationID}
}

func DecodeVariantRow(row Row) (VariantRow, error) {
	if err := row.Require(
		"id_product",
		"combination_id",
		"variant_type",
		"variant_wholesale_price",
		"visibility",
		"description",
		"name",
		"id_manufacturer",
		"reference",
		"stock_quantity",
	); err != nil {
		return VariantRow{}, err
	}

	rd := reader{row: row}
	v := VariantRow{
		ProductID:        rd.id("id_product"),
		CombinationID:    rd.id("combination_id"),
		VariantType:      rd.string("variant_type"),
		Visibility:       rd.string("visibility"),
		Name:             rd.string("name"),
		Description:      rd.string("description"),
		DescriptionShort: rd.optString("description_short"),
		LinkRewrite:      rd.optString("link_rewrite"),
		ManufacturerID:   rd.id("id_manufacturer"),
		Reference:        rd.string("reference"),
		EAN13:            rd.optString("ean13"),
		ISBN:             rd.optString("isbn"),
		UPC:              rd.optString("upc"),
		WholesalePrice:   rd.decimal("variant_wholesale_price"),
		StockQuantity:    rd.int64("stock_quantity"),
	}
	if rd.err != nil {
		return VariantRow{}, rd.err
	}

	switch {
	case v.VariantType == VariantSimple && v.CombinationID == 0:
	case v.VariantType == VariantCombination && v.CombinationID != 0:
	default:
		return VariantRow{}, &SchemaIntegrityError{
			Field:  "variant_type",
			Reason: fmt.Sprintf("%q is inconsistent with combination_id %d", v.VariantType, v.CombinationID),
			Row:    row,
		}
	}
	return v, nil
}

// ImageRow is one image of a product or of a combination; OwnerID is
// whichever of the two the query was keyed by.
type ImageRow struct {
	OwnerID     EntityID
	ImageID     EntityID
	LinkRewrite string
	Cover       bool
}

func imageDecoder(ownerColumn string) func(Row) (ImageRow, error) {
	return func(row Row) (ImageRow, error) {
		if err := row.Require(ownerColumn, "id_image", "link_rewrite"); err != nil {
			return ImageRow{}, err
		}
		rd := reader{row: row}
		img := ImageRow{
			OwnerID:     rd.id(ownerColumn),
			ImageID:     rd.id("id_image"),
			LinkRewrite: rd.string("link_rewrite"),
			Cover:       rd.optBool("cover"),
		}
		return img, rd.err
	}
}

var (
	DecodeProductImage     = imageDecoder("id_product")
	DecodeCombinationImage = imageDecoder("id_product_attribute")
)

type ManufacturerRow struct {
	ID   EntityID
	Name string
}

func DecodeManufacturer(row Row) (ManufacturerRow, error) {
	rd := reader{row: row}
	m := ManufacturerRow{
		ID:   rd.id("id_manufacturer"),
		Name: rd.string("name"),
	}
	return m, rd.err
}

type FeatureRow struct {
	ProductID EntityID
	FeatureID EntityID
	Value     string
}

func DecodeFeatureValue(row Row) (FeatureRow, error) {
	rd := reader{row: row}
	f := FeatureRow{
		ProductID: rd.id("id_product"),
		FeatureID: rd.id("id_feature"),
		Value:     rd.string("feature_value"),
	}
	return f, rd.err
}

// AttributeRow is one attribute value of a combination, keyed by product or
// by combination depending on the query.
type AttributeRow struct {
	OwnerID EntityID
	GroupID EntityID
	Name    string
}

func attributeDecoder(ownerColumn string) func(Row) (AttributeRow, error) {
	return func(row Row) (AttributeRow, error) {
		rd := reader{row: row}
		a := AttributeRow{
			OwnerID: rd.id(ownerColumn),
			GroupID: rd.id("id_attribute_group"),
			Name:    rd.string("attribute_name"),
		}
		return a, rd.err
	}
}

var (
	DecodeProductAttribute     = attributeDecoder("id_product")
	DecodeCombinationAttribute = attributeDecoder("id_product_attribute")
)

type TagRow struct {
	ProductID EntityID
	Name      string
}

func DecodeTag(row Row) (TagRow, error) {
	rd := reader{row: row}
	t := TagRow{
		ProductID: rd.id("id_product"),
		Name:      rd.string("name"),
	}
	return t, rd.err
}

// PriceBaseRow is the shop price of a product before tax together with the
// tax rate (percent) that applies to it.
type PriceBaseRow struct {
	ProductID EntityID
	Price     decimal.Decimal
	TaxRate   decimal.Decimal
}

func DecodePriceBase(row Row) (PriceBaseRow, error) {
	rd := reader{row: row}
	p := PriceBaseRow{
		ProductID: rd.id("id_product"),
		Price:     rd.decimal("base_price"),
		TaxRate:   rd.decimal("tax_rate"),
	}
	return p, rd.err
}

// CombinationImpactRow is the price difference a combination adds to its
// product's base price.
type CombinationImpactRow struct {
	CombinationID EntityID
	Impact        decimal.Decimal
}

func DecodeCombinationImpact(row Row) (CombinationImpactRow, error) {
	rd := reader{row: row}
	c := CombinationImpactRow{
		CombinationID: rd.id("id_product_attribute"),
		Impact:        rd.decimal("impact"),
	}
	return c, rd.err
}

const (
	ReductionPercentage = "percentage"
	ReductionAmount     = "amount"
)

// Market is the country and currency prices are quoted for.
type Market struct {
	CountryID  EntityID
	CurrencyID EntityID
}

// SpecificPriceRow is a catalog-wide price rule for one product, optionally
// restricted to one combination, country or currency (0 means any). A
// negative Price keeps the base price.
type SpecificPriceRow struct {
	ProductID     EntityID
	CombinationID EntityID
	CountryID     EntityID
	CurrencyID    EntityID
	Price         decimal.Decimal
	Reduction     decimal.Decimal
	ReductionType string
	ReductionTax  bool
	From          time.Time
	To            time.Time
}

func DecodeSpecificPrice(row Row) (SpecificPriceRow, error) {
	rd := reader{row: row}
	sp := SpecificPriceRow{
		ProductID:     rd.id("id_product"),
		CombinationID: rd.id("id_product_attribute"),
		CountryID:     rd.id("id_country"),
		CurrencyID:    rd.id("id_currency"),
		Price:         rd.decimal("price"),
		Reduction:     rd.decimal("reduction"),
		ReductionType: rd.string("reduction_type"),
		ReductionTax:  rd.bool("reduction_tax"),
		From:          rd.time("starts_at"),
		To:            rd.time("ends_at"),
	}
	return sp, rd.err
}

// AppliesTo reports whether the rule is open to the market.
func (sp SpecificPriceRow) AppliesTo(m Market) bool {
	return (sp.CountryID == 0 || sp.CountryID == m.CountryID) &&
		(sp.CurrencyID == 0 || sp.CurrencyID == m.CurrencyID)
}

// ActiveAt reports whether the rule's date window contains t. Zero bounds
// are open.
func (sp SpecificPriceRow) ActiveAt(t time.Time) bool {
	if !sp.From.IsZero() && t.Before(sp.From) {
		return false
	}
	if !sp.To.IsZero() && t.After(sp.To) {
		return false
	}
	return true
}
