package models

// CategoryNode is one category of the shop's category forest, named in the
// requested language.
type CategoryNode struct {
	ID       EntityID
	Name     string
	ParentID EntityID
}

func DecodeCategoryNode(row Row) (CategoryNode, error) {
	rd := reader{row: row}
	node := CategoryNode{
		ID:       rd.id("id_category"),
		Name:     rd.string("name"),
		ParentID: rd.id("id_parent"),
	}
	return node, rd.err
}

// ProductCategoryRow links a product to one of its categories.
type ProductCategoryRow struct {
	ProductID  EntityID
	CategoryID EntityID
}

func DecodeProductCategory(row Row) (ProductCategoryRow, error) {
	rd := reader{row: row}
	link := ProductCategoryRow{
		ProductID:  rd.id("id_product"),
		CategoryID: rd.id("id_category"),
	}
	return link, rd.err
}

// PropertyRow names an attribute group or a feature.
type PropertyRow struct {
	ID   EntityID
	Name string
}

func propertyDecoder(idColumn string) func(Row) (PropertyRow, error) {
	return func(row Row) (PropertyRow, error) {
		rd := reader{row: row}
		p := PropertyRow{
			ID:   rd.id(idColumn),
			Name: rd.string("name"),
		}
		return p, rd.err
	}
}

var (
	DecodeAttributeGroup = propertyDecoder("id_attribute_group")
	DecodeFeature        = propertyDecoder("id_feature")
)
