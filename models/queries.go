package models

// Fixed per-entity join shapes over the store schema. "{p}" is the table
// prefix; "{from}" and "{to}" are reserved column names quoted per dialect.
// Parameters are gorm named arguments; "IN @ids" expands a slice.

const countProductsQuery = `
SELECT COUNT(*) AS total
FROM {p}product p
INNER JOIN {p}product_shop ps ON ps.id_product = p.id_product AND ps.id_shop = @shop
WHERE ps.active = 1`

const productPageQuery = `
SELECT
	p.id_product, p.product_type, ps.visibility, ps.wholesale_price, p.reference, p.id_manufacturer,
	p.ean13, p.isbn, p.upc,
	pl.name, pl.description, pl.description_short, pl.link_rewrite,
	COALESCE(sa.quantity, 0) AS stock_quantity
FROM {p}product p
INNER JOIN {p}product_shop ps ON ps.id_product = p.id_product AND ps.id_shop = @shop
LEFT JOIN {p}product_lang pl ON pl.id_product = p.id_product AND pl.id_lang = @lang AND pl.id_shop = @shop
LEFT JOIN {p}stock_available sa ON sa.id_product = p.id_product AND sa.id_product_attribute = 0 AND sa.id_shop = @shop
WHERE ps.active = 1
ORDER BY p.id_product ASC
LIMIT @limit OFFSET @offset`

const variantsUnion = `
	SELECT
		p.id_product, pa.id_product_attribute AS combination_id, 'combination' AS variant_type,
		ps.visibility, pas.wholesale_price AS variant_wholesale_price,
		pa.reference, pa.ean13, pa.isbn, pa.upc, p.id_manufacturer,
		pl.name, pl.description, pl.description_short, pl.link_rewrite,
		COALESCE(sa.quantity, 0) AS stock_quantity
	FROM {p}product p
	INNER JOIN {p}product_shop ps ON ps.id_product = p.id_product AND ps.id_shop = @shop
	INNER JOIN {p}product_attribute pa ON pa.id_product = p.id_product
	INNER JOIN {p}product_attribute_shop pas ON pas.id_product_attribute = pa.id_product_attribute AND pas.id_shop = @shop
	LEFT JOIN {p}product_lang pl ON pl.id_product = p.id_product AND pl.id_lang = @lang AND pl.id_shop = @shop
	LEFT JOIN {p}stock_available sa ON sa.id_product = p.id_product AND sa.id_product_attribute = pa.id_product_attribute AND sa.id_shop = @shop
	WHERE ps.active = 1
	UNION ALL
	SELECT
		p.id_product, 0 AS combination_id, 'simple' AS variant_type,
		ps.visibility, ps.wholesale_price AS variant_wholesale_price,
		p.reference, p.ean13, p.isbn, p.upc, p.id_manufacturer,
		pl.name, pl.description, pl.description_short, pl.link_rewrite,
		COALESCE(sa.quantity, 0) AS stock_quantity
	FROM {p}product p
	INNER JOIN {p}product_shop ps ON ps.id_product = p.id_product AND ps.id_shop = @shop
	LEFT JOIN {p}product_lang pl ON pl.id_product = p.id_product AND pl.id_lang = @lang AND pl.id_shop = @shop
	LEFT JOIN {p}stock_available sa ON sa.id_product = p.id_product AND sa.id_product_attribute = 0 AND sa.id_shop = @shop
	WHERE ps.active = 1
		AND NOT EXISTS (SELECT 1 FROM {p}product_attribute pa2 WHERE pa2.id_product = p.id_product)`

const countVariantsQuery = `
SELECT COUNT(*) AS total FROM (` + variantsUnion + `
) v`

const variantPageQuery = `
SELECT v.* FROM (` + variantsUnion + `
) v
ORDER BY v.id_product ASC, v.combination_id ASC
LIMIT @limit OFFSET @offset`

const categoryHierarchyQuery = `
SELECT c.id_category, c.id_parent, cl.name
FROM {p}category c
INNER JOIN {p}category_shop cs ON cs.id_category = c.id_category AND cs.id_shop = @shop
LEFT JOIN {p}category_lang cl ON cl.id_category = c.id_category AND cl.id_lang = @lang AND cl.id_shop = @shop
WHERE c.active = 1 AND c.id_category NOT IN @roots
ORDER BY c.level_depth ASC, c.id_category ASC`

const productCategoriesQuery = `
SELECT cp.id_product, cp.id_category
FROM {p}category_product cp
INNER JOIN {p}category c ON c.id_category = cp.id_category
WHERE cp.id_product IN @ids
ORDER BY c.level_depth ASC, cp.id_product ASC, cp.id_category ASC`

const productImagesQuery = `
SELECT i.id_product, i.id_image, ims.cover, pl.link_rewrite
FROM {p}image i
INNER JOIN {p}image_shop ims ON ims.id_image = i.id_image AND ims.id_shop = @shop
LEFT JOIN {p}product_lang pl ON pl.id_product = i.id_product AND pl.id_lang = @lang AND pl.id_shop = @shop
WHERE i.id_product IN @ids
ORDER BY i.id_product ASC, i.position ASC`

const combinationImagesQuery = `
SELECT pai.id_product_attribute, i.id_image, ims.cover, pl.link_rewrite
FROM {p}product_attribute_image pai
INNER JOIN {p}image i ON i.id_image = pai.id_image
INNER JOIN {p}image_shop ims ON ims.id_image = i.id_image AND ims.id_shop = @shop
LEFT JOIN {p}product_lang pl ON pl.id_product = i.id_product AND pl.id_lang = @lang AND pl.id_shop = @shop
WHERE pai.id_product_attribute IN @ids
ORDER BY pai.id_product_attribute ASC, i.position ASC`

const manufacturersQuery = `
SELECT m.id_manufacturer, m.name
FROM {p}manufacturer m
INNER JOIN {p}manufacturer_shop ms ON ms.id_manufacturer = m.id_manufacturer AND ms.id_shop = @shop
WHERE m.id_manufacturer IN @ids`

const productFeaturesQuery = `
SELECT fp.id_product, fp.id_feature, fvl.value AS feature_value
FROM {p}feature_product fp
INNER JOIN {p}feature_shop fs ON fs.id_feature = fp.id_feature AND fs.id_shop = @shop
LEFT JOIN {p}feature_value_lang fvl ON fvl.id_feature_value = fp.id_feature_value AND fvl.id_lang = @lang
WHERE fp.id_product IN @ids
ORDER BY fp.id_product ASC, fp.id_feature ASC`

const productAttributesQuery = `
SELECT pa.id_product, a.id_attribute_group, al.name AS attribute_name
FROM {p}product_attribute_combination pac
INNER JOIN {p}product_attribute pa ON pa.id_product_attribute = pac.id_product_attribute
INNER JOIN {p}product_attribute_shop pas ON pas.id_product_attribute = pa.id_product_attribute AND pas.id_shop = @shop
INNER JOIN {p}attribute a ON a.id_attribute = pac.id_attribute
LEFT JOIN {p}attribute_lang al ON al.id_attribute = a.id_attribute AND al.id_lang = @lang
WHERE pa.id_product IN @ids
ORDER BY pa.id_product ASC, a.id_attribute_group ASC, a.position ASC`

const combinationAttributesQuery = `
SELECT pac.id_product_attribute, a.id_attribute_group, al.name AS attribute_name
FROM {p}product_attribute_combination pac
INNER JOIN {p}product_attribute_shop pas ON pas.id_product_attribute = pac.id_product_attribute AND pas.id_shop = @shop
INNER JOIN {p}attribute a ON a.id_attribute = pac.id_attribute
LEFT JOIN {p}attribute_lang al ON al.id_attribute = a.id_attribute AND al.id_lang = @lang
WHERE pac.id_product_attribute IN @ids
ORDER BY pac.id_product_attribute ASC, a.id_attribute_group ASC, a.position ASC`

const productTagsQuery = `
SELECT pt.id_product, t.name
FROM {p}product_tag pt
INNER JOIN {p}tag t ON t.id_tag = pt.id_tag
WHERE pt.id_product IN @ids AND t.id_lang = @lang
ORDER BY pt.id_product ASC, t.name ASC`

const attributeGroupsQuery = `
SELECT agl.id_attribute_group, agl.name
FROM {p}attribute_group_lang agl
WHERE agl.id_lang = @lang
ORDER BY agl.id_attribute_group ASC`

const featuresQuery = `
SELECT fl.id_feature, fl.name
FROM {p}feature_lang fl
WHERE fl.id_lang = @lang
ORDER BY fl.id_feature ASC`

const priceBasesQuery = `
SELECT ps.id_product, ps.price AS base_price, COALESCE(t.rate, 0) AS tax_rate
FROM {p}product_shop ps
LEFT JOIN {p}tax_rule tr ON tr.id_tax_rules_group = ps.id_tax_rules_group AND tr.id_country = @country AND tr.id_state = 0
LEFT JOIN {p}tax t ON t.id_tax = tr.id_tax AND t.active = 1
WHERE ps.id_shop = @shop AND ps.id_product IN @ids
ORDER BY ps.id_product ASC, tr.id_tax_rule ASC`

const combinationImpactsQuery = `
SELECT pas.id_product_attribute, pas.price AS impact
FROM {p}product_attribute_shop pas
WHERE pas.id_shop = @shop AND pas.id_product_attribute IN @ids`

const specificPricesQuery = `
SELECT sp.id_product, sp.id_product_attribute, sp.id_country, sp.id_currency,
	sp.price, sp.reduction, sp.reduction_type, sp.reduction_tax,
	sp.{from} AS starts_at, sp.{to} AS ends_at
FROM {p}specific_price sp
WHERE sp.id_product IN @ids
	AND sp.id_shop IN (0, @shop)
	AND sp.id_country IN (0, @country) AND sp.id_currency IN (0, @currency)
	AND sp.id_customer = 0 AND sp.id_group = 0 AND sp.id_cart = 0
	AND sp.from_quantity <= 1
ORDER BY sp.id_product ASC, sp.id_specific_price ASC`
