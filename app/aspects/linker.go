package aspects

import (
	"net/url"
	"strings"

	"github.com/lupasearch/catalog-export/models"
)

// Linker builds the storefront's public image and product URLs.
type Linker struct {
	BaseURL   string
	ImageType string
}

func NewLinker(baseURL, imageType string) Linker {
	return Linker{BaseURL: strings.TrimRight(baseURL, "/"), ImageType: imageType}
}

// ImageURL follows the store's friendly image route:
// <base>/<imageId>-<type>/<rewrite>.jpg
func (l Linker) ImageURL(imageID models.EntityID, linkRewrite string) string {
	return l.BaseURL + "/" + imageID.String() + "-" + l.ImageType + "/" + url.PathEscape(linkRewrite) + ".jpg"
}

func (l Linker) ProductURL(productID models.EntityID, linkRewrite string) string {
	if linkRewrite == "" {
		return l.BaseURL + "/index.php?controller=product&id_product=" + productID.String()
	}
	return l.BaseURL + "/" + productID.String() + "-" + url.PathEscape(linkRewrite) + ".html"
}

// VariantURL points at the product page with the combination preselected.
func (l Linker) VariantURL(key models.VariantKey, linkRewrite string) string {
	if key.IsSimple() {
		return l.ProductURL(key.ProductID, linkRewrite)
	}
	if linkRewrite == "" {
		return l.ProductURL(key.ProductID, "") + "&id_product_attribute=" + key.CombinationID.String()
	}
	return l.BaseURL + "/" + key.ProductID.String() + "-" + key.CombinationID.String() + "-" + url.PathEscape(linkRewrite) + ".html"
}
