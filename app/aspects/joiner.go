package aspects

import (
	"context"

	"github.com/lupasearch/catalog-export/models"
)

type Store interface {
	ProductImages(ctx context.Context, scope models.Scope, productIDs []models.EntityID) ([]models.ImageRow, error)
	CombinationImages(ctx context.Context, scope models.Scope, combinationIDs []models.EntityID) ([]models.ImageRow, error)
	Manufacturers(ctx context.Context, scope models.Scope, manufacturerIDs []models.EntityID) ([]models.ManufacturerRow, error)
	ProductFeatures(ctx context.Context, scope models.Scope, productIDs []models.EntityID) ([]models.FeatureRow, error)
	ProductAttributes(ctx context.Context, scope models.Scope, productIDs []models.EntityID) ([]models.AttributeRow, error)
	CombinationAttributes(ctx context.Context, scope models.Scope, combinationIDs []models.EntityID) ([]models.AttributeRow, error)
	ProductTags(ctx context.Context, languageID int64, productIDs []models.EntityID) ([]models.TagRow, error)
}

// Images holds the image URLs of one product or combination in storage
// order, plus the one shown first.
type Images struct {
	URLs []string
	Main string
}

// Grouped maps an aspect key such as attribute_group_<id> to its values.
type Grouped map[string][]string

// Joiner runs one batched read per aspect and folds the rows by owner id.
// An empty id set never reaches the store.
type Joiner struct {
	store  Store
	linker Linker
}

func NewJoiner(s Store, l Linker) *Joiner {
	return &Joiner{store: s, linker: l}
}

func (j *Joiner) ProductImages(ctx context.Context, scope models.Scope, productIDs []models.EntityID) (map[models.EntityID]Images, error) {
	if len(productIDs) == 0 {
		return map[models.EntityID]Images{}, nil
	}
	rows, err := j.store.ProductImages(ctx, scope, productIDs)
	if err != nil {
		return nil, err
	}
	return j.foldImages(rows), nil
}

func (j *Joiner) CombinationImages(ctx context.Context, scope models.Scope, combinationIDs []models.EntityID) (map[models.EntityID]Images, error) {
	if len(combinationIDs) == 0 {
		return map[models.EntityID]Images{}, nil
	}
	rows, err := j.store.CombinationImages(ctx, scope, combinationIDs)
	if err != nil {
		return nil, err
	}
	return j.foldImages(rows), nil
}

// foldImages keeps the cover image as main, else the first URL seen.
func (j *Joiner) foldImages(rows []models.ImageRow) map[models.EntityID]Images {
	out := make(map[models.EntityID]Images)
	covered := make(map[models.EntityID]bool)
	for _, row := range rows {
		u := j.linker.ImageURL(row.ImageID, row.LinkRewrite)
		img := out[row.OwnerID]
		img.URLs = append(img.URLs, u)
		switch {
		case row.Cover && !covered[row.OwnerID]:
			img.Main = u
			covered[row.OwnerID] = true
		case img.Main == "":
			img.Main = u
		}
		out[row.OwnerID] = img
	}
	return out
}

// Manufacturers resolves the names of the distinct non-zero manufacturer
// ids given.
func (j *Joiner) Manufacturers(ctx context.Context, scope models.Scope, manufacturerIDs []models.EntityID) (map[models.EntityID]string, error) {
	ids := make([]models.EntityID, 0, len(manufacturerIDs))
	for _, id := range models.Unique(manufacturerIDs) {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	out := make(map[models.EntityID]string)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := j.store.Manufacturers(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

// Features maps each product to feature_<id> -> value. A repeated feature
// keeps its last value.
func (j *Joiner) Features(ctx context.Context, scope models.Scope, productIDs []models.EntityID) (map[models.EntityID]map[string]string, error) {
	out := make(map[models.EntityID]map[string]string)
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := j.store.ProductFeatures(ctx, scope, productIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		m, ok := out[row.ProductID]
		if !ok {
			m = make(map[string]string)
			out[row.ProductID] = m
		}
		m[models.FeatureKey(row.FeatureID)] = row.Value
	}
	return out, nil
}

func (j *Joiner) ProductAttributes(ctx context.Context, scope models.Scope, productIDs []models.EntityID) (map[models.EntityID]Grouped, error) {
	if len(productIDs) == 0 {
		return map[models.EntityID]Grouped{}, nil
	}
	rows, err := j.store.ProductAttributes(ctx, scope, productIDs)
	if err != nil {
		return nil, err
	}
	return foldAttributes(rows), nil
}

func (j *Joiner) CombinationAttributes(ctx context.Context, scope models.Scope, combinationIDs []models.EntityID) (map[models.EntityID]Grouped, error) {
	if len(combinationIDs) == 0 {
		return map[models.EntityID]Grouped{}, nil
	}
	rows, err := j.store.CombinationAttributes(ctx, scope, combinationIDs)
	if err != nil {
		return nil, err
	}
	return foldAttributes(rows), nil
}

// foldAttributes appends names as they come; duplicates are removed when
// the record is assembled.
func foldAttributes(rows []models.AttributeRow) map[models.EntityID]Grouped {
	out := make(map[models.EntityID]Grouped)
	for _, row := range rows {
		g, ok := out[row.OwnerID]
		if !ok {
			g = make(Grouped)
			out[row.OwnerID] = g
		}
		key := models.AttributeGroupKey(row.GroupID)
		g[key] = append(g[key], row.Name)
	}
	return out
}

// Tags are shared by every shop, so only the language scopes them.
func (j *Joiner) Tags(ctx context.Context, languageID int64, productIDs []models.EntityID) (map[models.EntityID][]string, error) {
	out := make(map[models.EntityID][]string)
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := j.store.ProductTags(ctx, languageID, productIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row.Name)
	}
	return out, nil
}
