package categories

import (
	"context"
	"strings"

	"github.com/lupasearch/catalog-export/models"
)

const (
	// Separator joins the names of a category path.
	Separator = " > "
	// MaxDepth bounds a path walk; deeper chains are treated as broken.
	MaxDepth = 64
)

type Node struct {
	Name     string
	ParentID models.EntityID
}

// Map is a snapshot of the category forest of one shop and language.
type Map map[models.EntityID]Node

type Store interface {
	CategoryNodes(ctx context.Context, scope models.Scope) ([]models.CategoryNode, error)
	ProductCategories(ctx context.Context, scope models.Scope, productIDs []models.EntityID) ([]models.ProductCategoryRow, error)
}

type Resolver struct {
	store Store
}

func NewResolver(s Store) *Resolver {
	return &Resolver{store: s}
}

// BuildMap loads every active category of the shop in one read.
func (r *Resolver) BuildMap(ctx context.Context, scope models.Scope) (Map, error) {
	nodes, err := r.store.CategoryNodes(ctx, scope)
	if err != nil {
		return nil, err
	}
	m := make(Map, len(nodes))
	for _, n := range nodes {
		m[n.ID] = Node{Name: n.Name, ParentID: n.ParentID}
	}
	return m, nil
}

// PathOf returns the root-first names from the top of the loaded tree down
// to id. The walk stops at the first parent missing from m. An id that is
// not in m, a cycle, or a chain longer than MaxDepth gives "".
func PathOf(id models.EntityID, m Map) string {
	var names []string
	seen := make(map[models.EntityID]struct{})
	for {
		node, ok := m[id]
		if !ok {
			break
		}
		if _, loop := seen[id]; loop || len(names) == MaxDepth {
			return ""
		}
		seen[id] = struct{}{}
		names = append(names, node.Name)
		id = node.ParentID
	}
	if len(names) == 0 {
		return ""
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, Separator)
}

// FlatNames lists every segment of the given paths, first seen first.
func FlatNames(paths []string) []string {
	var names []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		names = append(names, strings.Split(p, Separator)...)
	}
	return models.Unique(names)
}

// LastNames lists the leaf segment of each path.
func LastNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		parts := strings.Split(p, Separator)
		names = append(names, parts[len(parts)-1])
	}
	return models.Unique(names)
}

// Assignment is the category projection of one product.
type Assignment struct {
	IDs       []models.EntityID
	Hierarchy []string
	Names     []string
	Last      []string
}

// ProductCategories resolves the categories of every given product.
// Categories that are unknown to the shop or have a broken path are left
// out. Products without any resolvable category are absent from the result.
func (r *Resolver) ProductCategories(ctx context.Context, scope models.Scope, productIDs []models.EntityID) (map[models.EntityID]Assignment, error) {
	out := make(map[models.EntityID]Assignment)
	if len(productIDs) == 0 {
		return out, nil
	}

	links, err := r.store.ProductCategories(ctx, scope, productIDs)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}

	m, err := r.BuildMap(ctx, scope)
	if err != nil {
		return nil, err
	}

	for _, link := range links {
		path := PathOf(link.CategoryID, m)
		if path == "" {
			continue
		}
		a := out[link.ProductID]
		a.IDs = append(a.IDs, link.CategoryID)
		a.Hierarchy = append(a.Hierarchy, path)
		out[link.ProductID] = a
	}

	for id, a := range out {
		a.IDs = models.Unique(a.IDs)
		a.Hierarchy = models.Unique(a.Hierarchy)
		a.Names = FlatNames(a.Hierarchy)
		a.Last = LastNames(a.Hierarchy)
		out[id] = a
	}
	return out, nil
}
