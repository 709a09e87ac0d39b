package models

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityID identifies a product, combination, category or any other catalog
// row. It serializes as a JSON number, but as a string when used as a map
// key, and parses from either form.
type EntityID int64

func ParseEntityID(s string) (EntityID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity id %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid entity id %q: negative", s)
	}
	return EntityID(v), nil
}

func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id EntityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *EntityID) UnmarshalText(b []byte) error {
	v, err := ParseEntityID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

func (id EntityID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalJSON accepts both 12 and "12".
func (id *EntityID) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	return id.UnmarshalText(b)
}

// IDSet is a membership set over entity ids.
type IDSet map[EntityID]struct{}

func NewIDSet(ids []EntityID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Has(id EntityID) bool {
	_, ok := s[id]
	return ok
}

// VariantKey addresses a sellable variant. A zero CombinationID is the
// simple variant of a product without combinations.
type VariantKey struct {
	ProductID     EntityID
	CombinationID EntityID
}

func (k VariantKey) IsSimple() bool {
	return k.CombinationID == 0
}

// ID is the canonical exported variant id, unique across simple and
// combination variants.
func (k VariantKey) ID() string {
	return k.ProductID.String() + "-" + k.CombinationID.String()
}

// Unique returns values in first-seen order without duplicates.
func Unique[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func FeatureKey(id EntityID) string {
	return "feature_" + id.String()
}

func AttributeGroupKey(id EntityID) string {
	return "attribute_group_" + id.String()
}
