package aspects

import (
	"context"
	"errors"
	"testing"

	"github.com/lupasearch/catalog-export/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Store ---

type MockAspectStore struct {
	ProductImageRows     []models.ImageRow
	CombinationImageRows []models.ImageRow
	ManufacturerRows     []models.ManufacturerRow
	FeatureRows          []models.FeatureRow
	ProductAttrRows      []models.AttributeRow
	CombinationAttrRows  []models.AttributeRow
	TagRows              []models.TagRow
	Err                  error

	calls      map[string]int
	lastIDs    map[string][]models.EntityID
	lastTagLng int64
}

func (m *MockAspectStore) record(op string, ids []models.EntityID) error {
	if m.calls == nil {
		m.calls = map[string]int{}
		m.lastIDs = map[string][]models.EntityID{}
	}
	m.calls[op]++
	m.lastIDs[op] = ids
	return m.Err
}

func (m *MockAspectStore) ProductImages(_ context.Context, _ models.Scope, ids []models.EntityID) ([]models.ImageRow, error) {
	return m.ProductImageRows, m.record("ProductImages", ids)
}

func (m *MockAspectStore) CombinationImages(_ context.Context, _ models.Scope, ids []models.EntityID) ([]models.ImageRow, error) {
	return m.CombinationImageRows, m.record("CombinationImages", ids)
}

func (m *MockAspectStore) Manufacturers(_ context.Context, _ models.Scope, ids []models.EntityID) ([]models.ManufacturerRow, error) {
	return m.ManufacturerRows, m.record("Manufacturers", ids)
}

func (m *MockAspectStore) ProductFeatures(_ context.Context, _ models.Scope, ids []models.EntityID) ([]models.FeatureRow, error) {
	return m.FeatureRows, m.record("ProductFeatures", ids)
}

func (m *MockAspectStore) ProductAttributes(_ context.Context, _ models.Scope, ids []models.EntityID) ([]models.AttributeRow, error) {
	return m.ProductAttrRows, m.record("ProductAttributes", ids)
}

func (m *MockAspectStore) CombinationAttributes(_ context.Context, _ models.Scope, ids []models.EntityID) ([]models.AttributeRow, error) {
	return m.CombinationAttrRows, m.record("CombinationAttributes", ids)
}

func (m *MockAspectStore) ProductTags(_ context.Context, languageID int64, ids []models.EntityID) ([]models.TagRow, error) {
	m.lastTagLng = languageID
	return m.TagRows, m.record("ProductTags", ids)
}

var (
	testScope  = models.Scope{ShopID: 1, LanguageID: 2}
	testLinker = NewLinker("https://shop.example/", "medium_default")
)

// --- Tests ---

func TestJoiner_EmptyIDsIssueNoQuery(t *testing.T) {
	store := &MockAspectStore{}
	j := NewJoiner(store, testLinker)
	ctx := context.Background()

	images, err := j.ProductImages(ctx, testScope, nil)
	require.NoError(t, err)
	assert.Empty(t, images)

	cimages, err := j.CombinationImages(ctx, testScope, []models.EntityID{})
	require.NoError(t, err)
	assert.Empty(t, cimages)

	brands, err := j.Manufacturers(ctx, testScope, []models.EntityID{0, 0})
	require.NoError(t, err)
	assert.Empty(t, brands)

	features, err := j.Features(ctx, testScope, nil)
	require.NoError(t, err)
	assert.Empty(t, features)

	attrs, err := j.ProductAttributes(ctx, testScope, nil)
	require.NoError(t, err)
	assert.Empty(t, attrs)

	cattrs, err := j.CombinationAttributes(ctx, testScope, nil)
	require.NoError(t, err)
	assert.Empty(t, cattrs)

	tags, err := j.Tags(ctx, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.Empty(t, store.calls, "no store method may run for an empty id set")
}

func TestJoiner_Images(t *testing.T) {
	testCases := []struct {
		name     string
		rows     []models.ImageRow
		expected map[models.EntityID]Images
	}{
		{
			name: "Cover wins as main",
			rows: []models.ImageRow{
				{OwnerID: 1, ImageID: 10, LinkRewrite: "mug"},
				{OwnerID: 1, ImageID: 11, LinkRewrite: "mug", Cover: true},
			},
			expected: map[models.EntityID]Images{
				1: {
					URLs: []string{
						"https://shop.example/10-medium_default/mug.jpg",
						"https://shop.example/11-medium_default/mug.jpg",
					},
					Main: "https://shop.example/11-medium_default/mug.jpg",
				},
			},
		},
		{
			name: "First URL without cover",
			rows: []models.ImageRow{
				{OwnerID: 2, ImageID: 20, LinkRewrite: "cup"},
				{OwnerID: 2, ImageID: 21, LinkRewrite: "cup"},
				{OwnerID: 3, ImageID: 30, LinkRewrite: "plate"},
			},
			expected: map[models.EntityID]Images{
				2: {
					URLs: []string{
						"https://shop.example/20-medium_default/cup.jpg",
						"https://shop.example/21-medium_default/cup.jpg",
					},
					Main: "https://shop.example/20-medium_default/cup.jpg",
				},
				3: {
					URLs: []string{"https://shop.example/30-medium_default/plate.jpg"},
					Main: "https://shop.example/30-medium_default/plate.jpg",
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			store := &MockAspectStore{ProductImageRows: tc.rows, CombinationImageRows: tc.rows}
			j := NewJoiner(store, testLinker)

			// Act
			byProduct, err := j.ProductImages(context.Background(), testScope, []models.EntityID{1, 2, 3})
			require.NoError(t, err)
			byCombination, err := j.CombinationImages(context.Background(), testScope, []models.EntityID{1, 2, 3})
			require.NoError(t, err)

			// Assert
			assert.Equal(t, tc.expected, byProduct)
			assert.Equal(t, tc.expected, byCombination)
			assert.Equal(t, 1, store.calls["ProductImages"])
			assert.Equal(t, 1, store.calls["CombinationImages"])
		})
	}
}

func TestJoiner_Manufacturers(t *testing.T) {
	store := &MockAspectStore{ManufacturerRows: []models.ManufacturerRow{
		{ID: 3, Name: "Acme"},
		{ID: 5, Name: "Globex"},
	}}

	got, err := NewJoiner(store, testLinker).Manufacturers(context.Background(), testScope, []models.EntityID{3, 0, 5, 3})

	require.NoError(t, err)
	assert.Equal(t, map[models.EntityID]string{3: "Acme", 5: "Globex"}, got)
	assert.Equal(t, []models.EntityID{3, 5}, store.lastIDs["Manufacturers"])
}

func TestJoiner_FeaturesLastRowWins(t *testing.T) {
	store := &MockAspectStore{FeatureRows: []models.FeatureRow{
		{ProductID: 1, FeatureID: 4, Value: "Cotton"},
		{ProductID: 1, FeatureID: 4, Value: "Linen"},
		{ProductID: 1, FeatureID: 5, Value: "Blue"},
		{ProductID: 2, FeatureID: 4, Value: "Wool"},
	}}

	got, err := NewJoiner(store, testLinker).Features(context.Background(), testScope, []models.EntityID{1, 2})

	require.NoError(t, err)
	assert.Equal(t, map[models.EntityID]map[string]string{
		1: {"feature_4": "Linen", "feature_5": "Blue"},
		2: {"feature_4": "Wool"},
	}, got)
}

func TestJoiner_AttributesAppend(t *testing.T) {
	rows := []models.AttributeRow{
		{OwnerID: 1, GroupID: 2, Name: "S"},
		{OwnerID: 1, GroupID: 2, Name: "M"},
		{OwnerID: 1, GroupID: 2, Name: "S"},
		{OwnerID: 1, GroupID: 3, Name: "Red"},
	}
	store := &MockAspectStore{ProductAttrRows: rows, CombinationAttrRows: rows[:1]}
	j := NewJoiner(store, testLinker)

	byProduct, err := j.ProductAttributes(context.Background(), testScope, []models.EntityID{1})
	require.NoError(t, err)
	assert.Equal(t, Grouped{
		"attribute_group_2": {"S", "M", "S"},
		"attribute_group_3": {"Red"},
	}, byProduct[1])

	byCombination, err := j.CombinationAttributes(context.Background(), testScope, []models.EntityID{1})
	require.NoError(t, err)
	assert.Equal(t, Grouped{"attribute_group_2": {"S"}}, byCombination[1])
}

func TestJoiner_TagsAreLanguageScoped(t *testing.T) {
	store := &MockAspectStore{TagRows: []models.TagRow{
		{ProductID: 1, Name: "summer"},
		{ProductID: 1, Name: "sale"},
	}}

	got, err := NewJoiner(store, testLinker).Tags(context.Background(), 7, []models.EntityID{1})

	require.NoError(t, err)
	assert.Equal(t, []string{"summer", "sale"}, got[1])
	assert.Equal(t, int64(7), store.lastTagLng)
}

func TestJoiner_StorageErrorPropagates(t *testing.T) {
	store := &MockAspectStore{Err: &models.StorageError{Op: "product images", Err: errors.New("timeout")}}

	_, err := NewJoiner(store, testLinker).ProductImages(context.Background(), testScope, []models.EntityID{1})

	var serr *models.StorageError
	assert.True(t, errors.As(err, &serr))
}

func TestLinker(t *testing.T) {
	l := NewLinker("https://shop.example/", "home_default")

	assert.Equal(t, "https://shop.example/5-home_default/red-mug.jpg", l.ImageURL(5, "red-mug"))
	assert.Equal(t, "https://shop.example/12-red-mug.html", l.ProductURL(12, "red-mug"))
	assert.Equal(t, "https://shop.example/index.php?controller=product&id_product=12", l.ProductURL(12, ""))
	assert.Equal(t, "https://shop.example/12-red-mug.html", l.VariantURL(models.VariantKey{ProductID: 12}, "red-mug"))
	assert.Equal(t, "https://shop.example/12-40-red-mug.html", l.VariantURL(models.VariantKey{ProductID: 12, CombinationID: 40}, "red-mug"))
}
