package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityID_StringAndIntegerFormsAreEquivalent(t *testing.T) {
	fromString, err := ParseEntityID("42")
	require.NoError(t, err)
	assert.Equal(t, EntityID(42), fromString)

	var fromNumber, fromQuoted EntityID
	require.NoError(t, json.Unmarshal([]byte(`42`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &fromQuoted))
	assert.Equal(t, fromString, fromNumber)
	assert.Equal(t, fromString, fromQuoted)

	set := NewIDSet([]EntityID{fromNumber})
	assert.True(t, set.Has(fromQuoted))
}

func TestEntityID_JSON(t *testing.T) {
	t.Run("value encodes as number", func(t *testing.T) {
		b, err := json.Marshal(map[string]any{"id": EntityID(7)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":7}`, string(b))
	})

	t.Run("map keys decode from strings", func(t *testing.T) {
		var m map[EntityID]string
		require.NoError(t, json.Unmarshal([]byte(`{"1":"a","2":"b"}`), &m))
		assert.Equal(t, map[EntityID]string{1: "a", 2: "b"}, m)
	})

	t.Run("invalid ids are rejected", func(t *testing.T) {
		for _, in := range []string{"", "abc", "-3", "1.5"} {
			_, err := ParseEntityID(in)
			assert.Error(t, err, in)
		}
	})
}

func TestVariantKey_ID(t *testing.T) {
	simple := VariantKey{ProductID: 10}
	combo := VariantKey{ProductID: 10, CombinationID: 3}

	assert.True(t, simple.IsSimple())
	assert.False(t, combo.IsSimple())
	assert.Equal(t, "10-0", simple.ID())
	assert.Equal(t, "10-3", combo.ID())
	assert.NotEqual(t, simple.ID(), VariantKey{ProductID: 1, CombinationID: 0}.ID())
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"Red", "Blue"}, Unique([]string{"Red", "Blue", "Red"}))
	assert.Equal(t, []EntityID{3, 1}, Unique([]EntityID{3, 1, 3, 1}))
	assert.Empty(t, Unique[string](nil))
}

func TestPropertyKeys(t *testing.T) {
	assert.Equal(t, "feature_5", FeatureKey(5))
	assert.Equal(t, "attribute_group_12", AttributeGroupKey(12))
}

func TestEntityID_UnmarshalJSONRejectsUnbalancedQuotes(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		want    EntityID
		wantErr bool
	}{
		{name: "Number", in: `12`, want: 12},
		{name: "Quoted", in: `"12"`, want: 12},
		{name: "Leading quote only", in: `"12`, wantErr: true},
		{name: "Trailing quote only", in: `12"`, wantErr: true},
		{name: "Lone quote", in: `"`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var id EntityID
			err := id.UnmarshalJSON([]byte(tc.in))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}
