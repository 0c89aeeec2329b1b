package esutil

import (
	"encoding/json"
	"testing"
	"time"

	"propspot_backend/internal/prop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropToElasticsearchDoc(t *testing.T) {
	p := &prop.Prop{
		ID:         "p1",
		Name:       "Platinum Wig",
		Category:   prop.CategoryWigs,
		HairColor:  "Blonde",
		ImageURL:   "https://cdn/wig.jpg",
		Attributes: []prop.PropAttribute{{Name: "cap", Value: "lace"}},
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := PropToElasticsearchDoc(p)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "Platinum Wig", doc["name"])
	assert.Equal(t, "Wigs", doc["category"])
	assert.Equal(t, "https://cdn/wig_1080x1920.jpg", doc["image_url"])
	assert.Equal(t, "2024-05-01T12:00:00Z", doc["timestamp"])
	assert.Nil(t, doc["last_used"])
	assert.Equal(t, []interface{}{}, doc["tags"])
	assert.Contains(t, doc["search_text"], "blonde")
	assert.Len(t, doc["attributes"], 1)

	_, err = PropToElasticsearchDoc(nil)
	assert.Error(t, err)
}

func TestSnapshotDocuments_SkipsPropsWithoutID(t *testing.T) {
	docs, err := SnapshotDocuments([]prop.Prop{{ID: "a", Name: "A"}, {Name: "no id"}, {ID: "b", Name: "B"}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Contains(t, docs, "a")
	assert.Contains(t, docs, "b")
}
