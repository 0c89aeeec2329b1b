// File: internal/prop/esutil/util.go
package esutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propspot_backend/internal/prop"
)

// PropToElasticsearchDoc converts a prop to its search index document.
func PropToElasticsearchDoc(p *prop.Prop) ([]byte, error) {
	if p == nil {
		return nil, errors.New("prop cannot be nil")
	}

	attrs := make([]map[string]string, 0, len(p.Attributes))
	for _, a := range p.Attributes {
		attrs = append(attrs, map[string]string{"name": a.Name, "value": a.Value})
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := map[string]interface{}{
		"asset_tag":   p.AssetTag,
		"name":        p.Name,
		"category":    string(p.Category),
		"type":        p.Type,
		"image_url":   prop.FixImageURL(p.ImageURL),
		"location":    p.Location,
		"color":       p.Color,
		"size":        p.Size,
		"material":    p.Material,
		"hair_color":  p.HairColor,
		"hair_length": p.HairLength,
		"hair_style":  p.HairStyle,
		"attributes":  attrs,
		"notes":       p.Notes,
		"tags":        tags,
		"search_text": prop.SearchText(*p),
		"last_used":   dateOrNil(p.LastUsed),
		"timestamp":   dateOrNil(p.Timestamp),
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error marshalling prop %s to JSON for ES: %w", p.ID, err)
	}
	return b, nil
}

// SnapshotDocuments converts a full snapshot into index documents keyed by prop id.
// Props without an id cannot be addressed in the index and are skipped.
func SnapshotDocuments(props []prop.Prop) (map[string][]byte, error) {
	docs := make(map[string][]byte, len(props))
	for i := range props {
		if props[i].ID == "" {
			continue
		}
		b, err := PropToElasticsearchDoc(&props[i])
		if err != nil {
			return nil, err
		}
		docs[props[i].ID] = b
	}
	return docs, nil
}

func dateOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
