// File: internal/docstore/codec.go
package docstore

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag models use for their document field names.
const TagName = "firestore"

// Decode copies a document's fields into out, which must be a pointer to a struct tagged with `firestore:"..."`.
func Decode(doc Document, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(doc.Fields); err != nil {
		return fmt.Errorf("decoding document %s: %w", doc.ID, err)
	}
	return nil
}

func copyFields(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
