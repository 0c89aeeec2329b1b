// File: internal/prop/search.go
package prop

import (
	"strings"

	"propspot_backend/internal/docstore"
)

// Terms lower-cases and whitespace-splits a search query.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Search returns the props whose searchable text contains every term of query,
// in the order they appear in props. An empty query matches everything.
func Search(props []Prop, query string) []Prop {
	terms := Terms(query)
	out := make([]Prop, 0)
	for _, p := range props {
		if matchesAll(SearchText(p), terms) {
			out = append(out, p)
		}
	}
	return out
}

// SearchText is the lower-cased, space-joined text a prop is searched by.
func SearchText(p Prop) string {
	parts := []string{
		p.Name, string(p.Category), p.Color, p.Size, p.Material, p.Type,
		p.HairColor, p.HairLength, p.HairStyle, p.Notes,
		strings.Join(p.Tags, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// prefilters maps distinguished query terms onto equality filters the remote store can answer.
var prefilters = map[string]docstore.Filter{
	"blonde": docstore.Eq(FieldHairColor, "Blonde"),
	"long":   docstore.Eq(FieldHairLength, "Long"),
	"wig":    docstore.Eq(FieldType, "wig"),
}

// PrefilterFor returns the remote filters implied by the query's distinguished terms.
func PrefilterFor(query string) []docstore.Filter {
	var filters []docstore.Filter
	seen := map[string]bool{}
	for _, t := range Terms(query) {
		if f, ok := prefilters[t]; ok && !seen[t] {
			filters = append(filters, f)
			seen[t] = true
		}
	}
	return filters
}
