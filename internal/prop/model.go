// File: internal/prop/model.go
package prop

import (
	"fmt"
	"strings"
	"time"

	"propspot_backend/internal/docstore"
)

// Category is the fixed set of prop categories.
type Category string

const (
	CategoryClothing    Category = "Clothing"
	CategoryFurniture   Category = "Furniture"
	CategoryAccessories Category = "Accessories"
	CategoryElectronics Category = "Electronics"
	CategoryWigs        Category = "Wigs"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryClothing, CategoryFurniture, CategoryAccessories,
	CategoryElectronics, CategoryWigs, CategoryOther,
}

// Document field names.
const (
	FieldAssetTag   = "assetTag"
	FieldName       = "name"
	FieldCategory   = "category"
	FieldType       = "type"
	FieldImageURL   = "imageUrl"
	FieldLastUsed   = "lastUsed"
	FieldLocation   = "location"
	FieldColor      = "color"
	FieldSize       = "size"
	FieldMaterial   = "material"
	FieldHairColor  = "hairColor"
	FieldHairLength = "hairLength"
	FieldHairStyle  = "hairStyle"
	FieldAttributes = "attributes"
	FieldNotes      = "notes"
	FieldTags       = "tags"
	FieldTimestamp  = "timestamp"
)

// PropAttribute is one free-form name/value pair.
type PropAttribute struct {
	Name  string `json:"name" firestore:"name" binding:"required,max=100"`
	Value string `json:"value" firestore:"value" binding:"max=500"`
}

// Prop is one physical inventory item.
type Prop struct {
	ID         string          `json:"id" firestore:"-"`
	AssetTag   string          `json:"assetTag" firestore:"assetTag"`
	Name       string          `json:"name" firestore:"name"`
	Category   Category        `json:"category" firestore:"category"`
	Type       string          `json:"type,omitempty" firestore:"type"`
	ImageURL   string          `json:"imageUrl" firestore:"imageUrl"`
	LastUsed   time.Time       `json:"lastUsed" firestore:"lastUsed"`
	Location   string          `json:"location,omitempty" firestore:"location"`
	Color      string          `json:"color,omitempty" firestore:"color"`
	Size       string          `json:"size,omitempty" firestore:"size"`
	Material   string          `json:"material,omitempty" firestore:"material"`
	HairColor  string          `json:"hairColor,omitempty" firestore:"hairColor"`
	HairLength string          `json:"hairLength,omitempty" firestore:"hairLength"`
	HairStyle  string          `json:"hairStyle,omitempty" firestore:"hairStyle"`
	Attributes []PropAttribute `json:"attributes" firestore:"attributes"`
	Notes      string          `json:"notes,omitempty" firestore:"notes"`
	Tags       []string        `json:"tags,omitempty" firestore:"tags"`
	Timestamp  time.Time       `json:"timestamp" firestore:"timestamp"`
}

// ToFields converts the prop into a document field map. The id is never part of the document.
func (p *Prop) ToFields() map[string]interface{} {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		FieldAssetTag:   p.AssetTag,
		FieldName:       p.Name,
		FieldCategory:   string(p.Category),
		FieldType:       p.Type,
		FieldImageURL:   p.ImageURL,
		FieldLastUsed:   p.LastUsed,
		FieldLocation:   p.Location,
		FieldColor:      p.Color,
		FieldSize:       p.Size,
		FieldMaterial:   p.Material,
		FieldHairColor:  p.HairColor,
		FieldHairLength: p.HairLength,
		FieldHairStyle:  p.HairStyle,
		FieldAttributes: attributesToFields(p.Attributes),
		FieldNotes:      p.Notes,
		FieldTags:       tags,
		FieldTimestamp:  p.Timestamp,
	}
}

func attributesToFields(attrs []PropAttribute) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, map[string]interface{}{"name": a.Name, "value": a.Value})
	}
	return out
}

// FromDocument decodes a stored document into a Prop carrying the document id.
func FromDocument(doc docstore.Document) (Prop, error) {
	var p Prop
	if err := docstore.Decode(doc, &p); err != nil {
		return Prop{}, err
	}
	p.ID = doc.ID
	if p.Attributes == nil {
		p.Attributes = []PropAttribute{}
	}
	return p, nil
}

const resizedSuffix = "_1080x1920.jpg"

// FixImageURL points a .jpg image reference at its resized variant.
func FixImageURL(image string) string {
	if image == "" || strings.Contains(image, resizedSuffix) {
		return image
	}
	return strings.Replace(image, ".jpg", resizedSuffix, 1)
}

// --- DTOs for API ---

type CreatePropRequest struct {
	AssetTag   string          `json:"assetTag" binding:"omitempty,max=64"`
	Name       string          `json:"name" binding:"required,min=1,max=255"`
	Category   Category        `json:"category" binding:"required,oneof=Clothing Furniture Accessories Electronics Wigs Other"`
	Type       string          `json:"type" binding:"max=100"`
	ImageURL   string          `json:"imageUrl" binding:"omitempty,max=2048"`
	LastUsed   *time.Time      `json:"lastUsed"`
	Location   string          `json:"location" binding:"max=255"`
	Color      string          `json:"color" binding:"max=100"`
	Size       string          `json:"size" binding:"max=100"`
	Material   string          `json:"material" binding:"max=100"`
	HairColor  string          `json:"hairColor" binding:"max=100"`
	HairLength string          `json:"hairLength" binding:"max=100"`
	HairStyle  string          `json:"hairStyle" binding:"max=100"`
	Attributes []PropAttribute `json:"attributes" binding:"omitempty,dive"`
	Notes      string          `json:"notes" binding:"max=4000"`
	Tags       []string        `json:"tags" binding:"omitempty,dive,max=50"`
}

// ToProp builds a new Prop from the request. Any client-supplied id is not part of the request.
func (r CreatePropRequest) ToProp() Prop {
	p := Prop{
		AssetTag:   r.AssetTag,
		Name:       r.Name,
		Category:   r.Category,
		Type:       r.Type,
		ImageURL:   r.ImageURL,
		Location:   r.Location,
		Color:      r.Color,
		Size:       r.Size,
		Material:   r.Material,
		HairColor:  r.HairColor,
		HairLength: r.HairLength,
		HairStyle:  r.HairStyle,
		Attributes: r.Attributes,
		Notes:      r.Notes,
		Tags:       r.Tags,
	}
	if r.LastUsed != nil {
		p.LastUsed = *r.LastUsed
	}
	return p
}

// UpdatePropRequest carries a partial update. Only non-nil fields are written.
type UpdatePropRequest struct {
	AssetTag   *string          `json:"assetTag" binding:"omitempty,max=64"`
	Name       *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Category   *Category        `json:"category" binding:"omitempty,oneof=Clothing Furniture Accessories Electronics Wigs Other"`
	Type       *string          `json:"type" binding:"omitempty,max=100"`
	ImageURL   *string          `json:"imageUrl" binding:"omitempty,max=2048"`
	LastUsed   *time.Time       `json:"lastUsed"`
	Location   *string          `json:"location" binding:"omitempty,max=255"`
	Color      *string          `json:"color" binding:"omitempty,max=100"`
	Size       *string          `json:"size" binding:"omitempty,max=100"`
	Material   *string          `json:"material" binding:"omitempty,max=100"`
	HairColor  *string          `json:"hairColor" binding:"omitempty,max=100"`
	HairLength *string          `json:"hairLength" binding:"omitempty,max=100"`
	HairStyle  *string          `json:"hairStyle" binding:"omitempty,max=100"`
	Attributes *[]PropAttribute `json:"attributes" binding:"omitempty,dive"`
	Notes      *string          `json:"notes" binding:"omitempty,max=4000"`
	Tags       *[]string        `json:"tags" binding:"omitempty,dive,max=50"`
}

// Fields returns the document fields present in the request.
func (r UpdatePropRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	setString := func(name string, v *string) {
		if v != nil {
			fields[name] = *v
		}
	}
	setString(FieldAssetTag, r.AssetTag)
	setString(FieldName, r.Name)
	if r.Category != nil {
		fields[FieldCategory] = string(*r.Category)
	}
	setString(FieldType, r.Type)
	setString(FieldImageURL, r.ImageURL)
	if r.LastUsed != nil {
		fields[FieldLastUsed] = *r.LastUsed
	}
	setString(FieldLocation, r.Location)
	setString(FieldColor, r.Color)
	setString(FieldSize, r.Size)
	setString(FieldMaterial, r.Material)
	setString(FieldHairColor, r.HairColor)
	setString(FieldHairLength, r.HairLength)
	setString(FieldHairStyle, r.HairStyle)
	if r.Attributes != nil {
		fields[FieldAttributes] = attributesToFields(*r.Attributes)
	}
	setString(FieldNotes, r.Notes)
	if r.Tags != nil {
		fields[FieldTags] = *r.Tags
	}
	return fields
}

// updatableFields is the set of fields a partial update may touch.
var updatableFields = map[string]struct{}{
	FieldAssetTag: {}, FieldName: {}, FieldCategory: {}, FieldType: {},
	FieldImageURL: {}, FieldLastUsed: {}, FieldLocation: {}, FieldColor: {},
	FieldSize: {}, FieldMaterial: {}, FieldHairColor: {}, FieldHairLength: {},
	FieldHairStyle: {}, FieldAttributes: {}, FieldNotes: {}, FieldTags: {},
}

// CheckUpdateKeys reports the first key that a partial update may not carry.
func CheckUpdateKeys(keys []string) error {
	for _, k := range keys {
		if _, ok := updatableFields[k]; !ok {
			return fmt.Errorf("field %q cannot be updated", k)
		}
	}
	return nil
}

// PropResponse is the API view of a Prop, with the image pointed at its resized variant.
type PropResponse struct {
	Prop
	ImageURL string `json:"imageUrl"`
}

func ToPropResponse(p Prop) PropResponse {
	return PropResponse{Prop: p, ImageURL: FixImageURL(p.ImageURL)}
}

func ToPropResponses(props []Prop) []PropResponse {
	out := make([]PropResponse, len(props))
	for i, p := range props {
		out[i] = ToPropResponse(p)
	}
	return out
}
