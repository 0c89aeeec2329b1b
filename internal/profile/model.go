// File: internal/profile/model.go
package profile

import (
	"time"

	"propspot_backend/internal/docstore"
)

// Capability names one of the per-user prop permissions.
type Capability string

const (
	CapabilityCreate Capability = "create"
	CapabilityRead   Capability = "read"
	CapabilityUpdate Capability = "update"
	CapabilityDelete Capability = "delete"
)

// Document field names.
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldAdministrator = "administrator"
	FieldCanCreate     = "canCreate"
	FieldCanRead       = "canRead"
	FieldCanUpdate     = "canUpdate"
	FieldCanDelete     = "canDelete"
	FieldApproved      = "approved"
	FieldCreated       = "created"
)

// UserProfile is an approved account. Its existence, keyed by credential uid, is what authorizes a caller.
type UserProfile struct {
	ID            string    `json:"id" firestore:"-"`
	Name          string    `json:"name" firestore:"name"`
	Email         string    `json:"email" firestore:"email"`
	Administrator bool      `json:"administrator" firestore:"administrator"`
	CanCreate     bool      `json:"canCreate" firestore:"canCreate"`
	CanRead       bool      `json:"canRead" firestore:"canRead"`
	CanUpdate     bool      `json:"canUpdate" firestore:"canUpdate"`
	CanDelete     bool      `json:"canDelete" firestore:"canDelete"`
	Approved      bool      `json:"approved" firestore:"approved"`
	Created       time.Time `json:"created" firestore:"created"`
}

// Has reports whether the profile holds a capability. Administrators hold every capability.
func (p *UserProfile) Has(c Capability) bool {
	if p == nil {
		return false
	}
	if p.Administrator {
		return true
	}
	switch c {
	case CapabilityCreate:
		return p.CanCreate
	case CapabilityRead:
		return p.CanRead
	case CapabilityUpdate:
		return p.CanUpdate
	case CapabilityDelete:
		return p.CanDelete
	default:
		return false
	}
}

func (p *UserProfile) ToFields() map[string]interface{} {
	return map[string]interface{}{
		FieldName:          p.Name,
		FieldEmail:         p.Email,
		FieldAdministrator: p.Administrator,
		FieldCanCreate:     p.CanCreate,
		FieldCanRead:       p.CanRead,
		FieldCanUpdate:     p.CanUpdate,
		FieldCanDelete:     p.CanDelete,
		FieldApproved:      p.Approved,
		FieldCreated:       p.Created,
	}
}

// FromDocument decodes a profiles document.
func FromDocument(doc docstore.Document) (*UserProfile, error) {
	var p UserProfile
	if err := docstore.Decode(doc, &p); err != nil {
		return nil, err
	}
	p.ID = doc.ID
	return &p, nil
}

// Capabilities is the set of grants an administrator hands out.
type Capabilities struct {
	Administrator bool `json:"administrator"`
	CanCreate     bool `json:"canCreate"`
	CanRead       bool `json:"canRead"`
	CanUpdate     bool `json:"canUpdate"`
	CanDelete     bool `json:"canDelete"`
}

// Apply copies the grants onto a profile.
func (c Capabilities) Apply(p *UserProfile) {
	p.Administrator = c.Administrator
	p.CanCreate = c.CanCreate
	p.CanRead = c.CanRead
	p.CanUpdate = c.CanUpdate
	p.CanDelete = c.CanDelete
}

// --- DTOs for API ---

type UpdateSelfRequest struct {
	Name string `json:"name" binding:"required,min=1,max=150"`
}

type AdminUpdateProfileRequest struct {
	Administrator *bool `json:"administrator"`
	CanCreate     *bool `json:"canCreate"`
	CanRead       *bool `json:"canRead"`
	CanUpdate     *bool `json:"canUpdate"`
	CanDelete     *bool `json:"canDelete"`
}

// Fields returns the document fields present in the request.
func (r AdminUpdateProfileRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(name string, v *bool) {
		if v != nil {
			fields[name] = *v
		}
	}
	set(FieldAdministrator, r.Administrator)
	set(FieldCanCreate, r.CanCreate)
	set(FieldCanRead, r.CanRead)
	set(FieldCanUpdate, r.CanUpdate)
	set(FieldCanDelete, r.CanDelete)
	return fields
}
