// File: internal/registration/model.go
package registration

import (
	"time"

	"propspot_backend/internal/docstore"
	"propspot_backend/internal/profile"
)

// StatusPending is the only status a pending registration ever carries.
const StatusPending = "pending"

const (
	fieldName         = "name"
	fieldEmail        = "email"
	fieldRegisteredAt = "registeredAt"
	fieldStatus       = "status"
)

// PendingRegistration is a credential waiting for an administrator, keyed by its uid.
type PendingRegistration struct {
	ID           string    `json:"id" firestore:"-"`
	Name         string    `json:"name" firestore:"name"`
	Email        string    `json:"email" firestore:"email"`
	RegisteredAt time.Time `json:"registeredAt" firestore:"registeredAt"`
	Status       string    `json:"status" firestore:"status"`
}

func (r *PendingRegistration) ToFields() map[string]interface{} {
	return map[string]interface{}{
		fieldName:         r.Name,
		fieldEmail:        r.Email,
		fieldRegisteredAt: r.RegisteredAt,
		fieldStatus:       r.Status,
	}
}

func fromDocument(doc docstore.Document) (*PendingRegistration, error) {
	var r PendingRegistration
	if err := docstore.Decode(doc, &r); err != nil {
		return nil, err
	}
	r.ID = doc.ID
	return &r, nil
}

// --- DTOs for API ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=150"`
}

type FederatedRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type ApproveRequest struct {
	profile.Capabilities
}

type RegistrationResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
