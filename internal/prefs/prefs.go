// File: internal/prefs/prefs.go
package prefs

import (
	"context"
	"fmt"

	"propspot_backend/internal/common"
	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const fieldDefaultPropType = "defaultPropType"

// Preferences are per-user UI defaults, keyed by uid.
type Preferences struct {
	UID             string `json:"uid" firestore:"-"`
	DefaultPropType string `json:"defaultPropType" firestore:"defaultPropType"`
}

// UpdateRequest is a partial preferences write; absent fields keep their stored values.
type UpdateRequest struct {
	DefaultPropType *string `json:"defaultPropType" binding:"omitempty,max=100"`
}

// Service reads and merges user preferences.
type Service struct {
	store      docstore.Store
	collection string
	logger     *zap.Logger
}

func NewService(store docstore.Store, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{store: store, collection: cfg.PrefsCollection, logger: logger.Named("prefs_service")}
}

// Get returns the stored preferences, or defaults when none are stored.
func (s *Service) Get(ctx context.Context, uid string) (*Preferences, error) {
	doc, err := s.store.Get(ctx, s.collection, uid)
	if err != nil {
		return nil, fmt.Errorf("get prefs %s: %w", uid, err)
	}
	p := &Preferences{UID: uid}
	if doc == nil {
		return p, nil
	}
	if err := docstore.Decode(*doc, p); err != nil {
		return nil, err
	}
	p.UID = uid
	return p, nil
}

// Merge writes the supplied fields without touching the others.
func (s *Service) Merge(ctx context.Context, uid string, req UpdateRequest) (*Preferences, error) {
	fields := map[string]interface{}{}
	if req.DefaultPropType != nil {
		fields[fieldDefaultPropType] = *req.DefaultPropType
	}
	if len(fields) > 0 {
		if err := s.store.Set(ctx, s.collection, uid, fields, true); err != nil {
			return nil, fmt.Errorf("set prefs %s: %w", uid, err)
		}
	}
	return s.Get(ctx, uid)
}

// Delete removes a user's preferences document.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if err := s.store.Delete(ctx, s.collection, uid); err != nil {
		return fmt.Errorf("delete prefs %s: %w", uid, err)
	}
	return nil
}

// Handler serves the caller's own preferences.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := router.Group("/prefs/me")
	g.Use(authMW)
	g.GET("", h.get)
	g.PUT("", h.put)
}

func (h *Handler) get(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	p, err := h.service.Get(c.Request.Context(), uid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Preferences retrieved successfully.", p)
}

func (h *Handler) put(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	var req UpdateRequest
	if !common.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Merge(c.Request.Context(), uid, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Preferences saved.", p)
}
