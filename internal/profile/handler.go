// File: internal/profile/handler.go
package profile

import (
	"propspot_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for profile handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("profile_handler")}
}

// RegisterRoutes sets up the self-service and admin profile routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	me := router.Group("/profiles/me")
	me.Use(authMW)
	{
		me.GET("", h.getMe)
		me.PATCH("", h.updateMe)
	}

	admin := router.Group("/admin/profiles")
	admin.Use(authMW, adminMW)
	{
		admin.GET("", h.listProfiles)
		admin.PATCH("/:id", h.updateProfile)
	}
}

func (h *Handler) getMe(c *gin.Context) {
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
	if p == nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("No profile exists for this account."))
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", p)
}

func (h *Handler) updateMe(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	var req UpdateSelfRequest
	if !common.BindJSON(c, &req) {
		return
	}
	p, err := h.service.UpdateName(c.Request.Context(), uid, req.Name)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", p)
}

func (h *Handler) listProfiles(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profiles retrieved successfully.", profiles)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req AdminUpdateProfileRequest
	if !common.BindJSON(c, &req) {
		return
	}
	p, err := h.service.UpdateCapabilities(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", p)
}
