// File: internal/account/handler.go
package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"propspot_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeletePath is where the deletion endpoint is mounted, outside the versioned API.
const DeletePath = "/deleteUser"

type deleteUserRequest struct {
	UID *string `json:"uid"`
}

// Handler serves the deletion endpoint. Its responses follow a fixed wire contract
// rather than the API envelope.
type Handler struct {
	service       *DeletionService
	allowedOrigin string
	logger        *zap.Logger
}

func NewHandler(service *DeletionService, allowedOrigin string, logger *zap.Logger) *Handler {
	return &Handler{service: service, allowedOrigin: allowedOrigin, logger: logger.Named("account_handler")}
}

// RegisterRoutes mounts the endpoint for every method so that anything but POST and OPTIONS gets 405.
func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.Any(DeletePath, h.deleteUser)
}

func (h *Handler) deleteUser(c *gin.Context) {
	h.setCORSHeaders(c)

	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		c.Header("Allow", "POST, OPTIONS")
		respondError(c, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req deleteUserRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil || req.UID == nil || !ValidUID(*req.UID) {
		respondError(c, http.StatusBadRequest, "A valid uid is required.")
		return
	}

	token := common.GetTokenFromContext(c)
	err := h.service.DeleteUser(c.Request.Context(), token, *req.UID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, ErrInvalidUID):
		respondError(c, http.StatusBadRequest, "A valid uid is required.")
	case errors.Is(err, ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "Must be an admin to delete users.")
	default:
		h.logger.Error("Delete user failed", zap.String("targetUID", *req.UID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Error deleting user.")
	}
}

func (h *Handler) setCORSHeaders(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" || origin != h.allowedOrigin {
		return
	}
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
	c.Header("Access-Control-Max-Age", "3600")
	c.Header("Vary", "Origin")
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}
