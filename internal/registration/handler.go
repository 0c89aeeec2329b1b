// File: internal/registration/handler.go
package registration

import (
	"propspot_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for registration handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new registration handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("registration_handler")}
}

// RegisterRoutes sets up the public registration routes and the admin approval queue.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	reg := router.Group("/registrations")
	{
		reg.POST("", h.register)
		reg.POST("/federated", h.registerFederated)
	}

	admin := router.Group("/admin/registrations")
	admin.Use(authMW, adminMW)
	{
		admin.GET("", h.listPending)
		admin.POST("/:id/approve", h.approve)
		admin.DELETE("/:id", h.reject)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if !common.BindJSON(c, &req) {
		return
	}
	uid, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondAccepted(c, "Registration received. An administrator must approve your account before you can sign in.",
		RegistrationResponse{ID: uid, Status: StatusPending})
}

func (h *Handler) registerFederated(c *gin.Context) {
	var req FederatedRequest
	if !common.BindJSON(c, &req) {
		return
	}
	p, err := h.service.RegisterFederated(c.Request.Context(), req.IDToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Signed in.", p)
}

func (h *Handler) listPending(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Pending registrations retrieved successfully.", pending)
}

func (h *Handler) approve(c *gin.Context) {
	var req ApproveRequest
	if c.Request.ContentLength != 0 && !common.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Approve(c.Request.Context(), c.Param("id"), req.Capabilities)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Registration approved.", p)
}

func (h *Handler) reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
