// File: internal/prop/handler.go
package prop

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"propspot_backend/internal/common"
	"propspot_backend/internal/docstore"
	"propspot_backend/internal/profile"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const streamKeepalive = 25 * time.Second

// filterableFields are the query parameters GET /props turns into equality filters.
var filterableFields = []string{
	FieldAssetTag, FieldName, FieldCategory, FieldType, FieldLocation, FieldColor,
	FieldSize, FieldMaterial, FieldHairColor, FieldHairLength, FieldHairStyle,
}

// Handler struct holds dependencies for prop handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new prop handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("prop_handler")}
}

// RegisterRoutes sets up the routes for prop operations. can builds the middleware
// that admits callers holding a capability.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, can func(profile.Capability) gin.HandlerFunc) {
	propGroup := router.Group("/props")
	propGroup.Use(authMW)
	{
		propGroup.GET("", can(profile.CapabilityRead), h.listProps)
		propGroup.GET("/search", can(profile.CapabilityRead), h.searchProps)
		propGroup.GET("/stream", can(profile.CapabilityRead), h.streamProps)
		propGroup.GET("/:id", can(profile.CapabilityRead), h.getProp)
		propGroup.POST("", can(profile.CapabilityCreate), h.createProp)
		propGroup.PATCH("/:id", can(profile.CapabilityUpdate), h.updateProp)
		propGroup.DELETE("/:id", can(profile.CapabilityDelete), h.deleteProp)
	}
}

func (h *Handler) listProps(c *gin.Context) {
	var filters []docstore.Filter
	for _, f := range filterableFields {
		if v, ok := c.GetQuery(f); ok {
			filters = append(filters, docstore.Eq(f, v))
		}
	}

	if len(filters) == 0 {
		props := h.service.List(c.Request.Context())
		common.RespondOK(c, "Props retrieved successfully.", ToPropResponses(props))
		return
	}

	props, err := h.service.Find(c.Request.Context(), filters...)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Props retrieved successfully.", ToPropResponses(props))
}

func (h *Handler) searchProps(c *gin.Context) {
	props, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Search completed.", ToPropResponses(props))
}

// streamProps pushes every mirror snapshot as a server-sent event, narrowed by ?q= when given.
func (h *Handler) streamProps(c *gin.Context) {
	query := c.Query("q")
	snapshots, cancel := h.service.Subscribe()
	defer cancel()

	ticker := time.NewTicker(streamKeepalive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	ctx := c.Request.Context()

	h.logger.Debug("Prop stream opened", zap.String("query", query))
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case props, ok := <-snapshots:
			if !ok {
				return false
			}
			if query != "" {
				props = Search(props, query)
			}
			c.SSEvent("snapshot", ToPropResponses(props))
			return true
		case <-ticker.C:
			c.SSEvent("keepalive", time.Now().Unix())
			return true
		}
	})
	h.logger.Debug("Prop stream closed", zap.String("query", query))
}

func (h *Handler) getProp(c *gin.Context) {
	p, err := h.service.Read(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if p == nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Prop not found."))
		return
	}
	common.RespondOK(c, "Prop retrieved successfully.", ToPropResponse(*p))
}

func (h *Handler) createProp(c *gin.Context) {
	var req CreatePropRequest
	if !common.BindJSON(c, &req) {
		return
	}

	id, err := h.service.Create(c.Request.Context(), req.ToProp())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Prop created successfully.", gin.H{"id": id})
}

func (h *Handler) updateProp(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read request body."))
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Request body must be a JSON object."))
		return
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	if err := CheckUpdateKeys(keys); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	var req UpdatePropRequest
	if err := json.Unmarshal(body, &req); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	if err := h.service.Update(c.Request.Context(), c.Param("id"), req.Fields()); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Prop updated successfully.", nil)
}

func (h *Handler) deleteProp(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
