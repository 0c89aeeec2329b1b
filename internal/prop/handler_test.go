package prop

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"propspot_backend/internal/profile"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandlerRouter(t *testing.T, svc Service, allowed ...profile.Capability) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	can := func(want profile.Capability) gin.HandlerFunc {
		return func(c *gin.Context) {
			for _, a := range allowed {
				if a == want {
					c.Next()
					return
				}
			}
			c.AbortWithStatus(http.StatusForbidden)
		}
	}
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), pass, can)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CRUD(t *testing.T) {
	h := newHarness(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, h.mirror.Start(ctx))
	r := newHandlerRouter(t, h.service,
		profile.CapabilityCreate, profile.CapabilityRead, profile.CapabilityUpdate, profile.CapabilityDelete)

	w := doJSON(r, http.MethodPost, "/api/v1/props", `{"name":"Top Hat","category":"Accessories","imageUrl":"https://cdn/hat.jpg"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	w = doJSON(r, http.MethodGet, "/api/v1/props/"+created.Data.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data PropResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Top Hat", got.Data.Name)
	assert.Equal(t, "https://cdn/hat_1080x1920.jpg", got.Data.ImageURL)

	w = doJSON(r, http.MethodPatch, "/api/v1/props/"+created.Data.ID, `{"color":"Grey"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPatch, "/api/v1/props/"+created.Data.ID, `{"id":"other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/props/search?q=grey+hat", "")
	require.Equal(t, http.StatusOK, w.Code)
	var found struct {
		Data []PropResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Len(t, found.Data, 1)

	w = doJSON(r, http.MethodDelete, "/api/v1/props/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/props/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CreateValidation(t *testing.T) {
	h := newHarness(t, false)
	r := newHandlerRouter(t, h.service, profile.CapabilityCreate)

	w := doJSON(r, http.MethodPost, "/api/v1/props", `{"name":"Thing","category":"Spaceships"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/props", `{"category":"Other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CapabilitiesEnforced(t *testing.T) {
	h := newHarness(t, false)
	r := newHandlerRouter(t, h.service, profile.CapabilityRead)

	w := doJSON(r, http.MethodGet, "/api/v1/props", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/props", `{"name":"Lamp","category":"Furniture"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/v1/props/x", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_ListWithFilters(t *testing.T) {
	h := newHarness(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, h.mirror.Start(ctx))
	seedSearch(t, h)
	r := newHandlerRouter(t, h.service, profile.CapabilityRead)

	w := doJSON(r, http.MethodGet, "/api/v1/props?hairLength=Short", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []PropResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Bob Cut", body.Data[0].Name)
}
