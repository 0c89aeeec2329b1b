package account

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"
	"propspot_backend/internal/platform/database"
	"propspot_backend/internal/prefs"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/shared"
	"propspot_backend/internal/shared/sharedtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *docstore.MemoryStore
	identity *sharedtest.MockIdentityProvider
	journal  Journal
	service  *DeletionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		DBDriver:           "sqlite",
		DBSource:           ":memory:",
		LogLevel:           "silent",
		ProfilesCollection: "profiles",
		PrefsCollection:    "prefs",
		ProfileCacheSize:   16,
	}
	db, err := database.NewGORM(cfg, zap.NewNop(), &AccountOperation{})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db, zap.NewNop()) })

	store := docstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "profiles", "admin-1", map[string]interface{}{"name": "Ada", "administrator": true}, false))
	require.NoError(t, store.Set(ctx, "profiles", "user-1", map[string]interface{}{"name": "Bob", "administrator": false}, false))
	require.NoError(t, store.Set(ctx, "prefs", "user-1", map[string]interface{}{"defaultPropType": "wig"}, false))

	profileRepo := profile.NewRepository(store, cfg.ProfilesCollection)
	identity := new(sharedtest.MockIdentityProvider)
	journal := NewGORMJournal(db)
	svc := NewDeletionService(
		identity,
		profileRepo,
		prefs.NewService(store, cfg, zap.NewNop()),
		profile.NewService(profileRepo, cfg, zap.NewNop()),
		journal,
		zap.NewNop(),
	)
	return &fixture{store: store, identity: identity, journal: journal, service: svc}
}

func TestDeleteUser_AdminDeletesCredentialProfileAndPrefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.identity.On("VerifyToken", mock.Anything, "admin-token").Return(&shared.Identity{UID: "admin-1"}, nil)
	f.identity.On("DeleteCredential", mock.Anything, "user-1").Return(nil).Once()

	require.NoError(t, f.service.DeleteUser(ctx, "admin-token", "user-1"))

	doc, _ := f.store.Get(ctx, "profiles", "user-1")
	assert.Nil(t, doc)
	doc, _ = f.store.Get(ctx, "prefs", "user-1")
	assert.Nil(t, doc)

	op, err := f.journal.Find(ctx, KindDeleteUser, "user-1")
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, StatusCompleted, op.Status)
	assert.True(t, op.CredentialDeleted)
	assert.True(t, op.ProfileDeleted)
	assert.Equal(t, "admin-1", op.RequestedBy)
	f.identity.AssertExpectations(t)
}

func TestDeleteUser_NonAdminRejected(t *testing.T) {
	f := newFixture(t)
	f.identity.On("VerifyToken", mock.Anything, "user-token").Return(&shared.Identity{UID: "user-1"}, nil)

	err := f.service.DeleteUser(context.Background(), "user-token", "admin-1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	f.identity.AssertNotCalled(t, "DeleteCredential", mock.Anything, mock.Anything)
}

func TestDeleteUser_CallerWithoutProfileRejected(t *testing.T) {
	f := newFixture(t)
	f.identity.On("VerifyToken", mock.Anything, "ghost-token").Return(&shared.Identity{UID: "ghost"}, nil)

	err := f.service.DeleteUser(context.Background(), "ghost-token", "user-1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDeleteUser_InvalidTokenRejected(t *testing.T) {
	f := newFixture(t)
	f.identity.On("VerifyToken", mock.Anything, "bad").Return(nil, shared.ErrInvalidToken)

	assert.ErrorIs(t, f.service.DeleteUser(context.Background(), "bad", "user-1"), ErrPermissionDenied)
	assert.ErrorIs(t, f.service.DeleteUser(context.Background(), "", "user-1"), ErrPermissionDenied)
}

type flakyProfiles struct {
	ProfileStore
	failures int
}

func (f *flakyProfiles) Delete(ctx context.Context, uid string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("profiles unavailable")
	}
	return f.ProfileStore.Delete(ctx, uid)
}

func TestDeleteUser_RetrySkipsCompletedSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.identity.On("VerifyToken", mock.Anything, "admin-token").Return(&shared.Identity{UID: "admin-1"}, nil)
	f.identity.On("DeleteCredential", mock.Anything, "user-1").Return(nil).Once()

	flaky := &flakyProfiles{ProfileStore: f.service.profiles, failures: 1}
	f.service.profiles = flaky

	err := f.service.DeleteUser(ctx, "admin-token", "user-1")
	require.Error(t, err)

	op, err := f.journal.Find(ctx, KindDeleteUser, "user-1")
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, StatusFailed, op.Status)
	assert.Equal(t, StepDeleteProfile, op.FailedStep)
	assert.True(t, op.CredentialDeleted)
	assert.False(t, op.ProfileDeleted)
	assert.Equal(t, 1, op.Attempts)

	require.NoError(t, f.service.DeleteUser(ctx, "admin-token", "user-1"))

	op, err = f.journal.Find(ctx, KindDeleteUser, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, op.Status)
	assert.True(t, op.ProfileDeleted)
	assert.Equal(t, 2, op.Attempts)
	f.identity.AssertNumberOfCalls(t, "DeleteCredential", 1)
}

func TestDeleteUser_CompletedOperationRunsAgainForReissuedUID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.identity.On("VerifyToken", mock.Anything, "admin-token").Return(&shared.Identity{UID: "admin-1"}, nil)
	f.identity.On("DeleteCredential", mock.Anything, "user-1").Return(nil)

	require.NoError(t, f.service.DeleteUser(ctx, "admin-token", "user-1"))

	// the uid comes back with a new profile
	require.NoError(t, f.store.Set(ctx, "profiles", "user-1", map[string]interface{}{"name": "Bob again"}, false))

	require.NoError(t, f.service.DeleteUser(ctx, "admin-token", "user-1"))

	doc, err := f.store.Get(ctx, "profiles", "user-1")
	require.NoError(t, err)
	assert.Nil(t, doc)
	f.identity.AssertNumberOfCalls(t, "DeleteCredential", 2)

	op, err := f.journal.Find(ctx, KindDeleteUser, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, op.Status)
	assert.Equal(t, 1, op.Attempts)
	assert.True(t, op.ProfileDeleted)
}

func TestDeleteUser_OptionalPrefsFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.identity.On("VerifyToken", mock.Anything, "admin-token").Return(&shared.Identity{UID: "admin-1"}, nil)
	f.identity.On("DeleteCredential", mock.Anything, "user-1").Return(nil)
	f.service.prefs = failingPrefs{}

	require.NoError(t, f.service.DeleteUser(context.Background(), "admin-token", "user-1"))
}

type failingPrefs struct{}

func (failingPrefs) Delete(context.Context, string) error { return errors.New("prefs unavailable") }

func TestValidUID(t *testing.T) {
	assert.False(t, ValidUID(""))
	assert.True(t, ValidUID("abc"))
	assert.False(t, ValidUID(string(bytes.Repeat([]byte("a"), MaxUIDLength+1))))
}

func newTestRouter(svc *DeletionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, "http://localhost:5173", zap.NewNop()).RegisterRoutes(r)
	return r
}

func TestDeleteUserHandler_StatusCodes(t *testing.T) {
	f := newFixture(t)
	f.identity.On("VerifyToken", mock.Anything, "admin-token").Return(&shared.Identity{UID: "admin-1"}, nil)
	f.identity.On("VerifyToken", mock.Anything, "user-token").Return(&shared.Identity{UID: "user-1"}, nil)
	f.identity.On("DeleteCredential", mock.Anything, "user-1").Return(nil)
	f.identity.On("DeleteCredential", mock.Anything, "boom").Return(errors.New("provider down"))
	router := newTestRouter(f.service)

	cases := []struct {
		name   string
		method string
		body   string
		token  string
		want   int
	}{
		{"wrong method", http.MethodGet, "", "admin-token", http.StatusMethodNotAllowed},
		{"malformed body", http.MethodPost, "{", "admin-token", http.StatusBadRequest},
		{"missing uid", http.MethodPost, `{}`, "admin-token", http.StatusBadRequest},
		{"empty uid", http.MethodPost, `{"uid":""}`, "admin-token", http.StatusBadRequest},
		{"no token", http.MethodPost, `{"uid":"user-1"}`, "", http.StatusForbidden},
		{"not admin", http.MethodPost, `{"uid":"admin-1"}`, "user-token", http.StatusForbidden},
		{"provider failure", http.MethodPost, `{"uid":"boom"}`, "admin-token", http.StatusInternalServerError},
		{"success", http.MethodPost, `{"uid":"user-1"}`, "admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, DeletePath, bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.want == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			}
		})
	}
}

func TestDeleteUserHandler_Preflight(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f.service)

	req := httptest.NewRequest(http.MethodOptions, DeletePath, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
