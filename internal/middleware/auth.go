// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"time"

	"propspot_backend/internal/common"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/session"
	"propspot_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionResolveTimeout bounds how long a guard waits for the caller's profile.
const sessionResolveTimeout = 10 * time.Second

// Authenticate verifies the bearer token and starts resolving the caller's session.
// The profile lookup runs alongside the rest of the chain; RequireAdmin and
// RequireCapability wait for it. Handlers that only need the uid never do.
func Authenticate(identity shared.IdentityProvider, profiles session.ProfileLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Bearer token missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		id, err := identity.VerifyToken(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Token verification failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		store := session.NewStore(profiles, logger)
		go func(ctx context.Context) {
			// the store logs lookup failures and publishes the anonymous state
			_ = store.OnCredentialChange(ctx, id)
		}(c.Request.Context())

		c.Set(common.FirebaseUIDKey, id.UID)
		c.Set(common.SessionKey, store)

		logger.Debug("Caller authenticated", zap.String("uid", id.UID), zap.String("provider", id.Provider))
		c.Next()
	}
}

// SessionFromContext returns the session store Authenticate attached, or nil.
func SessionFromContext(c *gin.Context) *session.Store {
	val, exists := c.Get(common.SessionKey)
	if !exists {
		return nil
	}
	store, ok := val.(*session.Store)
	if !ok {
		return nil
	}
	return store
}

// RequireAdmin admits callers whose profile carries the administrator flag.
func RequireAdmin() gin.HandlerFunc {
	return admit(func(ctx context.Context, g *session.Guard) error {
		return g.RequireAdmin(ctx)
	})
}

// RequireCapability admits callers whose profile holds want.
func RequireCapability(want profile.Capability) gin.HandlerFunc {
	return admit(func(ctx context.Context, g *session.Guard) error {
		return g.RequireCapability(ctx, want)
	})
}

func admit(check func(ctx context.Context, g *session.Guard) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := SessionFromContext(c)
		if store == nil {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), sessionResolveTimeout)
		defer cancel()

		err := check(ctx, session.NewGuard(store))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, session.ErrNotAuthorized):
			st := store.State()
			switch {
			case !st.LoggedIn:
				// verified token but the lookup failed
				common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Could not load your profile. Please retry."))
			case st.User == nil:
				common.RespondWithError(c, common.ErrPendingApproval)
			default:
				common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
			}
		default:
			common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Timed out resolving your session."))
		}
	}
}
