// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"propspot_backend/internal/account"
	"propspot_backend/internal/config"
	"propspot_backend/internal/jobs"
	"propspot_backend/internal/middleware"
	"propspot_backend/internal/prefs"
	"propspot_backend/internal/profile"
	"propspot_backend/internal/prop"
	"propspot_backend/internal/registration"
	"propspot_backend/internal/session"
	"propspot_backend/internal/shared"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers the server mounts.
type Handlers struct {
	Props         *prop.Handler
	Profiles      *profile.Handler
	Registrations *registration.Handler
	Prefs         *prefs.Handler
	Accounts      *account.Handler
}

// Jobs groups the background work that runs alongside the HTTP server. PropIndex is nil
// when no search index is configured.
type Jobs struct {
	ImageResize *jobs.ImageResizeJob
	PropIndex   *jobs.PropIndexJob
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	mirror *prop.Mirror
	jobs   Jobs

	cancel context.CancelFunc
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	identity shared.IdentityProvider,
	profiles session.ProfileLookup,
	mirror *prop.Mirror,
	handlers Handlers,
	background Jobs,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// The deletion endpoint answers its own preflights.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.CORSAllowedOrigin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(skipPath(cors.New(corsConfig), account.DeletePath))

	authMW := middleware.Authenticate(identity, profiles, logger.Named("AuthMiddleware"))
	adminMW := middleware.RequireAdmin()

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "UP",
			"message":      "PropSpot API is healthy!",
			"mirrorActive": mirror.Running(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.Accounts.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	handlers.Props.RegisterRoutes(v1, authMW, middleware.RequireCapability)
	handlers.Profiles.RegisterRoutes(v1, authMW, adminMW)
	handlers.Registrations.RegisterRoutes(v1, authMW, adminMW)
	handlers.Prefs.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: /props/stream holds its response open
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		mirror:     mirror,
		jobs:       background,
	}, nil
}

// Router exposes the configured engine.
func (s *Server) Router() http.Handler {
	return s.router
}

// StartBackground opens the props mirror and starts the jobs that follow it.
func (s *Server) StartBackground(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.mirror.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("starting props mirror: %w", err)
	}

	if s.jobs.PropIndex != nil {
		s.jobs.PropIndex.Start(ctx)
	} else {
		s.logger.Info("Search index is not configured, skipping prop index job.")
	}

	if s.jobs.ImageResize != nil {
		if err := s.jobs.ImageResize.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start image resize job", zap.Error(err))
		}
	}
	return nil
}

func (s *Server) Start() error {
	if err := s.StartBackground(context.Background()); err != nil {
		s.logger.Error("Failed to start background services", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops accepting requests, then stops the jobs and the mirror.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	err := s.httpServer.Shutdown(ctx)
	s.StopBackground()
	return err
}

// StopBackground stops the jobs and closes the mirror subscription.
func (s *Server) StopBackground() {
	if s.jobs.PropIndex != nil {
		s.jobs.PropIndex.Stop()
	}
	if s.jobs.ImageResize != nil {
		s.jobs.ImageResize.Stop()
	}
	s.mirror.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

func skipPath(mw gin.HandlerFunc, path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == path {
			c.Next()
			return
		}
		mw(c)
	}
}
