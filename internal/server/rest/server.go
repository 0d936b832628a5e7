// Package rest exposes the account API over HTTP with gin.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config holds the HTTP-facing settings.
type Config struct {
	Addr           string
	CORSOrigin     string
	Production     bool
	BodyLimitBytes int64
	MaxUploadBytes int64
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type HTTPServer struct {
	config   Config
	logger   logging.Logger
	accounts AccountService
	cookies  cookieJar
	engine   *gin.Engine
}

func NewHTTPServer(cfg Config, logger logging.Logger, accounts AccountService) (*HTTPServer, error) {
	s := &HTTPServer{
		config:   cfg,
		logger:   logger.With("module", "http"),
		accounts: accounts,
		cookies: cookieJar{
			secure:     cfg.Production,
			accessTTL:  cfg.AccessTTL,
			refreshTTL: cfg.RefreshTTL,
		},
	}

	engine, err := s.newEngine()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler returns the routed engine, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) newEngine() (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	corsConfig := corsSettings(s.config.CORSOrigin)
	if err := corsConfig.Validate(); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}

	engine.Use(
		requestID(),
		requestLogger(s.logger),
		recovery(s.logger),
		gzip.Gzip(gzip.DefaultCompression),
		cors.New(corsConfig),
		bodyLimit(s.config.BodyLimitBytes, s.config.MaxUploadBytes),
	)

	engine.GET("/test", liveness)
	engine.NoRoute(notFound)

	users := engine.Group("/api/v1/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.POST("/refreshAccessToken", s.refreshAccessToken)

	secured := users.Group("", s.session())
	secured.POST("/logout", s.logout)
	secured.POST("/change-password", s.changePassword)
	secured.GET("/current-user", s.getCurrentUser)
	secured.PATCH("/update-account", s.updateAccount)
	secured.PATCH("/update-avatar", s.updateAvatar)
	secured.PATCH("/update-cover-image", s.updateCoverImage)

	return engine, nil
}

// corsSettings allows the configured comma-separated origins with
// credentials. An empty value or "*" allows any origin.
func corsSettings(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range strings.Split(origin, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowOrigins = nil
			cfg.AllowAllOrigins = true
			return cfg
		}
		if o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis and shuts down gracefully once ctx is done.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
