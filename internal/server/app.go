// Package server wires the accountkeeper components together: logger,
// credential store, token issuer, media uploader, account service, the HTTP
// API and the gRPC health endpoint. It also handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/media"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/rest"
	"github.com/dmitrijs2005/accountkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/accountkeeper/internal/server/grpc"
)

const closeTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	flush  func()
	store  repomanager.RepositoryManager
	http   *rest.HTTPServer
	health *gs.HealthServer
}

// Seams for tests.
var (
	newRepositoryManager = repomanager.New
	newMediaUploader     = func(ctx context.Context, opts media.S3Options) (media.Uploader, error) {
		return media.NewS3Uploader(ctx, opts)
	}
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, flush, err := logging.New(c.LogBackend, !c.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if c.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := newRepositoryManager(ctx, c.DatabaseDSN, c.MongoDatabase)
	if err != nil {
		flush()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := store.Prepare(ctx); err != nil {
		_ = store.Close(ctx)
		flush()
		return nil, fmt.Errorf("db prepare error: %w", err)
	}

	cdn, err := newMediaUploader(ctx, media.S3Options{
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Bucket:        c.S3Bucket,
		Region:        c.S3Region,
		Endpoint:      c.S3Endpoint,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if err != nil {
		_ = store.Close(ctx)
		flush()
		return nil, fmt.Errorf("media init error: %w", err)
	}
	uploader := media.NewImageUploader(media.NewBreakerUploader(cdn, logger), c.ImageMaxDimension)

	tokens := auth.NewTokenIssuer(c.AccessTokenSecret, c.RefreshTokenSecret, c.AccessTokenTTL, c.RefreshTokenTTL)
	us := services.NewUserService(store.Users(), auth.NewBcryptHasher(c.BcryptCost), tokens, uploader, logger,
		services.Options{ConcealLoginFailures: c.ConcealLoginFailures})

	hs, err := rest.NewHTTPServer(rest.Config{
		Addr:           c.HTTPAddr,
		CORSOrigin:     c.CORSOrigin,
		Production:     c.IsProduction(),
		BodyLimitBytes: c.BodyLimitBytes,
		MaxUploadBytes: c.MaxUploadBytes,
		AccessTTL:      c.AccessTokenTTL,
		RefreshTTL:     c.RefreshTokenTTL,
	}, logger, us)
	if err != nil {
		_ = store.Close(ctx)
		flush()
		return nil, fmt.Errorf("http init error: %w", err)
	}

	app := &App{config: c, logger: logger, flush: flush, store: store, http: hs}
	if c.GRPCHealthAddr != "" {
		app.health = gs.NewHealthServer(c.GRPCHealthAddr, logger, store, 0)
	}
	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC health server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a signal arrives, ctx is cancelled or a server fails,
// then closes the store and flushes the logger.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHealthServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	if err := app.store.Close(cctx); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	app.flush()
}
