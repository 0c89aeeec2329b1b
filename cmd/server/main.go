// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propspot_backend/internal/config"
	"propspot_backend/internal/docstore"
	appfirebase "propspot_backend/internal/firebase"
	"propspot_backend/internal/jobs"
	platformElasticsearch "propspot_backend/internal/platform/elasticsearch"
	"propspot_backend/internal/platform/logger"
	"propspot_backend/internal/platform/storage"
	"propspot_backend/internal/prop"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "sync-props":
			runCommand(os.Args[2:], "sync-props", syncProps)
			return
		case "resize-images":
			runCommand(os.Args[2:], "resize-images", resizeImages)
			return
		}
	}

	// Default: Start server
	startServer()
}

// runCommand parses the shared one-shot flags, loads config and a logger, then runs fn.
func runCommand(args []string, name string, fn func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	timeout := fs.Duration("timeout", 10*time.Minute, "Maximum time the command may run")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for %s: %v", name, err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for %s: %v", name, err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := fn(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal(fmt.Sprintf("FATAL: %s failed", name), zap.Error(err))
	}
	appLogger.Info(fmt.Sprintf("%s completed successfully.", name))
}

// syncProps rebuilds the search index from the props collection.
func syncProps(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	esClient, err := platformElasticsearch.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing Elasticsearch client: %w", err)
	}
	if err := platformElasticsearch.EnsurePropsIndex(ctx, esClient, logger); err != nil {
		return fmt.Errorf("creating props index: %w", err)
	}

	fbApp, err := appfirebase.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	client, err := appfirebase.NewFirestoreClient(ctx, fbApp, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := prop.NewRepository(docstore.NewFirestoreStore(client, logger), cfg.PropsCollection)
	props, err := repo.FindBy(ctx)
	if err != nil {
		return fmt.Errorf("reading props: %w", err)
	}
	logger.Info("Fetched props for sync", zap.Int("count", len(props)))

	job := jobs.NewPropIndexJob(nil, platformElasticsearch.NewPropsIndexer(esClient, logger), cfg, logger)
	stats, err := job.SyncOnce(ctx, props)
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d props failed to index", stats.Failed)
	}
	return nil
}

// resizeImages makes one pass of the image resize job over the bucket.
func resizeImages(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	bucket, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening image bucket: %w", err)
	}
	defer bucket.Close()

	sum, err := jobs.NewImageResizeJob(bucket, cfg, logger).RunOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("Image resize pass finished",
		zap.Int("scanned", sum.Scanned), zap.Int("resized", sum.Resized),
		zap.Int("skipped", sum.Skipped), zap.Int("failed", sum.Failed))
	if sum.Failed > 0 {
		return fmt.Errorf("%d images failed to resize", sum.Failed)
	}
	return nil
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	srv, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if srv.ESClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := platformElasticsearch.EnsurePropsIndex(ctx, srv.ESClient, srv.Logger); err != nil {
			srv.Logger.Error("Failed to create Elasticsearch props index", zap.Error(err))
		}
		cancel()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: Server failed: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := srv.Server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
