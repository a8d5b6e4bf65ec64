package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/cardboard-compass/backend/internal/api"
	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/config"
	"github.com/codyseavey/cardboard-compass/backend/internal/database"
	"github.com/codyseavey/cardboard-compass/backend/internal/errtrack"
	"github.com/codyseavey/cardboard-compass/backend/internal/services"
	"github.com/codyseavey/cardboard-compass/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	if err := database.Initialize(cfg.DB.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if len(cfg.Auth.Tokens) == 0 && !cfg.Auth.AllowOwnerHeader {
		log.Println("Warning: no AUTH_TOKENS configured and owner header disabled; every API call will be unauthenticated")
	}

	// Initialize services
	docs := store.NewGormStore(database.GetDB())
	owners := auth.ContextResolver{}
	reporter := errtrack.NewLogReporter(nil)

	collectionService := services.NewCollectionService(docs, owners, reporter)
	profileService := services.NewProfileService(docs, owners, reporter)
	scannerService := services.NewScannerService(cfg.Scanner.Delay, cfg.Scanner.ConfidenceThreshold, cfg.Scanner.RatePerMinute, reporter)

	// Initialize image storage for add-from-scan frames
	imageStorageService, err := services.NewImageStorageService(cfg.Scanner.ImageDir)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	// Initialize snapshot service for daily value tracking
	snapshotService := services.NewSnapshotService(docs, owners, reporter, cfg.Snapshot.Hour, cfg.Snapshot.CheckInterval)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start snapshot service in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in snapshot service: %v - restarting in 30 seconds", r)
					}
				}()
				snapshotService.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Snapshot service restarting after panic recovery...")
			}
		}
	}()

	// Setup router
	router, err := api.SetupRouter(cfg, api.Services{
		Collection: collectionService,
		Profiles:   profileService,
		Snapshots:  snapshotService,
		Scanner:    scannerService,
		Images:     imageStorageService,
	})
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the snapshot worker
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
