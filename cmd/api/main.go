// Package main provides the entry point for the CropDoc API server
// @title CropDoc API
// @version 1.0
// @description Account security and diagnosis history API for the CropDoc assistant.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
// @Security BearerAuth
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cropdoc/internal/api/routes"
	"cropdoc/internal/config"
	"cropdoc/internal/database"
	"cropdoc/internal/repository/postgres"
	"cropdoc/internal/validation"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// passwordHistoryRetention bounds how long retired hashes are kept beyond
// the reuse-check depth.
const passwordHistoryRetention = 365 * 24 * time.Hour

func main() {
	envFile := flag.String("env", ".env", "Path to env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && *envFile == ".env" {
		log.Printf("Warning: %v", err)
	}

	cfg := &config.Config{}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.SetupDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	validation.Initialize()

	// Hourly cleanup of expired pending verifications and stale password
	// history beyond the retention window.
	pendingRepo := postgres.NewPendingVerificationRepository(db)
	historyRepo := postgres.NewPasswordHistoryRepository(db)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if n, err := pendingRepo.DeleteExpired(ctx, time.Now()); err != nil {
			log.Printf("Failed to clean up expired verifications: %v", err)
		} else if n > 0 {
			log.Printf("Removed %d expired pending verifications", n)
		}

		if n, err := historyRepo.DeleteOlderThan(ctx, passwordHistoryRetention); err != nil {
			log.Printf("Failed to clean up password history: %v", err)
		} else if n > 0 {
			log.Printf("Removed %d stale password history entries", n)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule cleanup job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.NewPostgres(cfg, db)

	port, err := strconv.Atoi(cfg.API.Port)
	if err != nil {
		log.Fatalf("Invalid port number: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
