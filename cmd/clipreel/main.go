package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/clipreel/clipreel/internal/analytics"
	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/database"
	"github.com/clipreel/clipreel/internal/engagement"
	"github.com/clipreel/clipreel/internal/geoip"
	"github.com/clipreel/clipreel/internal/server"
	"github.com/clipreel/clipreel/internal/storage"
)

func main() {
	port := getEnv("PORT", "8080")

	videos, err := catalog.LoadSeed(os.Getenv("CATALOG_PATH"))
	if err != nil {
		log.Fatalf("catalogue load failed: %v", err)
	}
	store, err := catalog.New(videos)
	if err != nil {
		log.Fatalf("catalogue seed failed: %v", err)
	}
	log.Printf("catalogue seeded with %d videos", store.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var resolver engagement.MediaResolver
	if os.Getenv("S3_ACCESS_KEY") != "" {
		mediaStore, err := storage.New(ctx, storage.Config{
			Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "eu-central-1"),
			URLExpiry:      time.Duration(getEnvInt64("MEDIA_URL_EXPIRY_SECONDS", 4*3600)) * time.Second,
		})
		if err != nil {
			log.Fatalf("storage initialization failed: %v", err)
		}
		resolver = mediaStore
		log.Println("media URL presigning enabled")
	}

	cfg := server.Config{Store: store, Resolver: resolver}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := database.Connect(ctx, databaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		log.Println("database migrations applied")

		sessionSecret := os.Getenv("SESSION_SECRET")
		if sessionSecret == "" {
			log.Fatal("SESSION_SECRET is required when DATABASE_URL is set")
		}

		geo := geoip.Open(os.Getenv("GEOIP_DB_PATH"))
		defer geo.Close()

		cfg.Pinger = db
		cfg.Analytics = analytics.NewHandler(analytics.Config{
			DB:                db.Pool,
			Store:             store,
			Geo:               geo,
			SessionSecret:     sessionSecret,
			StatsPasswordHash: os.Getenv("STATS_PASSWORD_HASH"),
		})
		log.Println("view analytics enabled")
	}

	srv := server.New(cfg)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("clipreel listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
