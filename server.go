package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kmills/shortlink/dao"
	"github.com/kmills/shortlink/env"
	"github.com/kmills/shortlink/handlers"
	"github.com/kmills/shortlink/status"
	"github.com/kmills/shortlink/telemetry"
	"github.com/kmills/shortlink/version"
	"github.com/labstack/echo/v5"
)

func main() {
	// Optional .env file; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Couldn't read .env file: %v", err)
	}

	port := env.IntOrDefault("port", 8800)
	ip := env.StringOrDefault("ip", "")
	storeKind := env.StringOrDefault("store", "sqlite")

	db, err := dao.CreateDao(storeKind)
	if err != nil {
		log.Fatalf("Error creating store: %v", err)
	}
	defer db.Cleanup()

	otelMetrics, err := telemetry.NewMetrics(context.Background())
	if err != nil {
		log.Printf("Couldn't initialize OpenTelemetry metrics, continuing without: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelMetrics.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down metrics: %v", err)
		}
	}()

	// background store watcher feeding /status and /healthz
	s := status.NewStatus()
	checkStore := func() {
		if !db.IsLikelyOk() {
			s.Warn("Database is down")
		} else {
			s.Ok("All good")
		}
	}
	// first check up front, otherwise /healthz reports Unknown until the
	// ticker's first tick
	checkStore()
	ticker := time.NewTicker(env.DurationOrDefault("status_interval", 30*time.Second))
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			checkStore()
		}
	}()

	e := echo.New()
	h := handlers.CreateHandlers(db, s, uuid.NewString(), otelMetrics)
	h.SetUp(e)

	bindAddr := fmt.Sprintf("%s:%d", ip, port)
	server := &http.Server{
		Addr:         bindAddr,
		Handler:      e,
		ReadTimeout:  env.DurationOrDefault("read_timeout", 10*time.Second),
		WriteTimeout: env.DurationOrDefault("write_timeout", 10*time.Second),
		IdleTimeout:  env.DurationOrDefault("idle_timeout", 60*time.Second),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("shortlink %s listening on %s", version.Version, bindAddr)
		serverErr <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalf("Error listening: %v", err)
	case sig := <-shutdown:
		log.Printf("Shutting down on %v", sig)
		ctx, cancel := context.WithTimeout(context.Background(), env.DurationOrDefault("shutdown_timeout", 10*time.Second))
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed, closing: %v", err)
			_ = server.Close()
		}
	}
}
