// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"snapit/internal/config"
	"snapit/internal/listings"
	"snapit/internal/logger"
	"snapit/internal/projection"
	"snapit/internal/snaps"
	"snapit/internal/telemetry"
	"snapit/internal/users"
	"snapit/pkg/eventlog"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	ctx := context.Background()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.Init(ctx, log, cfg.ServiceName, cfg.Env)
		if err != nil {
			log.Fatal("failed to initialize tracing", "error", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to reach database", "error", err)
	}

	dispatcher := eventlog.NewDispatcher()
	dispatcher.Subscribe("", func(ctx context.Context, event eventlog.Event) {
		log.Debug("event dispatched",
			"event_type", event.EventType,
			"aggregate_id", event.AggregateID,
			"version", event.Version,
		)
	})
	sink := eventlog.NewSink(eventlog.NewLog(db), dispatcher)

	projectionStore := projection.NewPostgresStore(db)
	projectionSvc := projection.NewService(projectionStore, log)

	listingStore := listings.NewPostgresStore(db)
	listingSvc := listings.NewService(listingStore, projectionSvc, sink, log)

	userSvc := users.NewService(db, log)
	snapSvc := snaps.NewService(snaps.NewPostgresStore(db), listingSvc, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(log))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Mount("/api/v1", listings.NewHandler(listingSvc).Routes())
	router.Mount("/api/v1/projection", projection.NewHandler(projectionSvc).Routes())
	router.Mount("/api/v1/users", users.NewHandler(userSvc).Routes())
	router.Mount("/api/v1/customers", snaps.NewHandler(snapSvc).Routes())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
