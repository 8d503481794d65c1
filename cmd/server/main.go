package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/pointdash/pointdash/internal/auth"
	"github.com/pointdash/pointdash/internal/config"
	"github.com/pointdash/pointdash/internal/live"
	"github.com/pointdash/pointdash/internal/logging"
	"github.com/pointdash/pointdash/internal/metrics"
	mw "github.com/pointdash/pointdash/internal/middleware"
	"github.com/pointdash/pointdash/internal/points"
	"github.com/pointdash/pointdash/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Level())
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	authService := auth.NewService(db, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService, log)

	pointService := points.NewService(db,
		points.WithHistoryLimit(cfg.HistoryLimit),
		points.WithSampleData(),
		points.WithLogger(log),
	)
	pointHandler := points.NewHandler(pointService)

	hub := live.NewHub(log)
	go hub.Run(ctx)
	pointService.Subscribe(hub.Dispatch)

	liveHandler := live.NewHandler(live.HandlerConfig{
		Hub:            hub,
		Auth:           authService,
		Backend:        pointService,
		Playground:     live.NewPlayground(cfg.HistoryLimit, log),
		Options:        cfg.Graph.Options(),
		OriginPatterns: cfg.OriginHosts(),
		Metrics:        m,
		Logger:         log,
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log, m))
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	r.Handle("/auth/me", authService.AuthMiddleware(http.HandlerFunc(authHandler.Me))).Methods("GET", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, `{"status":"ok"}`
		if err := db.Ping(r.Context()); err != nil {
			status, body = http.StatusServiceUnavailable, `{"status":"database unavailable"}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}).Methods("GET")

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	// Preflight requests never carry a bearer token; CORS answers them.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	pointHandler.Register(api)

	// WebSocket endpoints
	r.HandleFunc("/ws/graph", liveHandler.ServeGraph)
	r.HandleFunc("/ws/playground", liveHandler.ServePlayground)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info("shutting down server", "sessions", hub.Count())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		cancel()
	}()

	log.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
