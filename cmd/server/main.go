package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndreiDascalu/ANL2024/internal/auth"
	"github.com/AndreiDascalu/ANL2024/internal/config"
	"github.com/AndreiDascalu/ANL2024/internal/handler"
	"github.com/AndreiDascalu/ANL2024/internal/logger"
	"github.com/AndreiDascalu/ANL2024/internal/middleware"
	"github.com/AndreiDascalu/ANL2024/internal/party"
	"github.com/AndreiDascalu/ANL2024/internal/repository/postgres"
	redisrepo "github.com/AndreiDascalu/ANL2024/internal/repository/redis"
	"github.com/AndreiDascalu/ANL2024/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	party.NeuralModelPath = cfg.NeuralModelPath
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for timer expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (timer expiry may not work)")
	}

	// Repos
	sessionRepo := postgres.NewSessionRepo(db)
	offerRepo := postgres.NewOfferRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	sessionSvc := service.NewSessionService(sessionRepo, offerRepo, redisClient, wsHub, cfg.StorageDir)

	// Timer listener (force-finish stale sessions on expiry)
	timerListener := service.NewTimerListener(redisClient.Underlying(), sessionSvc, sessionRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /strategies", sessionHandler.ListStrategies)
	api.HandleFunc("POST /sessions", sessionHandler.CreateSession)
	api.HandleFunc("GET /sessions", sessionHandler.ListSessions)
	api.HandleFunc("GET /sessions/{id}", sessionHandler.GetSession)
	api.HandleFunc("GET /sessions/{id}/offers", sessionHandler.ListOffers)
	api.HandleFunc("POST /sessions/{id}/start", sessionHandler.StartSession)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start timer listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
