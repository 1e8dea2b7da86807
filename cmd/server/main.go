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

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"connect4-tournament/internal/adminauth"
	"connect4-tournament/internal/broadcaster"
	"connect4-tournament/internal/championship"
	"connect4-tournament/internal/config"
	"connect4-tournament/internal/handlers"
	"connect4-tournament/internal/middleware"
	"connect4-tournament/internal/store"
)

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting tournament coordinator in %s mode", cfg.Environment)

	mongodb, err := store.NewMongoDB(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.Close(ctx)
	}()
	log.Printf("Connected to MongoDB database: %s", cfg.MongoDB.Database)

	db := store.New(mongodb)

	bus := broadcaster.New(mongodb.RelayEvents())
	if err := bus.EnsureIndexes(context.Background()); err != nil {
		log.Printf("Warning: Failed to create relay_events indexes: %v", err)
	}
	bus.Start()
	defer bus.Stop()

	controller := championship.New(db, bus, cfg.PerTurnCap())
	if err := controller.Recover(context.Background()); err != nil {
		log.Printf("Warning: failed to recover in-progress matches: %v", err)
	}

	adminSvc := adminauth.NewService(cfg.Admin.TokenSecret, 0)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	adminHandler := handlers.NewAdminHandler(controller)
	streamHandler := handlers.NewStreamHandler(bus, controller)

	router := mux.NewRouter()

	router.HandleFunc("/ws/dashboard", rateLimiter.RateLimitHandler(
		middleware.WebSocketUpgradeLimit,
		func(r *http.Request) string { return "ws:" + middleware.GetClientIP(r) },
		streamHandler.Dashboard,
	))
	router.HandleFunc("/ws/match/{matchId}", rateLimiter.RateLimitHandler(
		middleware.WebSocketUpgradeLimit,
		func(r *http.Request) string { return "ws:" + middleware.GetClientIP(r) },
		streamHandler.Match,
	))

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/championship/register", rateLimiter.RateLimitHandler(
		middleware.TeamRegistrationLimit,
		func(r *http.Request) string { return "register:" + middleware.GetClientIP(r) },
		adminHandler.Register,
	)).Methods("POST")
	api.HandleFunc("/championship/status", adminHandler.Status).Methods("GET")
	api.HandleFunc("/championship/schedule", adminHandler.Schedule).Methods("GET")
	api.HandleFunc("/championship/leaderboard", adminHandler.Leaderboard).Methods("GET")

	adminApi := api.PathPrefix("").Subrouter()
	adminApi.Use(adminSvc.RequireOperator)
	adminApi.Use(rateLimiter.IPRateLimitMiddleware(middleware.AdminWriteLimit))
	adminApi.HandleFunc("/championship/start", adminHandler.Start).Methods("POST")
	adminApi.HandleFunc("/championship/matches/{matchId}/restart", adminHandler.RestartMatch).Methods("POST")
	adminApi.HandleFunc("/clear-cache", adminHandler.ClearCache).Methods("POST")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      middleware.SecurityHeaders(corsHandler.Handler(router)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
