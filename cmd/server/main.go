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

	"tribe-service/internal/adapters/kafka"
	"tribe-service/internal/api/handlers"
	"tribe-service/internal/api/routes"
	"tribe-service/internal/auth"
	"tribe-service/internal/config"
	"tribe-service/internal/database"
	"tribe-service/internal/realtime"
	"tribe-service/internal/repositories/postgres"
	"tribe-service/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)
	log.Info("Starting tribe realtime service")

	db, err := database.NewPostgresConnection(cfg.Database.URI())
	if err != nil {
		log.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	userRepo := postgres.NewUserRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	presence := services.NewPresenceService(redisClient)
	authenticator := auth.NewAuthenticator(cfg.JWT.Secret)

	var events services.MessageEventPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Error("Failed to connect to Kafka", "error", err)
			os.Exit(1)
		}
		publisher := kafka.NewMessagePublisher(producer, cfg.Kafka.Topic)
		defer publisher.Close()
		events = publisher
	}

	hub := realtime.NewHub(log)
	wsHandler := realtime.NewHandler(hub, authenticator, userRepo, conversationRepo, presence, log)

	messageService := services.NewMessageService(conversationRepo, userRepo, events, hub.Dispatcher, log)
	messageHandler := handlers.NewMessageHandler(messageService)
	healthHandler := handlers.NewHealthHandler(hub, presence)

	router := routes.NewRouter(wsHandler, messageHandler, healthHandler, authenticator)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped")
}
