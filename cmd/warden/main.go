package main

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/playsolmates/warden/adapters/events"
	"github.com/playsolmates/warden/adapters/store"
	"github.com/playsolmates/warden/adapters/tokenizer"
	"github.com/playsolmates/warden/config"
	"github.com/playsolmates/warden/service"
	transport "github.com/playsolmates/warden/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create event publisher", "error", err)
		os.Exit(1)
	}

	redisStore := store.NewRedisStore(redisClient)

	authService := service.NewAuthService(
		redisStore,
		redisStore,
		tokenizer.NewJWTTokenizer(cfg.JWTSecret),
		events.NewWatermillPublisher(publisher),
		logger,
	)

	router := transport.SetupRouter(authService, cfg)

	logger.Info("starting auth service", "addr", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
