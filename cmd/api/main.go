package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mergington-activities/internal/config"
	"github.com/noah-isme/mergington-activities/internal/database"
	"github.com/noah-isme/mergington-activities/internal/handler"
	"github.com/noah-isme/mergington-activities/internal/middleware"
	"github.com/noah-isme/mergington-activities/internal/repository"
	"github.com/noah-isme/mergington-activities/internal/router"
	"github.com/noah-isme/mergington-activities/internal/service"
	"github.com/noah-isme/mergington-activities/internal/utils"
	"github.com/noah-isme/mergington-activities/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).Level(cfg.LogLevel).With().Timestamp().Str("service", cfg.AppName).Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed, err := repository.LoadActivitySeed(cfg.SeedFile)
	if err != nil {
		logger.Fatal().Err(err).Str("seed_file", cfg.SeedFile).Msg("failed to load activity seed")
	}
	activityRepo := repository.NewMemoryActivityRepository(seed)
	logger.Info().Int("activities", len(seed)).Msg("activity registry initialised")

	var (
		redisClient    *redis.Client
		natsConn       *nats.Conn
		limiterStorage fiber.Storage
		probes         []handler.HealthProbe
	)

	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(rootCtx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()

		limiterStorage = middleware.NewRedisStorage(redisClient, cfg.ChannelBase+":limiter:")
		probes = append(probes, handler.HealthProbe{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()

		probes = append(probes, handler.HealthProbe{Name: "nats", Check: func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}})
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	rosterEvents := service.NewRosterEvents(redisClient, natsConn, cfg.ChannelBase, logger)
	rosterEvents.Start(rootCtx)

	activityService := service.NewActivityService(activityRepo, validate, rosterEvents, logger)

	activityHandler := handler.NewActivityHandler(activityService, logger)
	rosterStreamHandler := handler.NewRosterStreamHandler(rosterEvents, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: utils.ErrorHandler,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:     activityHandler,
		RosterStreamHandler: rosterStreamHandler,
		StaticAssets:        web.Static(),
		HealthProbes:        probes,
		MutationLimiter:     middleware.RateLimit("roster", cfg.RateLimitMax, cfg.RateLimitWindow, limiterStorage),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(rootCtx, app, cfg.ShutdownTimeout, logger)
}

func waitForShutdown(rootCtx context.Context, app *fiber.App, timeout time.Duration, logger zerolog.Logger) {
	<-rootCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
