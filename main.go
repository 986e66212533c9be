package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-server/auth"
	"travel-server/config"
	"travel-server/handlers"
	"travel-server/logger"
	"travel-server/maps"
	"travel-server/middleware"
	"travel-server/models"
	"travel-server/services"
	"travel-server/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "travel-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MongoDB
	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())
	if err := db.CreateIndexes(ctx); err != nil {
		return err
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	usersStore := store.NewUsersStore(db.UsersCollection())
	eventsStore := store.NewEventsStore(db.EventsCollection())
	threadsStore := store.NewThreadsStore(db.ThreadsCollection())

	// Redis is optional: without it there is no user cache and no nearby search.
	var (
		redisClient *redis.Client
		userCache   services.UserCache
		geoIndex    services.GeoIndex
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		userCache = services.NewRedisUserCache(redisClient)
		geoIndex = services.NewRedisGeoIndex(redisClient)
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		log.Info("REDIS_ADDR not set, user cache and nearby search disabled")
	}

	var locator services.Locator
	if cfg.GoogleAPIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleAPIKey)
		if err != nil {
			return err
		}
		locator = mapsClient
	} else {
		log.Info("GOOGLE_API_KEY not set, geocoding disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	threadService := services.NewThreadService(threadsStore, usersStore, models.ThreadMatch(cfg.ThreadMatch))
	eventService := services.NewEventService(eventsStore, usersStore, geoIndex, locator)
	userService := services.NewUserService(usersStore, userCache, locator)
	authService := services.NewAuthService(usersStore, tokens, locator)

	if n, err := eventService.RebuildGeoIndex(ctx); err != nil {
		log.Warn("failed to rebuild event geo index", zap.Error(err))
	} else if geoIndex != nil {
		log.Info("event geo index rebuilt", zap.Int("events", n))
	}

	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, cfg.RateLimitRPM, time.Minute)
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.RouterConfig{
		Threads:        threadService,
		Events:         eventService,
		Users:          userService,
		Auth:           authService,
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthLimiter:    limiter,
		TrustProxy:     cfg.TrustProxy,
		Health: func(ctx context.Context) error {
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("mongo: %w", err)
			}
			if redisClient != nil {
				if err := redisClient.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
