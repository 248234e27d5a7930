// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

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

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mye-app/mye-backend/internal/auth"
	"github.com/mye-app/mye-backend/internal/common/database"
	"github.com/mye-app/mye-backend/internal/config"
	"github.com/mye-app/mye-backend/internal/directory"
	"github.com/mye-app/mye-backend/internal/logger"
	"github.com/mye-app/mye-backend/internal/matching"
	"github.com/mye-app/mye-backend/internal/notifications"
)

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	if envErr != nil {
		log.Debug("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	log.WithField("environment", cfg.Environment).Info("starting Mye API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. PostgreSQL and migrations
	db, err := database.NewPostgresDBFromURL(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to PostgreSQL")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if err := database.Migrate(db.DB); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("database migrations applied")

	// 4. Redis (optional): shared pair locks and the geo index
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, falling back to in-process locks and SQL discovery")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("connected to Redis")
		}
	}

	// 5. User directory
	users := directory.NewPostgresRepository(db)
	var dir directory.Directory = users
	if redisClient != nil && cfg.EnableGeoIndex {
		index := directory.NewGeoIndex(redisClient)
		n, err := directory.Warm(ctx, users, index)
		if err != nil {
			log.WithError(err).Warn("failed to warm geo index")
		} else {
			log.WithField("positions", n).Info("geo index warmed")
		}
		dir = directory.NewIndexedDirectory(users, index, logger.Component(log, "geoindex"))
	}

	// 6. Notifications
	notificationsService := buildNotifications(ctx, cfg, db, log)
	hub := notificationsService.hub
	dispatcher := notifications.NewAsyncDispatcher(
		notificationsService.service,
		cfg.NotificationTimeout,
		logger.Component(log, "dispatcher"),
	)
	defer notificationsService.close()

	scheduler := notifications.NewScheduler(
		notificationsService.service,
		cfg.NotificationRetention,
		logger.Component(log, "notification-scheduler"),
	)
	scheduler.Start(ctx)

	// 7. Matching
	var locker matching.PairLocker = matching.NewLocalLocker()
	if redisClient != nil {
		locker = matching.NewRedisLocker(redisClient, cfg.MatchLockTTL)
	}
	store := matching.NewPostgresStore(db)
	machine := matching.NewStateMachine(store, locker, cfg.MatchMaxRetries, logger.Component(log, "match-state"))
	matchingService := matching.NewService(dir, store, machine, dispatcher, logger.Component(log, "matching"))

	// 8. Routes
	authMiddleware := auth.NewMiddleware(auth.NewHMACValidator(cfg.JWTSecret))
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheck(db, redisClient)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.Handle("/ws", authMiddleware.Authenticate(http.HandlerFunc(hub.ServeWS))).Methods("GET")

	matching.RegisterRoutes(router,
		matching.NewHandler(matchingService, logger.Component(log, "matching-http")),
		authMiddleware)

	const notificationsPrefix = "/api/v1/notifications"
	inbox := notifications.Routes(notifications.NewHandler(notificationsService.service, logger.Component(log, "notifications-http")))
	router.PathPrefix(notificationsPrefix).Handler(
		http.StripPrefix(notificationsPrefix, authMiddleware.Authenticate(inbox)))

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(logger.Component(log, "http")))
	router.Use(corsMiddleware)

	// 9. Serve
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("pending notifications abandoned")
	}

	log.Info("server exited gracefully")
}

type notificationStack struct {
	service   notifications.Service
	hub       *notifications.Hub
	publisher *notifications.NATSPublisher
}

func (n *notificationStack) close() {
	if n.publisher != nil {
		n.publisher.Close()
	}
}

func buildNotifications(ctx context.Context, cfg *config.Config, db *sqlx.DB, log *logrus.Logger) *notificationStack {
	stack := &notificationStack{hub: notifications.NewHub(logger.Component(log, "websocket"))}
	opts := []notifications.Option{notifications.WithRealtime(stack.hub)}

	if cfg.EnablePushNotifications {
		push, err := notifications.NewFCMPushService(ctx, cfg.FCMCredentialsPath, cfg.FCMCredentialsJSON, logger.Component(log, "fcm"))
		if err != nil {
			log.WithError(err).Warn("FCM unavailable, push notifications disabled")
		} else {
			opts = append(opts, notifications.WithPush(push))
			log.Info("FCM push notifications enabled")
		}
	} else if cfg.IsDevelopment() {
		opts = append(opts, notifications.WithPush(notifications.NewMockPushService()))
		log.Info("using mock push service")
	}

	if cfg.NATSURL != "" {
		publisher, err := notifications.NewNATSPublisher(cfg.NATSURL, "mye-api", logger.Component(log, "nats"))
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, domain events disabled")
		} else {
			stack.publisher = publisher
			opts = append(opts, notifications.WithPublisher(publisher))
			log.Info("publishing notification events to NATS")
		}
	}

	repo := notifications.NewPostgresRepository(db)
	stack.service = notifications.NewService(repo, logger.Component(log, "notifications"), opts...)
	return stack
}
