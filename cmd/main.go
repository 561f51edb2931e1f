package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"social-service/config"
	"social-service/db"
	"social-service/handler"
	"social-service/imagestore"
	"social-service/middleware"
	"social-service/monitoring"
	natsClient "social-service/nats"
	"social-service/pkg/clock"
	"social-service/pkg/jwt"
	"social-service/publisher"
	"social-service/repository"
	"social-service/service"
	"social-service/subscriber"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(cfg.App)

	dbConn, err := database.NewConnection(ctx, database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		DBName:       cfg.Database.DBName,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()
	log.Println("Database connected successfully")

	if err := database.RunMigrations(ctx, dbConn.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully")

	// Live delivery is optional: without NATS notifications are only stored.
	var notificationPublisher service.NotificationPublisher = publisher.NopPublisher{}
	var feed handler.NotificationFeed
	var nats *natsClient.Client
	if cfg.NATS.Enabled() {
		nats, err = natsClient.NewClient(natsClient.Config{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			ClientID:      cfg.NATS.ClientID,
		})
		if err != nil {
			log.Fatalf("Failed to initialize NATS client: %v", err)
		}

		notificationPublisher = publisher.NewEventPublisher(nats)
		feed = subscriber.NewNotificationFeed(nats)
		log.Println("NATS client initialized successfully")
	} else {
		log.Warn("NATS_URL not set, live notification stream disabled")
	}

	var images imagestore.Store
	if cfg.Cloudinary.Enabled() {
		images, err = imagestore.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			log.Fatalf("Failed to initialize Cloudinary: %v", err)
		}
	} else {
		log.Warn("Cloudinary credentials not set, image uploads disabled")
		images = imagestore.NewDisabledStore()
	}

	monitoring.Register()

	clk := clock.NewRealClock()
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry, clk)

	userRepo := repository.NewUserRepository(dbConn.DB)
	followRepo := repository.NewFollowRepository(dbConn.DB)
	postRepo := repository.NewPostRepository(dbConn.DB)
	notificationRepo := repository.NewNotificationRepository(dbConn.DB, redisClient)
	tokenRepo := repository.NewTokenRepository(redisClient)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, notificationPublisher, clk)
	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager, clk)
	userService := service.NewUserService(userRepo, followRepo, postRepo, images, notificationService, clk)
	postService := service.NewPostService(postRepo, userRepo, followRepo, images, notificationService, clk)

	healthChecks := map[string]handler.HealthCheck{
		"postgres": dbConn.HealthCheck,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if nats != nil {
		healthChecks["nats"] = func(context.Context) error {
			if !nats.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Auth:          handler.NewAuthHandler(authService, !cfg.App.IsDevelopment()),
		Users:         handler.NewUserHandler(userService),
		Posts:         handler.NewPostHandler(postService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Stream:        handler.NewStreamHandler(feed),
		Gate:          middleware.NewAuth(authService),
		HealthChecks:  healthChecks,
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Printf("HTTP server listening on port %s", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	if nats != nil {
		if err := nats.Drain(); err != nil {
			log.Errorf("Failed to drain NATS connection: %v", err)
		}
	}
	log.Println("Server stopped cleanly")
}

func setupLogging(app config.AppConfig) {
	level, err := log.ParseLevel(app.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if app.IsDevelopment() {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
		return
	}
	log.SetFormatter(&log.JSONFormatter{})
}
