package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"taxi/internal/app"
	"taxi/internal/config"
	"taxi/internal/geo"
	"taxi/internal/handler"
	internalRedis "taxi/internal/redis"
	"taxi/internal/repository/postgres"
	"taxi/internal/service"
	"taxi/internal/session"
)

func main() {
	// Load .env if present, then configuration from the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// The session registry lives exactly as long as the server process.
	registry := session.NewRegistry()
	defer registry.Close()

	server := wireServer(db, redisClient, registry, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, registry *session.Registry, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis-backed stores.
	geoCache := internalRedis.NewGeoCache(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// External geolocation provider.
	geoProvider := geo.NewClient(cfg.Geo.BaseURL, &http.Client{Timeout: cfg.Geo.Timeout})

	// Services.
	validator := service.NewDefaultValidator(userRepo)
	authService := service.NewAuthService(registry, userRepo, validator)
	accountService := service.NewAccountService(userRepo, authService, validator)
	pricing := service.NewPricingEngine(cfg.Pricing.RatePerKm, cfg.Pricing.BaseFare, cfg.Pricing.AverageSpeedKmH)
	orderService := service.NewOrderService(orderRepo, userRepo, authService, validator, pricing, geoProvider, geoCache, lockStore)
	matchingService := service.NewMatchingService(orderRepo, geoProvider, pricing, geoCache)

	// Handlers.
	userHandler := handler.NewUserHandler(accountService, authService)
	orderHandler := handler.NewOrderHandler(orderService)
	driverHandler := handler.NewDriverHandler(matchingService)

	router := app.NewRouter(app.RouterDeps{
		UserHandler:   userHandler,
		OrderHandler:  orderHandler,
		DriverHandler: driverHandler,
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
