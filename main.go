package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cristopher43/gamer-zeta-frontend/apperrors"
	"github.com/cristopher43/gamer-zeta-frontend/clients"
	"github.com/cristopher43/gamer-zeta-frontend/config"
	"github.com/cristopher43/gamer-zeta-frontend/controllers"
	"github.com/cristopher43/gamer-zeta-frontend/database"
	"github.com/cristopher43/gamer-zeta-frontend/logger"
	"github.com/cristopher43/gamer-zeta-frontend/middleware"
	awspkg "github.com/cristopher43/gamer-zeta-frontend/pkg/aws"
	"github.com/cristopher43/gamer-zeta-frontend/publisher"
	"github.com/cristopher43/gamer-zeta-frontend/routes"
	"github.com/cristopher43/gamer-zeta-frontend/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "pos-console"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── CloudWatch Logs + Metrics ──
	var awsCfg sdkaws.Config
	var metricsClient *awspkg.MetricsClient
	if cfg.CloudWatchEnabled || cfg.EventsBackend == "sns" {
		c, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatalf("failed to load AWS config: %v", err)
		}
		awsCfg = c
	}
	if cfg.CloudWatchEnabled {
		cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, "", serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs init failed: %v", err)
			logger.Initialize(cfg.Env)
		} else {
			logger.InitializeWithWriter(cfg.Env, cwLogs)
		}
		metricsClient = awspkg.NewMetricsClient(awsCfg, "", true)
	} else {
		logger.Initialize(cfg.Env)
	}
	defer logger.Sync()

	// ── Persistence: redis when configured, in-memory otherwise ──
	var sessionRepo database.SessionRepository
	var cartRepo database.CartRepository
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		sessionRepo = database.NewRedisSessionRepository(rdb, cfg.SessionTTL)
		cartRepo = database.NewRedisCartRepository(rdb, cfg.CartTTL)
	} else {
		logger.Log.Warn("REDIS_URL not set, sessions and carts are kept in memory")
		sessionRepo = database.NewMemorySessionRepository(cfg.SessionTTL)
		cartRepo = database.NewMemoryCartRepository()
	}

	events, err := newPublisher(cfg, awsCfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize sale events", zap.Error(err))
	}

	api := clients.NewBackendClient(cfg.BackendURL, cfg.RequestTimeout, clients.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	})

	sessions := services.NewSessionService(api, sessionRepo)
	catalog := services.NewCatalogService(api, cfg.RefreshTimeout)
	workspaces := services.NewWorkspaceRegistry(catalog, cartRepo)
	sessions.OnLogout(workspaces.Drop)
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sessions.RunJanitor(janitorCtx, cfg.SessionSweepInterval)
	checkout := services.NewCheckoutService(api, catalog, events, metricsClient, services.CheckoutOptions{
		AllowFallbackCashier: cfg.AllowFallbackCashier,
		FallbackCashierID:    cfg.FallbackCashierID,
	})
	admin := services.NewAdminService(api, catalog)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(middleware.Metrics(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(apperrors.ErrorMiddleware())

	loginLimiter := middleware.LoginRateLimiter()
	defer loginLimiter.Close()

	routes.RegisterRoutes(r, routes.Controllers{
		Auth: controllers.NewAuthController(sessions, controllers.CookieSettings{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionTTL,
		}, metricsClient),
		Cashier: controllers.NewCashierController(sessions, catalog, workspaces, checkout),
		Admin:   controllers.NewAdminController(sessions, admin),
	}, routes.GateConfig{
		Sessions:     sessions,
		CookieName:   cfg.CookieName,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("POS console listening", zap.String("port", cfg.Port), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down")
	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Shutdown error", zap.Error(err))
	}

	// let in-flight catalog refreshes and sale events finish
	checkout.Wait()
	catalog.Wait()
	if err := events.Close(); err != nil {
		logger.Log.Error("Failed to close sale event publisher", zap.Error(err))
	}
}

func newPublisher(cfg config.Config, awsCfg sdkaws.Config) (publisher.Publisher, error) {
	switch cfg.EventsBackend {
	case "sns":
		return publisher.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicARN)
	case "kafka":
		logger.Log.Info("Publishing sale events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "", "none":
		return publisher.Noop{}, nil
	default:
		return nil, errors.New("unknown EVENTS_BACKEND " + cfg.EventsBackend)
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		// credentials cannot be combined with a wildcard origin
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}
