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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/clients"
	"github.com/yashrajoria/bms-storefront/config"
	"github.com/yashrajoria/bms-storefront/controllers"
	"github.com/yashrajoria/bms-storefront/database"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/middleware"
	"github.com/yashrajoria/bms-storefront/payment"
	awspkg "github.com/yashrajoria/bms-storefront/pkg/aws"
	"github.com/yashrajoria/bms-storefront/routes"
)

const serviceName = "bms-storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLogger := logger.MustNew(cfg.Environment)
	defer func() { _ = zapLogger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx := context.Background()

	// ── Redis (ledger, payment attempts, listing cache) ──
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.Ledger.Backend == "redis" {
				zapLogger.Fatal("Redis unavailable", zap.Error(err))
			}
			zapLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			zapLogger.Info("Connected to Redis")
			defer func() { _ = redisClient.Close() }()
		}
	}

	var (
		slots    ledger.SlotFactory
		attempts payment.AttemptStore
		cache    *listing.Cache
	)
	if cfg.Ledger.Backend == "redis" {
		slots = database.UserSlots(redisClient, cfg.Ledger.Namespace)
		attempts = payment.NewRedisAttemptStore(redisClient, cfg.Ledger.Namespace, cfg.Payment.AttemptTTL)
	} else {
		zapLogger.Warn("Unpaid orders are kept in memory and lost on restart")
		slots = database.MemoryUserSlots()
		attempts = payment.NewMemoryAttemptStore(cfg.Payment.AttemptTTL)
	}
	if redisClient != nil {
		cache = listing.NewCache(redisClient, cfg.Listing.CacheTTL, zapLogger)
	}

	// ── AWS: CloudWatch metrics, SNS payment events, Secrets Manager ──
	var (
		httpMetrics    middleware.HTTPMetrics
		paymentMetrics payment.MetricsRecorder
		events         awspkg.SNSPublisher
	)
	serverKey := cfg.Midtrans.ServerKey
	if cfg.CloudWatch.Enabled || cfg.Payment.TopicARN != "" || cfg.Midtrans.ServerKeySecret != "" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx, zapLogger)
		if err != nil {
			zapLogger.Warn("AWS config unavailable", zap.Error(err))
		} else {
			if cfg.CloudWatch.Enabled {
				mc := awspkg.NewMetricsClient(awsCfg, cfg.CloudWatch.Namespace, true)
				httpMetrics, paymentMetrics = mc, mc
				zapLogger.Info("CloudWatch metrics enabled", zap.String("namespace", cfg.CloudWatch.Namespace))
			}
			if cfg.Payment.TopicARN != "" {
				events = awspkg.NewSNSClient(awsCfg, zapLogger)
			}
			if cfg.Midtrans.ServerKeySecret != "" {
				secrets := awspkg.NewSecretsClient(awsCfg)
				key, err := secrets.GetSecretField(ctx, cfg.Midtrans.ServerKeySecret, "server_key")
				if err != nil {
					zapLogger.Warn("Midtrans server key secret unavailable", zap.Error(err))
				} else {
					serverKey = key
				}
			}
		}
	}

	var verifier payment.Verifier
	if serverKey != "" {
		verifier = payment.NewMidtransVerifier(serverKey, cfg.Midtrans.Environment)
	} else {
		zapLogger.Warn("No Midtrans server key, payment outcomes are not verified")
	}

	api := clients.NewStoreAPI(clients.NewGatewayClient(cfg.APIBaseURL, cfg.RequestTimeout))
	ledgers := ledger.NewOpener(slots, zapLogger)
	reconciler := payment.NewReconciler(verifier, events, cfg.Payment.TopicARN, paymentMetrics, zapLogger)
	payments := payment.NewService(api, ledgers, attempts, reconciler, zapLogger)
	controller := controllers.NewBFFController(api, ledgers, payments, cache, zapLogger).
		WithSnap(controllers.SnapConfig{ClientKey: cfg.Midtrans.ClientKey, ScriptURL: cfg.Midtrans.SnapURL})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.DefaultRateLimit())
	r.Use(middleware.MetricsMiddleware(httpMetrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, controller, middleware.NewAuthenticator(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Storefront BFF listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Shutdown error", zap.Error(err))
	}
	zapLogger.Info("Storefront BFF stopped")
}
