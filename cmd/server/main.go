package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fleetapp "github.com/fleetops/backend/internal/application/fleet"
	ledgerapp "github.com/fleetops/backend/internal/application/ledger"
	"github.com/fleetops/backend/internal/application/reporting"
	settlementapp "github.com/fleetops/backend/internal/application/settlement"
	"github.com/fleetops/backend/internal/domain/fleet"
	"github.com/fleetops/backend/internal/infrastructure/auth"
	"github.com/fleetops/backend/internal/infrastructure/cache"
	"github.com/fleetops/backend/internal/infrastructure/config"
	"github.com/fleetops/backend/internal/infrastructure/logger"
	"github.com/fleetops/backend/internal/infrastructure/persistence"
	"github.com/fleetops/backend/internal/infrastructure/telemetry"
	"github.com/fleetops/backend/internal/interfaces/http/handler"
	"github.com/fleetops/backend/internal/interfaces/http/middleware"
	"github.com/fleetops/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// settlementMetricsBridge breaks the construction cycle between the business
// metrics collector and the settlement service: the collector is created
// first with an empty bridge, the service is created with the collector, and
// the bridge is bound to the service afterwards.
type settlementMetricsBridge struct {
	svc *settlementapp.Service
}

func (b *settlementMetricsBridge) Bind(svc *settlementapp.Service) {
	b.svc = svc
}

func (b *settlementMetricsBridge) GetSettlementCountsByStatus(ctx context.Context) (map[string]int64, error) {
	if b.svc == nil {
		return map[string]int64{}, nil
	}
	return b.svc.GetSettlementCountsByStatus(ctx)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting fleetops backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Initialize telemetry providers before anything that emits spans
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown meter provider", zap.Error(err))
		}
	}()

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(
		logger.Named(log, "gorm"),
		logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Query tracing and connection pool metrics
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTelemetry, err := telemetry.NewDBTelemetry(telemetry.DBTelemetryConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, meterProvider, logger.Named(log, "db-telemetry"))
		if err != nil {
			log.Fatal("Failed to initialize database telemetry", zap.Error(err))
		}
		if err := dbTelemetry.Register(db.DB); err != nil {
			log.Fatal("Failed to register database telemetry", zap.Error(err))
		}
		dbTelemetry.StartPoolStatsCollection(ctx)
		defer dbTelemetry.Stop()
	}

	// Generation lock and token blacklist share the Redis deployment choice.
	// Without Redis both fall back to in-process implementations, which only
	// protect a single instance.
	var generationLock cache.GenerationLock
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisLock, err := cache.NewRedisGenerationLock(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisLock.Close(); err != nil {
				log.Warn("Failed to close Redis generation lock", zap.Error(err))
			}
		}()
		generationLock = redisLock
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisLock.GetClient())
		log.Info("Using Redis-backed generation lock and token blacklist",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		memLock := cache.NewInMemoryGenerationLock()
		defer func() {
			_ = memLock.Close()
		}()
		generationLock = memLock
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Redis disabled, using in-process generation lock (single instance only)")
	}

	// JWT
	jwtService := auth.NewJWTService(cfg.JWT)

	// Repositories
	contractRepo := persistence.NewGormContractRepository(db.DB)
	configRepo := persistence.NewGormFinancialConfigRepository(db.DB)
	driverRepo := persistence.NewGormDriverRepository(db.DB)
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)
	earningsRepo := persistence.NewGormEarningsRecordRepository(db.DB)
	costRepo := persistence.NewGormCostRecordRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)

	// Business metrics. The bridge is bound to the settlement service below.
	statusBridge := &settlementMetricsBridge{}
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:              meterProvider.Meter(telemetry.TracerName),
		Logger:             logger.Named(log, "business-metrics"),
		SettlementProvider: statusBridge,
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	defer businessMetrics.Stop()

	// Application services
	ledgerService := ledgerapp.NewService(ledgerRepo)
	earningsAggregator := settlementapp.NewEarningsAggregator(earningsRepo)
	costAggregator := settlementapp.NewCostAggregator(costRepo, ledgerService, logger.Named(log, "cost-aggregator"))
	contractResolver := fleet.NewContractResolver(contractRepo)

	settlementService := settlementapp.NewService(
		settlementRepo,
		configRepo,
		contractResolver,
		earningsAggregator,
		costAggregator,
		ledgerService,
		generationLock,
		businessMetrics,
		logger.Named(log, "settlement-service"),
	)
	statusBridge.Bind(settlementService)

	contractService := fleetapp.NewContractService(contractRepo, vehicleRepo, driverRepo, logger.Named(log, "contract-service"))
	configService := fleetapp.NewConfigService(configRepo, logger.Named(log, "config-service"))
	reportingService := reporting.NewService(settlementRepo, costRepo, vehicleRepo, partnerRepo, logger.Named(log, "reporting-service"))

	if cfg.Telemetry.Enabled {
		businessMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
	}

	// Handlers
	systemHandler := handler.NewSystemHandler()
	settlementHandler := handler.NewSettlementHandler(settlementService)
	contractHandler := handler.NewContractHandler(contractService)
	financialConfigHandler := handler.NewFinancialConfigHandler(configService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	reportHandler := handler.NewReportHandler(reportingService, earningsAggregator, costAggregator, configService)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	// Health check stays outside the authenticated API surface
	engine.GET("/health", healthHandler(db))

	// Everything under /api/v1 requires a valid access token except the
	// system probes listed below.
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/health",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: logger.Named(log, "jwt"),
	}))

	appRouter := router.NewRouter(engine, router.WithAPIVersion("v1"))
	appRouter.
		Register(systemHandler).
		Register(settlementHandler).
		Register(contractHandler).
		Register(financialConfigHandler).
		Register(ledgerHandler).
		Register(reportHandler)
	appRouter.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process liveness and database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
