package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	resellerapp "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/auth"
	"github.com/ispbill/backend/internal/infrastructure/cache"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/logger"
	"github.com/ispbill/backend/internal/infrastructure/persistence"
	"github.com/ispbill/backend/internal/interfaces/http/handler"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
	"github.com/ispbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

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

	log.Info("Starting ISP Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	resellerRepo := persistence.NewGormResellerRepository(db.DB)
	walletTxRepo := persistence.NewGormWalletTransactionRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	packageRepo := persistence.NewGormServicePackageRepository(db.DB)
	recordRepo := persistence.NewGormBillingRecordRepository(db.DB)
	collectionRepo := persistence.NewGormCollectionRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Identity services (JWT issuance and verification)
	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	authService := resellerapp.NewAuthService(resellerRepo, jwtService, log)
	hierarchyService := resellerapp.NewHierarchyService(txScope, resellerRepo, log)
	ledgerService := resellerapp.NewLedgerService(txScope, resellerRepo, walletTxRepo, log)
	transferService := resellerapp.NewTransferService(txScope, walletTxRepo, log)
	rechargeService := billingapp.NewRechargeService(customerRepo, packageRepo, recordRepo, resellerRepo, ledgerService, log)
	collectionService := billingapp.NewCollectionService(collectionRepo, rechargeService, log)
	customerService := billingapp.NewCustomerService(customerRepo, packageRepo, resellerRepo, recordRepo, log)
	packageService := billingapp.NewPackageService(packageRepo, log)

	// Idempotency store guards money-moving endpoints against retried
	// requests. Redis is shared across instances; the in-memory store is
	// only suitable for a single-instance deployment.
	if cfg.Idempotency.Enabled {
		var idemStore shared.IdempotencyStore
		if cfg.Redis.Enabled {
			redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				log.Fatal("Failed to connect to Redis", zap.Error(err))
			}
			idemStore = redisStore
			log.Info("Redis idempotency store connected",
				zap.String("host", cfg.Redis.Host),
				zap.Int("port", cfg.Redis.Port),
			)
		} else {
			idemStore = cache.NewInMemoryIdempotencyStore()
			log.Warn("Using in-memory idempotency store; duplicate suppression is per-instance only")
		}
		defer func() {
			if err := idemStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()

		idemCfg := shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: cfg.Idempotency.Enabled,
		}
		ledgerService.SetIdempotencyStore(idemStore, idemCfg)
		transferService.SetIdempotencyStore(idemStore, idemCfg)
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	resellerHandler := handler.NewResellerHandler(hierarchyService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	transferHandler := handler.NewTransferHandler(transferService)
	rechargeHandler := handler.NewRechargeHandler(rechargeService)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	customerHandler := handler.NewCustomerHandler(customerService)
	packageHandler := handler.NewPackageHandler(packageService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Skip paths cover the public endpoints.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Auth (login, current account)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.GET("/me", authHandler.Me)

	// Reseller hierarchy, policies and wallets
	resellerRoutes := router.NewDomainGroup("resellers", "/resellers")
	resellerRoutes.POST("", resellerHandler.Create)
	resellerRoutes.GET("", resellerHandler.List)
	resellerRoutes.GET("/:id", resellerHandler.GetByID)
	resellerRoutes.PUT("/:id", resellerHandler.Update)
	resellerRoutes.PUT("/:id/policy", resellerHandler.UpdatePolicy)
	resellerRoutes.PUT("/:id/capabilities", resellerHandler.UpdateCapabilities)
	resellerRoutes.PUT("/:id/limits", resellerHandler.UpdateLimits)
	resellerRoutes.PUT("/:id/password", authHandler.SetPassword)
	resellerRoutes.POST("/:id/deactivate", resellerHandler.Deactivate)
	resellerRoutes.GET("/:id/sub-resellers", resellerHandler.SubResellers)
	resellerRoutes.GET("/:id/descendants", resellerHandler.Descendants)

	// Wallet ledger operations per reseller
	resellerRoutes.POST("/:id/wallet/deposit", ledgerHandler.Deposit)
	resellerRoutes.POST("/:id/wallet/withdraw", ledgerHandler.Withdraw)
	resellerRoutes.GET("/:id/wallet/transactions", ledgerHandler.Transactions)
	resellerRoutes.GET("/:id/wallet/summary", ledgerHandler.BalanceSummary)
	resellerRoutes.GET("/:id/wallet/verify", ledgerHandler.Verify)

	// Parent-to-child balance transfers
	transferRoutes := router.NewDomainGroup("transfers", "/transfers")
	transferRoutes.POST("", transferHandler.Transfer)

	// Billing (recharges, collections, customers, packages)
	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/recharges", rechargeHandler.Recharge)
	billingRoutes.POST("/recharges/pay-customer", rechargeHandler.PayCustomer)
	billingRoutes.POST("/collections", collectionHandler.Create)
	billingRoutes.GET("/collections", collectionHandler.List)
	billingRoutes.GET("/collections/:id", collectionHandler.GetByID)
	billingRoutes.POST("/customers", customerHandler.Create)
	billingRoutes.GET("/customers", customerHandler.List)
	billingRoutes.GET("/customers/:id", customerHandler.GetByID)
	billingRoutes.GET("/customers/:id/billing-records", customerHandler.BillingHistory)
	billingRoutes.POST("/customers/:id/suspend", customerHandler.Suspend)
	billingRoutes.POST("/packages", packageHandler.Create)
	billingRoutes.GET("/packages", packageHandler.List)
	billingRoutes.GET("/packages/:id", packageHandler.GetByID)
	billingRoutes.POST("/packages/:id/deactivate", packageHandler.Deactivate)

	// System info
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(authRoutes).
		Register(resellerRoutes).
		Register(transferRoutes).
		Register(billingRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
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
