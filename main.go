// Package main provides the main entry point for the above-the-fold tracking service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amirphl/above-fold-tracker/app/handlers"
	"github.com/amirphl/above-fold-tracker/app/middleware"
	"github.com/amirphl/above-fold-tracker/app/router"
	"github.com/amirphl/above-fold-tracker/app/scheduler"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/amirphl/above-fold-tracker/app/views"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/config"
	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting above-the-fold tracker...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging points the standard logger at stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) func() {
	if cfg.Output == "stdout" {
		return func() {}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		log.Printf("Failed to create log directory, logging to stdout: %v", err)
		return func() {}
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotating
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotating)
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.LUTC)

	return func() { _ = rotating.Close() }
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.SlowQueryLog {
		gormCfg.Logger = logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established (%s)", cfg.Driver)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// A nil *redis.Client must not leak into the interface
	var lockClient redis.UniversalClient
	if rc != nil {
		lockClient = rc
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
	}

	// Initialize repositories
	recordRepo := repository.NewTrackingRecordRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	settingsRepo := repository.NewTrackerSettingsRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	nonceService, err := services.NewNonceService(cfg.Security.NonceSecret, cfg.JWT.Issuer, cfg.Security.NonceTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nonce service: %w", err)
	}

	// Initialize flows
	retentionFlow := businessflow.NewRetentionFlow(recordRepo, settingsRepo, lockClient, businessflow.RetentionOptions{
		DefaultDays: cfg.Tracking.RetentionDays,
		BatchLimit:  cfg.Tracking.PurgeBatch,
		LockKey:     cfg.Cache.RedisPrefix + "retention:lock",
		LockTTL:     cfg.Scheduler.LockTimeout,
	})

	retentionScheduler := scheduler.NewRetentionScheduler(retentionFlow, cfg.Scheduler.RetentionSchedule, scheduler.LogConfig{
		Path:       cfg.Logging.SchedulerLogPath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})

	settingsFlow := businessflow.NewTrackerSettingsFlow(settingsRepo, cfg.Tracking.RetentionDays, cfg.Tracking.DisableForAdmins)
	maintenanceFlow := businessflow.NewMaintenanceFlow(db, recordRepo, adminRepo, settingsRepo, settingsFlow, retentionScheduler)

	installCtx, installCancel := context.WithTimeout(context.Background(), time.Minute)
	defer installCancel()
	if err := maintenanceFlow.Install(installCtx); err != nil {
		return nil, fmt.Errorf("failed to install tracker schema: %w", err)
	}
	if err := ensureBootstrapAdmin(installCtx, adminRepo, cfg.Admin, cfg.Security.BcryptCost); err != nil {
		return nil, err
	}

	trackingFlow := businessflow.NewTrackingFlow(recordRepo, settingsRepo, nonceService, businessflow.TrackingOptions{
		Endpoint:         "/api/v1/abovefold/track",
		LegacyEndpoint:   "/api/v1/ajax/track",
		MaxLinks:         cfg.Tracking.MaxLinks,
		TestMode:         cfg.Tracking.TestMode,
		Debug:            cfg.Tracking.Debug,
		DisableForAdmins: cfg.Tracking.DisableForAdmins,
	})
	if cfg.Tracking.TestMode {
		log.Println("WARNING: tracking nonce validation is disabled (TRACKING_TEST_MODE)")
	}
	reportFlow := businessflow.NewAdminReportFlow(recordRepo, nonceService, cfg.Tracking.AdminPageSize)
	adminAuthFlow := businessflow.NewAdminAuthFlow(adminRepo, tokenService)

	// Initialize handlers
	trackingHandler := handlers.NewTrackingHandler(trackingFlow)
	adminHandler := handlers.NewAdminHandler(adminAuthFlow)
	dashboardHandler := handlers.NewAdminDashboardHandler(reportFlow, retentionFlow, maintenanceFlow, views.NewLiquidRenderer())
	settingsHandler := handlers.NewTrackerSettingsHandler(settingsFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, adminRepo)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		trackingHandler,
		adminHandler,
		dashboardHandler,
		settingsHandler,
		authMiddleware,
	)

	if cfg.Scheduler.RetentionEnabled {
		if err := retentionScheduler.Activate(); err != nil {
			return nil, err
		}
		stopScheduler := retentionScheduler.Start(context.Background())
		stopFuncs = append([]func(){stopScheduler}, stopFuncs...)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureBootstrapAdmin creates the configured operator when no admin exists yet
func ensureBootstrapAdmin(ctx context.Context, adminRepo repository.AdminRepository, cfg config.AdminConfig, bcryptCost int) error {
	if cfg.BootstrapUsername == "" {
		return nil
	}

	count, err := adminRepo.Count(ctx, models.AdminFilter{})
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap admin password: %w", err)
	}

	admin := &models.Admin{
		Username:     cfg.BootstrapUsername,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
	}
	if err := adminRepo.Save(ctx, admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	log.Printf("Bootstrap admin %q created", cfg.BootstrapUsername)
	return nil
}
