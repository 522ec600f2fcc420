package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecomove/internal/config"
	"ecomove/internal/db"
	"ecomove/internal/ecohabit"
	"ecomove/internal/ledger"
	"ecomove/internal/logger"
	"ecomove/internal/memstore"
	"ecomove/internal/notify"
	"ecomove/internal/payment"
	"ecomove/internal/promo"
	"ecomove/internal/server"
	"ecomove/internal/settings"
	"ecomove/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// storage bundles what the services need from a storage driver.
type storage struct {
	tx        db.Transactor
	ledger    ledger.Repository
	promos    promo.Repository
	ecoHabits ecohabit.Repository
	checks    map[string]server.HealthCheck
	close     func() error
}

// @title EcoMove API
// @version 1.0
// @description Wallet, promo codes, eco-habit carbon credits and payments.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.InitWithEnv(cfg.Env)
	logger.Info("Starting EcoMove application", "env", cfg.Env, "storage", cfg.StorageDriver)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer store.close()

	defaults := settings.Settings{
		ConversionRate:   cfg.ConversionRate,
		PromoMaxDiscount: cfg.PromoMaxDiscount,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		publisher notify.Publisher = notify.Nop{}
		admin     settings.Admin   = settings.NewStatic(defaults)
	)
	if cfg.StorageDriver == config.StoragePostgres {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		notifier := notify.NewWithClient(rdb)
		go notifier.ReportQueueLength(ctx, 15*time.Second)

		publisher = notifier
		admin = settings.NewRedisStore(rdb, defaults)
		store.checks["redis"] = notifier.Ping
		logger.Info("Redis notifications and settings enabled", "addr", cfg.RedisAddr)
	}

	walletService := wallet.NewService(store.ledger, store.tx, publisher, cfg.RechargeMaxAmount)
	promoService := promo.NewService(store.promos, store.tx, admin)
	ecoHabitService := ecohabit.NewService(store.ecoHabits, store.tx, walletService, admin, publisher)
	paymentService := payment.NewService(store.tx, walletService, promoService)

	srv := server.New(cfg, server.Handlers{
		Wallet:   wallet.NewHandler(walletService),
		Promo:    promo.NewHandler(promoService),
		EcoHabit: ecohabit.NewHandler(ecoHabitService),
		Payment:  payment.NewHandler(paymentService),
		Settings: settings.NewHandler(admin),
	}, store.checks)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		mem := memstore.New()
		return &storage{
			tx:        mem,
			ledger:    mem.Ledger(),
			promos:    mem.Promos(),
			ecoHabits: mem.EcoHabits(),
			checks:    map[string]server.HealthCheck{},
			close:     func() error { return nil },
		}, nil
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		database.Close()
		return nil, err
	}
	logger.Info("Migrations completed")

	return &storage{
		tx:        db.NewTransactor(database),
		ledger:    ledger.NewRepository(database),
		promos:    promo.NewRepository(database),
		ecoHabits: ecohabit.NewRepository(database),
		checks:    map[string]server.HealthCheck{"postgres": database.PingContext},
		close:     database.Close,
	}, nil
}
