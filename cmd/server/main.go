package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	httpapi "toolrent-backend/internal/api/http"
	"toolrent-backend/internal/config"
	"toolrent-backend/internal/jobs"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/payment"
	"toolrent-backend/internal/repository/postgres"
	"toolrent-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Toolrent Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Payment Gateway
	// The production gateway client is injected by the deployment; the
	// sandbox keeps local environments self-contained.
	gateway := payment.NewSandboxGateway()

	// Initialize Services
	params := service.ParamsFromConfig(&cfg.Platform)
	emailSvc := service.NewEmailService(&cfg.SendGrid)
	notifier := service.NewAdminNotifier(store.NotificationRepository)
	walletSvc := service.NewWalletService(store.WalletRepository, store.TransactionRepository)
	cancelSvc := service.NewCancellationService(
		store.BookingRepository,
		store.TransactionRepository,
		store.RefundRepository,
		store.UserRepository,
		store.ToolRepository,
		walletSvc,
		store,
		gateway,
		emailSvc,
		notifier,
		params,
	)
	bookingSvc := service.NewBookingService(
		store.BookingRepository,
		store.ToolRepository,
		store.UserRepository,
		walletSvc,
		cancelSvc,
		store,
		gateway,
		emailSvc,
		params,
	)
	depositSvc := service.NewDepositService(
		store.BookingRepository,
		store.DepositJobRepository,
		store.ToolRepository,
		store.UserRepository,
		store,
		gateway,
		emailSvc,
		notifier,
		params,
	)
	// Initialize Job Runner for manual triggering over HTTP
	jobRunner := jobs.NewJobRunner(db, store, &jobs.Services{
		Deposit: depositSvc,
		Email:   emailSvc,
		Wallet:  walletSvc,
	}, cfg)

	// Set up HTTP server
	router := mux.NewRouter()
	httpapi.RegisterOpsRoutes(router, db, jobRunner)
	httpapi.RegisterBookingRoutes(router, bookingSvc, cancelSvc, depositSvc, walletSvc)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
