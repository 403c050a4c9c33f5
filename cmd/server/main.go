package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railwatch-service/internal/infrastructure/config"
	"railwatch-service/internal/infrastructure/oauth"
	"railwatch-service/internal/infrastructure/persistence"
	"railwatch-service/internal/interface/gmail"
	storeRepo "railwatch-service/internal/interface/repository"
	"railwatch-service/internal/interface/tickets"
	"railwatch-service/internal/usecase"
	"railwatch-service/pkg/logger"
	"railwatch-service/pkg/metrics"

	"railwatch-service/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting Railwatch Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up PostgreSQL connection
	log.Info("Connecting to PostgreSQL")
	gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	// Set up MongoDB connection
	log.Info("Connecting to MongoDB")
	mongoClient, mongoDB, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	// Set up repositories
	taskRepo, err := storeRepo.NewGormWatchTaskRepository(gormDB)
	if err != nil {
		log.Fatal("Failed to set up task repository", "error", err)
	}
	alertLogRepo := storeRepo.NewMongoAlertLogRepository(mongoDB)

	// Rate ledger backend: postgres by default, redis when configured
	var ledger repository.RateLimitRepository
	if cfg.RateLedgerBackend == "redis" {
		log.Info("Using Redis rate ledger")
		rdb, err := persistence.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		ledger = storeRepo.NewRedisLedgerRepository(rdb)
	} else {
		ledger, err = storeRepo.NewGormRequestLogRepository(gormDB)
		if err != nil {
			log.Fatal("Failed to set up rate ledger", "error", err)
		}
	}

	// Set up Gmail OAuth and sender
	gmailOAuth := oauth.NewGmailOAuth(
		cfg.GmailClientID,
		cfg.GmailClientSecret,
		cfg.GmailRefreshToken,
		log,
	)
	tokenSource := gmailOAuth.GetTokenSource(ctx)

	mailer, err := gmail.NewGmailSender(ctx, tokenSource, cfg.GmailSender, log)
	if err != nil {
		log.Fatal("Failed to create Gmail sender", "error", err)
	}

	// Assemble the monitoring pipeline
	promMetrics := metrics.NewMetrics("railwatch")
	governor := usecase.NewGovernor(ledger, cfg.RateWindow, log)
	ticketClient := tickets.NewClient(log)
	dispatcher := usecase.NewAlertDispatcher(mailer, alertLogRepo, taskRepo, log, promMetrics)

	monitor := usecase.NewMonitor(usecase.MonitorConfig{
		IdleInterval:      cfg.IdleInterval,
		BatchInterval:     cfg.BatchInterval,
		TaskPollInterval:  cfg.TaskPollInterval,
		NotifyCooldown:    cfg.NotifyCooldown,
		DirectLimit:       cfg.DirectLimit,
		TransferLimit:     cfg.TransferLimit,
		MinLayoverMinutes: cfg.MinLayoverMinutes,
		PlanCap:           cfg.PlanCap,
	}, taskRepo, ticketClient, governor, dispatcher, log, promMetrics)

	// Start the scheduler loop in a goroutine
	go monitor.Run(ctx)

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop the monitor loop

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Railwatch Service stopped")
}
