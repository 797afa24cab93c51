package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jkoster/folio-backend/internal/api"
	"github.com/jkoster/folio-backend/internal/config"
	"github.com/jkoster/folio-backend/internal/database"
	"github.com/jkoster/folio-backend/internal/repository"
	"github.com/jkoster/folio-backend/internal/scheduler"
	"github.com/jkoster/folio-backend/internal/secrets"
	"github.com/jkoster/folio-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	fundRepo := repository.NewFundRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	dividendRepo := repository.NewDividendRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Create the history pipeline: valuation engine, coverage checker,
	// materializer, invalidator, query router
	valuationService := service.NewValuationService(
		portfolioRepo,
		fundRepo,
		transactionRepo,
		dividendRepo,
	)
	coverageChecker := service.NewCoverageChecker(historyRepo)
	materializer := service.NewMaterializer(
		historyRepo,
		portfolioRepo,
		valuationService,
	)
	invalidator := service.NewInvalidator(
		historyRepo,
		portfolioRepo,
		materializer,
	)
	historyService := service.NewHistoryService(
		historyRepo,
		coverageChecker,
		valuationService,
	)

	// Provider-token encryption is optional; without a key the fund service
	// refuses token storage but everything else works.
	var secretBox *secrets.Box
	if cfg.Secrets.TokenKey != "" {
		secretBox, err = secrets.NewBox(cfg.Secrets.TokenKey)
		if err != nil {
			log.Fatalf("Failed to load token key: %v", err)
		}
	}

	// Create mutation services; each carries the invalidator so history
	// stays consistent with source-of-truth writes
	portfolioService := service.NewPortfolioService(
		portfolioRepo,
		historyRepo,
	)
	transactionService := service.NewTransactionService(
		transactionRepo,
		invalidator,
	)
	dividendService := service.NewDividendService(
		dividendRepo,
		portfolioRepo,
		invalidator,
	)
	fundService := service.NewFundService(
		fundRepo,
		settingRepo,
		invalidator,
		secretBox,
	)

	// Start the nightly materialization scheduler
	if cfg.Materialize.Enabled {
		sched, err := scheduler.New(cfg.Materialize.CronSpec, materializer)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		sched.Start()
		defer sched.Stop()
		log.Printf("Materialization scheduled: %s", cfg.Materialize.CronSpec)
	}

	// Create router
	router := api.NewRouter(db, api.Services{
		Portfolio:   portfolioService,
		Transaction: transactionService,
		Dividend:    dividendService,
		Fund:        fundService,
		History:     historyService,
		Materialize: materializer,
		Invalidator: invalidator,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
