// Package main is the entry point for the papertrade server, a simulated
// stock-trading portfolio manager: users register with seed cash, look up
// live quotes, buy and sell shares, and review holdings and history.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Initialize structured logging
//  3. Open the papertrade database and apply the schema
//  4. Wire repositories, services and the quote client explicitly
//  5. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/papertrade/internal/clients/stockapi"
	"github.com/aristath/papertrade/internal/config"
	"github.com/aristath/papertrade/internal/database"
	"github.com/aristath/papertrade/internal/modules/accounts"
	"github.com/aristath/papertrade/internal/modules/portfolio"
	"github.com/aristath/papertrade/internal/server"
	"github.com/aristath/papertrade/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger so the configuration error is still logged
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting papertrade")

	// Single database, ledger profile: cash balances and the append-only
	// transaction log get full fsync safety
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "papertrade.db"),
		Profile: database.ProfileLedger,
		Name:    "papertrade",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Str("path", db.Path()).Msg("Database ready")

	// Explicit dependency wiring: repositories over the shared connection,
	// services over repositories, the quote client standing alone
	accountRepo := accounts.NewRepository(db.Conn(), log)
	holdingRepo := portfolio.NewHoldingRepository(db.Conn(), log)
	transactionRepo := portfolio.NewTransactionRepository(db.Conn(), log)
	quoteClient := stockapi.NewClient(cfg.QuoteAPIURL, log)

	accountService := accounts.NewService(accountRepo, log)
	portfolioService := portfolio.NewService(
		db.Conn(),
		accountRepo,
		holdingRepo,
		transactionRepo,
		quoteClient,
		log,
	)

	srv := server.New(server.Config{
		Log:              log,
		DB:               db,
		AccountService:   accountService,
		AccountRepo:      accountRepo,
		PortfolioService: portfolioService,
		TransactionRepo:  transactionRepo,
		Quotes:           quoteClient,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Block until SIGINT or SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
