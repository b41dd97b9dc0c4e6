package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/api"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/config"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/database"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/encryption"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/ledger"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/mfapi"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/service"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log)
	logger.WithField("version", version.Version).Info("starting finance ledger backend")

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	schemaVersion, err := database.Migrate(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"path":   cfg.Database.Path,
		"schema": schemaVersion,
	}).Info("connected to database")

	cipher, err := encryption.New(cfg.Encryption.Key)
	if err != nil {
		logger.Fatalf("Invalid encryption key: %v", err)
	}
	if !cipher.Enabled() {
		logger.Warn("ENCRYPTION_KEY not set, account numbers are stored in plain text")
	}

	navClient := mfapi.NewFinanceClient(
		mfapi.WithBaseURL(cfg.NAV.BaseURL),
		mfapi.WithRateLimit(cfg.NAV.RateLimit),
		mfapi.WithLogger(logger.WithField("component", "mfapi")),
	)

	// Create repositories
	userRepo := repository.NewUserRepository(db)
	pfRepo := repository.NewPFRepository(db)
	mfRepo := repository.NewMutualFundRepository(db)
	goldRepo := repository.NewGoldRepository(db)

	store := repository.NewLedgerStore(db, pfRepo, mfRepo)
	coordinator := ledger.NewCoordinator(store, logger.WithField("component", "ledger"), cfg.Ledger.RecalcWorkers)

	// Create services
	services := api.Services{
		System:     service.NewSystemService(db),
		User:       service.NewUserService(userRepo),
		PF:         service.NewPFService(pfRepo, userRepo, coordinator, cipher, logger.WithField("component", "pf")),
		MutualFund: service.NewMutualFundService(mfRepo, userRepo, coordinator, navClient, logger.WithField("component", "mutualfund")),
		NAV:        service.NewNAVService(mfRepo, navClient, logger.WithField("component", "nav")),
		Gold:       service.NewGoldService(goldRepo),
	}

	if err := services.NAV.Start(cfg.NAV.RefreshSchedule); err != nil {
		logger.Fatalf("Failed to schedule NAV refresh: %v", err)
	}
	defer services.NAV.Stop()

	router := api.NewRouter(services, cfg, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Info("server exited")
}
