package main

import (
	"context"
	"log"

	"pharmacy-coverage/internal/api"
	"pharmacy-coverage/internal/config"
	"pharmacy-coverage/internal/database"
	"pharmacy-coverage/internal/middleware"
	"pharmacy-coverage/internal/services"
	"pharmacy-coverage/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging()

	catalog := services.LoadPricingCatalog(cfg.CatalogCSV)

	// Open the store behind the local transaction log
	store, closeStore, err := openBlobStore(cfg)
	if err != nil {
		log.Fatal("Failed to open transaction log store:", err)
	}
	defer closeStore()

	txLog, err := services.LoadTransactionLog(context.Background(), store, cfg.LogKey)
	if err != nil {
		log.Fatal("Failed to load transaction log:", err)
	}
	if err := txLog.Corruption(); err != nil {
		logging.Warnf("Transaction log was reset: %v", err)
	}
	logging.Infof("Transaction log loaded - store: %s, entries: %d", cfg.LogStore, txLog.Len())

	ledger, err := newLedger(cfg, catalog)
	if err != nil {
		log.Fatal("Failed to create ledger client:", err)
	}

	reconciler := services.NewReconciliationService(ledger, txLog, catalog, nil)
	feed := middleware.NewAccountFeed()
	defer feed.Stop()
	feed.Subscribe(func(change middleware.AccountChange) {
		logging.Infof("Account changed - session: %s, account: %s -> %s, network: %s -> %s",
			change.SessionID, change.PreviousAddress, change.Address, change.PreviousNetwork, change.Network)
	})

	handler := &api.Handler{
		Catalog:      catalog,
		Ledger:       ledger,
		Reconciler:   reconciler,
		Verifier:     services.NewVerificationService(ledger, catalog, reconciler),
		History:      services.NewHistoryService(ledger, txLog),
		Orchestrator: services.NewPurchaseOrchestrator(ledger, txLog, services.NewInFlightGuard(), nil),
		AccountFeed:  feed,
	}

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, handler)

	// Start server
	logging.Infof("Starting server on port %s", cfg.Port)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func openBlobStore(cfg *config.Config) (database.BlobStore, func(), error) {
	switch cfg.LogStore {
	case config.LogStoreMemory:
		logging.Warnf("Transaction log is kept in memory and will not survive a restart")
		return database.NewMemoryBlobStore(), func() {}, nil
	case config.LogStoreRedis:
		client, err := database.OpenRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return database.NewRedisBlobStore(client, "pharmacy"), func() { database.CloseRedis(client) }, nil
	default:
		db, err := database.OpenDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		return database.NewSQLBlobStore(db), func() { database.CloseDatabase(db) }, nil
	}
}

func newLedger(cfg *config.Config, catalog *services.PricingCatalog) (services.LedgerClient, error) {
	if cfg.Ledger.BaseURL == "" {
		logging.Warnf("LEDGER_URL not set, using the simulated in-process ledger")
		return services.NewSimulatedLedger(catalog, nil), nil
	}
	logging.Infof("Using ledger gateway %s, contract %s", cfg.Ledger.BaseURL, cfg.Ledger.ContractAddress)
	return services.NewHTTPLedgerClient(cfg.Ledger)
}
