// Package app builds the service graph shared by the API server and yieldlabctl.
package app

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/cgscacau/yieldlab/src/config"
	"github.com/cgscacau/yieldlab/src/database"
	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/model"
	"github.com/cgscacau/yieldlab/src/security"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/store"
)

// App holds the constructed collaborators. Nothing here is a package-level
// singleton; main and the CLI each build their own.
type App struct {
	Config     *config.AppConfig
	Store      store.DocumentStore
	Repository *model.Repository
	Quotes     *services.QuoteService
	Portfolios services.PortfolioService
	Verifier   *security.IdentityVerifier
	Identity   *security.IdentityClient

	db *sql.DB
}

// New wires the document store selected by STORE_BACKEND and everything on top of it.
func New(cfg *config.AppConfig) (*App, error) {
	a := &App{Config: cfg}
	httpClient := &http.Client{Timeout: 15 * time.Second}

	switch cfg.StoreBackend {
	case config.StoreSQLite:
		logger.L.Info("Initializing local document store...", "path", cfg.DatabasePath)
		db, err := database.OpenAndMigrate(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		a.db = db
		a.Store = store.NewSQLiteStore(db)
	default:
		logger.L.Info("Using Firestore document store", "project", cfg.FirebaseProjectID)
		a.Store = store.NewFirestoreStore(cfg.FirestoreBaseURL, cfg.FirebaseProjectID, httpClient)
	}

	a.Repository = model.NewRepository(a.Store, model.PageSizes{
		Portfolios:   cfg.PortfolioPageSize,
		Assets:       cfg.AssetPageSize,
		Transactions: cfg.TransactionPageSize,
		Dividends:    cfg.DividendPageSize,
	})
	a.Quotes = services.NewQuoteService(services.QuoteConfig{
		BaseURL:   cfg.QuotesBaseURL,
		Token:     cfg.QuotesAPIToken,
		BatchSize: cfg.QuotesBatchSize,
		CacheTTL:  cfg.QuotesCacheTTL,
	})
	a.Portfolios = services.NewPortfolioService(a.Repository, a.Quotes, time.Now)
	a.Verifier = security.NewIdentityVerifier(cfg.IdentityBaseURL, cfg.FirebaseAPIKey, httpClient, cfg.TokenCacheTTL)
	a.Identity = security.NewIdentityClient(cfg.IdentityBaseURL, cfg.FirebaseAPIKey, httpClient)
	return a, nil
}

// Close releases the sqlite handle when one was opened.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
