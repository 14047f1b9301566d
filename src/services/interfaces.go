// src/services/interfaces.go
package services

import (
	"context"
	"errors"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/processors"
	"github.com/cgscacau/yieldlab/src/security/validation"
)

// Define common service errors
var (
	// ErrAccessDenied covers both absent and foreign records so callers
	// cannot probe for existence.
	ErrAccessDenied = errors.New("not found or access denied")
	ErrValidation   = validation.ErrValidationFailed
)

// PortfolioRepository is the persistence the portfolio service needs.
// *model.Repository implements it.
type PortfolioRepository interface {
	CreatePortfolio(ctx context.Context, p models.Portfolio) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	ListPortfoliosByUser(ctx context.Context, userID string) ([]models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id string, upd models.PortfolioUpdate) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error

	CreateAsset(ctx context.Context, a models.Asset) (*models.Asset, error)
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	ListAssetsByPortfolio(ctx context.Context, portfolioID string) ([]models.Asset, error)
	UpdateAsset(ctx context.Context, id string, upd models.AssetUpdate) (*models.Asset, error)
	DeleteAsset(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	CreateDividend(ctx context.Context, d models.Dividend) (*models.Dividend, error)
	GetDividend(ctx context.Context, id string) (*models.Dividend, error)
	ListDividendsByPortfolio(ctx context.Context, portfolioID string) ([]models.Dividend, error)
	DeleteDividend(ctx context.Context, id string) error
}

// QuoteProvider is the market data the portfolio service consumes.
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (*Quote, error)
	GetQuotes(ctx context.Context, tickers []string) map[string]Quote
}

type AssetInput struct {
	PortfolioID  string           `json:"portfolioId"`
	Ticker       string           `json:"ticker"`
	Name         string           `json:"name"`
	Type         models.AssetType `json:"type"`
	Quantity     float64          `json:"quantity"`
	AverageCost  float64          `json:"averageCost"`
	CurrentPrice float64          `json:"currentPrice"`
	Sector       string           `json:"sector"`
	PurchaseDate string           `json:"purchaseDate"`
}

type TransactionInput struct {
	PortfolioID string                 `json:"portfolioId"`
	AssetID     string                 `json:"assetId"`
	Ticker      string                 `json:"ticker"`
	Type        models.TransactionType `json:"type"`
	Quantity    float64                `json:"quantity"`
	Price       float64                `json:"price"`
	Fees        float64                `json:"fees"`
	Date        string                 `json:"date"`
	Notes       string                 `json:"notes"`
}

type DividendInput struct {
	PortfolioID string              `json:"portfolioId"`
	AssetID     string              `json:"assetId"`
	Ticker      string              `json:"ticker"`
	Type        models.DividendType `json:"type"`
	Amount      float64             `json:"amount"`
	Quantity    float64             `json:"quantity"`
	PaymentDate string              `json:"paymentDate"`
	ExDate      string              `json:"exDate"`
}

// TaxEstimate is the answer of the tax estimator endpoint.
type TaxEstimate struct {
	Kind   processors.TaxKind `json:"kind"`
	Amount float64            `json:"amount"`
	Tax    float64            `json:"tax"`
	Net    float64            `json:"net"`
}

// PortfolioService is everything the HTTP layer does with portfolios. Every
// call takes the verified caller's uid and checks ownership first.
type PortfolioService interface {
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	CreatePortfolio(ctx context.Context, userID, name, description string) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, userID, portfolioID string, upd models.PortfolioUpdate) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, userID, portfolioID string) (*models.CascadeResult, error)

	ListAssets(ctx context.Context, userID, portfolioID string) ([]models.Asset, error)
	CreateAsset(ctx context.Context, userID string, in AssetInput) (*models.Asset, error)
	UpdateAsset(ctx context.Context, userID, assetID string, upd models.AssetUpdate) (*models.Asset, error)
	DeleteAsset(ctx context.Context, userID, assetID string) error
	RecalculateAsset(ctx context.Context, userID, assetID string) (*models.Asset, error)

	ListTransactions(ctx context.Context, userID, portfolioID string) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, portfolioID, transactionID string) error

	ListDividends(ctx context.Context, userID, portfolioID string) ([]models.Dividend, error)
	CreateDividend(ctx context.Context, userID string, in DividendInput) (*models.Dividend, error)
	DeleteDividend(ctx context.Context, userID, portfolioID, dividendID string) error

	Metrics(ctx context.Context, userID, portfolioID string) (*models.PortfolioReport, error)
	Evolution(ctx context.Context, userID, portfolioID string, kind processors.EvolutionKind) ([]models.MonthlyPoint, error)
	EstimateTax(kind processors.TaxKind, amount float64) (*TaxEstimate, error)
	UpdateQuotes(ctx context.Context, userID, portfolioID string) (*models.QuoteRefreshResult, error)
	ImportCSV(ctx context.Context, userID, portfolioID, csvData string, commit bool) (*models.ImportResult, error)
}
