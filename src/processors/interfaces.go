package processors

import "github.com/cgscacau/yieldlab/src/models"

// MetricsProcessor turns raw asset, transaction and dividend records into
// derived figures. Implementations keep no state between calls.
type MetricsProcessor interface {
	DividendYield(dividends []models.Dividend, asset models.Asset, periodMonths int) float64
	ComputeMetrics(assets []models.Asset, transactions []models.Transaction, dividends []models.Dividend) models.PortfolioMetrics
	AssetPerformance(asset models.Asset, transactions []models.Transaction, dividends []models.Dividend) models.AssetPerformance
}

// EvolutionProcessor buckets dated cash flows into monthly series.
type EvolutionProcessor interface {
	PatrimonyEvolution(transactions []models.Transaction) []models.MonthlyPoint
	DividendsEvolution(dividends []models.Dividend) []models.MonthlyPoint
	ComputeEvolution(kind EvolutionKind, transactions []models.Transaction, dividends []models.Dividend) ([]models.MonthlyPoint, error)
}
