package models

// PortfolioMetrics is the derived snapshot of a portfolio. Never persisted.
type PortfolioMetrics struct {
	TotalInvested    float64            `json:"totalInvested"`
	CurrentValue     float64            `json:"currentValue"`
	TotalGain        float64            `json:"totalGain"`
	TotalGainPercent float64            `json:"totalGainPercent"`
	TotalDividends   float64            `json:"totalDividends"`
	DividendYield    float64            `json:"dividendYield"`
	MonthlyDividends float64            `json:"monthlyDividends"`
	AssetAllocation  []AssetAllocation  `json:"assetAllocation"`
	SectorAllocation []SectorAllocation `json:"sectorAllocation"`
}

type AssetAllocation struct {
	Ticker  string  `json:"ticker"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

type SectorAllocation struct {
	Sector  string  `json:"sector"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// Gain is the unrealized result of a position against what was invested in it.
type Gain struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// MonthlyPoint is one entry of a month-bucketed series keyed YYYY-MM.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// AssetPerformance is the per-asset breakdown returned next to the metrics.
type AssetPerformance struct {
	AssetID         string  `json:"assetId"`
	Ticker          string  `json:"ticker"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	AverageCost     float64 `json:"averageCost"`
	CurrentPrice    float64 `json:"currentPrice"`
	TotalInvested   float64 `json:"totalInvested"`
	CurrentValue    float64 `json:"currentValue"`
	Gain            Gain    `json:"gain"`
	DividendYield   float64 `json:"dividendYield"`
	EstimatedCGTax  float64 `json:"estimatedCapitalGainsTax"`
	TransactionsCnt int     `json:"transactions"`
}

// PortfolioReport is the payload of the metrics endpoint.
type PortfolioReport struct {
	Metrics            PortfolioMetrics   `json:"metrics"`
	Assets             []AssetPerformance `json:"assets"`
	PatrimonyEvolution []MonthlyPoint     `json:"patrimonyEvolution"`
	DividendsEvolution []MonthlyPoint     `json:"dividendsEvolution"`
}
