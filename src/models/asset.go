package models

import "strings"

type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetREIT   AssetType = "reit"
	AssetETF    AssetType = "etf"
	AssetFII    AssetType = "fii"
	AssetCrypto AssetType = "crypto"
	AssetOther  AssetType = "other"
)

// DefaultSector is used when an asset carries no sector.
const DefaultSector = "Outros"

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetStock, AssetREIT, AssetETF, AssetFII, AssetCrypto, AssetOther:
		return true
	}
	return false
}

// Asset is a position held in a portfolio.
type Asset struct {
	ID           string    `json:"id,omitempty"`
	PortfolioID  string    `json:"portfolioId"`
	UserID       string    `json:"userId"`
	Ticker       string    `json:"ticker"`
	Name         string    `json:"name"`
	Type         AssetType `json:"type"`
	Quantity     float64   `json:"quantity"`
	AverageCost  float64   `json:"averageCost"`
	CurrentPrice float64   `json:"currentPrice"`
	Sector       string    `json:"sector,omitempty"`
	PurchaseDate string    `json:"purchaseDate,omitempty"`
	LastUpdate   string    `json:"lastUpdate,omitempty"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

// SectorOrDefault returns the asset sector, or DefaultSector when blank.
func (a Asset) SectorOrDefault() string {
	if strings.TrimSpace(a.Sector) == "" {
		return DefaultSector
	}
	return a.Sector
}

// WithPriceFallback returns a copy priced at averageCost when no market price is known.
func (a Asset) WithPriceFallback() Asset {
	if a.CurrentPrice <= 0 {
		a.CurrentPrice = a.AverageCost
	}
	return a
}

// AssetUpdate carries the editable asset fields. Nil means unchanged.
type AssetUpdate struct {
	Name         *string    `json:"name,omitempty"`
	Type         *AssetType `json:"type,omitempty"`
	Quantity     *float64   `json:"quantity,omitempty"`
	AverageCost  *float64   `json:"averageCost,omitempty"`
	CurrentPrice *float64   `json:"currentPrice,omitempty"`
	Sector       *string    `json:"sector,omitempty"`
	PurchaseDate *string    `json:"purchaseDate,omitempty"`
	LastUpdate   *string    `json:"lastUpdate,omitempty"`
}
