package models

type DividendType string

const (
	DividendRegular DividendType = "dividend"
	DividendJSCP    DividendType = "jscp"
	DividendIncome  DividendType = "income"
)

// Valid reports whether t is one of the known distribution types.
func (t DividendType) Valid() bool {
	switch t {
	case DividendRegular, DividendJSCP, DividendIncome:
		return true
	}
	return false
}

// Dividend is an append-only income distribution received for an asset.
type Dividend struct {
	ID            string       `json:"id,omitempty"`
	PortfolioID   string       `json:"portfolioId"`
	AssetID       string       `json:"assetId"`
	UserID        string       `json:"userId"`
	Ticker        string       `json:"ticker"`
	Type          DividendType `json:"type"`
	Amount        float64      `json:"amount"`
	Quantity      float64      `json:"quantity"`
	PricePerShare float64      `json:"pricePerShare"`
	PaymentDate   string       `json:"paymentDate"`
	ExDate        string       `json:"exDate"`
	TaxAmount     float64      `json:"taxAmount"`
	NetAmount     float64      `json:"netAmount"`
	CreatedAt     string       `json:"createdAt"`
}
