package models

type TransactionType string

const (
	TxBuy          TransactionType = "buy"
	TxSell         TransactionType = "sell"
	TxDividend     TransactionType = "dividend"
	TxJSCP         TransactionType = "jscp"
	TxSplit        TransactionType = "split"
	TxBonification TransactionType = "bonification"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxBuy, TxSell, TxDividend, TxJSCP, TxSplit, TxBonification:
		return true
	}
	return false
}

// Transaction is an append-only movement on an asset. Total is fixed at
// creation as Quantity*Price and never recomputed.
type Transaction struct {
	ID          string          `json:"id,omitempty"`
	PortfolioID string          `json:"portfolioId"`
	AssetID     string          `json:"assetId"`
	UserID      string          `json:"userId"`
	Type        TransactionType `json:"type"`
	Ticker      string          `json:"ticker"`
	Quantity    float64         `json:"quantity"`
	Price       float64         `json:"price"`
	Total       float64         `json:"total"`
	Fees        float64         `json:"fees"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes"`
	CreatedAt   string          `json:"createdAt"`
}
