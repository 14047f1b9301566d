package models

// ImportedRow is one accepted line of a CSV statement.
type ImportedRow struct {
	Line     int     `json:"line"`
	Date     string  `json:"date"`
	Ticker   string  `json:"ticker"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// ImportResult reports a CSV import. Created counts persisted transactions
// and is only non-zero when the import was committed.
type ImportResult struct {
	Imported []ImportedRow `json:"imported"`
	Total    int           `json:"total"`
	Errors   []string      `json:"errors"`
	Created  int           `json:"created"`
	Skipped  int           `json:"skipped"`
}

// QuoteUpdate describes one refreshed asset price.
type QuoteUpdate struct {
	Ticker        string  `json:"ticker"`
	OldPrice      float64 `json:"oldPrice"`
	NewPrice      float64 `json:"newPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// QuoteRefreshResult is the best-effort outcome of refreshing a portfolio's prices.
type QuoteRefreshResult struct {
	Updated int           `json:"updated"`
	Total   int           `json:"total"`
	Updates []QuoteUpdate `json:"updates"`
	Failed  []string      `json:"failed,omitempty"`
}
