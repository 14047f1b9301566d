package models

// Portfolio groups a user's assets, transactions and dividends.
type Portfolio struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// PortfolioUpdate carries the mutable portfolio fields. Nil means unchanged.
type PortfolioUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CascadeResult reports what a portfolio deletion removed alongside it.
type CascadeResult struct {
	Assets       int      `json:"assets"`
	Transactions int      `json:"transactions"`
	Dividends    int      `json:"dividends"`
	Failures     []string `json:"failures,omitempty"`
}
