package model

import (
	"context"
	"sort"

	"github.com/cgscacau/yieldlab/src/models"
)

func setTransactionID(t *models.Transaction, id string) { t.ID = id }

// CreateTransaction stores tx as given. Transactions have no update path.
func (r *Repository) CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	tx.ID = ""
	tx.CreatedAt = r.timestamp()
	return create(ctx, r, TransactionsCollection, newID("tx"), &tx, setTransactionID)
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return getByID(ctx, r, TransactionsCollection, id, setTransactionID)
}

// ListTransactionsByPortfolio returns the portfolio's transactions, newest date first.
func (r *Repository) ListTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	txs, err := listWhere(ctx, r, TransactionsCollection, r.pages.Transactions, "portfolioId", portfolioID, setTransactionID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool {
		ti, _ := models.ParseDate(txs[i].Date)
		tj, _ := models.ParseDate(txs[j].Date)
		return ti.After(tj)
	})
	return txs, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.delete(ctx, TransactionsCollection, id)
}
