package model

import (
	"context"
	"sort"

	"github.com/cgscacau/yieldlab/src/models"
)

func setDividendID(d *models.Dividend, id string) { d.ID = id }

func (r *Repository) CreateDividend(ctx context.Context, d models.Dividend) (*models.Dividend, error) {
	d.ID = ""
	d.CreatedAt = r.timestamp()
	return create(ctx, r, DividendsCollection, newID("div"), &d, setDividendID)
}

func (r *Repository) GetDividend(ctx context.Context, id string) (*models.Dividend, error) {
	return getByID(ctx, r, DividendsCollection, id, setDividendID)
}

// ListDividendsByPortfolio returns the portfolio's dividends, latest payment first.
func (r *Repository) ListDividendsByPortfolio(ctx context.Context, portfolioID string) ([]models.Dividend, error) {
	divs, err := listWhere(ctx, r, DividendsCollection, r.pages.Dividends, "portfolioId", portfolioID, setDividendID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(divs, func(i, j int) bool {
		ti, _ := models.ParseDate(divs[i].PaymentDate)
		tj, _ := models.ParseDate(divs[j].PaymentDate)
		return ti.After(tj)
	})
	return divs, nil
}

func (r *Repository) DeleteDividend(ctx context.Context, id string) error {
	return r.delete(ctx, DividendsCollection, id)
}
