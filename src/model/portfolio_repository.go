package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/store"
)

func setPortfolioID(p *models.Portfolio, id string) { p.ID = id }

func (r *Repository) CreatePortfolio(ctx context.Context, p models.Portfolio) (*models.Portfolio, error) {
	ts := r.timestamp()
	p.ID = ""
	p.CreatedAt, p.UpdatedAt = ts, ts
	return create(ctx, r, PortfoliosCollection, newID("portfolio"), &p, setPortfolioID)
}

func (r *Repository) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	return getByID(ctx, r, PortfoliosCollection, id, setPortfolioID)
}

// ListPortfoliosByUser scans the first page of portfolios for the owner's.
func (r *Repository) ListPortfoliosByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	return listWhere(ctx, r, PortfoliosCollection, r.pages.Portfolios, "userId", userID, setPortfolioID)
}

func (r *Repository) UpdatePortfolio(ctx context.Context, id string, upd models.PortfolioUpdate) (*models.Portfolio, error) {
	fields := store.Fields{"updatedAt": r.timestamp()}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	doc, err := r.store.Update(ctx, PortfoliosCollection, id, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating portfolio %s: %w", id, err)
	}
	var p models.Portfolio
	if err := fromDocument(doc, &p); err != nil {
		return nil, err
	}
	p.ID = doc.ID
	return &p, nil
}

func (r *Repository) DeletePortfolio(ctx context.Context, id string) error {
	return r.delete(ctx, PortfoliosCollection, id)
}
