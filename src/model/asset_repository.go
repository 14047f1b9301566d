package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/cgscacau/yieldlab/src/store"
)

func setAssetID(a *models.Asset, id string) { a.ID = id }

func (r *Repository) CreateAsset(ctx context.Context, a models.Asset) (*models.Asset, error) {
	ts := r.timestamp()
	a.ID = ""
	a.CreatedAt, a.UpdatedAt = ts, ts
	return create(ctx, r, AssetsCollection, newID("asset"), &a, setAssetID)
}

func (r *Repository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	return getByID(ctx, r, AssetsCollection, id, setAssetID)
}

func (r *Repository) ListAssetsByPortfolio(ctx context.Context, portfolioID string) ([]models.Asset, error) {
	return listWhere(ctx, r, AssetsCollection, r.pages.Assets, "portfolioId", portfolioID, setAssetID)
}

func (r *Repository) UpdateAsset(ctx context.Context, id string, upd models.AssetUpdate) (*models.Asset, error) {
	fields := store.Fields{"updatedAt": r.timestamp()}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Type != nil {
		fields["type"] = string(*upd.Type)
	}
	if upd.Quantity != nil {
		fields["quantity"] = *upd.Quantity
	}
	if upd.AverageCost != nil {
		fields["averageCost"] = *upd.AverageCost
	}
	if upd.CurrentPrice != nil {
		fields["currentPrice"] = *upd.CurrentPrice
	}
	if upd.Sector != nil {
		fields["sector"] = *upd.Sector
	}
	if upd.PurchaseDate != nil {
		fields["purchaseDate"] = *upd.PurchaseDate
	}
	if upd.LastUpdate != nil {
		fields["lastUpdate"] = *upd.LastUpdate
	}

	doc, err := r.store.Update(ctx, AssetsCollection, id, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating asset %s: %w", id, err)
	}
	var a models.Asset
	if err := fromDocument(doc, &a); err != nil {
		return nil, err
	}
	a.ID = doc.ID
	return &a, nil
}

func (r *Repository) DeleteAsset(ctx context.Context, id string) error {
	return r.delete(ctx, AssetsCollection, id)
}
