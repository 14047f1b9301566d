// src/processors/transaction_processor.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cgscacau/yieldlab/src/models"
)

// TransactionProcessor normalizes incoming transactions and replays stored
// ones back into an asset position.
type TransactionProcessor struct{}

func NewTransactionProcessor() *TransactionProcessor { return &TransactionProcessor{} }

// Normalize upper-cases the ticker, lower-cases the type and fixes Total at
// quantity*price. Total is never recomputed after creation.
func (p *TransactionProcessor) Normalize(tx models.Transaction) models.Transaction {
	tx.Ticker = strings.ToUpper(strings.TrimSpace(tx.Ticker))
	tx.Type = models.TransactionType(strings.ToLower(strings.TrimSpace(string(tx.Type))))
	tx.Total = tx.Quantity * tx.Price
	return tx
}

// Position is what a transaction history says an asset should hold.
type Position struct {
	Quantity    float64
	AverageCost float64
}

// Replay derives quantity and average cost from an asset's transactions.
func (p *TransactionProcessor) Replay(transactions []models.Transaction) Position {
	return Position{
		Quantity:    CurrentQuantity(transactions),
		AverageCost: AverageCost(transactions),
	}
}

// Fingerprint identifies a movement by its source data so re-imports of the
// same statement line can be detected.
func (p *TransactionProcessor) Fingerprint(tx models.Transaction) string {
	day := strings.TrimSpace(tx.Date)
	if len(day) > 10 {
		day = day[:10]
	}
	input := fmt.Sprintf("%s|%s|%s|%g|%g", day, strings.ToUpper(tx.Ticker), tx.Type, tx.Quantity, tx.Price)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// SortByDate returns a copy ordered by date ascending. The sort is stable so
// same-day records keep their stored order; unparseable dates sort first.
func SortByDate(transactions []models.Transaction) []models.Transaction {
	sorted := make([]models.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, _ := models.ParseDate(sorted[i].Date)
		tj, _ := models.ParseDate(sorted[j].Date)
		return ti.Before(tj)
	})
	return sorted
}

// GroupByAsset indexes transactions by asset id, preserving order.
func GroupByAsset(transactions []models.Transaction) map[string][]models.Transaction {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range transactions {
		grouped[tx.AssetID] = append(grouped[tx.AssetID], tx)
	}
	return grouped
}
