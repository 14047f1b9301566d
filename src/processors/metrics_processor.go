package processors

import (
	"sort"
	"time"

	"github.com/cgscacau/yieldlab/src/models"
	"github.com/shopspring/decimal"
)

// DefaultYieldMonths is the trailing window used for dividend yield.
const DefaultYieldMonths = 12

// AverageCost is the cost basis per unit from buy transactions only:
// sum(price*quantity + fees) / sum(quantity). Zero when there are no buys.
func AverageCost(transactions []models.Transaction) float64 {
	cost := decimal.Zero
	qty := decimal.Zero
	for _, tx := range transactions {
		if tx.Type != models.TxBuy {
			continue
		}
		q := decimal.NewFromFloat(tx.Quantity)
		cost = cost.Add(decimal.NewFromFloat(tx.Price).Mul(q)).Add(decimal.NewFromFloat(tx.Fees))
		qty = qty.Add(q)
	}
	if !qty.IsPositive() {
		return 0
	}
	return cost.DivRound(qty, 10).InexactFloat64()
}

// CurrentQuantity replays transactions in date order. Buys and bonifications
// add, sells subtract and a split multiplies the running quantity by its ratio.
// There is no floor at zero.
func CurrentQuantity(transactions []models.Transaction) float64 {
	quantity := 0.0
	for _, tx := range SortByDate(transactions) {
		switch tx.Type {
		case models.TxBuy, models.TxBonification:
			quantity += tx.Quantity
		case models.TxSell:
			quantity -= tx.Quantity
		case models.TxSplit:
			quantity *= tx.Quantity
		}
	}
	return quantity
}

// TotalInvested is sum(total+fees) over buys minus sum(total-fees) over sells.
func TotalInvested(transactions []models.Transaction) float64 {
	total := decimal.Zero
	for _, tx := range transactions {
		switch tx.Type {
		case models.TxBuy:
			total = total.Add(decimal.NewFromFloat(tx.Total)).Add(decimal.NewFromFloat(tx.Fees))
		case models.TxSell:
			total = total.Sub(decimal.NewFromFloat(tx.Total).Sub(decimal.NewFromFloat(tx.Fees)))
		}
	}
	return total.InexactFloat64()
}

// CurrentValue is quantity*currentPrice. Callers apply the averageCost
// fallback (models.Asset.WithPriceFallback) before calling.
func CurrentValue(asset models.Asset) float64 {
	return asset.Quantity * asset.CurrentPrice
}

// ComputeGain compares the asset's market value with what was invested.
func ComputeGain(asset models.Asset, invested float64) models.Gain {
	amount := CurrentValue(asset) - invested
	return models.Gain{Amount: amount, Percent: percentOf(amount, invested)}
}

type metricsProcessorImpl struct {
	now func() time.Time
}

// NewMetricsProcessor creates a MetricsProcessor. now defaults to time.Now.
func NewMetricsProcessor(now func() time.Time) MetricsProcessor {
	if now == nil {
		now = time.Now
	}
	return &metricsProcessorImpl{now: now}
}

// DividendYield sums the asset's net dividends paid inside the trailing
// window and divides by its current value.
func (p *metricsProcessorImpl) DividendYield(dividends []models.Dividend, asset models.Asset, periodMonths int) float64 {
	cutoff := p.now().AddDate(0, -periodMonths, 0)
	received := 0.0
	for _, d := range dividends {
		if d.AssetID != asset.ID {
			continue
		}
		if paidSince(d, cutoff) {
			received += d.NetAmount
		}
	}
	return percentOf(received, CurrentValue(asset))
}

func (p *metricsProcessorImpl) ComputeMetrics(assets []models.Asset, transactions []models.Transaction, dividends []models.Dividend) models.PortfolioMetrics {
	byAsset := GroupByAsset(transactions)

	var invested, value float64
	assetAllocation := make([]models.AssetAllocation, 0, len(assets))
	sectorTotals := make(map[string]float64)
	var sectorOrder []string

	for _, asset := range assets {
		assetValue := CurrentValue(asset)
		invested += TotalInvested(byAsset[asset.ID])
		value += assetValue

		assetAllocation = append(assetAllocation, models.AssetAllocation{
			Ticker: asset.Ticker,
			Name:   asset.Name,
			Value:  assetValue,
		})

		sector := asset.SectorOrDefault()
		if _, seen := sectorTotals[sector]; !seen {
			sectorOrder = append(sectorOrder, sector)
		}
		sectorTotals[sector] += assetValue
	}

	for i := range assetAllocation {
		assetAllocation[i].Percent = percentOf(assetAllocation[i].Value, value)
	}
	sectorAllocation := make([]models.SectorAllocation, 0, len(sectorOrder))
	for _, sector := range sectorOrder {
		v := sectorTotals[sector]
		sectorAllocation = append(sectorAllocation, models.SectorAllocation{
			Sector:  sector,
			Value:   v,
			Percent: percentOf(v, value),
		})
	}
	sort.SliceStable(assetAllocation, func(i, j int) bool { return assetAllocation[i].Value > assetAllocation[j].Value })
	sort.SliceStable(sectorAllocation, func(i, j int) bool { return sectorAllocation[i].Value > sectorAllocation[j].Value })

	var allTime, trailing float64
	cutoff := p.now().AddDate(0, -DefaultYieldMonths, 0)
	for _, d := range dividends {
		allTime += d.NetAmount
		if paidSince(d, cutoff) {
			trailing += d.NetAmount
		}
	}

	gain := value - invested
	return models.PortfolioMetrics{
		TotalInvested:    invested,
		CurrentValue:     value,
		TotalGain:        gain,
		TotalGainPercent: percentOf(gain, invested),
		TotalDividends:   allTime,
		// Same trailing window as the per-asset yield; TotalDividends stays all-time.
		DividendYield:    percentOf(trailing, value),
		MonthlyDividends: trailing / DefaultYieldMonths,
		AssetAllocation:  assetAllocation,
		SectorAllocation: sectorAllocation,
	}
}

// AssetPerformance builds the per-asset breakdown. transactions may hold
// other assets' records; only the asset's own are used.
func (p *metricsProcessorImpl) AssetPerformance(asset models.Asset, transactions []models.Transaction, dividends []models.Dividend) models.AssetPerformance {
	own := GroupByAsset(transactions)[asset.ID]
	invested := TotalInvested(own)
	gain := ComputeGain(asset, invested)
	return models.AssetPerformance{
		AssetID:         asset.ID,
		Ticker:          asset.Ticker,
		Name:            asset.Name,
		Quantity:        asset.Quantity,
		AverageCost:     asset.AverageCost,
		CurrentPrice:    asset.CurrentPrice,
		TotalInvested:   invested,
		CurrentValue:    CurrentValue(asset),
		Gain:            gain,
		DividendYield:   p.DividendYield(dividends, asset, DefaultYieldMonths),
		EstimatedCGTax:  CapitalGainsTax(gain.Amount),
		TransactionsCnt: len(own),
	}
}

// paidSince reports whether d was paid at or after cutoff. Unparseable dates never count.
func paidSince(d models.Dividend, cutoff time.Time) bool {
	paid, ok := models.ParseDate(d.PaymentDate)
	return ok && !paid.Before(cutoff)
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
