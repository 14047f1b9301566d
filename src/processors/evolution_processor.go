package processors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cgscacau/yieldlab/src/models"
)

type EvolutionKind string

const (
	EvolutionPatrimony EvolutionKind = "patrimony"
	EvolutionDividends EvolutionKind = "dividends"
)

var ErrUnknownEvolutionKind = errors.New("unknown evolution kind")

type evolutionProcessorImpl struct{}

func NewEvolutionProcessor() EvolutionProcessor {
	return &evolutionProcessorImpl{}
}

// PatrimonyEvolution keeps a running net contribution over date-sorted
// transactions and records it under each transaction's month, so a month
// holds the total as of its last transaction.
func (p *evolutionProcessorImpl) PatrimonyEvolution(transactions []models.Transaction) []models.MonthlyPoint {
	monthly := make(map[string]float64)
	running := 0.0
	for _, tx := range SortByDate(transactions) {
		switch tx.Type {
		case models.TxBuy:
			running += tx.Total + tx.Fees
		case models.TxSell:
			running -= tx.Total - tx.Fees
		default:
			continue
		}
		monthly[models.MonthKey(tx.Date)] = running
	}
	return sortedSeries(monthly)
}

// DividendsEvolution sums net amounts per payment month.
func (p *evolutionProcessorImpl) DividendsEvolution(dividends []models.Dividend) []models.MonthlyPoint {
	monthly := make(map[string]float64)
	for _, d := range dividends {
		monthly[models.MonthKey(d.PaymentDate)] += d.NetAmount
	}
	return sortedSeries(monthly)
}

func (p *evolutionProcessorImpl) ComputeEvolution(kind EvolutionKind, transactions []models.Transaction, dividends []models.Dividend) ([]models.MonthlyPoint, error) {
	switch kind {
	case EvolutionPatrimony:
		return p.PatrimonyEvolution(transactions), nil
	case EvolutionDividends:
		return p.DividendsEvolution(dividends), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvolutionKind, kind)
}

func sortedSeries(monthly map[string]float64) []models.MonthlyPoint {
	series := make([]models.MonthlyPoint, 0, len(monthly))
	for month, value := range monthly {
		series = append(series, models.MonthlyPoint{Month: month, Value: value})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	return series
}
