package processors

import "github.com/cgscacau/yieldlab/src/models"

// Flat rates used by the estimator. These are estimates, not a tax filing:
// no exemption thresholds or loss carry-forward are modeled.
const (
	CapitalGainsRate = 0.15
	JSCPWithholding  = 0.15
)

// TaxKind selects which estimate ComputeTax applies.
type TaxKind string

const (
	TaxCapitalGains TaxKind = "capital_gains"
	TaxDividend     TaxKind = TaxKind(models.DividendRegular)
	TaxJSCP         TaxKind = TaxKind(models.DividendJSCP)
	TaxIncome       TaxKind = TaxKind(models.DividendIncome)
)

func (k TaxKind) Valid() bool {
	switch k {
	case TaxCapitalGains, TaxDividend, TaxJSCP, TaxIncome:
		return true
	}
	return false
}

// CapitalGainsTax is 15% of a positive profit and zero otherwise.
func CapitalGainsTax(profit float64) float64 {
	if profit <= 0 {
		return 0
	}
	return profit * CapitalGainsRate
}

// DividendTax withholds 15% on JSCP. Regular dividends and any other
// distribution class are exempt.
func DividendTax(amount float64, kind models.DividendType) float64 {
	if kind == models.DividendJSCP {
		return amount * JSCPWithholding
	}
	return 0
}

// ComputeTax dispatches on kind. Unknown kinds estimate zero.
func ComputeTax(amount float64, kind TaxKind) float64 {
	if kind == TaxCapitalGains {
		return CapitalGainsTax(amount)
	}
	return DividendTax(amount, models.DividendType(kind))
}
