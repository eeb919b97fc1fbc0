package amortization

import (
	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2
	// growthPlaces bounds the digits kept while raising (1+r) to the tenure.
	growthPlaces = 24
)

var one = decimal.NewFromInt(1)

func ComputeMonthlyInstallment(principal, annualRatePercent decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if err := validate(principal, annualRatePercent, tenureMonths); err != nil {
		return decimal.Zero, err
	}
	return installment(principal, monthlyRate(annualRatePercent), tenureMonths), nil
}

func installment(principal, r decimal.Decimal, n int) decimal.Decimal {
	if r.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(n))).Round(moneyPlaces)
	}

	growth := compound(one.Add(r), n)
	numerator := principal.Mul(r).Mul(growth)
	denominator := growth.Sub(one)

	return numerator.Div(denominator).Round(moneyPlaces)
}

// compound returns base^n by repeated squaring.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(growthPlaces)
		}
		base = base.Mul(base).Round(growthPlaces)
		n >>= 1
	}
	return result
}
