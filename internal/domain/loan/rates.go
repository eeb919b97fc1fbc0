package loan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loan-engine/internal/pkg/apperrors"
)

type RateTable struct {
	rates map[LoanType]decimal.Decimal
}

// NewRateTable parses annual percentage rates keyed by loan type. Keys are
// matched case-insensitively since viper lower-cases map keys.
func NewRateTable(defaults map[string]string) (*RateTable, error) {
	rates := make(map[LoanType]decimal.Decimal, len(defaults))
	for key, raw := range defaults {
		lt, err := ParseLoanType(key)
		if err != nil {
			return nil, fmt.Errorf("invalid default rate key: %w", err)
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: default rate for %s is not a number: %q", apperrors.ErrInvalidArgument, lt, raw)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: default rate for %s must not be negative", apperrors.ErrInvalidArgument, lt)
		}
		rates[lt] = rate
	}
	return &RateTable{rates: rates}, nil
}

// Resolve returns the explicit rate when given and the configured default otherwise.
func (t *RateTable) Resolve(loanType LoanType, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		return *explicit, nil
	}
	rate, ok := t.rates[loanType]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no default interest rate configured for %s loans", apperrors.ErrValidation, loanType)
	}
	return rate, nil
}
