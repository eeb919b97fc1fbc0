package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loan-engine/internal/pkg/apperrors"
)

const (
	MinTenureMonths = 1
	MaxTenureMonths = 360

	// maxTermPlaces caps the fractional digits accepted for principal and rate.
	maxTermPlaces = 8
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)

	// MaxPrincipal and MaxAnnualRatePercent are the largest values the loans
	// table can hold (NUMERIC(15,2) and NUMERIC(7,4)).
	MaxPrincipal         = decimal.RequireFromString("9999999999999.99")
	MaxAnnualRatePercent = decimal.RequireFromString("999.9999")
)

type LoanTerms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TenureMonths      int
}

type InvalidTermsError struct {
	Field  string
	Reason string
}

func (e *InvalidTermsError) Error() string {
	return fmt.Sprintf("invalid loan terms: %s %s", e.Field, e.Reason)
}

func (e *InvalidTermsError) Unwrap() error {
	return apperrors.ErrInvalidTerms
}

func NewLoanTerms(principal, annualRatePercent decimal.Decimal, tenureMonths int) (LoanTerms, error) {
	t := LoanTerms{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureMonths:      tenureMonths,
	}
	if err := t.Validate(); err != nil {
		return LoanTerms{}, err
	}
	return t, nil
}

func (t LoanTerms) Validate() error {
	return validate(t.Principal, t.AnnualRatePercent, t.TenureMonths)
}

// MonthlyRate is the periodic rate as a fraction, e.g. 10.5% a year is 0.00875.
func (t LoanTerms) MonthlyRate() decimal.Decimal {
	return monthlyRate(t.AnnualRatePercent)
}

func validate(principal, annualRatePercent decimal.Decimal, tenureMonths int) error {
	if !principal.IsPositive() {
		return &InvalidTermsError{Field: "principal", Reason: "must be greater than zero"}
	}
	if tooPrecise(principal) {
		return &InvalidTermsError{Field: "principal", Reason: fmt.Sprintf("must have at most %d decimal places", maxTermPlaces)}
	}
	if exceeds(principal, MaxPrincipal) {
		return &InvalidTermsError{Field: "principal", Reason: "must not exceed " + MaxPrincipal.String()}
	}
	if tenureMonths < MinTenureMonths || tenureMonths > MaxTenureMonths {
		return &InvalidTermsError{
			Field:  "tenureMonths",
			Reason: fmt.Sprintf("must be between %d and %d", MinTenureMonths, MaxTenureMonths),
		}
	}
	if annualRatePercent.IsNegative() {
		return &InvalidTermsError{Field: "annualRatePercent", Reason: "must not be negative"}
	}
	if tooPrecise(annualRatePercent) {
		return &InvalidTermsError{Field: "annualRatePercent", Reason: fmt.Sprintf("must have at most %d decimal places", maxTermPlaces)}
	}
	if exceeds(annualRatePercent, MaxAnnualRatePercent) {
		return &InvalidTermsError{Field: "annualRatePercent", Reason: "must not exceed " + MaxAnnualRatePercent.String()}
	}
	return nil
}

// tooPrecise and exceeds look at coefficient and exponent only, so values
// like 1e-2000000 or 1e2000000 are rejected without being expanded.
func tooPrecise(d decimal.Decimal) bool {
	return !d.IsZero() && d.Exponent() < -maxTermPlaces
}

func exceeds(d, limit decimal.Decimal) bool {
	if d.IsZero() {
		return false
	}
	if d.NumDigits()+int(d.Exponent()) > limit.NumDigits()+int(limit.Exponent()) {
		return true
	}
	return d.GreaterThan(limit)
}

func monthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(monthsInYear)
}
