package amortization

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	StatusPending InstallmentStatus = "PENDING"
	StatusPaid    InstallmentStatus = "PAID"
	StatusOverdue InstallmentStatus = "OVERDUE"
)

func (s InstallmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue:
		return true
	default:
		return false
	}
}

type InstallmentRow struct {
	InstallmentNumber  int
	DueDate            time.Time
	TotalAmount        decimal.Decimal
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal
	RemainingBalance   decimal.Decimal
	Status             InstallmentStatus
	PaidDate           *time.Time
	AmountPaid         *decimal.Decimal
}

// balanceEpsilon is half a minor unit; residual balances below it are zero.
var balanceEpsilon = decimal.New(5, -3)

func BuildSchedule(terms LoanTerms, startDate time.Time) ([]InstallmentRow, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	r := terms.MonthlyRate()
	emi := installment(terms.Principal, r, terms.TenureMonths)

	rows := make([]InstallmentRow, 0, terms.TenureMonths)
	balance := terms.Principal

	for k := 1; k <= terms.TenureMonths; k++ {
		interest := balance.Mul(r).Round(moneyPlaces)

		principal := balance
		if k < terms.TenureMonths {
			// Capped at the balance, so a tiny principal is repaid early and
			// the rows after payoff are zero.
			principal = decimal.Min(decimal.Max(emi.Sub(interest), decimal.Zero), balance)
		}
		total := principal.Add(interest)

		balance = balance.Sub(principal)
		if balance.Abs().LessThan(balanceEpsilon) {
			balance = decimal.Zero
		}

		rows = append(rows, InstallmentRow{
			InstallmentNumber:  k,
			DueDate:            AddMonths(startDate, k),
			TotalAmount:        total,
			PrincipalComponent: principal,
			InterestComponent:  interest,
			RemainingBalance:   balance,
			Status:             StatusPending,
		})
	}

	return rows, nil
}

// OutstandingAfter returns the balance left once the first k installments
// have been paid: the full principal for k <= 0 and zero for k >= len(schedule).
func OutstandingAfter(schedule []InstallmentRow, k int) decimal.Decimal {
	if len(schedule) == 0 || k >= len(schedule) {
		return decimal.Zero
	}
	if k <= 0 {
		first := schedule[0]
		return first.RemainingBalance.Add(first.PrincipalComponent)
	}
	return schedule[k-1].RemainingBalance
}
