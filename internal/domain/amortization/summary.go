package amortization

import (
	"time"

	"github.com/shopspring/decimal"
)

type Quotation struct {
	MonthlyInstallment decimal.Decimal
	TotalPayable       decimal.Decimal
	TotalInterest      decimal.Decimal
	Schedule           []InstallmentRow
}

// Quote is the stateless loan calculator: the installment, the totals and
// the full schedule for the given terms.
func Quote(terms LoanTerms, startDate time.Time) (Quotation, error) {
	schedule, err := BuildSchedule(terms, startDate)
	if err != nil {
		return Quotation{}, err
	}

	var total, interest decimal.Decimal
	for _, row := range schedule {
		total = total.Add(row.TotalAmount)
		interest = interest.Add(row.InterestComponent)
	}

	return Quotation{
		MonthlyInstallment: schedule[0].TotalAmount,
		TotalPayable:       total,
		TotalInterest:      interest,
		Schedule:           schedule,
	}, nil
}

type Summary struct {
	MonthlyInstallment   decimal.Decimal
	TotalPayable         decimal.Decimal
	TotalInterest        decimal.Decimal
	PaidCount            int
	PendingCount         int
	OverdueCount         int
	PaidAmount           decimal.Decimal
	PendingAmount        decimal.Decimal
	OverdueAmount        decimal.Decimal
	OutstandingPrincipal decimal.Decimal
	NextDue              *InstallmentRow
}

// Summarize aggregates a reconciled schedule. Paid amounts use what was
// actually paid when it is known and the scheduled total otherwise.
func Summarize(schedule []InstallmentRow) Summary {
	var s Summary
	if len(schedule) == 0 {
		return s
	}
	s.MonthlyInstallment = schedule[0].TotalAmount

	for i := range schedule {
		row := schedule[i]
		s.TotalPayable = s.TotalPayable.Add(row.TotalAmount)
		s.TotalInterest = s.TotalInterest.Add(row.InterestComponent)

		switch row.Status {
		case StatusPaid:
			s.PaidCount++
			if row.AmountPaid != nil {
				s.PaidAmount = s.PaidAmount.Add(*row.AmountPaid)
			} else {
				s.PaidAmount = s.PaidAmount.Add(row.TotalAmount)
			}
			continue
		case StatusOverdue:
			s.OverdueCount++
			s.OverdueAmount = s.OverdueAmount.Add(row.TotalAmount)
		default:
			s.PendingCount++
			s.PendingAmount = s.PendingAmount.Add(row.TotalAmount)
		}

		s.OutstandingPrincipal = s.OutstandingPrincipal.Add(row.PrincipalComponent)
		if s.NextDue == nil {
			next := row
			s.NextDue = &next
		}
	}
	return s
}
