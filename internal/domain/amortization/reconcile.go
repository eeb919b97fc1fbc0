package amortization

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentRecord struct {
	InstallmentNumber int
	AmountPaid        decimal.Decimal
	PaidAt            time.Time
}

// ReconcileWithPayments returns a copy of schedule annotated with payment
// state as of now. When several payments target the same installment the
// one with the earliest PaidAt is used. Payments for installment numbers
// outside the schedule are ignored. A row is OVERDUE only when its due date
// is a calendar day strictly before today in the due date's location.
func ReconcileWithPayments(schedule []InstallmentRow, payments []PaymentRecord, now time.Time) []InstallmentRow {
	earliest := make(map[int]PaymentRecord, len(payments))
	for _, p := range payments {
		if current, ok := earliest[p.InstallmentNumber]; !ok || p.PaidAt.Before(current.PaidAt) {
			earliest[p.InstallmentNumber] = p
		}
	}

	out := make([]InstallmentRow, len(schedule))
	for i, row := range schedule {
		row.PaidDate = nil
		row.AmountPaid = nil

		if p, ok := earliest[row.InstallmentNumber]; ok {
			paidAt := p.PaidAt
			amount := p.AmountPaid
			row.Status = StatusPaid
			row.PaidDate = &paidAt
			row.AmountPaid = &amount
		} else if isPastDue(row.DueDate, now) {
			row.Status = StatusOverdue
		} else {
			row.Status = StatusPending
		}

		out[i] = row
	}
	return out
}

func isPastDue(dueDate, now time.Time) bool {
	loc := dueDate.Location()
	return DateOf(dueDate, loc).Before(DateOf(now, loc))
}
