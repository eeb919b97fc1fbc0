package event

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"
)

const (
	RoutingKeyEMIDue           = "emi.due"
	RoutingKeyEMIOverdue       = "emi.overdue"
	RoutingKeyLoanClosed       = "loan.closed"
	RoutingKeyPaymentCompleted = "payment.completed"

	EventTypeEMIDue     = "EMI_DUE"
	EventTypeEMIOverdue = "EMI_OVERDUE"
	EventTypeLoanClosed = "LOAN_CLOSED"

	dateLayout = "2006-01-02"
)

type EMIEvent struct {
	EventType          string    `json:"eventType"`
	LoanID             int64     `json:"loanId"`
	UserID             string    `json:"userId"`
	EMIAmount          string    `json:"emiAmount"`
	DueDate            string    `json:"dueDate,omitempty"`
	MonthNumber        int       `json:"monthNumber,omitempty"`
	OutstandingBalance string    `json:"outstandingBalance"`
	Timestamp          time.Time `json:"timestamp"`
}

func NewInstallmentEvent(eventType string, l *loan.Loan, row amortization.InstallmentRow, outstanding decimal.Decimal, now time.Time) EMIEvent {
	return EMIEvent{
		EventType:          eventType,
		LoanID:             l.ID,
		UserID:             l.UserID,
		EMIAmount:          row.TotalAmount.StringFixed(2),
		DueDate:            row.DueDate.Format(dateLayout),
		MonthNumber:        row.InstallmentNumber,
		OutstandingBalance: outstanding.StringFixed(2),
		Timestamp:          now,
	}
}

func NewLoanClosedEvent(l *loan.Loan, finalPayment *loan.Payment, now time.Time) EMIEvent {
	e := EMIEvent{
		EventType:          EventTypeLoanClosed,
		LoanID:             l.ID,
		UserID:             l.UserID,
		EMIAmount:          decimal.Zero.StringFixed(2),
		OutstandingBalance: decimal.Zero.StringFixed(2),
		Timestamp:          now,
	}
	if finalPayment != nil {
		e.EMIAmount = finalPayment.Amount.StringFixed(2)
		e.MonthNumber = finalPayment.InstallmentNumber
	}
	return e
}

// PaymentCompletedEvent is emitted by the payment gateway once money for an
// installment has settled.
type PaymentCompletedEvent struct {
	TransactionID     string          `json:"transactionId"`
	LoanID            int64           `json:"loanId"`
	InstallmentNumber int             `json:"emiNumber"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAt            time.Time       `json:"paidAt"`
	PaymentMethod     string          `json:"paymentMethod"`
}

func (e PaymentCompletedEvent) Validate() error {
	switch {
	case e.LoanID <= 0:
		return apperrors.NewValidationError("loanId", "must be positive")
	case e.InstallmentNumber < 1:
		return apperrors.NewValidationError("emiNumber", "must be at least 1")
	case !e.Amount.IsPositive():
		return apperrors.NewValidationError("amount", "must be greater than zero")
	case e.TransactionID == "":
		return apperrors.NewValidationError("transactionId", "is required")
	}
	return nil
}

func (e PaymentCompletedEvent) PaymentRequest() loan.PaymentRequest {
	return loan.PaymentRequest{
		InstallmentNumber: e.InstallmentNumber,
		Amount:            e.Amount,
		PaidAt:            e.PaidAt,
		Method:            e.PaymentMethod,
		TransactionRef:    e.TransactionID,
	}
}

func (e PaymentCompletedEvent) String() string {
	return fmt.Sprintf("payment %s for loan %d installment %d", e.TransactionID, e.LoanID, e.InstallmentNumber)
}
