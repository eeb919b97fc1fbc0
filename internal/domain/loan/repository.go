package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type ListFilter struct {
	// UserID restricts the result to one borrower; empty means every loan.
	UserID string
	Status LoanStatus
}

type Repository interface {
	CreateLoan(ctx context.Context, loan *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error)

	GetAllActiveLoanIDs(ctx context.Context) ([]int64, error)

	GetPaymentsByLoanID(ctx context.Context, loanID int64) ([]Payment, error)

	GetLoanForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error)

	GetPaymentsByLoanIDInTx(ctx context.Context, tx pgx.Tx, loanID int64) ([]Payment, error)

	CreatePaymentInTx(ctx context.Context, tx pgx.Tx, payment *Payment) (*Payment, error)

	UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID int64, status LoanStatus) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}

// ClosurePublisher is notified after a loan's final installment is committed.
type ClosurePublisher interface {
	PublishLoanClosed(ctx context.Context, loan *Loan, finalPayment *Payment) error
}
