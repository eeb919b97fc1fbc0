package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

type TxMock struct {
	pgx.Tx
}

var tx pgx.Tx = &TxMock{}

func (m *MockRepository) CreateLoan(ctx context.Context, loan *Loan) (*Loan, error) {
	args := m.Called(ctx, loan)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error) {
	args := m.Called(ctx, filter)
	if l, ok := args.Get(0).([]*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetAllActiveLoanIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetPaymentsByLoanID(ctx context.Context, loanID int64) ([]Payment, error) {
	args := m.Called(ctx, loanID)
	if p, ok := args.Get(0).([]Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetLoanForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error) {
	args := m.Called(ctx, tx, loanID)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetPaymentsByLoanIDInTx(ctx context.Context, tx pgx.Tx, loanID int64) ([]Payment, error) {
	args := m.Called(ctx, tx, loanID)
	if p, ok := args.Get(0).([]Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CreatePaymentInTx(ctx context.Context, tx pgx.Tx, payment *Payment) (*Payment, error) {
	args := m.Called(ctx, tx, payment)
	if p, ok := args.Get(0).(*Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID int64, status LoanStatus) error {
	args := m.Called(ctx, tx, loanID, status)
	return args.Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if t, ok := args.Get(0).(pgx.Tx); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

type MockClosurePublisher struct {
	mock.Mock
}

func (m *MockClosurePublisher) PublishLoanClosed(ctx context.Context, loan *Loan, finalPayment *Payment) error {
	args := m.Called(ctx, loan, finalPayment)
	return args.Error(0)
}
