package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/domain/loan"
)

type MockLoanService struct {
	mock.Mock
}

var _ loan.LoanService = (*MockLoanService)(nil)

func (m *MockLoanService) CreateLoan(ctx context.Context, caller loan.Caller, req loan.CreateLoanRequest) (*loan.Loan, error) {
	args := m.Called(ctx, caller, req)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, caller loan.Caller, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, caller, loanID)
	if l, ok := args.Get(0).(*loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, caller loan.Caller) ([]*loan.Loan, error) {
	args := m.Called(ctx, caller)
	if loans, ok := args.Get(0).([]*loan.Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, caller loan.Caller, loanID int64) ([]amortization.InstallmentRow, error) {
	args := m.Called(ctx, caller, loanID)
	if rows, ok := args.Get(0).([]amortization.InstallmentRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetSummary(ctx context.Context, caller loan.Caller, loanID int64) (*loan.LoanSummary, error) {
	args := m.Called(ctx, caller, loanID)
	if s, ok := args.Get(0).(*loan.LoanSummary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) RecordPayment(ctx context.Context, caller loan.Caller, loanID int64, req loan.PaymentRequest) (*loan.PaymentResult, error) {
	args := m.Called(ctx, caller, loanID, req)
	if r, ok := args.Get(0).(*loan.PaymentResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) Quote(terms amortization.LoanTerms, startDate time.Time) (amortization.Quotation, error) {
	args := m.Called(terms, startDate)
	return args.Get(0).(amortization.Quotation), args.Error(1)
}
