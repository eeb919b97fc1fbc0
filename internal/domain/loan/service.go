package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"
)

const DefaultPaymentMethod = "ONLINE"

type CreateLoanRequest struct {
	// UserID is the borrower. Customers may only create loans for themselves;
	// an empty value means the caller.
	UserID            string
	LoanType          LoanType
	Principal         decimal.Decimal
	AnnualRatePercent *decimal.Decimal
	TenureMonths      int
	StartDate         time.Time
}

type PaymentRequest struct {
	InstallmentNumber int
	Amount            decimal.Decimal
	PaidAt            time.Time
	Method            string
	TransactionRef    string
}

type PaymentResult struct {
	Payment     *Payment
	Installment amortization.InstallmentRow
	Outstanding decimal.Decimal
	LoanClosed  bool
}

type LoanSummary struct {
	Loan *Loan
	amortization.Summary
}

type LoanService interface {
	CreateLoan(ctx context.Context, caller Caller, req CreateLoanRequest) (*Loan, error)

	GetLoan(ctx context.Context, caller Caller, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context, caller Caller) ([]*Loan, error)

	GetSchedule(ctx context.Context, caller Caller, loanID int64) ([]amortization.InstallmentRow, error)

	GetSummary(ctx context.Context, caller Caller, loanID int64) (*LoanSummary, error)

	RecordPayment(ctx context.Context, caller Caller, loanID int64, req PaymentRequest) (*PaymentResult, error)

	Quote(terms amortization.LoanTerms, startDate time.Time) (amortization.Quotation, error)
}

type loanServiceImpl struct {
	repo      Repository
	rates     *RateTable
	publisher ClosurePublisher
	clock     Clock
	maxTenure int
	logger    *slog.Logger
}

type ServiceOption func(*loanServiceImpl)

func WithClock(c Clock) ServiceOption {
	return func(s *loanServiceImpl) { s.clock = c }
}

func WithClosurePublisher(p ClosurePublisher) ServiceOption {
	return func(s *loanServiceImpl) { s.publisher = p }
}

// WithMaxTenure lowers the accepted tenure below the engine's hard limit.
func WithMaxTenure(months int) ServiceOption {
	return func(s *loanServiceImpl) {
		if months > 0 && months < amortization.MaxTenureMonths {
			s.maxTenure = months
		}
	}
}

func NewLoanService(r Repository, rates *RateTable, logger *slog.Logger, opts ...ServiceOption) LoanService {
	s := &loanServiceImpl{
		repo:      r,
		rates:     rates,
		clock:     SystemClock{},
		maxTenure: amortization.MaxTenureMonths,
		logger:    logger.With("component", "LoanService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, caller Caller, req CreateLoanRequest) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", "caller", caller.Subject, "loanType", req.LoanType)

	owner := req.UserID
	if owner == "" {
		owner = caller.Subject
	}
	if owner == "" {
		return nil, fmt.Errorf("%w: loan owner is unknown", apperrors.ErrUnauthorized)
	}
	if !caller.IsStaff() && owner != caller.Subject {
		s.logger.WarnContext(ctx, "Customer attempted to create a loan for another user", "caller", caller.Subject, "owner", owner)
		return nil, fmt.Errorf("%w: customers may only apply for their own loans", apperrors.ErrForbidden)
	}

	loanType, err := ParseLoanType(string(req.LoanType))
	if err != nil {
		return nil, err
	}

	rate, err := s.rates.Resolve(loanType, req.AnnualRatePercent)
	if err != nil {
		return nil, err
	}

	if req.TenureMonths > s.maxTenure {
		return nil, apperrors.NewValidationError("tenureMonths", fmt.Sprintf("must not exceed %d months", s.maxTenure))
	}

	terms, err := amortization.NewLoanTerms(req.Principal, rate, req.TenureMonths)
	if err == nil {
		err = checkStoredPrecision(terms)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected loan with invalid terms", "error", err)
		return nil, err
	}

	start := req.StartDate
	if start.IsZero() {
		start = s.clock.Now()
	}
	start = amortization.DateOf(start, start.Location())

	loan := &Loan{
		UserID:            owner,
		LoanType:          loanType,
		Principal:         terms.Principal,
		AnnualRatePercent: terms.AnnualRatePercent,
		TenureMonths:      terms.TenureMonths,
		StartDate:         start,
		Status:            StatusActive,
	}

	created, err := s.repo.CreateLoan(ctx, loan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan", "error", err)
		return nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanCreated(string(loanType))
	s.logger.InfoContext(ctx, "Loan created successfully", "loanID", created.ID, "userID", owner)
	return created, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, caller Caller, loanID int64) (*Loan, error) {
	s.logger.InfoContext(ctx, "Getting loan details", "loanID", loanID)
	return s.loadLoan(ctx, caller, loanID)
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, caller Caller) ([]*Loan, error) {
	filter := ListFilter{}
	if !caller.IsStaff() {
		if caller.Subject == "" {
			return nil, fmt.Errorf("%w: caller is not identified", apperrors.ErrUnauthorized)
		}
		filter.UserID = caller.Subject
	}

	loans, err := s.repo.ListLoans(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", "caller", caller.Subject, "error", err)
		return nil, fmt.Errorf("%w: failed to list loans: %v", apperrors.ErrInternalServer, err)
	}
	return loans, nil
}

func (s *loanServiceImpl) GetSchedule(ctx context.Context, caller Caller, loanID int64) ([]amortization.InstallmentRow, error) {
	s.logger.InfoContext(ctx, "Getting loan schedule", "loanID", loanID)
	loan, err := s.loadLoan(ctx, caller, loanID)
	if err != nil {
		return nil, err
	}
	return s.reconciledSchedule(ctx, loan)
}

func (s *loanServiceImpl) GetSummary(ctx context.Context, caller Caller, loanID int64) (*LoanSummary, error) {
	s.logger.InfoContext(ctx, "Getting loan summary", "loanID", loanID)
	loan, err := s.loadLoan(ctx, caller, loanID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.reconciledSchedule(ctx, loan)
	if err != nil {
		return nil, err
	}

	return &LoanSummary{Loan: loan, Summary: amortization.Summarize(schedule)}, nil
}

func (s *loanServiceImpl) RecordPayment(ctx context.Context, caller Caller, loanID int64, req PaymentRequest) (result *PaymentResult, err error) {
	logger := s.logger.With("loanID", loanID, "installment", req.InstallmentNumber)
	logger.InfoContext(ctx, "Recording payment", "amount", req.Amount.StringFixed(2), "caller", caller.Subject)
	defer func() { monitoring.RecordPayment(paymentOutcome(err)) }()

	if req.InstallmentNumber < 1 {
		return nil, apperrors.NewValidationError("installmentNumber", "must be at least 1")
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidPaymentAmount)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(ctx, "Panic occurred during payment processing", "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			err = fmt.Errorf("%w: panic while recording payment: %v", apperrors.ErrInternalServer, p)
			panic(p)
		} else if err != nil {
			logger.WarnContext(ctx, "Rolling back payment transaction", "error", err)
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	loan, err := s.repo.GetLoanForUpdateInTx(ctx, tx, loanID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: could not lock loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if !caller.CanAccess(loan) {
		return nil, fmt.Errorf("%w: loan %d belongs to another user", apperrors.ErrForbidden, loanID)
	}
	if loan.Status == StatusClosed {
		return nil, fmt.Errorf("%w: loan %d accepts no further payments", apperrors.ErrLoanClosed, loanID)
	}

	schedule, err := loan.Schedule()
	if err != nil {
		return nil, fmt.Errorf("%w: stored terms of loan %d are invalid: %v", apperrors.ErrInternalServer, loanID, err)
	}
	if req.InstallmentNumber > len(schedule) {
		return nil, apperrors.NewValidationError("installmentNumber", fmt.Sprintf("loan has %d installments", len(schedule)))
	}
	row := schedule[req.InstallmentNumber-1]

	payments, err := s.repo.GetPaymentsByLoanIDInTx(ctx, tx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not load payments of loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}
	for _, p := range payments {
		if p.InstallmentNumber == req.InstallmentNumber {
			return nil, fmt.Errorf("%w: installment %d of loan %d", apperrors.ErrInstallmentAlreadyPaid, req.InstallmentNumber, loanID)
		}
	}

	if !req.Amount.Equal(row.TotalAmount) {
		return nil, fmt.Errorf("%w: payment amount %s does not match installment amount %s",
			apperrors.ErrInvalidPaymentAmount, req.Amount.StringFixed(2), row.TotalAmount.StringFixed(2))
	}

	now := s.clock.Now()
	payment := &Payment{
		LoanID:            loanID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            req.Amount,
		PaidAt:            req.PaidAt,
		Method:            req.Method,
		TransactionRef:    req.TransactionRef,
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	if payment.Method == "" {
		payment.Method = DefaultPaymentMethod
	}
	if payment.TransactionRef == "" {
		payment.TransactionRef = uuid.NewString()
	}

	created, err := s.repo.CreatePaymentInTx(ctx, tx, payment)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: transaction %s was already recorded", apperrors.ErrConflict, payment.TransactionRef)
		}
		return nil, fmt.Errorf("%w: could not save payment: %v", apperrors.ErrInternalServer, err)
	}
	payments = append(payments, *created)

	closed := paidInstallments(payments, len(schedule)) == len(schedule)
	if closed {
		if err = s.repo.UpdateLoanStatusInTx(ctx, tx, loanID, StatusClosed); err != nil {
			return nil, fmt.Errorf("%w: could not close loan %d: %v", apperrors.ErrInternalServer, loanID, err)
		}
		loan.Status = StatusClosed
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	reconciled := amortization.ReconcileWithPayments(schedule, PaymentRecords(payments), now)
	result = &PaymentResult{
		Payment:     created,
		Installment: reconciled[req.InstallmentNumber-1],
		Outstanding: amortization.Summarize(reconciled).OutstandingPrincipal,
		LoanClosed:  closed,
	}

	if closed {
		monitoring.RecordLoanClosed()
		logger.InfoContext(ctx, "Final installment paid, loan closed")
		if s.publisher != nil {
			if pubErr := s.publisher.PublishLoanClosed(ctx, loan, created); pubErr != nil {
				logger.ErrorContext(ctx, "Failed to publish loan closed event", "error", pubErr)
			}
		}
	}

	logger.InfoContext(ctx, "Payment processed successfully", "paymentID", created.ID)
	return result, nil
}

func (s *loanServiceImpl) Quote(terms amortization.LoanTerms, startDate time.Time) (amortization.Quotation, error) {
	if startDate.IsZero() {
		startDate = s.clock.Now()
	}
	if terms.TenureMonths > s.maxTenure {
		return amortization.Quotation{}, apperrors.NewValidationError("tenureMonths", fmt.Sprintf("must not exceed %d months", s.maxTenure))
	}

	q, err := amortization.Quote(terms, amortization.DateOf(startDate, startDate.Location()))
	if err != nil {
		return amortization.Quotation{}, err
	}
	monitoring.RecordScheduleBuilt()
	return q, nil
}

func (s *loanServiceImpl) loadLoan(ctx context.Context, caller Caller, loanID int64) (*Loan, error) {
	loan, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if isNotFound(err) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan %d: %v", apperrors.ErrInternalServer, loanID, err)
	}

	if !caller.CanAccess(loan) {
		s.logger.WarnContext(ctx, "Caller may not access loan", "loanID", loanID, "caller", caller.Subject)
		return nil, fmt.Errorf("%w: loan %d belongs to another user", apperrors.ErrForbidden, loanID)
	}
	return loan, nil
}

func (s *loanServiceImpl) reconciledSchedule(ctx context.Context, loan *Loan) ([]amortization.InstallmentRow, error) {
	schedule, err := loan.Schedule()
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored loan terms are invalid", "loanID", loan.ID, "error", err)
		return nil, fmt.Errorf("%w: stored terms of loan %d are invalid: %v", apperrors.ErrInternalServer, loan.ID, err)
	}

	payments, err := s.repo.GetPaymentsByLoanID(ctx, loan.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get payments", "loanID", loan.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to get payments of loan %d: %v", apperrors.ErrInternalServer, loan.ID, err)
	}

	monitoring.RecordScheduleBuilt()
	return amortization.ReconcileWithPayments(schedule, PaymentRecords(payments), s.clock.Now()), nil
}

const (
	principalPlaces = 2
	ratePlaces      = 4
)

// checkStoredPrecision refuses terms the loans table (NUMERIC(15,2) and
// NUMERIC(7,4)) would round on insert.
func checkStoredPrecision(terms amortization.LoanTerms) error {
	if !terms.Principal.Equal(terms.Principal.Round(principalPlaces)) {
		return apperrors.NewValidationError("principal", fmt.Sprintf("must have at most %d decimal places", principalPlaces))
	}
	if !terms.AnnualRatePercent.Equal(terms.AnnualRatePercent.Round(ratePlaces)) {
		return apperrors.NewValidationError("annualRatePercent", fmt.Sprintf("must have at most %d decimal places", ratePlaces))
	}
	return nil
}

func paidInstallments(payments []Payment, tenure int) int {
	seen := make(map[int]struct{}, len(payments))
	for _, p := range payments {
		if p.InstallmentNumber >= 1 && p.InstallmentNumber <= tenure {
			seen[p.InstallmentNumber] = struct{}{}
		}
	}
	return len(seen)
}

func paymentOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrInvalidPaymentAmount):
		return "invalid_amount"
	case errors.Is(err, apperrors.ErrInstallmentAlreadyPaid):
		return "already_paid"
	case errors.Is(err, apperrors.ErrLoanClosed):
		return "loan_closed"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperrors.ErrValidation):
		return "invalid_request"
	case errors.Is(err, apperrors.ErrConflict):
		return "duplicate"
	default:
		return "failure_internal"
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound)
}
