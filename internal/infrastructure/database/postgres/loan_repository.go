package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"

	"loan-engine/internal/domain/loan"
	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ loan.Repository = (*LoanRepository)(nil)

const uniqueViolation = "23505"

var errNoRowsAffected = errors.New("no rows affected")

const (
	insertLoanSQL = `
        INSERT INTO loans (user_id, loan_type, principal, annual_rate_percent, tenure_months, start_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	selectLoanColumns = `
        SELECT id, user_id, loan_type, principal, annual_rate_percent, tenure_months, start_date, status, created_at, updated_at
        FROM loans`

	getLoanByIDSQL = selectLoanColumns + `
        WHERE id = $1`

	getLoanForUpdateSQL = selectLoanColumns + `
        WHERE id = $1
        FOR UPDATE`

	listLoansSQL = selectLoanColumns + `
        WHERE ($1::text = '' OR user_id = $1) AND ($2::text = '' OR status = $2)
        ORDER BY id ASC`

	getActiveLoanIDsSQL = `SELECT id FROM loans WHERE status = $1 ORDER BY id ASC`

	getPaymentsSQL = `
        SELECT id, loan_id, installment_number, amount, paid_at, method, transaction_ref, created_at
        FROM payments
        WHERE loan_id = $1
        ORDER BY installment_number ASC, paid_at ASC`

	insertPaymentSQL = `
        INSERT INTO payments (loan_id, installment_number, amount, paid_at, method, transaction_ref, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, created_at`

	updateLoanStatusSQL = `UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to begin transaction")
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return apperrors.WrapDatabaseError(err, "failed to commit transaction")
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return apperrors.WrapDatabaseError(err, "failed to rollback transaction")
	}
	return nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	startTime := time.Now()

	created := *newLoan
	err := r.db.QueryRow(ctx, insertLoanSQL,
		newLoan.UserID, newLoan.LoanType, newLoan.Principal, newLoan.AnnualRatePercent,
		newLoan.TenureMonths, newLoan.StartDate, newLoan.Status,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	monitoring.RecordDBQuery("CreateLoan", monitoring.QueryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to insert loan")
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID)
	return &created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	startTime := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, getLoanByIDSQL, loanID))
	monitoring.RecordDBQuery("GetLoanByID", monitoring.QueryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to get loan by ID")
	}
	return l, nil
}

func (r *LoanRepository) GetLoanForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Loan, error) {
	l, err := scanLoan(tx.QueryRow(ctx, getLoanForUpdateSQL, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.InfoContext(ctx, "No loan found to lock", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock loan", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to lock loan")
	}
	return l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context, filter loan.ListFilter) ([]*loan.Loan, error) {
	startTime := time.Now()
	rows, err := r.db.Query(ctx, listLoansSQL, filter.UserID, string(filter.Status))
	if err != nil {
		monitoring.RecordDBQuery("ListLoans", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query loans", "user_id", filter.UserID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to query loans")
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, apperrors.WrapDatabaseError(err, "failed to scan loan row")
		}
		loans = append(loans, l)
	}

	err = rows.Err()
	monitoring.RecordDBQuery("ListLoans", monitoring.QueryStatus(err), time.Since(startTime))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "error", err)
		return nil, apperrors.WrapDatabaseError(err, "error iterating loan rows")
	}
	return loans, nil
}

func (r *LoanRepository) GetAllActiveLoanIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, getActiveLoanIDsSQL, loan.StatusActive)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query active loan IDs", "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to query active loan IDs")
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan active loan ID", "error", err)
			return nil, apperrors.WrapDatabaseError(err, "failed to scan active loan ID")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating active loan IDs", "error", err)
		return nil, apperrors.WrapDatabaseError(err, "error iterating active loan IDs")
	}
	return ids, nil
}

func (r *LoanRepository) GetPaymentsByLoanID(ctx context.Context, loanID int64) ([]loan.Payment, error) {
	startTime := time.Now()
	payments, err := r.queryPayments(ctx, r.db, loanID)
	monitoring.RecordDBQuery("GetPaymentsByLoanID", monitoring.QueryStatus(err), time.Since(startTime))
	return payments, err
}

func (r *LoanRepository) GetPaymentsByLoanIDInTx(ctx context.Context, tx pgx.Tx, loanID int64) ([]loan.Payment, error) {
	return r.queryPayments(ctx, tx, loanID)
}

func (r *LoanRepository) CreatePaymentInTx(ctx context.Context, tx pgx.Tx, p *loan.Payment) (*loan.Payment, error) {
	created := *p
	err := tx.QueryRow(ctx, insertPaymentSQL,
		p.LoanID, p.InstallmentNumber, p.Amount, p.PaidAt, p.Method, p.TransactionRef,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.WarnContext(ctx, "Duplicate payment transaction reference", "loan_id", p.LoanID, "transaction_ref", p.TransactionRef)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		}
		r.logger.ErrorContext(ctx, "Failed to insert payment", "loan_id", p.LoanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to insert payment")
	}

	r.logger.InfoContext(ctx, "Payment stored in DB", "loan_id", p.LoanID, "payment_id", created.ID, "installment", p.InstallmentNumber)
	return &created, nil
}

func (r *LoanRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID int64, status loan.LoanStatus) error {
	cmdTag, err := tx.Exec(ctx, updateLoanStatusSQL, status, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan status", "loan_id", loanID, "status", status, "error", err)
		return apperrors.WrapDatabaseError(err, "failed to update loan status")
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan status update affected zero rows", "loan_id", loanID, "status", status)
		return apperrors.WrapDatabaseError(errNoRowsAffected, "loan status update affected zero rows")
	}
	r.logger.InfoContext(ctx, "Loan status updated in DB", "loan_id", loanID, "new_status", status)
	return nil
}

func (r *LoanRepository) queryPayments(ctx context.Context, q querier, loanID int64) ([]loan.Payment, error) {
	rows, err := q.Query(ctx, getPaymentsSQL, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to query payments")
	}
	defer rows.Close()

	payments := make([]loan.Payment, 0)
	for rows.Next() {
		var p loan.Payment
		err := rows.Scan(&p.ID, &p.LoanID, &p.InstallmentNumber, &p.Amount, &p.PaidAt, &p.Method, &p.TransactionRef, &p.CreatedAt)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "loan_id", loanID, "error", err)
			return nil, apperrors.WrapDatabaseError(err, "failed to scan payment row")
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating payment rows", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "error iterating payment rows")
	}
	return payments, nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.UserID, &l.LoanType, &l.Principal, &l.AnnualRatePercent,
		&l.TenureMonths, &l.StartDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
