package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/pkg/apperrors"
)

type LoanStatus string

const (
	StatusActive LoanStatus = "ACTIVE"
	StatusClosed LoanStatus = "CLOSED"
)

type LoanType string

const (
	TypePersonal  LoanType = "PERSONAL"
	TypeHome      LoanType = "HOME"
	TypeAuto      LoanType = "AUTO"
	TypeEducation LoanType = "EDUCATION"
)

func ParseLoanType(s string) (LoanType, error) {
	lt := LoanType(strings.ToUpper(strings.TrimSpace(s)))
	switch lt {
	case TypePersonal, TypeHome, TypeAuto, TypeEducation:
		return lt, nil
	default:
		return "", fmt.Errorf("%w: unknown loan type %q", apperrors.ErrValidation, s)
	}
}

type Loan struct {
	ID                int64
	UserID            string
	LoanType          LoanType
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TenureMonths      int
	StartDate         time.Time
	Status            LoanStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (l *Loan) Terms() amortization.LoanTerms {
	return amortization.LoanTerms{
		Principal:         l.Principal,
		AnnualRatePercent: l.AnnualRatePercent,
		TenureMonths:      l.TenureMonths,
	}
}

func (l *Loan) Schedule() ([]amortization.InstallmentRow, error) {
	return amortization.BuildSchedule(l.Terms(), l.StartDate)
}

type Payment struct {
	ID                int64
	LoanID            int64
	InstallmentNumber int
	Amount            decimal.Decimal
	PaidAt            time.Time
	Method            string
	TransactionRef    string
	CreatedAt         time.Time
}

func PaymentRecords(payments []Payment) []amortization.PaymentRecord {
	records := make([]amortization.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		records = append(records, amortization.PaymentRecord{
			InstallmentNumber: p.InstallmentNumber,
			AmountPaid:        p.Amount,
			PaidAt:            p.PaidAt,
		})
	}
	return records
}
