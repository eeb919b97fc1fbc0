package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"
)

const DateLayout = "2006-01-02"

type CreateLoanRequest struct {
	UserID       string           `json:"userId,omitempty"`
	LoanType     string           `json:"loanType"`
	Principal    decimal.Decimal  `json:"principal"`
	AnnualRate   *decimal.Decimal `json:"annualRate,omitempty"`
	TenureMonths int              `json:"tenureMonths"`
	StartDate    string           `json:"startDate,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.LoanType == "" {
		return apperrors.NewValidationError("loanType", "is required")
	}
	if !r.Principal.IsPositive() {
		return apperrors.NewValidationError("principal", "must be greater than zero")
	}
	if r.TenureMonths <= 0 {
		return apperrors.NewValidationError("tenureMonths", "must be positive")
	}
	if r.StartDate != "" {
		if _, err := time.Parse(DateLayout, r.StartDate); err != nil {
			return apperrors.NewValidationError("startDate", "invalid format (use YYYY-MM-DD)")
		}
	}
	return nil
}

func (r *CreateLoanRequest) ToDomain() (loan.CreateLoanRequest, error) {
	loanType, err := loan.ParseLoanType(r.LoanType)
	if err != nil {
		return loan.CreateLoanRequest{}, err
	}
	start, err := parseOptionalDate("startDate", r.StartDate)
	if err != nil {
		return loan.CreateLoanRequest{}, err
	}
	return loan.CreateLoanRequest{
		UserID:            r.UserID,
		LoanType:          loanType,
		Principal:         r.Principal,
		AnnualRatePercent: r.AnnualRate,
		TenureMonths:      r.TenureMonths,
		StartDate:         start,
	}, nil
}

type QuoteRequest struct {
	Principal    decimal.Decimal `json:"principal"`
	AnnualRate   decimal.Decimal `json:"annualRate"`
	TenureMonths int             `json:"tenureMonths"`
	StartDate    string          `json:"startDate,omitempty"`
}

// Terms does no range checks; the engine rejects invalid terms itself.
func (r *QuoteRequest) Terms() (amortization.LoanTerms, time.Time, error) {
	start, err := parseOptionalDate("startDate", r.StartDate)
	if err != nil {
		return amortization.LoanTerms{}, time.Time{}, err
	}
	terms := amortization.LoanTerms{
		Principal:         r.Principal,
		AnnualRatePercent: r.AnnualRate,
		TenureMonths:      r.TenureMonths,
	}
	return terms, start, nil
}

type MakePaymentRequest struct {
	EMINumber      int             `json:"emiNumber"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	TransactionRef string          `json:"transactionRef,omitempty"`
}

func (r *MakePaymentRequest) Validate() error {
	if r.EMINumber < 1 {
		return apperrors.NewValidationError("emiNumber", "must be at least 1")
	}
	if !r.Amount.IsPositive() {
		return apperrors.NewValidationError("amount", "must be greater than zero")
	}
	return nil
}

func (r *MakePaymentRequest) ToDomain() loan.PaymentRequest {
	req := loan.PaymentRequest{
		InstallmentNumber: r.EMINumber,
		Amount:            r.Amount,
		Method:            r.PaymentMethod,
		TransactionRef:    r.TransactionRef,
	}
	if r.PaidAt != nil {
		req.PaidAt = *r.PaidAt
	}
	return req
}

type LoanResponse struct {
	ID                 int64     `json:"id"`
	UserID             string    `json:"userId"`
	LoanType           string    `json:"loanType"`
	Principal          string    `json:"principal"`
	AnnualRate         string    `json:"annualRate"`
	TenureMonths       int       `json:"tenureMonths"`
	MonthlyInstallment string    `json:"monthlyInstallment"`
	StartDate          string    `json:"startDate"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	resp := LoanResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		LoanType:     string(l.LoanType),
		Principal:    l.Principal.StringFixed(2),
		AnnualRate:   l.AnnualRatePercent.String(),
		TenureMonths: l.TenureMonths,
		StartDate:    l.StartDate.Format(DateLayout),
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	if emi, err := amortization.ComputeMonthlyInstallment(l.Principal, l.AnnualRatePercent, l.TenureMonths); err == nil {
		resp.MonthlyInstallment = emi.StringFixed(2)
	}
	return resp
}

func NewLoanListResponse(loans []*loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, NewLoanResponse(l))
	}
	return resp
}

type ScheduleEntryResponse struct {
	EMINumber        int     `json:"emiNumber"`
	DueDate          string  `json:"dueDate"`
	Amount           string  `json:"amount"`
	Principal        string  `json:"principal"`
	Interest         string  `json:"interest"`
	RemainingBalance string  `json:"remainingBalance"`
	Status           string  `json:"status"`
	PaidDate         *string `json:"paidDate,omitempty"`
	AmountPaid       *string `json:"amountPaid,omitempty"`
}

func NewScheduleEntryResponse(row amortization.InstallmentRow) ScheduleEntryResponse {
	entry := ScheduleEntryResponse{
		EMINumber:        row.InstallmentNumber,
		DueDate:          row.DueDate.Format(DateLayout),
		Amount:           row.TotalAmount.StringFixed(2),
		Principal:        row.PrincipalComponent.StringFixed(2),
		Interest:         row.InterestComponent.StringFixed(2),
		RemainingBalance: row.RemainingBalance.StringFixed(2),
		Status:           string(row.Status),
	}
	if row.PaidDate != nil {
		paid := row.PaidDate.Format(DateLayout)
		entry.PaidDate = &paid
	}
	if row.AmountPaid != nil {
		amount := row.AmountPaid.StringFixed(2)
		entry.AmountPaid = &amount
	}
	return entry
}

func NewScheduleResponse(schedule []amortization.InstallmentRow) []ScheduleEntryResponse {
	resp := make([]ScheduleEntryResponse, 0, len(schedule))
	for _, row := range schedule {
		resp = append(resp, NewScheduleEntryResponse(row))
	}
	return resp
}

type QuoteResponse struct {
	MonthlyInstallment string                  `json:"monthlyInstallment"`
	TotalPayable       string                  `json:"totalPayable"`
	TotalInterest      string                  `json:"totalInterest"`
	Schedule           []ScheduleEntryResponse `json:"schedule"`
}

func NewQuoteResponse(q amortization.Quotation) QuoteResponse {
	return QuoteResponse{
		MonthlyInstallment: q.MonthlyInstallment.StringFixed(2),
		TotalPayable:       q.TotalPayable.StringFixed(2),
		TotalInterest:      q.TotalInterest.StringFixed(2),
		Schedule:           NewScheduleResponse(q.Schedule),
	}
}

type SummaryResponse struct {
	LoanID               int64                  `json:"loanId"`
	Status               string                 `json:"status"`
	MonthlyInstallment   string                 `json:"monthlyInstallment"`
	TotalPayable         string                 `json:"totalPayable"`
	TotalInterest        string                 `json:"totalInterest"`
	PaidCount            int                    `json:"paidCount"`
	PendingCount         int                    `json:"pendingCount"`
	OverdueCount         int                    `json:"overdueCount"`
	PaidAmount           string                 `json:"paidAmount"`
	PendingAmount        string                 `json:"pendingAmount"`
	OverdueAmount        string                 `json:"overdueAmount"`
	OutstandingPrincipal string                 `json:"outstandingPrincipal"`
	NextDue              *ScheduleEntryResponse `json:"nextDue,omitempty"`
}

func NewSummaryResponse(s *loan.LoanSummary) SummaryResponse {
	resp := SummaryResponse{
		LoanID:               s.Loan.ID,
		Status:               string(s.Loan.Status),
		MonthlyInstallment:   s.MonthlyInstallment.StringFixed(2),
		TotalPayable:         s.TotalPayable.StringFixed(2),
		TotalInterest:        s.TotalInterest.StringFixed(2),
		PaidCount:            s.PaidCount,
		PendingCount:         s.PendingCount,
		OverdueCount:         s.OverdueCount,
		PaidAmount:           s.PaidAmount.StringFixed(2),
		PendingAmount:        s.PendingAmount.StringFixed(2),
		OverdueAmount:        s.OverdueAmount.StringFixed(2),
		OutstandingPrincipal: s.OutstandingPrincipal.StringFixed(2),
	}
	if s.NextDue != nil {
		next := NewScheduleEntryResponse(*s.NextDue)
		resp.NextDue = &next
	}
	return resp
}

type PaymentResponse struct {
	PaymentID          int64     `json:"paymentId"`
	LoanID             int64     `json:"loanId"`
	EMINumber          int       `json:"emiNumber"`
	Amount             string    `json:"amount"`
	PaidAt             time.Time `json:"paidAt"`
	PaymentMethod      string    `json:"paymentMethod"`
	TransactionRef     string    `json:"transactionRef"`
	OutstandingBalance string    `json:"outstandingBalance"`
	LoanClosed         bool      `json:"loanClosed"`
}

func NewPaymentResponse(r *loan.PaymentResult) PaymentResponse {
	return PaymentResponse{
		PaymentID:          r.Payment.ID,
		LoanID:             r.Payment.LoanID,
		EMINumber:          r.Payment.InstallmentNumber,
		Amount:             r.Payment.Amount.StringFixed(2),
		PaidAt:             r.Payment.PaidAt,
		PaymentMethod:      r.Payment.Method,
		TransactionRef:     r.Payment.TransactionRef,
		OutstandingBalance: r.Outstanding.StringFixed(2),
		LoanClosed:         r.LoanClosed,
	}
}

type TokenRequest struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func parseOptionalDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field, fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", value))
	}
	return t, nil
}
