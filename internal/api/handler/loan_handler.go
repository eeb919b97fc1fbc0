package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// CreateLoan handles POST /loans
//
// @Summary Apply for a loan
// @Description Creates an ACTIVE loan. The annual rate defaults to the configured rate for the loan type and the start date to today.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan application"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or loan terms"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} dto.ErrorResponse "Customers may only apply for themselves"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateLoan(r.Context(), caller, domainReq)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(created))
}

// ListLoans handles GET /loans
//
// @Summary List loans
// @Description Customers see their own loans, loan officers and admins see every loan.
// @Tags Loans
// @Produce json
// @Success 200 {array} dto.LoanResponse "Loans visible to the caller"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ListLoans(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// GetLoan handles GET /loans/{loanID}
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan details"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 403 {object} dto.ErrorResponse "Loan belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	caller, loanID, ok := h.callerAndLoanID(w, r)
	if !ok {
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), caller, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan))
}

// GetSchedule handles GET /loans/{loanID}/emi-schedule
//
// @Summary Retrieve the EMI schedule
// @Description Returns every installment with its principal and interest split, remaining balance and PAID, PENDING or OVERDUE status.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {array} dto.ScheduleEntryResponse "Reconciled schedule"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 403 {object} dto.ErrorResponse "Loan belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/emi-schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	caller, loanID, ok := h.callerAndLoanID(w, r)
	if !ok {
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), caller, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}

// GetSummary handles GET /loans/{loanID}/summary
//
// @Summary Retrieve the repayment summary
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.SummaryResponse "Totals and status counts"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 403 {object} dto.ErrorResponse "Loan belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/summary [get]
// @Security BearerAuth
func (h *LoanHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	caller, loanID, ok := h.callerAndLoanID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), caller, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSummaryResponse(summary))
}

// MakePayment handles POST /loans/{loanID}/payments
//
// @Summary Pay one installment
// @Description The amount must equal the installment's scheduled total. Paying the last open installment closes the loan.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.MakePaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResponse "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload or amount"
// @Failure 404 {object} dto.ErrorResponse "Loan or installment not found"
// @Failure 409 {object} dto.ErrorResponse "Installment already paid or loan closed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	caller, loanID, ok := h.callerAndLoanID(w, r)
	if !ok {
		return
	}

	var req dto.MakePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.RecordPayment(r.Context(), caller, loanID, req.ToDomain())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Payment rejected", "loanID", loanID, "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(result))
}

func (h *LoanHandler) callerAndLoanID(w http.ResponseWriter, r *http.Request) (loan.Caller, int64, bool) {
	caller, err := callerFromRequest(r)
	if err != nil {
		respondError(w, err)
		return loan.Caller{}, 0, false
	}
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return loan.Caller{}, 0, false
	}
	return caller, loanID, true
}
