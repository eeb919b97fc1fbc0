package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/pkg/apperrors"
)

type Quoter interface {
	Quote(terms amortization.LoanTerms, startDate time.Time) (amortization.Quotation, error)
}

type QuoteHandler struct {
	quoter Quoter
	logger *slog.Logger
}

func NewQuoteHandler(q Quoter, l *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoter: q,
		logger: l.With("component", "QuoteHandler"),
	}
}

// Quote handles POST /emi/quote
//
// @Summary EMI calculator
// @Description Computes the monthly installment, totals and full amortization schedule without creating a loan.
// @Tags Calculator
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Principal, annual rate in percent and tenure in months"
// @Success 200 {object} dto.QuoteResponse "Quotation"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan terms"
// @Router /emi/quote [post]
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	terms, start, err := req.Terms()
	if err != nil {
		respondError(w, err)
		return
	}

	quotation, err := h.quoter.Quote(terms, start)
	if err != nil {
		h.logger.DebugContext(r.Context(), "Quote rejected", "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewQuoteResponse(quotation))
}
