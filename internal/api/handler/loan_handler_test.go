package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/api/middleware"
	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"
)

var (
	testLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	alice      = loan.Caller{Subject: "alice", Role: loan.RoleCustomer}
)

func sampleLoan() *loan.Loan {
	return &loan.Loan{
		ID:                42,
		UserID:            "alice",
		LoanType:          loan.TypePersonal,
		Principal:         decimal.NewFromInt(3000),
		AnnualRatePercent: decimal.Zero,
		TenureMonths:      3,
		StartDate:         time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Status:            loan.StatusActive,
	}
}

// newRequest builds a request carrying the caller and chi URL params the
// router would have set.
func newRequest(method, target, body string, caller *loan.Caller, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	ctx := req.Context()
	if caller != nil {
		ctx = middleware.WithCaller(ctx, *caller)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	t.Run("Creates loan", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, testLogger)

		svc.On("CreateLoan", mock.Anything, alice, mock.MatchedBy(func(r loan.CreateLoanRequest) bool {
			return r.LoanType == loan.TypePersonal && r.Principal.Equal(decimal.NewFromInt(3000)) && r.TenureMonths == 3 && r.AnnualRatePercent == nil
		})).Return(sampleLoan(), nil).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/loans", `{"loanType":"personal","principal":"3000","tenureMonths":3}`, &alice, nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.LoanResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(42), resp.ID)
		assert.Equal(t, "1000.00", resp.MonthlyInstallment)
		svc.AssertExpectations(t)
	})

	t.Run("Rejects unknown fields", func(t *testing.T) {
		h := NewLoanHandler(new(MockLoanService), testLogger)

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/loans", `{"loanType":"personal","amount":1}`, &alice, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Validation error names the field", func(t *testing.T) {
		h := NewLoanHandler(new(MockLoanService), testLogger)

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/loans", `{"loanType":"personal","principal":"3000","tenureMonths":0}`, &alice, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "tenureMonths", decodeError(t, rec).Error.Field)
	})

	t.Run("Invalid terms from the engine", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, testLogger)
		svc.On("CreateLoan", mock.Anything, alice, mock.Anything).
			Return(nil, &amortization.InvalidTermsError{Field: "tenureMonths", Reason: "must be between 1 and 360"}).Once()

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/loans", `{"loanType":"home","principal":"3000","tenureMonths":400}`, &alice, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "tenureMonths", decodeError(t, rec).Error.Field)
	})

	t.Run("Missing caller", func(t *testing.T) {
		h := NewLoanHandler(new(MockLoanService), testLogger)

		rec := httptest.NewRecorder()
		h.CreateLoan(rec, newRequest(http.MethodPost, "/loans", `{}`, nil, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoanHandler_ListLoans(t *testing.T) {
	svc := new(MockLoanService)
	h := NewLoanHandler(svc, testLogger)
	svc.On("ListLoans", mock.Anything, alice).Return([]*loan.Loan{sampleLoan()}, nil).Once()

	rec := httptest.NewRecorder()
	h.ListLoans(rec, newRequest(http.MethodGet, "/loans", "", &alice, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.LoanResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "alice", resp[0].UserID)
}

func TestLoanHandler_GetLoan(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, testLogger)
		svc.On("GetLoan", mock.Anything, alice, int64(42)).Return(sampleLoan(), nil).Once()

		rec := httptest.NewRecorder()
		h.GetLoan(rec, newRequest(http.MethodGet, "/loans/42", "", &alice, map[string]string{"loanID": "42"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Invalid loan ID", func(t *testing.T) {
		h := NewLoanHandler(new(MockLoanService), testLogger)

		rec := httptest.NewRecorder()
		h.GetLoan(rec, newRequest(http.MethodGet, "/loans/abc", "", &alice, map[string]string{"loanID": "abc"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error.Message, "invalid loanID")
	})

	t.Run("Not found", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, testLogger)
		svc.On("GetLoan", mock.Anything, alice, int64(9)).Return(nil, fmt.Errorf("%w: loan 9", apperrors.ErrNotFound)).Once()

		rec := httptest.NewRecorder()
		h.GetLoan(rec, newRequest(http.MethodGet, "/loans/9", "", &alice, map[string]string{"loanID": "9"}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Another customer's loan", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, testLogger)
		svc.On("GetLoan", mock.Anything, alice, int64(7)).Return(nil, apperrors.ErrForbidden).Once()

		rec := httptest.NewRecorder()
		h.GetLoan(rec, newRequest(http.MethodGet, "/loans/7", "", &alice, map[string]string{"loanID": "7"}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLoanHandler_GetSchedule(t *testing.T) {
	svc := new(MockLoanService)
	h := NewLoanHandler(svc, testLogger)

	schedule, err := sampleLoan().Schedule()
	require.NoError(t, err)
	paidAt := time.Date(2024, time.February, 14, 10, 0, 0, 0, time.UTC)
	rows := amortization.ReconcileWithPayments(schedule, []amortization.PaymentRecord{
		{InstallmentNumber: 1, AmountPaid: decimal.NewFromInt(1000), PaidAt: paidAt},
	}, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	svc.On("GetSchedule", mock.Anything, alice, int64(42)).Return(rows, nil).Once()

	rec := httptest.NewRecorder()
	h.GetSchedule(rec, newRequest(http.MethodGet, "/loans/42/emi-schedule", "", &alice, map[string]string{"loanID": "42"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.ScheduleEntryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 3)
	assert.Equal(t, "PAID", resp[0].Status)
	require.NotNil(t, resp[0].PaidDate)
	assert.Equal(t, "2024-02-14", *resp[0].PaidDate)
	assert.Equal(t, "OVERDUE", resp[1].Status)
	assert.Equal(t, "PENDING", resp[2].Status)
	assert.Equal(t, "0.00", resp[2].RemainingBalance)
}

func TestLoanHandler_GetSummary(t *testing.T) {
	svc := new(MockLoanService)
	h := NewLoanHandler(svc, testLogger)

	schedule, err := sampleLoan().Schedule()
	require.NoError(t, err)
	summary := &loan.LoanSummary{Loan: sampleLoan(), Summary: amortization.Summarize(schedule)}
	svc.On("GetSummary", mock.Anything, alice, int64(42)).Return(summary, nil).Once()

	rec := httptest.NewRecorder()
	h.GetSummary(rec, newRequest(http.MethodGet, "/loans/42/summary", "", &alice, map[string]string{"loanID": "42"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "3000.00", resp.TotalPayable)
	assert.Equal(t, 3, resp.PendingCount)
	assert.Equal(t, "3000.00", resp.OutstandingPrincipal)
	require.NotNil(t, resp.NextDue)
	assert.Equal(t, 1, resp.NextDue.EMINumber)
}

func TestLoanHandler_MakePayment(t *testing.T) {
	params := map[string]string{"loanID": "42"}

	t.Run("Records payment", func(t *testing.T) {
		svc := new(MockLoanService)
		h := NewLoanHandler(svc, testLogger)
		paidAt := time.Date(2024, time.February, 14, 10, 0, 0, 0, time.UTC)

		svc.On("RecordPayment", mock.Anything, alice, int64(42), mock.MatchedBy(func(r loan.PaymentRequest) bool {
			return r.InstallmentNumber == 1 && r.Amount.Equal(decimal.NewFromInt(1000)) && r.PaidAt.Equal(paidAt) && r.Method == "UPI"
		})).Return(&loan.PaymentResult{
			Payment: &loan.Payment{
				ID: 5, LoanID: 42, InstallmentNumber: 1, Amount: decimal.NewFromInt(1000),
				PaidAt: paidAt, Method: "UPI", TransactionRef: "ref-1",
			},
			Outstanding: decimal.NewFromInt(2000),
		}, nil).Once()

		rec := httptest.NewRecorder()
		body := `{"emiNumber":1,"amount":"1000.00","paidAt":"2024-02-14T10:00:00Z","paymentMethod":"UPI"}`
		h.MakePayment(rec, newRequest(http.MethodPost, "/loans/42/payments", body, &alice, params))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.PaymentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(5), resp.PaymentID)
		assert.Equal(t, "2000.00", resp.OutstandingBalance)
		assert.False(t, resp.LoanClosed)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrong amount", fmt.Errorf("%w: expected 1000.00", apperrors.ErrInvalidPaymentAmount), http.StatusBadRequest},
		{"already paid", fmt.Errorf("%w: installment 1", apperrors.ErrInstallmentAlreadyPaid), http.StatusConflict},
		{"loan closed", apperrors.ErrLoanClosed, http.StatusConflict},
		{"unexpected", fmt.Errorf("%w: boom", apperrors.ErrInternalServer), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLoanService)
			h := NewLoanHandler(svc, testLogger)
			svc.On("RecordPayment", mock.Anything, alice, int64(42), mock.Anything).Return(nil, tt.err).Once()

			rec := httptest.NewRecorder()
			h.MakePayment(rec, newRequest(http.MethodPost, "/loans/42/payments", `{"emiNumber":1,"amount":"999"}`, &alice, params))

			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("Missing body", func(t *testing.T) {
		h := NewLoanHandler(new(MockLoanService), testLogger)

		rec := httptest.NewRecorder()
		h.MakePayment(rec, newRequest(http.MethodPost, "/loans/42/payments", "", &alice, params))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewLoanHandler_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewLoanHandler(nil, testLogger) })
}
