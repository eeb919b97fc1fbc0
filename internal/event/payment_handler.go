package event

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"loan-engine/internal/domain/loan"
	"loan-engine/internal/pkg/apperrors"
)

type PaymentRecorder interface {
	RecordPayment(ctx context.Context, caller loan.Caller, loanID int64, req loan.PaymentRequest) (*loan.PaymentResult, error)
}

type PaymentEventHandler struct {
	recorder PaymentRecorder
	logger   *slog.Logger
}

func NewPaymentEventHandler(recorder PaymentRecorder, logger *slog.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{
		recorder: recorder,
		logger:   logger.With("component", "PaymentEventHandler"),
	}
}

// HandleDelivery settles exactly one delivery. Payloads that can never
// succeed are dropped, business rejections are acknowledged, and anything
// else goes back on the queue.
func (h *PaymentEventHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))
	processed := false

	defer func() {
		if !processed {
			logCtx.WarnContext(ctx, "Message processing ended without explicit Ack/Nack")
			_ = d.Nack(false, false)
		}
	}()

	if d.RoutingKey != RoutingKeyPaymentCompleted {
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		_ = d.Reject(false)
		processed = true
		return
	}

	var event PaymentCompletedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logCtx.ErrorContext(ctx, "Failed to unmarshal PaymentCompletedEvent", "error", err, "body", string(d.Body))
		_ = d.Nack(false, false)
		processed = true
		return
	}
	if err := event.Validate(); err != nil {
		logCtx.ErrorContext(ctx, "Invalid PaymentCompletedEvent", "error", err)
		_ = d.Nack(false, false)
		processed = true
		return
	}

	logCtx = logCtx.With(slog.Int64("loanID", event.LoanID), slog.Int("installment", event.InstallmentNumber), slog.String("transactionID", event.TransactionID))

	result, err := h.recorder.RecordPayment(ctx, loan.SystemCaller(), event.LoanID, event.PaymentRequest())
	switch {
	case err == nil:
		logCtx.InfoContext(ctx, "Payment event applied", "loanClosed", result.LoanClosed)
		_ = d.Ack(false)
	case apperrors.IsRejection(err):
		logCtx.WarnContext(ctx, "Payment event rejected", "error", err)
		_ = d.Ack(false)
	default:
		logCtx.ErrorContext(ctx, "Failed to apply payment event, requeueing", "error", err)
		_ = d.Nack(false, true)
	}
	processed = true
}
