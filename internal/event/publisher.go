package event

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/domain/loan"
)

type EventPublisher interface {
	PublishEMIDue(ctx context.Context, l *loan.Loan, row amortization.InstallmentRow, outstanding decimal.Decimal) error
	PublishEMIOverdue(ctx context.Context, l *loan.Loan, row amortization.InstallmentRow, outstanding decimal.Decimal) error
	PublishLoanClosed(ctx context.Context, l *loan.Loan, finalPayment *loan.Payment) error
}

var _ loan.ClosurePublisher = (EventPublisher)(nil)

// NoopPublisher stands in when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger.With("component", "NoopPublisher")}
}

func (p *NoopPublisher) PublishEMIDue(ctx context.Context, l *loan.Loan, row amortization.InstallmentRow, _ decimal.Decimal) error {
	p.logger.DebugContext(ctx, "Dropping event, no broker configured", "routingKey", RoutingKeyEMIDue, "loanID", l.ID, "installment", row.InstallmentNumber)
	return nil
}

func (p *NoopPublisher) PublishEMIOverdue(ctx context.Context, l *loan.Loan, row amortization.InstallmentRow, _ decimal.Decimal) error {
	p.logger.DebugContext(ctx, "Dropping event, no broker configured", "routingKey", RoutingKeyEMIOverdue, "loanID", l.ID, "installment", row.InstallmentNumber)
	return nil
}

func (p *NoopPublisher) PublishLoanClosed(ctx context.Context, l *loan.Loan, _ *loan.Payment) error {
	p.logger.DebugContext(ctx, "Dropping event, no broker configured", "routingKey", RoutingKeyLoanClosed, "loanID", l.ID)
	return nil
}
