package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"loan-engine/internal/domain/amortization"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/event"
	"loan-engine/internal/infrastructure/monitoring"
	"loan-engine/internal/pkg/apperrors"
)

const (
	DefaultLeadDays    = 7
	DefaultConcurrency = 8
)

type ActiveLoanLister interface {
	GetAllActiveLoanIDs(ctx context.Context) ([]int64, error)
}

type ScheduleReader interface {
	GetLoan(ctx context.Context, caller loan.Caller, loanID int64) (*loan.Loan, error)
	GetSchedule(ctx context.Context, caller loan.Caller, loanID int64) ([]amortization.InstallmentRow, error)
}

// EMIReminderJob announces upcoming and missed installments for every
// active loan.
type EMIReminderJob struct {
	loans       ActiveLoanLister
	schedules   ScheduleReader
	publisher   event.EventPublisher
	clock       loan.Clock
	leadDays    int
	concurrency int
	logger      *slog.Logger
}

type ReminderOption func(*EMIReminderJob)

func WithLeadDays(days int) ReminderOption {
	return func(j *EMIReminderJob) {
		if days >= 0 {
			j.leadDays = days
		}
	}
}

func WithConcurrency(n int) ReminderOption {
	return func(j *EMIReminderJob) {
		if n > 0 {
			j.concurrency = n
		}
	}
}

func WithReminderClock(c loan.Clock) ReminderOption {
	return func(j *EMIReminderJob) { j.clock = c }
}

func NewEMIReminderJob(
	loans ActiveLoanLister,
	schedules ScheduleReader,
	publisher event.EventPublisher,
	logger *slog.Logger,
	opts ...ReminderOption,
) *EMIReminderJob {
	if loans == nil || schedules == nil || publisher == nil || logger == nil {
		panic("EMIReminderJob dependencies cannot be nil")
	}
	j := &EMIReminderJob{
		loans:       loans,
		schedules:   schedules,
		publisher:   publisher,
		clock:       loan.SystemClock{},
		leadDays:    DefaultLeadDays,
		concurrency: DefaultConcurrency,
		logger:      logger.With("job", "EMIReminder"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type reminderCounts struct {
	processed atomic.Int32
	due       atomic.Int32
	overdue   atomic.Int32
	failed    atomic.Int32
}

func (j *EMIReminderJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting EMI reminder job.", slog.Int("leadDays", j.leadDays))

	activeLoanIDs, err := j.loans.GetAllActiveLoanIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to get active loan IDs, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to get active loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched active loan IDs.", slog.Int("count", len(activeLoanIDs)))

	var counts reminderCounts
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, loanID := range activeLoanIDs {
		g.Go(func() error {
			if err := j.remind(gctx, loanID, &counts); err != nil {
				counts.failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_active_loans", len(activeLoanIDs)),
		slog.Int("loans_processed", int(counts.processed.Load())),
		slog.Int("due_reminders", int(counts.due.Load())),
		slog.Int("overdue_reminders", int(counts.overdue.Load())),
		slog.Int("errors_encountered", int(counts.failed.Load())),
	)
	if failed := counts.failed.Load(); failed > 0 {
		summaryLog.WarnContext(ctx, "EMI reminder job finished with errors.")
		return fmt.Errorf("job completed with %d errors", failed)
	}
	summaryLog.InfoContext(ctx, "EMI reminder job finished successfully.")
	return nil
}

func (j *EMIReminderJob) remind(ctx context.Context, loanID int64, counts *reminderCounts) error {
	logCtx := j.logger.With(slog.Int64("loanID", loanID))

	l, err := j.schedules.GetLoan(ctx, loan.SystemCaller(), loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan disappeared before reminders were sent", slog.Any("error", err))
			return nil
		}
		logCtx.ErrorContext(ctx, "Failed to load loan", slog.Any("error", err))
		return err
	}

	schedule, err := j.schedules.GetSchedule(ctx, loan.SystemCaller(), loanID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to build schedule", slog.Any("error", err))
		return err
	}

	now := j.clock.Now()
	for _, row := range schedule {
		outstanding := amortization.OutstandingAfter(schedule, row.InstallmentNumber-1)
		switch {
		case row.Status == amortization.StatusOverdue:
			if err := j.publisher.PublishEMIOverdue(ctx, l, row, outstanding); err != nil {
				logCtx.ErrorContext(ctx, "Failed to publish overdue reminder", slog.Int("installment", row.InstallmentNumber), slog.Any("error", err))
				return err
			}
			monitoring.RecordReminder(event.EventTypeEMIOverdue)
			counts.overdue.Add(1)
		case row.Status == amortization.StatusPending && dueWithin(row.DueDate, now, j.leadDays):
			if err := j.publisher.PublishEMIDue(ctx, l, row, outstanding); err != nil {
				logCtx.ErrorContext(ctx, "Failed to publish due reminder", slog.Int("installment", row.InstallmentNumber), slog.Any("error", err))
				return err
			}
			monitoring.RecordReminder(event.EventTypeEMIDue)
			counts.due.Add(1)
		}
	}
	counts.processed.Add(1)
	return nil
}

// dueWithin reports whether due falls between today and today+days, both
// measured as calendar dates in the due date's location.
func dueWithin(due, now time.Time, days int) bool {
	loc := due.Location()
	today := amortization.DateOf(now, loc)
	dueDay := amortization.DateOf(due, loc)
	return !dueDay.Before(today) && !dueDay.After(today.AddDate(0, 0, days))
}
