package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	SchedulesBuilt   prometheus.Counter
	PaymentsRecorded *prometheus.CounterVec
	LoansCreated     *prometheus.CounterVec
	LoansClosed      prometheus.Counter
	EventsPublished  *prometheus.CounterVec
	RemindersSent    *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		SchedulesBuilt: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_engine_schedules_built_total",
				Help: "Total number of amortization schedules built.",
			},
		),
		PaymentsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_payments_recorded_total",
				Help: "Total number of installment payments processed, by outcome.",
			},
			[]string{"outcome"},
		),
		LoansCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_loans_created_total",
				Help: "Total number of loans created, by loan type.",
			},
			[]string{"loan_type"},
		),
		LoansClosed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_engine_loans_closed_total",
				Help: "Total number of loans closed after the final installment was paid.",
			},
		),
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_events_published_total",
				Help: "Total number of events published, by routing key and status.",
			},
			[]string{"routing_key", "status"},
		),
		RemindersSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_reminders_total",
				Help: "Total number of installment reminders emitted by the reminder job.",
			},
			[]string{"kind"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordScheduleBuilt() {
	Business.SchedulesBuilt.Inc()
}

func RecordPayment(outcome string) {
	Business.PaymentsRecorded.WithLabelValues(outcome).Inc()
}

func RecordLoanCreated(loanType string) {
	Business.LoansCreated.WithLabelValues(loanType).Inc()
}

func RecordLoanClosed() {
	Business.LoansClosed.Inc()
}

func RecordEventPublished(routingKey, status string) {
	Business.EventsPublished.WithLabelValues(routingKey, status).Inc()
}

func RecordReminder(kind string) {
	Business.RemindersSent.WithLabelValues(kind).Inc()
}

// QueryStatus maps an error to the status label used by RecordDBQuery.
func QueryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
