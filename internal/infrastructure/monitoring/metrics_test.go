package monitoring

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPayment(t *testing.T) {
	Business.PaymentsRecorded.Reset()

	RecordPayment("success")
	RecordPayment("success")
	RecordPayment("already_paid")

	expected := `
		# HELP loan_engine_payments_recorded_total Total number of installment payments processed, by outcome.
		# TYPE loan_engine_payments_recorded_total counter
		loan_engine_payments_recorded_total{outcome="already_paid"} 1
		loan_engine_payments_recorded_total{outcome="success"} 2
	`
	assert.NoError(t, testutil.CollectAndCompare(Business.PaymentsRecorded, strings.NewReader(expected)))
}

func TestRecordEventPublished(t *testing.T) {
	Business.EventsPublished.Reset()

	RecordEventPublished("emi.due", "success")
	RecordEventPublished("emi.overdue", "error")

	assert.Equal(t, 1.0, testutil.ToFloat64(Business.EventsPublished.WithLabelValues("emi.due", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Business.EventsPublished.WithLabelValues("emi.overdue", "error")))
}

func TestRecordDBQuery(t *testing.T) {
	DB.QueryDuration.Reset()

	RecordDBQuery("GetLoanByID", QueryStatus(nil), 5*time.Millisecond)
	RecordDBQuery("GetLoanByID", QueryStatus(errors.New("boom")), 5*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(DB.QueryDuration))
}

func TestRecordScheduleBuilt(t *testing.T) {
	before := testutil.ToFloat64(Business.SchedulesBuilt)
	RecordScheduleBuilt()
	assert.Equal(t, before+1, testutil.ToFloat64(Business.SchedulesBuilt))
}
