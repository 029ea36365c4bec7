package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQCReportIncrementsCounters(t *testing.T) {
	before := testutil.ToFloat64(QCOutcomesTotal.WithLabelValues("passed"))

	ObserveQCReport(2, 1, 0)

	after := testutil.ToFloat64(QCOutcomesTotal.WithLabelValues("passed"))
	assert.Equal(t, before+2, after)
}

func TestStageDurationAcceptsObservation(t *testing.T) {
	assert.NotPanics(t, func() {
		StageDuration.WithLabelValues("segment").Observe(0.25)
	})
}

func TestBatchInProgressGaugeToggles(t *testing.T) {
	BatchInProgress.Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(BatchInProgress))
	BatchInProgress.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(BatchInProgress))
}
