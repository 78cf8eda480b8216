package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSearch(t *testing.T) {
	before := testutil.ToFloat64(SearchesTotal.WithLabelValues("false"))
	RecordSearch(0)
	assert.Equal(t, before+1, testutil.ToFloat64(SearchesTotal.WithLabelValues("false")))

	before = testutil.ToFloat64(SearchesTotal.WithLabelValues("true"))
	RecordSearch(3)
	assert.Equal(t, before+1, testutil.ToFloat64(SearchesTotal.WithLabelValues("true")))
}

func TestRecordAIRun(t *testing.T) {
	before := testutil.ToFloat64(AIRunsTotal.WithLabelValues(OutcomeCompleted))
	RecordAIRun(OutcomeCompleted, 1.5)
	assert.Equal(t, before+1, testutil.ToFloat64(AIRunsTotal.WithLabelValues(OutcomeCompleted)))
}

func TestRecordEmail(t *testing.T) {
	before := testutil.ToFloat64(EmailsTotal.WithLabelValues(OutcomeRejected))
	RecordEmail(OutcomeRejected)
	assert.Equal(t, before+1, testutil.ToFloat64(EmailsTotal.WithLabelValues(OutcomeRejected)))
}
