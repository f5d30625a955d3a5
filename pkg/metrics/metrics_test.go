package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveStep("reasoning")
	r.ObserveStep("reasoning")
	r.ObserveStep("acting")
	r.ObserveAction("append_note", nil, 10*time.Millisecond)
	r.ObserveAction("append_note", errors.New("bad"), time.Millisecond)
	r.ObserveReasoning(time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.steps.WithLabelValues("reasoning")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.steps.WithLabelValues("acting")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.actions.WithLabelValues("append_note", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.actions.WithLabelValues("append_note", OutcomeError)))

	count, err := testutil.GatherAndCount(reg, "notes_agent_reasoning_duration_seconds", "notes_agent_action_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewRecorderRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	assert.Error(t, err)
}
