package backend

import (
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestApplyOptions_Defaults(t *testing.T) {
	opts := ApplyOptions()

	assert.Equal(t, 30*time.Second, opts.PollTimeout)
	assert.Equal(t, 5*time.Minute, opts.ActivityTaskTimeout)
	assert.Equal(t, 30*time.Second, opts.DecisionTaskTimeout)
	assert.NotNil(t, opts.Logger)
	assert.NotNil(t, opts.Metrics)
	assert.NotNil(t, opts.TracerProvider)
	assert.NotNil(t, opts.Clock)
}

func TestWithTaskTimeouts(t *testing.T) {
	opts := ApplyOptions(
		WithActivityTaskTimeout(2*time.Minute),
		WithDecisionTaskTimeout(4*time.Minute),
		WithPollTimeout(time.Second),
	)

	assert.Equal(t, 2*time.Minute, opts.ActivityTaskTimeout)
	assert.Equal(t, 4*time.Minute, opts.DecisionTaskTimeout)
	assert.Equal(t, time.Second, opts.PollTimeout)
}

func TestApplyOptions_NilValuesFallBack(t *testing.T) {
	opts := ApplyOptions(WithLogger(nil), WithMetrics(nil), WithTracerProvider(nil), WithClock(nil))

	assert.Equal(t, slog.Default(), opts.Logger)
	assert.NotNil(t, opts.Metrics)
	assert.NotNil(t, opts.TracerProvider)
	assert.NotNil(t, opts.Clock)
}

func TestWithClock(t *testing.T) {
	c := clock.NewMock()

	opts := ApplyOptions(WithClock(c))

	assert.Same(t, c, opts.Clock)
}
