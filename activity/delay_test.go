package activity

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type delayResult struct {
	result string
	err    error
}

// runDelayed executes the activity and advances the mock clock in steps until it returns. It
// returns the result and the simulated time that passed.
func runDelayed(t *testing.T, c *clock.Mock, a Activity, input string, step time.Duration) (string, time.Duration, error) {
	t.Helper()

	start := c.Now()
	done := make(chan delayResult, 1)

	go func() {
		r, err := a(context.Background(), input)
		done <- delayResult{r, err}
	}()

	deadline := time.After(10 * time.Second)

	for {
		select {
		case r := <-done:
			return r.result, c.Since(start), r.err
		case <-deadline:
			t.Fatal("activity did not complete")
		default:
			c.Add(step)
		}
	}
}

func TestDelayActivity_WaitsForDelay(t *testing.T) {
	c := clock.NewMock()
	a := NewDelayActivity(c)

	r, elapsed, err := runDelayed(t, c, a, `{"delay":"5"}`, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, `Executed, {"delay":"5"}!`, r)
	require.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
}

func TestDelayActivity_DefaultDelay(t *testing.T) {
	c := clock.NewMock()
	a := NewDelayActivity(c)

	r, elapsed, err := runDelayed(t, c, a, `{"name":"swf"}`, 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, `Executed, {"name":"swf"}!`, r)
	require.GreaterOrEqual(t, elapsed, time.Second)
}

func TestDelayActivity_ZeroDelay(t *testing.T) {
	a := NewDelayActivity(clock.NewMock())

	r, err := a(context.Background(), `{"delay":"0"}`)
	require.NoError(t, err)
	require.Equal(t, `Executed, {"delay":"0"}!`, r)
}

func TestDelayActivity_Canceled(t *testing.T) {
	a := NewDelayActivity(clock.NewMock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a(ctx, `{"delay":"10"}`)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDelayActivity_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  string
	}{
		{"malformed json", `not json`, "SyntaxError"},
		{"array", `[1,2]`, "InvalidInputError"},
		{"null", `null`, "InvalidInputError"},
		{"numeric delay", `{"delay":5}`, "InvalidDelayError"},
		{"unparsable delay", `{"delay":"soon"}`, "NumError"},
		{"negative delay", `{"delay":"-1"}`, "InvalidDelayError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewDelayActivity(clock.NewMock())

			r, err := a(context.Background(), tt.input)
			require.Error(t, err)
			require.Empty(t, r)
			require.Equal(t, tt.kind, NewFailure(err).Reason)
		})
	}
}
