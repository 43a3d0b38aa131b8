package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// DelayKey is the input field holding the delay in milliseconds, as a string.
	DelayKey = "delay"

	DefaultDelay = "1000"
)

// InvalidInputError is returned when the input is valid JSON but not an object.
type InvalidInputError struct {
	Input string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("input is not a JSON object: %s", e.Input)
}

// InvalidDelayError is returned for delays that are not a string or negative.
type InvalidDelayError struct {
	Delay interface{}
}

func (e *InvalidDelayError) Error() string {
	return fmt.Sprintf("invalid delay: %v", e.Delay)
}

// NewDelayActivity returns the reference activity. It reads the optional "delay" field from the
// JSON object input, waits that many milliseconds on the given clock and greets the input.
func NewDelayActivity(clock clock.Clock) Activity {
	return func(ctx context.Context, input string) (string, error) {
		delay, err := parseDelay(input)
		if err != nil {
			return "", err
		}

		Logger(ctx).DebugContext(ctx, "delaying activity", "delay", delay)

		if delay > 0 {
			t := clock.Timer(delay)
			defer t.Stop()

			select {
			case <-t.C:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		return "Executed, " + input + "!", nil
	}
}

func parseDelay(input string) (time.Duration, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(input), &v); err != nil {
		return 0, fmt.Errorf("parsing input: %w", err)
	}

	fields, ok := v.(map[string]interface{})
	if !ok {
		return 0, &InvalidInputError{Input: input}
	}

	raw, ok := fields[DelayKey]
	if !ok {
		raw = DefaultDelay
	}

	s, ok := raw.(string)
	if !ok {
		return 0, &InvalidDelayError{Delay: raw}
	}

	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing delay: %w", err)
	}

	if ms < 0 {
		return 0, &InvalidDelayError{Delay: s}
	}

	return time.Duration(ms) * time.Millisecond, nil
}
