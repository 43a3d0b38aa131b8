package metrics

import (
	"time"

	"github.com/benbjohnson/clock"
)

type timer struct {
	client Client
	clock  clock.Clock
	start  time.Time
	name   string
	tags   Tags
}

func Timer(client Client, clock clock.Clock, name string, tags Tags) *timer {
	return &timer{
		client: client,
		clock:  clock,
		start:  clock.Now(),
		name:   name,
		tags:   tags,
	}
}

// Stop the timer and send the elapsed time as a timing metric
func (t *timer) Stop() time.Duration {
	elapsed := t.clock.Since(t.start)
	t.client.Timing(t.name, t.tags, elapsed)
	return elapsed
}
