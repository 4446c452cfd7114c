package stream

import (
	"context"
	"math/rand"
	"time"
)

// Pacer spaces out sentence emissions so the client sees a steady stream.
// It is a delivery policy, not a correctness requirement, which is why it is
// injectable: tests swap in NopPacer and run at full speed.
type Pacer interface {
	Pause(ctx context.Context)
}

// RandomPacer pauses for a uniform random duration in [Min, Max).
type RandomPacer struct {
	Min time.Duration
	Max time.Duration
}

// NewRandomPacer returns the production pacer, 300-700ms per sentence.
func NewRandomPacer() RandomPacer {
	return RandomPacer{Min: 300 * time.Millisecond, Max: 700 * time.Millisecond}
}

// Pause sleeps for the drawn duration, returning early on cancellation.
func (p RandomPacer) Pause(ctx context.Context) {
	span := p.Max - p.Min
	delay := p.Min
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// NopPacer never pauses.
type NopPacer struct{}

func (NopPacer) Pause(context.Context) {}
