package delivery

import (
	"context"
	"sync"
	"time"
)

// Throttle is a token bucket for pacing outbound sends so the bot stays
// under the transport's flood limits in the first place, instead of
// only reacting to rate-limit errors.
type Throttle struct {
	mu       sync.Mutex
	tokens   float64
	max      float64
	rate     float64 // tokens per second
	lastTime time.Time
}

func NewThrottle(maxBurst int, ratePerMinute float64) *Throttle {
	if maxBurst <= 0 {
		maxBurst = 10
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 60 // one send per second default
	}
	return &Throttle{
		tokens:   float64(maxBurst),
		max:      float64(maxBurst),
		rate:     ratePerMinute / 60.0,
		lastTime: time.Now(),
	}
}

func (t *Throttle) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(t.lastTime).Seconds()
		t.tokens += elapsed * t.rate
		if t.tokens > t.max {
			t.tokens = t.max
		}
		t.lastTime = now

		if t.tokens >= 1.0 {
			t.tokens -= 1.0
			t.mu.Unlock()
			return nil
		}

		waitSec := (1.0 - t.tokens) / t.rate
		t.mu.Unlock()

		timer := time.NewTimer(time.Duration(waitSec * float64(time.Second)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
