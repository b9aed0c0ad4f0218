// Package delivery wraps all outbound sends with a bounded
// retry/backoff policy. Rate-limit signals wait exactly the mandated
// duration, transient network failures back off linearly, anything else
// pauses a flat interval; every failure consumes one attempt from the
// same budget.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"relaybot/internal/domain"
	"relaybot/internal/metrics"
)

const (
	defaultAttempts    = 3
	defaultBackoffUnit = 2 * time.Second
)

// SleepFunc suspends for d or until ctx is done. Tests inject a fake to
// run without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config configures an Engine. Zero values use defaults.
type Config struct {
	Transport   domain.Transport
	Attempts    int           // retry budget per send (default 3)
	BackoffUnit time.Duration // linear backoff unit for transient errors (default 2s)
	Throttle    *Throttle     // optional proactive outbound throttle
	Sleep       SleepFunc     // test hook
	Logger      *slog.Logger
}

// Engine delivers outbound payloads with the retry policy applied.
type Engine struct {
	transport domain.Transport
	attempts  int
	unit      time.Duration
	throttle  *Throttle
	sleep     SleepFunc
	logger    *slog.Logger
}

func New(cfg Config) *Engine {
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = defaultBackoffUnit
	}
	if cfg.Sleep == nil {
		cfg.Sleep = realSleep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		transport: cfg.Transport,
		attempts:  cfg.Attempts,
		unit:      cfg.BackoffUnit,
		throttle:  cfg.Throttle,
		sleep:     cfg.Sleep,
		logger:    cfg.Logger,
	}
}

// SendText delivers a text message, with an optional semantic action
// attachment, applying the retry policy.
func (e *Engine) SendText(ctx context.Context, dest domain.UserID, text string, action *domain.Action) error {
	return e.send(ctx, dest, "text", func(ctx context.Context) error {
		return e.transport.SendText(ctx, dest, text, action)
	})
}

// SendMedia re-sends a media payload by its transport reference.
func (e *Engine) SendMedia(ctx context.Context, dest domain.UserID, kind domain.MediaKind, ref, caption string) error {
	return e.send(ctx, dest, "media", func(ctx context.Context) error {
		return e.transport.SendMedia(ctx, dest, kind, ref, caption)
	})
}

func (e *Engine) send(ctx context.Context, dest domain.UserID, what string, fn func(context.Context) error) error {
	id := uuid.NewString()
	start := time.Now()
	defer func() {
		metrics.DeliveryLatency.Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		if e.throttle != nil {
			if err := e.throttle.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			metrics.DeliveriesTotal.Inc()
			return nil
		}
		lastErr = err

		if attempt == e.attempts {
			break
		}

		var pause time.Duration
		var rl *domain.RateLimitedError
		var tr *domain.TransientError
		switch {
		case errors.As(err, &rl):
			// The transport mandates the wait; it still costs an attempt.
			pause = rl.Wait
			e.logger.Info("delivery rate limited",
				"delivery", id, "dest", int64(dest), "wait", pause, "attempt", attempt)
		case errors.As(err, &tr):
			pause = time.Duration(attempt) * e.unit
			e.logger.Warn("transient delivery error, backing off",
				"delivery", id, "dest", int64(dest), "backoff", pause, "attempt", attempt, "err", err)
		default:
			pause = e.unit
			e.logger.Warn("delivery error, retrying",
				"delivery", id, "dest", int64(dest), "attempt", attempt, "err", err)
		}

		metrics.DeliveryRetries.Inc()
		if err := e.sleep(ctx, pause); err != nil {
			return err
		}
	}

	metrics.DeliveryFailures.Inc()
	e.logger.Error("delivery failed, attempts exhausted",
		"delivery", id, "dest", int64(dest), "kind", what, "attempts", e.attempts, "err", lastErr)
	return fmt.Errorf("%w to %d after %d attempts: %v", domain.ErrDeliveryFailed, int64(dest), e.attempts, lastErr)
}
