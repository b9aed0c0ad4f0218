// Package relay is the conversation-state engine: it decides where
// each inbound message goes (user broadcast, operator reply, or admin
// workflow input), owns the reply bindings and pending workflows, and
// fans user messages out to every operator.
package relay

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"relaybot/internal/bus"
	"relaybot/internal/delivery"
	"relaybot/internal/domain"
	"relaybot/internal/menu"
	"relaybot/internal/metrics"
	"relaybot/internal/registry"
)

// Engine routes inbound events. All outbound traffic goes through the
// delivery engine so the retry policy applies everywhere.
type Engine struct {
	store    domain.TranscriptStore
	registry *registry.Registry
	delivery *delivery.Engine
	render   *menu.Renderer
	logger   *slog.Logger

	locks *keyedMutex

	mu        sync.Mutex
	bindings  map[domain.UserID]domain.UserID
	workflows map[domain.UserID]workflow
}

type Config struct {
	Store    domain.TranscriptStore
	Registry *registry.Registry
	Delivery *delivery.Engine
	Renderer *menu.Renderer
	Logger   *slog.Logger
}

func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		store:     cfg.Store,
		registry:  cfg.Registry,
		delivery:  cfg.Delivery,
		render:    cfg.Renderer,
		logger:    cfg.Logger,
		locks:     newKeyedMutex(),
		bindings:  make(map[domain.UserID]domain.UserID),
		workflows: make(map[domain.UserID]workflow),
	}
}

// Run consumes the bus until ctx is cancelled. Each event is handled
// in its own goroutine; per-key locks serialize conflicting state
// transitions.
func (e *Engine) Run(ctx context.Context, b *bus.InMemoryBus) {
	events := b.Subscribe()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("relay engine stopping")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			go e.Handle(ctx, ev)
		}
	}
}

// Handle processes one inbound event under a catch-all boundary: no
// event is allowed to take the process down.
func (e *Engine) Handle(ctx context.Context, ev domain.InboundEvent) {
	metrics.EventsTotal.Inc()

	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanics.Inc()
			e.logger.Error("event handler panicked",
				"sender", int64(ev.Sender), "panic", r)
			if e.registry.IsOperator(ev.Sender) {
				e.notifyOperators(ctx, e.render.InternalError())
			}
		}
	}()

	if ev.Payload.Kind == domain.PayloadButton {
		e.handleButton(ctx, ev)
		return
	}
	if e.registry.IsOperator(ev.Sender) {
		e.handleOperator(ctx, ev)
		return
	}
	e.handleUser(ctx, ev)
}

func operatorKey(id domain.UserID) string { return "op/" + strconv.FormatInt(int64(id), 10) }
func userKey(id domain.UserID) string     { return "user/" + strconv.FormatInt(int64(id), 10) }

// notifyOperators sends text to every operator, best effort. It runs
// inside the catch-all boundary's recovery path, so it must absorb its
// own panics: a broken transport would otherwise escape the deferred
// recover and take the goroutine down.
func (e *Engine) notifyOperators(ctx context.Context, text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("operator notification panicked", "panic", r)
		}
	}()
	for _, op := range e.registry.List() {
		if err := e.delivery.SendText(ctx, op, text, nil); err != nil {
			e.logger.Warn("operator notice not delivered", "operator", int64(op), "err", err)
		}
	}
}

// messageCount sums all transcript lengths for the stats view.
func (e *Engine) messageCount(ctx context.Context) int {
	users, err := e.store.KnownUsers(ctx)
	if err != nil {
		return 0
	}
	total := 0
	for _, u := range users {
		hist, err := e.store.History(ctx, u)
		if err != nil {
			continue
		}
		total += len(hist)
	}
	return total
}
