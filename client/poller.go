package client

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultPollInterval matches the storefront's one-second cadence.
	DefaultPollInterval = time.Second
	// DefaultMaxAttempts bounds the poll loop to roughly twelve seconds.
	DefaultMaxAttempts = 12
)

// ErrSuperseded reports that the artifact was regenerated while polling, so
// the reference being watched no longer exists.
var ErrSuperseded = errors.New("artifact superseded during polling")

// FetchFunc loads the current reference from the server.
type FetchFunc func(ctx context.Context) (Reference, error)

// Poller waits for a volatile reference to become durable. The loop is
// strictly bounded: when attempts run out the last observed reference is
// returned as-is, volatile or not, and rendering proceeds with it.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewPoller returns a poller with the default cadence.
func NewPoller() *Poller {
	return &Poller{Interval: DefaultPollInterval, MaxAttempts: DefaultMaxAttempts}
}

// Poll returns once the reference is durable, the attempts are exhausted,
// the artifact is superseded, or the context ends. A durable starting
// reference returns immediately without a single fetch.
func (p *Poller) Poll(ctx context.Context, initial Reference, fetch FetchFunc) (Reference, error) {
	if initial.IsDurable() {
		return initial, nil
	}
	if fetch == nil {
		return initial, errors.New("fetch func is required")
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	last := initial
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := sleepCtx(ctx, interval); err != nil {
			return last, err
		}

		current, err := fetch(ctx)
		if err != nil {
			// transient fetch errors consume the attempt but keep polling
			continue
		}
		if initial.ArtifactID != current.ArtifactID {
			return current, ErrSuperseded
		}
		last = current
		if current.IsDurable() {
			return current, nil
		}
	}

	return last, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
