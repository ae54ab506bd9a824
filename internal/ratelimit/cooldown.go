package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/eleven-am/agent-widget/internal/shared"
)

// RateLimitedError is returned when an action is attempted inside its cooldown window.
type RateLimitedError struct {
	Key               string
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %d seconds", e.Key, e.RetryAfterSeconds)
}

func (e *RateLimitedError) Unwrap() error {
	return shared.ErrRateLimited
}

// State holds the last successful action time for each key. It lives for the
// process lifetime; there is no teardown.
type State struct {
	mu   sync.Mutex
	keys map[string]*keyState
}

type keyState struct {
	mu   sync.Mutex
	last time.Time
}

func NewState() *State {
	return &State{keys: make(map[string]*keyState)}
}

func (s *State) key(k string) *keyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks, ok := s.keys[k]
	if !ok {
		ks = &keyState{}
		s.keys[k] = ks
	}
	return ks
}

// Last returns the last recorded success for key, or the zero time.
func (s *State) Last(key string) time.Time {
	ks := s.key(key)
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.last
}

// Cooldown gates an action so that it succeeds at most once per window per key.
type Cooldown struct {
	state    *State
	duration time.Duration
	now      func() time.Time
}

type Option func(*Cooldown)

func WithClock(now func() time.Time) Option {
	return func(c *Cooldown) {
		c.now = now
	}
}

func NewCooldown(state *State, duration time.Duration, opts ...Option) *Cooldown {
	if state == nil {
		state = NewState()
	}
	c := &Cooldown{
		state:    state,
		duration: duration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cooldown) Duration() time.Duration {
	return c.duration
}

// Do runs action unless key is still cooling down. The window only starts
// once action returns nil; the timestamp recorded is the moment the check
// passed. Calls for the same key are serialized for the whole check-act-update
// sequence.
func (c *Cooldown) Do(ctx context.Context, key string, action func(ctx context.Context) error) error {
	ks := c.state.key(key)
	ks.mu.Lock()
	defer ks.mu.Unlock()

	now := c.now()
	if !ks.last.IsZero() {
		elapsed := now.Sub(ks.last)
		if elapsed < c.duration {
			return &RateLimitedError{
				Key:               key,
				RetryAfterSeconds: retryAfter(c.duration - elapsed),
			}
		}
	}

	if err := action(ctx); err != nil {
		return err
	}

	ks.last = now
	return nil
}

func retryAfter(remaining time.Duration) int {
	secs := int(math.Ceil(remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
