package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

type fakeTrimmer struct {
	mu    sync.Mutex
	calls []int
	n     int
	err   error
}

func (f *fakeTrimmer) TrimInteractions(_ context.Context, max int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, max)
	return f.n, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewJob_Defaults(t *testing.T) {
	j := NewJob(&fakeTrimmer{}, Config{}, testLogger())
	if j.cfg.Schedule != DefaultSchedule {
		t.Errorf("expected default schedule, got %q", j.cfg.Schedule)
	}
	if j.cfg.MaxInteractions != DefaultMaxInteractions {
		t.Errorf("expected default max, got %d", j.cfg.MaxInteractions)
	}
}

func TestJob_RunOnce(t *testing.T) {
	trimmer := &fakeTrimmer{n: 7}
	j := NewJob(trimmer, Config{MaxInteractions: 50}, testLogger())

	removed, err := j.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if removed != 7 {
		t.Errorf("expected 7 removed, got %d", removed)
	}
	if len(trimmer.calls) != 1 || trimmer.calls[0] != 50 {
		t.Errorf("unexpected trim calls %v", trimmer.calls)
	}
}

func TestJob_RunOnceError(t *testing.T) {
	trimmer := &fakeTrimmer{n: 2, err: errors.New("db down")}
	j := NewJob(trimmer, Config{}, testLogger())

	removed, err := j.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if removed != 2 {
		t.Errorf("partial count should be returned, got %d", removed)
	}
}

func TestJob_StartStop(t *testing.T) {
	j := NewJob(&fakeTrimmer{}, Config{Schedule: "*/5 * * * *"}, testLogger())

	if err := j.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if j.Entries() != 1 {
		t.Errorf("expected 1 entry, got %d", j.Entries())
	}
	j.Stop()
}

func TestJob_InvalidSchedule(t *testing.T) {
	j := NewJob(&fakeTrimmer{}, Config{Schedule: "not a schedule"}, testLogger())
	if err := j.Start(); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
