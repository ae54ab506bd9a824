package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule        = "0 3 * * *"
	DefaultMaxInteractions = 1000
)

// Trimmer drops the oldest interactions beyond max from every agent.
type Trimmer interface {
	TrimInteractions(ctx context.Context, max int) (int, error)
}

type Config struct {
	Schedule        string
	MaxInteractions int
}

// Job keeps interaction histories bounded on a cron schedule (UTC).
type Job struct {
	trimmer Trimmer
	cfg     Config
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

func NewJob(trimmer Trimmer, cfg Config, logger *slog.Logger) *Job {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.MaxInteractions <= 0 {
		cfg.MaxInteractions = DefaultMaxInteractions
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		trimmer: trimmer,
		cfg:     cfg,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With("component", "retention"),
	}
}

// RunOnce trims every agent now.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	removed, err := j.trimmer.TrimInteractions(ctx, j.cfg.MaxInteractions)
	if err != nil {
		j.logger.Error("retention run failed", "error", err, "removed", removed)
		return removed, err
	}
	j.logger.Info("retention run finished",
		"removed", removed,
		"max_interactions", j.cfg.MaxInteractions,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed, nil
}

func (j *Job) Start() error {
	_, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		_, _ = j.RunOnce(j.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule retention %q: %w", j.cfg.Schedule, err)
	}

	j.cron.Start()
	j.logger.Info("retention scheduled", "schedule", j.cfg.Schedule)
	return nil
}

// Stop waits for a running trim to finish.
func (j *Job) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
	j.logger.Info("retention stopped")
}

func (j *Job) Entries() int {
	return len(j.cron.Entries())
}
