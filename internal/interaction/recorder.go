package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AnalyticsStore persists an interaction at the head of an agent's history.
type AnalyticsStore interface {
	AppendInteraction(ctx context.Context, agentID string, in Interaction) error
}

// PersistenceError reports that an interaction was built but could not be stored.
type PersistenceError struct {
	AgentID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist interaction for agent %s: %v", e.AgentID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Recorder struct {
	store  AnalyticsStore
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func NewRecorder(store AnalyticsStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		now:    time.Now,
		newID:  func() string { return "int_" + uuid.New().String() },
		logger: logger.With("component", "interaction_recorder"),
	}
}

// Record turns an outcome into an Interaction and stores it. The interaction
// is returned even when storing fails so callers can still show it.
func (r *Recorder) Record(ctx context.Context, agentID string, o Outcome) (Interaction, error) {
	responseTime := o.ResponseTime
	if responseTime < 0 {
		responseTime = 0
	}

	in := Interaction{
		ID:           r.newID(),
		Query:        o.Query,
		Response:     o.Response,
		Timestamp:    r.now(),
		ResponseTime: responseTime,
		Successful:   o.Successful,
	}

	if err := r.store.AppendInteraction(ctx, agentID, in); err != nil {
		r.logger.Error("failed to persist interaction", "error", err, "agent_id", agentID, "interaction_id", in.ID)
		return in, &PersistenceError{AgentID: agentID, Err: err}
	}

	r.logger.Debug("interaction recorded", "agent_id", agentID, "interaction_id", in.ID, "successful", in.Successful)
	return in, nil
}
