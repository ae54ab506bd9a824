package session

import (
	"context"
	"log/slog"
	"math"

	"github.com/eleven-am/agent-widget/internal/chat"
)

var (
	_ chat.SessionTracker = (*Tracker)(nil)
	_ chat.TurnObserver   = (*Tracker)(nil)
)

// Tracker feeds conversation lifecycles and turn outcomes into the store.
// Every write is best effort; failures are logged, never returned to a turn.
type Tracker struct {
	store  *Store
	logger *slog.Logger
}

func NewTracker(store *Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger.With("component", "session_tracker"),
	}
}

func (t *Tracker) Start(ctx context.Context, agentID, conversationID string) error {
	sess := &Session{AgentID: agentID, ConversationID: conversationID}
	if err := t.store.CreateSession(ctx, sess); err != nil {
		return err
	}
	return t.store.IncrementSessions(ctx, agentID)
}

func (t *Tracker) End(ctx context.Context, conversationID string) error {
	sess, err := t.store.GetByConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	return t.store.EndSession(ctx, sess.ID, StatusEnded)
}

func (t *Tracker) ObserveTurn(ctx context.Context, agentID string, result chat.TurnResult) {
	stats := TurnStats{
		Successful:   result.Successful,
		Spoken:       result.Spoken,
		RecordFailed: result.RecordErr != nil,
		LatencyMs:    int64(math.Round(result.ResponseTime * 1000)),
	}
	if err := t.store.RecordTurn(ctx, agentID, stats); err != nil {
		t.logger.Warn("failed to record turn metrics", "error", err, "agent_id", agentID)
	}
}
