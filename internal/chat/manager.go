package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/responder"
	"github.com/eleven-am/agent-widget/internal/shared"
)

type AgentSource interface {
	GetByID(ctx context.Context, id string) (*agent.Agent, error)
}

// SessionTracker mirrors conversation lifetimes somewhere observable.
type SessionTracker interface {
	Start(ctx context.Context, agentID, conversationID string) error
	End(ctx context.Context, conversationID string) error
}

const (
	DefaultIdleTimeout = 30 * time.Minute
	sweepInterval      = time.Minute
)

type ManagerConfig struct {
	Agents    AgentSource
	Responder responder.Responder
	Recorder  Recorder
	Validator CredentialValidator
	Observer  TurnObserver
	Sessions  SessionTracker

	// IdleTimeout is how long a conversation with no client and no turn is
	// kept before it is removed. Zero means DefaultIdleTimeout.
	IdleTimeout time.Duration
}

type Manager struct {
	agents    AgentSource
	responder responder.Responder
	recorder  Recorder
	validator CredentialValidator
	observer  TurnObserver
	sessions  SessionTracker
	logger    *slog.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu            sync.RWMutex
	conversations map[string]*Conversation

	startOnce sync.Once
	cancel    context.CancelFunc
	sweepWg   sync.WaitGroup
}

func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	idleTTL := cfg.IdleTimeout
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTimeout
	}

	return &Manager{
		agents:        cfg.Agents,
		responder:     cfg.Responder,
		recorder:      cfg.Recorder,
		validator:     cfg.Validator,
		observer:      cfg.Observer,
		sessions:      cfg.Sessions,
		logger:        logger.With("component", "chat_manager"),
		idleTTL:       idleTTL,
		now:           time.Now,
		conversations: make(map[string]*Conversation),
	}
}

// Start runs the idle sweep in the background until Close.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		m.mu.Lock()
		m.cancel = cancel
		m.mu.Unlock()

		m.sweepWg.Add(1)
		go m.sweepLoop(ctx)
	})
}

func (m *Manager) sweepLoop(ctx context.Context) {
	defer m.sweepWg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepIdle(ctx)
		}
	}
}

// SweepIdle removes every conversation that has been idle for the idle
// timeout and returns how many were removed.
func (m *Manager) SweepIdle(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var idle []*Conversation
	for id, conv := range m.conversations {
		if conv.Idle(now, m.idleTTL) {
			idle = append(idle, conv)
			delete(m.conversations, id)
		}
	}
	m.mu.Unlock()

	for _, conv := range idle {
		m.end(ctx, conv)
		m.logger.Debug("removed idle conversation", "conversation_id", conv.ID())
	}
	if len(idle) > 0 {
		m.logger.Info("swept idle conversations", "count", len(idle))
	}
	return len(idle)
}

// Create opens a conversation with agentID for the holder of credential.
func (m *Manager) Create(ctx context.Context, agentID, credential string) (*Conversation, error) {
	if err := m.validator.ValidateAgentKey(ctx, agentID, credential); err != nil {
		return nil, rejected(ErrInvalidCredential, err)
	}

	a, err := m.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	conv := NewConversation(Config{
		ID:         shared.NewID("conv_"),
		Agent:      *a,
		Credential: credential,
		Responder:  m.responder,
		Recorder:   m.recorder,
		Validator:  m.validator,
		Observer:   m.observer,
		Logger:     m.logger,
	})

	m.mu.Lock()
	m.conversations[conv.ID()] = conv
	m.mu.Unlock()

	if m.sessions != nil {
		if err := m.sessions.Start(ctx, agentID, conv.ID()); err != nil {
			m.logger.Warn("failed to start session", "error", err, "conversation_id", conv.ID())
		}
	}

	m.logger.Info("conversation started", "conversation_id", conv.ID(), "agent_id", agentID)
	return conv, nil
}

func (m *Manager) Get(id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return conv, nil
}

func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	conv, ok := m.conversations[id]
	delete(m.conversations, id)
	m.mu.Unlock()
	if !ok {
		return shared.ErrNotFound
	}

	m.end(ctx, conv)
	return nil
}

func (m *Manager) end(ctx context.Context, conv *Conversation) {
	conv.Close()

	if m.sessions != nil {
		if err := m.sessions.End(ctx, conv.ID()); err != nil {
			m.logger.Warn("failed to end session", "error", err, "conversation_id", conv.ID())
		}
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}

// Close stops the idle sweep and ends every open conversation.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
		m.sweepWg.Wait()
	}

	m.mu.RLock()
	ids := make([]string, 0, len(m.conversations))
	for id := range m.conversations {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Remove(ctx, id)
	}
}
