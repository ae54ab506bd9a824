package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/responder"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/eleven-am/agent-widget/internal/speech"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeResponder struct {
	mu      sync.Mutex
	reply   string
	err     error
	started chan struct{}
	release chan struct{}
	queries []string
	ctxErr  error
}

func (r *fakeResponder) GetResponse(ctx context.Context, query string, _ responder.AgentConfig) (string, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	started, release := r.started, r.release
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErr = ctx.Err()
	return r.reply, r.err
}

func (r *fakeResponder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

type fakeRecorder struct {
	mu       sync.Mutex
	err      error
	outcomes []interaction.Outcome
}

func (r *fakeRecorder) Record(_ context.Context, _ string, o interaction.Outcome) (interaction.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	if r.err != nil {
		return interaction.Interaction{}, r.err
	}
	return interaction.Interaction{
		ID:           shared.NewID("int_"),
		Query:        o.Query,
		Response:     o.Response,
		Timestamp:    time.Now(),
		ResponseTime: o.ResponseTime,
		Successful:   o.Successful,
	}, nil
}

func (r *fakeRecorder) recorded() []interaction.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interaction.Outcome(nil), r.outcomes...)
}

type fakeValidator struct {
	mu    sync.Mutex
	valid map[string]string
}

func newFakeValidator(agentID, secret string) *fakeValidator {
	return &fakeValidator{valid: map[string]string{secret: agentID}}
}

func (v *fakeValidator) ValidateAgentKey(_ context.Context, agentID, secret string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.valid[secret] != agentID {
		return errors.New("unknown key")
	}
	return nil
}

func (v *fakeValidator) revoke(secret string) {
	v.mu.Lock()
	delete(v.valid, secret)
	v.mu.Unlock()
}

type fakeSynth struct {
	mu      sync.Mutex
	spoken  []string
	voices  []speech.VoiceConfig
	release chan struct{}
	done    chan struct{}
}

func (s *fakeSynth) Speak(ctx context.Context, text string, voice speech.VoiceConfig) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.voices = append(s.voices, voice)
	release := s.release
	s.mu.Unlock()

	defer func() {
		if s.done != nil {
			s.done <- struct{}{}
		}
	}()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *fakeSynth) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type fakeRecognizer struct {
	mu        sync.Mutex
	listening bool
	language  string
	onResult  func(string)
	audio     []byte
	result    string
	maxAudio  int
}

func (r *fakeRecognizer) StartListening(_ context.Context, language string, onResult func(string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listening {
		return speech.ErrAlreadyListening
	}
	r.listening = true
	r.language = language
	r.onResult = onResult
	return nil
}

func (r *fakeRecognizer) StopListening() error {
	r.mu.Lock()
	if !r.listening {
		r.mu.Unlock()
		return speech.ErrNotListening
	}
	r.listening = false
	result, onResult := r.result, r.onResult
	r.mu.Unlock()

	if result != "" && onResult != nil {
		onResult(result)
	}
	return nil
}

func (r *fakeRecognizer) WriteAudio(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxAudio > 0 && len(r.audio)+len(data) > r.maxAudio {
		return speech.ErrAudioTooLarge
	}
	r.audio = append(r.audio, data...)
	return nil
}

func (r *fakeRecognizer) captured() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.audio...)
}

type fakeObserver struct {
	mu      sync.Mutex
	results []TurnResult
}

func (o *fakeObserver) ObserveTurn(_ context.Context, _ string, r TurnResult) {
	o.mu.Lock()
	o.results = append(o.results, r)
	o.mu.Unlock()
}

func (o *fakeObserver) observed() []TurnResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]TurnResult(nil), o.results...)
}

type fakeAgents map[string]*agent.Agent

func (f fakeAgents) GetByID(_ context.Context, id string) (*agent.Agent, error) {
	a, ok := f[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

type fakeSessions struct {
	mu      sync.Mutex
	started map[string]string
	ended   []string
	err     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{started: make(map[string]string)}
}

func (s *fakeSessions) Start(_ context.Context, agentID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[conversationID] = agentID
	return s.err
}

func (s *fakeSessions) End(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, conversationID)
	return s.err
}

const (
	testAgentID = "agent_1"
	testSecret  = "sk-widget-test"
)

func testAgent() agent.Agent {
	return agent.Agent{
		ID:           testAgentID,
		DeveloperID:  "user_1",
		Name:         "Support",
		FirstMessage: "Hi! How can I help?",
		Instructions: "Be brief.",
		Language:     "en-US",
	}
}

type convFixture struct {
	conv      *Conversation
	responder *fakeResponder
	recorder  *fakeRecorder
	validator *fakeValidator
	observer  *fakeObserver
}

func newConvFixture(a agent.Agent) *convFixture {
	f := &convFixture{
		responder: &fakeResponder{reply: "Sure, happy to help."},
		recorder:  &fakeRecorder{},
		validator: newFakeValidator(a.ID, testSecret),
		observer:  &fakeObserver{},
	}
	f.conv = NewConversation(Config{
		ID:         "conv_1",
		Agent:      a,
		Credential: testSecret,
		Responder:  f.responder,
		Recorder:   f.recorder,
		Validator:  f.validator,
		Observer:   f.observer,
		Logger:     testLogger(),
	})
	return f
}
