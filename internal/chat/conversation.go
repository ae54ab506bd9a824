package chat

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/responder"
	"github.com/eleven-am/agent-widget/internal/speech"
)

type State int32

const (
	StateIdle State = iota
	StateValidating
	StateDispatching
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateDispatching:
		return "dispatching"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

type CredentialValidator interface {
	ValidateAgentKey(ctx context.Context, agentID, secret string) error
}

type Recorder interface {
	Record(ctx context.Context, agentID string, o interaction.Outcome) (interaction.Interaction, error)
}

// TurnObserver is told about every completed turn. Implementations must not
// block for long.
type TurnObserver interface {
	ObserveTurn(ctx context.Context, agentID string, result TurnResult)
}

type TurnResult struct {
	Query        string
	UserMessage  Message
	Reply        Message
	Successful   bool
	ResponseTime float64
	Interaction  interaction.Interaction
	RecordErr    error
	Spoken       bool
}

type Config struct {
	ID         string
	Agent      agent.Agent
	Credential string
	Responder  responder.Responder
	Recorder   Recorder
	Validator  CredentialValidator
	Observer   TurnObserver
	Logger     *slog.Logger
}

// Conversation drives the turns of one widget chat. At most one turn runs at
// a time; a second Send while a turn is running is rejected, not queued.
type Conversation struct {
	id         string
	agent      agent.Agent
	credential string

	responder responder.Responder
	recorder  Recorder
	validator CredentialValidator
	observer  TurnObserver
	logger    *slog.Logger
	now       func() time.Time

	inFlight   atomic.Bool
	state      atomic.Int32
	clients    atomic.Int32
	lastActive atomic.Int64

	mu          sync.Mutex
	transcript  []Message
	pending     string
	listening   bool
	synth       speech.Synthesizer
	recognizer  speech.Recognizer
	speakCancel context.CancelFunc
	subscribers map[int]func(Message)
	nextSub     int
	closed      bool

	speaking sync.WaitGroup
}

func NewConversation(cfg Config) *Conversation {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Conversation{
		id:          cfg.ID,
		agent:       cfg.Agent,
		credential:  cfg.Credential,
		responder:   cfg.Responder,
		recorder:    cfg.Recorder,
		validator:   cfg.Validator,
		observer:    cfg.Observer,
		logger:      logger.With("conversation_id", cfg.ID, "agent_id", cfg.Agent.ID),
		now:         time.Now,
		subscribers: make(map[int]func(Message)),
	}
	if cfg.Agent.FirstMessage != "" {
		c.transcript = append(c.transcript, newMessage(SenderBot, cfg.Agent.FirstMessage, c.now()))
	}
	c.touch()
	return c
}

func (c *Conversation) ID() string      { return c.id }
func (c *Conversation) AgentID() string { return c.agent.ID }
func (c *Conversation) State() State    { return State(c.state.Load()) }

// Authorizes reports whether secret is the credential the conversation was
// opened with.
func (c *Conversation) Authorizes(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(c.credential), []byte(secret)) == 1
}

func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Conversation) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Conversation) SetPending(text string) {
	c.mu.Lock()
	c.pending = text
	c.mu.Unlock()
}

func (c *Conversation) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Subscribe registers fn for every message appended to the transcript and
// returns a function that removes it.
func (c *Conversation) Subscribe(fn func(Message)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Attach marks a client as connected until the returned release is called.
// A conversation with a connected client is never idle.
func (c *Conversation) Attach() (release func()) {
	c.clients.Add(1)
	c.touch()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.touch()
			c.clients.Add(-1)
		})
	}
}

// Idle reports whether the conversation has had no client, no turn and no
// activity for at least ttl.
func (c *Conversation) Idle(now time.Time, ttl time.Duration) bool {
	if c.clients.Load() > 0 || c.inFlight.Load() {
		return false
	}
	return now.Sub(time.Unix(0, c.lastActive.Load())) >= ttl
}

func (c *Conversation) touch() {
	c.lastActive.Store(c.now().UnixNano())
}

func (c *Conversation) AttachSynthesizer(s speech.Synthesizer) {
	c.mu.Lock()
	c.synth = s
	c.mu.Unlock()
}

func (c *Conversation) AttachRecognizer(r speech.Recognizer) {
	c.mu.Lock()
	c.recognizer = r
	c.mu.Unlock()
}

// Send runs one turn for text. Validation failures return a *ValidationError
// and leave the transcript untouched. Every other outcome, including a
// responder failure, returns a TurnResult and a nil error.
//
// The turn is detached from ctx cancellation once it starts so that a client
// going away cannot abort recording.
func (c *Conversation) Send(ctx context.Context, text string) (TurnResult, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return TurnResult{}, rejected(ErrEmptyMessage, nil)
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return TurnResult{}, rejected(ErrTurnInFlight, nil)
	}
	c.touch()
	defer c.finishTurn()

	c.setState(StateValidating)
	if err := c.validator.ValidateAgentKey(ctx, c.agent.ID, c.credential); err != nil {
		c.logger.Info("turn rejected", "reason", "invalid_credential", "error", err)
		return TurnResult{}, rejected(ErrInvalidCredential, err)
	}

	ctx = context.WithoutCancel(ctx)

	c.setState(StateDispatching)
	userMsg := c.append(SenderUser, query, true)
	start := c.now()

	reply, err := c.responder.GetResponse(ctx, query, c.responderConfig())
	responseTime := c.now().Sub(start).Seconds()

	successful := err == nil
	if !successful {
		c.logger.Warn("responder failed", "error", err)
		reply = responder.UserMessage(err)
	}
	botMsg := c.append(SenderBot, reply, false)

	c.setState(StateRecording)
	in, recErr := c.recorder.Record(ctx, c.agent.ID, interaction.Outcome{
		Query:        query,
		Response:     reply,
		ResponseTime: responseTime,
		Successful:   successful,
	})
	if recErr != nil {
		c.logger.Warn("interaction not recorded", "error", recErr)
	}

	result := TurnResult{
		Query:        query,
		UserMessage:  userMsg,
		Reply:        botMsg,
		Successful:   successful,
		ResponseTime: responseTime,
		Interaction:  in,
		RecordErr:    recErr,
	}
	if successful {
		result.Spoken = c.speak(ctx, reply)
	}

	if c.observer != nil {
		c.observer.ObserveTurn(ctx, c.agent.ID, result)
	}
	return result, nil
}

// HandleSpeechResult treats a recognised utterance exactly like typed input.
func (c *Conversation) HandleSpeechResult(ctx context.Context, text string) (TurnResult, error) {
	c.SetPending(text)
	return c.Send(ctx, text)
}

// StartListening starts speech capture in the agent's language. Each
// recognised utterance runs a turn whose outcome is passed to onTurn.
func (c *Conversation) StartListening(ctx context.Context, onTurn func(TurnResult, error)) error {
	c.mu.Lock()
	rec := c.recognizer
	c.mu.Unlock()
	if rec == nil {
		return ErrNoRecognizer
	}

	turnCtx := context.WithoutCancel(ctx)
	err := rec.StartListening(ctx, c.agent.Language, func(text string) {
		result, err := c.HandleSpeechResult(turnCtx, text)
		if onTurn != nil {
			onTurn(result, err)
		}
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.listening = true
	c.mu.Unlock()
	c.touch()
	return nil
}

func (c *Conversation) StopListening() error {
	c.mu.Lock()
	rec := c.recognizer
	c.listening = false
	c.mu.Unlock()
	if rec == nil {
		return ErrNoRecognizer
	}
	return rec.StopListening()
}

// WaitSpeech blocks until voice output started by earlier turns has ended.
func (c *Conversation) WaitSpeech() {
	c.speaking.Wait()
}

// Close stops any voice output and speech capture. A turn still running
// completes and is recorded but is no longer spoken.
func (c *Conversation) Close() {
	c.mu.Lock()
	c.closed = true
	if c.speakCancel != nil {
		c.speakCancel()
		c.speakCancel = nil
	}
	rec := c.recognizer
	listening := c.listening
	c.listening = false
	c.subscribers = make(map[int]func(Message))
	c.mu.Unlock()

	if rec != nil && listening {
		_ = rec.StopListening()
	}
}

func (c *Conversation) finishTurn() {
	c.touch()
	c.setState(StateIdle)
	c.inFlight.Store(false)
}

func (c *Conversation) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Conversation) append(sender Sender, text string, clearPending bool) Message {
	msg := newMessage(sender, text, c.now())

	c.mu.Lock()
	c.transcript = append(c.transcript, msg)
	if clearPending {
		c.pending = ""
	}
	subs := make([]func(Message), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(msg)
	}
	return msg
}

// speak hands reply to the synthesizer without waiting for it. A new reply
// cuts off the previous one.
func (c *Conversation) speak(ctx context.Context, text string) bool {
	if !c.agent.Voice.Enabled {
		return false
	}

	c.mu.Lock()
	synth := c.synth
	if synth == nil || c.closed {
		c.mu.Unlock()
		return false
	}
	if c.speakCancel != nil {
		c.speakCancel()
	}
	sCtx, cancel := context.WithCancel(ctx)
	c.speakCancel = cancel
	c.mu.Unlock()

	voice := speech.VoiceConfig{VoiceID: c.agent.Voice.VoiceID, Speed: c.agent.Voice.Speed}

	c.speaking.Add(1)
	go func() {
		defer c.speaking.Done()
		defer cancel()
		if err := synth.Speak(sCtx, text, voice); err != nil && sCtx.Err() == nil {
			c.logger.Warn("speech synthesis failed", "error", err)
		}
	}()
	return true
}

func (c *Conversation) responderConfig() responder.AgentConfig {
	return responder.AgentConfig{
		AgentID:      c.agent.ID,
		Name:         c.agent.Name,
		Instructions: c.agent.Instructions,
		Language:     c.agent.Language,
		Model:        c.agent.Model,
	}
}
