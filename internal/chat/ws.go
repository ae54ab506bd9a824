package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/speech"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 128
	audioBuffer    = 64
)

const (
	frameMessage     = "message"
	frameListenStart = "listen_start"
	frameListenStop  = "listen_stop"

	frameTranscript = "transcript"
	frameTurn       = "turn"
	frameListening  = "listening"
	frameWarning    = "warning"
	frameError      = "error"
)

var errConnClosed = errors.New("websocket closed")

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AudioRecognizer is a Recognizer fed with raw audio from the socket.
// WriteAudio returns speech.ErrAudioTooLarge once the capture limit is hit.
type AudioRecognizer interface {
	speech.Recognizer
	WriteAudio(data []byte) error
}

type WSConfig struct {
	NewSynthesizer func(sink speech.AudioSink) speech.Synthesizer
	NewRecognizer  func() AudioRecognizer
}

type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// serverFrame carries a dto.ChatMessage in Message for transcript frames and
// a human readable string for error and warning frames.
type serverFrame struct {
	Type      string            `json:"type"`
	Message   any               `json:"message,omitempty"`
	Turn      *dto.TurnResponse `json:"turn,omitempty"`
	Listening *bool             `json:"listening,omitempty"`
	Code      string            `json:"code,omitempty"`
}

// wsConn is a widget client socket. It doubles as the audio sink for voice
// replies, which go out as binary frames. Text frames have their own queue
// and are written ahead of queued audio.
type wsConn struct {
	ws      *websocket.Conn
	logger  *slog.Logger
	control chan []byte
	audio   chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newWSConn(ws *websocket.Conn, logger *slog.Logger) *wsConn {
	return &wsConn{
		ws:      ws,
		logger:  logger,
		control: make(chan []byte, sendBuffer),
		audio:   make(chan []byte, audioBuffer),
		done:    make(chan struct{}),
	}
}

func (c *wsConn) sendFrame(f serverFrame) {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error("failed to marshal frame", "error", err)
		return
	}

	select {
	case <-c.done:
	case c.control <- data:
	default:
		c.logger.Warn("send buffer full, dropping frame", "type", f.Type)
	}
}

func (c *wsConn) sendError(code, msg string) {
	c.sendFrame(serverFrame{Type: frameError, Code: code, Message: msg})
}

// WriteAudio queues an audio chunk, waiting for buffer space rather than
// dropping audio.
func (c *wsConn) WriteAudio(ctx context.Context, data []byte) error {
	chunk := make([]byte, len(data))
	copy(chunk, data)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errConnClosed
	case c.audio <- chunk:
		return nil
	}
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	return c.ws.Close()
}

func (c *wsConn) readPump(ctx context.Context, onFrame func(clientFrame), onAudio func([]byte)) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("websocket read error", "error", err)
			}
			return
		}

		if kind == websocket.BinaryMessage {
			onAudio(data)
			continue
		}

		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.sendError("invalid_frame", "frame is not valid JSON")
			continue
		}
		onFrame(f)
	}
}

func (c *wsConn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.control:
			if !c.write(websocket.TextMessage, data) {
				return
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-c.done:
			return
		case data := <-c.control:
			if !c.write(websocket.TextMessage, data) {
				return
			}
		case data := <-c.audio:
			if !c.write(websocket.BinaryMessage, data) {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) write(kind int, data []byte) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(kind, data); err != nil {
		c.logger.Error("websocket write error", "error", err)
		return false
	}
	return true
}

// wsSession is the state of one socket attached to a conversation.
type wsSession struct {
	conv  *Conversation
	conn  *wsConn
	rec   AudioRecognizer
	turns sync.WaitGroup

	audioCapped atomic.Bool
}

// onAudio feeds captured audio to the recognizer. Past the capture limit the
// client is told once and listening stops, which transcribes what was kept.
func (s *wsSession) onAudio(data []byte) {
	if s.rec == nil {
		return
	}
	err := s.rec.WriteAudio(data)
	if !errors.Is(err, speech.ErrAudioTooLarge) || !s.audioCapped.CompareAndSwap(false, true) {
		return
	}

	s.conn.sendError("audio_too_large", "voice message is too long")
	s.stopListening()
}

func (s *wsSession) stopListening() {
	s.turns.Add(1)
	go func() {
		defer s.turns.Done()
		if err := s.conv.StopListening(); err != nil && !errors.Is(err, speech.ErrNotListening) {
			s.conn.sendError("listen_failed", err.Error())
		}
		s.conn.sendFrame(listeningFrame(false))
	}()
}

// WSHandler attaches a websocket to an open conversation. Typed messages,
// speech capture and voice replies all flow over the one socket.
type WSHandler struct {
	manager *Manager
	cfg     WSConfig
	logger  *slog.Logger
}

func NewWSHandler(manager *Manager, cfg WSConfig, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		cfg:     cfg,
		logger:  logger.With("handler", "chat_ws"),
	}
}

func (h *WSHandler) Handle(c echo.Context) error {
	conv, err := h.manager.Get(c.Param("id"))
	if err != nil || !conv.Authorizes(GetAPIKey(c)) {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	logger := h.logger.With("conversation_id", conv.ID())
	conn := newWSConn(ws, logger)
	release := conv.Attach()
	defer release()

	s := &wsSession{conv: conv, conn: conn}
	if h.cfg.NewSynthesizer != nil {
		conv.AttachSynthesizer(h.cfg.NewSynthesizer(conn))
	}
	if h.cfg.NewRecognizer != nil {
		s.rec = h.cfg.NewRecognizer()
		conv.AttachRecognizer(s.rec)
	}

	unsubscribe := conv.Subscribe(func(m Message) {
		conn.sendFrame(serverFrame{Type: frameTranscript, Message: toDTO(m)})
	})

	ctx, cancel := context.WithCancel(c.Request().Context())

	logger.Info("widget connected")

	go conn.writePump(ctx)
	conn.readPump(ctx, func(f clientFrame) { h.dispatch(ctx, s, f) }, s.onAudio)

	unsubscribe()
	if conv.Listening() {
		_ = conv.StopListening()
	}
	cancel()
	s.turns.Wait()
	conv.AttachSynthesizer(nil)
	conv.AttachRecognizer(nil)

	logger.Info("widget disconnected")
	return nil
}

func (h *WSHandler) dispatch(ctx context.Context, s *wsSession, f clientFrame) {
	conv, conn := s.conv, s.conn
	report := func(result TurnResult, err error) {
		reportTurn(conn, result, err)
	}

	switch f.Type {
	case frameMessage:
		s.turns.Add(1)
		go func() {
			defer s.turns.Done()
			report(conv.Send(ctx, f.Text))
		}()

	case frameListenStart:
		s.audioCapped.Store(false)
		if err := conv.StartListening(ctx, report); err != nil {
			if errors.Is(err, ErrNoRecognizer) {
				conn.sendError("speech_unavailable", "speech recognition is not available")
				return
			}
			conn.sendError("listen_failed", err.Error())
			return
		}
		conn.sendFrame(listeningFrame(true))

	case frameListenStop:
		s.stopListening()

	default:
		conn.sendError("unknown_frame", "unknown frame type")
	}
}

func reportTurn(conn *wsConn, result TurnResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			conn.sendError("empty_message", "message cannot be empty")
		case errors.Is(err, ErrTurnInFlight):
			conn.sendError("turn_in_flight", "a message is already being processed")
		case errors.Is(err, ErrInvalidCredential):
			conn.sendError("invalid_credential", "invalid or expired api key")
		default:
			conn.sendError("turn_failed", "failed to process message")
		}
		return
	}

	turn := turnDTO(result)
	conn.sendFrame(serverFrame{Type: frameTurn, Turn: &turn})
	if result.RecordErr != nil {
		conn.sendFrame(serverFrame{Type: frameWarning, Code: "record_failed", Message: recordWarning})
	}
}

func listeningFrame(on bool) serverFrame {
	return serverFrame{Type: frameListening, Listening: &on}
}
