package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

const recordWarning = "interaction could not be saved"

type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger.With("handler", "chat"),
	}
}

// RegisterRoutes expects a group mounted at /widget. Every route needs a
// widget API key.
func (h *Handler) RegisterRoutes(g *echo.Group, ws *WSHandler) {
	g.Use(RequireAPIKey)
	g.POST("/agents/:agentId/conversations", h.Create)
	g.GET("/conversations/:id", h.Get)
	g.DELETE("/conversations/:id", h.Delete)
	g.POST("/conversations/:id/messages", h.SendMessage)
	if ws != nil {
		g.GET("/conversations/:id/ws", ws.Handle)
	}
}

// ValidationHTTPError maps a rejected turn to its HTTP form.
func ValidationHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return shared.BadRequest("empty_message", "message cannot be empty")
	case errors.Is(err, ErrTurnInFlight):
		return shared.Conflict("turn_in_flight", "a message is already being processed")
	case errors.Is(err, ErrInvalidCredential):
		return shared.Unauthorized("invalid_credential", "invalid or expired api key")
	default:
		return nil
	}
}

func toDTO(m Message) dto.ChatMessage {
	return dto.ChatMessage{Sender: string(m.Sender), Text: m.Text}
}

func transcriptDTO(msgs []Message) []dto.ChatMessage {
	out := make([]dto.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = toDTO(m)
	}
	return out
}

func turnDTO(r TurnResult) dto.TurnResponse {
	resp := dto.TurnResponse{
		Reply:        toDTO(r.Reply),
		Successful:   r.Successful,
		ResponseTime: r.ResponseTime,
	}
	if r.RecordErr != nil {
		resp.Warning = recordWarning
	}
	return resp
}

// conversation resolves :id and checks the caller presented the key the
// conversation was opened with.
func (h *Handler) conversation(c echo.Context) (*Conversation, error) {
	conv, err := h.manager.Get(c.Param("id"))
	if err != nil || !conv.Authorizes(GetAPIKey(c)) {
		return nil, shared.NotFound("conversation_not_found", "conversation not found")
	}
	return conv, nil
}

// @Summary      Start a widget conversation
// @Tags         widget
// @Produce      json
// @Param        agentId  path      string  true  "Agent ID"
// @Success      201      {object}  dto.CreateConversationResponse
// @Failure      401      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Router       /widget/agents/{agentId}/conversations [post]
func (h *Handler) Create(c echo.Context) error {
	agentID := c.Param("agentId")

	conv, err := h.manager.Create(c.Request().Context(), agentID, GetAPIKey(c))
	if err != nil {
		if he := ValidationHTTPError(err); he != nil {
			return he
		}
		if errors.Is(err, shared.ErrNotFound) {
			return shared.StoreError(err, "agent", "create_failed")
		}
		h.logger.Error("failed to create conversation", "error", err, "agent_id", agentID)
		return shared.InternalError("create_failed", "failed to start conversation")
	}

	return c.JSON(http.StatusCreated, dto.CreateConversationResponse{
		ID:         conv.ID(),
		AgentID:    conv.AgentID(),
		Transcript: transcriptDTO(conv.Transcript()),
	})
}

// @Summary      Get a conversation transcript
// @Tags         widget
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  dto.ConversationResponse
// @Failure      404  {object}  shared.APIError
// @Router       /widget/conversations/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ConversationResponse{
		ID:         conv.ID(),
		AgentID:    conv.AgentID(),
		Listening:  conv.Listening(),
		Transcript: transcriptDTO(conv.Transcript()),
	})
}

// @Summary      End a conversation
// @Tags         widget
// @Param        id  path  string  true  "Conversation ID"
// @Success      204  "No Content"
// @Router       /widget/conversations/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	if err := h.manager.Remove(c.Request().Context(), conv.ID()); err != nil {
		return shared.NotFound("conversation_not_found", "conversation not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// @Summary      Send a message
// @Description  Runs one turn. Responder failures still return 200 with successful=false.
// @Tags         widget
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Conversation ID"
// @Param        request  body      dto.SendMessageRequest  true  "Message"
// @Success      200      {object}  dto.TurnResponse
// @Failure      400      {object}  shared.APIError
// @Failure      401      {object}  shared.APIError
// @Failure      409      {object}  shared.APIError
// @Router       /widget/conversations/{id}/messages [post]
func (h *Handler) SendMessage(c echo.Context) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	result, err := conv.Send(c.Request().Context(), req.Text)
	if err != nil {
		if he := ValidationHTTPError(err); he != nil {
			return he
		}
		h.logger.Error("turn failed", "error", err, "conversation_id", conv.ID())
		return shared.InternalError("turn_failed", "failed to process message")
	}

	return c.JSON(http.StatusOK, turnDTO(result))
}
