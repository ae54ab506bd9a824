package agent

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/eleven-am/agent-widget/internal/user"
	"github.com/labstack/echo/v4"
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Handler struct {
	store     *Store
	userStore UserLookup
	logger    *slog.Logger
}

func NewHandler(store *Store, userStore UserLookup, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		userStore: userStore,
		logger:    logger.With("handler", "agent"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *Handler) requireDeveloper(c echo.Context) (string, error) {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return "", err
	}

	u, err := h.userStore.GetByID(c.Request().Context(), userID)
	if err != nil {
		return "", shared.NotFound("user_not_found", "user not found")
	}

	if !u.IsDeveloper {
		return "", shared.Forbidden("not_developer", "developer access required")
	}

	return userID, nil
}

// OwnershipError maps a GetOwned failure to an HTTP error.
func OwnershipError(err error) error {
	return shared.StoreError(err, "agent", "get_failed")
}

func ToResponse(a *Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:           a.ID,
		DeveloperID:  a.DeveloperID,
		Name:         a.Name,
		Description:  a.Description,
		FirstMessage: a.FirstMessage,
		Instructions: a.Instructions,
		Language:     a.Language,
		Model:        a.Model,
		Voice: dto.VoiceConfig{
			Enabled: a.Voice.Enabled,
			VoiceID: a.Voice.VoiceID,
			Speed:   a.Voice.Speed,
		},
		TotalInteractions: len(a.Analytics),
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.Format(time.RFC3339),
	}
}

// @Summary      List agents
// @Tags         agents
// @Produce      json
// @Success      200  {object}  dto.AgentListResponse
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /agents [get]
func (h *Handler) List(c echo.Context) error {
	developerID, err := h.requireDeveloper(c)
	if err != nil {
		return err
	}

	agents, err := h.store.GetByDeveloper(c.Request().Context(), developerID)
	if err != nil {
		h.logger.Error("failed to list agents", "error", err, "developer_id", developerID)
		return shared.InternalError("list_failed", "failed to list agents")
	}

	response := make([]dto.AgentResponse, len(agents))
	for i, a := range agents {
		response[i] = ToResponse(a)
	}

	return c.JSON(http.StatusOK, dto.AgentListResponse{Agents: response})
}

// @Summary      Create an agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateAgentRequest  true  "Agent configuration"
// @Success      201      {object}  dto.AgentResponse
// @Failure      400      {object}  shared.APIError
// @Security     BearerAuth
// @Router       /agents [post]
func (h *Handler) Create(c echo.Context) error {
	developerID, err := h.requireDeveloper(c)
	if err != nil {
		return err
	}

	var req dto.CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return shared.BadRequest("missing_name", "name is required")
	}

	a := &Agent{
		DeveloperID:  developerID,
		Name:         req.Name,
		Description:  req.Description,
		FirstMessage: req.FirstMessage,
		Instructions: req.Instructions,
		Language:     req.Language,
		Model:        req.Model,
	}
	if req.Voice != nil {
		a.Voice = VoiceConfig{Enabled: req.Voice.Enabled, VoiceID: req.Voice.VoiceID, Speed: req.Voice.Speed}
	}

	if err := h.store.Create(c.Request().Context(), a); err != nil {
		h.logger.Error("failed to create agent", "error", err, "developer_id", developerID)
		return shared.InternalError("create_failed", "failed to create agent")
	}

	return c.JSON(http.StatusCreated, ToResponse(a))
}

// @Summary      Get an agent
// @Tags         agents
// @Produce      json
// @Param        id   path      string  true  "Agent ID"
// @Success      200  {object}  dto.AgentResponse
// @Failure      403  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /agents/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	developerID, err := h.requireDeveloper(c)
	if err != nil {
		return err
	}

	a, err := h.store.GetOwned(c.Request().Context(), c.Param("id"), developerID)
	if err != nil {
		return OwnershipError(err)
	}

	return c.JSON(http.StatusOK, ToResponse(a))
}

// @Summary      Update an agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Agent ID"
// @Param        request  body      dto.UpdateAgentRequest  true  "Fields to change"
// @Success      200      {object}  dto.AgentResponse
// @Security     BearerAuth
// @Router       /agents/{id} [put]
func (h *Handler) Update(c echo.Context) error {
	developerID, err := h.requireDeveloper(c)
	if err != nil {
		return err
	}

	a, err := h.store.GetOwned(c.Request().Context(), c.Param("id"), developerID)
	if err != nil {
		return OwnershipError(err)
	}

	var req dto.UpdateAgentRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return shared.BadRequest("missing_name", "name cannot be empty")
		}
		a.Name = name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.FirstMessage != nil {
		a.FirstMessage = *req.FirstMessage
	}
	if req.Instructions != nil {
		a.Instructions = *req.Instructions
	}
	if req.Language != nil {
		a.Language = *req.Language
	}
	if req.Model != nil {
		a.Model = *req.Model
	}
	if req.Voice != nil {
		a.Voice = VoiceConfig{Enabled: req.Voice.Enabled, VoiceID: req.Voice.VoiceID, Speed: req.Voice.Speed}
	}

	if err := h.store.Update(c.Request().Context(), a); err != nil {
		h.logger.Error("failed to update agent", "error", err, "agent_id", a.ID)
		return shared.InternalError("update_failed", "failed to update agent")
	}

	return c.JSON(http.StatusOK, ToResponse(a))
}

// @Summary      Delete an agent
// @Tags         agents
// @Param        id  path  string  true  "Agent ID"
// @Success      204  "No Content"
// @Security     BearerAuth
// @Router       /agents/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	developerID, err := h.requireDeveloper(c)
	if err != nil {
		return err
	}

	agentID := c.Param("id")
	if _, err := h.store.GetOwned(c.Request().Context(), agentID, developerID); err != nil {
		return OwnershipError(err)
	}

	if err := h.store.Delete(c.Request().Context(), agentID); err != nil {
		h.logger.Error("failed to delete agent", "error", err, "agent_id", agentID)
		return shared.InternalError("delete_failed", "failed to delete agent")
	}

	return c.NoContent(http.StatusNoContent)
}
