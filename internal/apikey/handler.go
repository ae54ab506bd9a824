package apikey

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

type AgentOwner interface {
	GetOwned(ctx context.Context, id, developerID string) (*agent.Agent, error)
}

type Handler struct {
	store  *Store
	agents AgentOwner
	logger *slog.Logger
}

func NewHandler(store *Store, agents AgentOwner, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		agents: agents,
		logger: logger.With("handler", "apikey"),
	}
}

// RegisterRoutes expects a group mounted at /agents/:id/keys.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.DELETE("/:keyId", h.Delete)
}

func (h *Handler) requireOwner(c echo.Context) (string, error) {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return "", err
	}

	agentID := c.Param("id")
	if _, err := h.agents.GetOwned(c.Request().Context(), agentID, userID); err != nil {
		return "", agent.OwnershipError(err)
	}
	return agentID, nil
}

func keyToResponse(k *APIKey) dto.APIKeyResponse {
	resp := dto.APIKeyResponse{
		ID:        k.ID,
		AgentID:   k.AgentID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}

	if k.ExpiresAt != nil {
		expiresAt := k.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &expiresAt
	}

	if k.LastUsedAt != nil {
		lastUsed := k.LastUsedAt.Format(time.RFC3339)
		resp.LastUsed = &lastUsed
	}

	return resp
}

// List godoc
// @Summary      List widget keys
// @Tags         apikeys
// @Produce      json
// @Param        id   path      string  true  "Agent ID"
// @Success      200  {object}  dto.APIKeyListResponse
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Router       /agents/{id}/keys [get]
func (h *Handler) List(c echo.Context) error {
	agentID, err := h.requireOwner(c)
	if err != nil {
		return err
	}

	keys, err := h.store.GetByAgent(c.Request().Context(), agentID)
	if err != nil {
		h.logger.Error("failed to list API keys", "error", err, "agent_id", agentID)
		return shared.InternalError("list_failed", "failed to list API keys")
	}

	response := make([]dto.APIKeyResponse, len(keys))
	for i, k := range keys {
		response[i] = keyToResponse(k)
	}

	return c.JSON(http.StatusOK, dto.APIKeyListResponse{APIKeys: response})
}

// Create godoc
// @Summary      Create a widget key
// @Description  The secret is only returned once.
// @Tags         apikeys
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Agent ID"
// @Param        request  body      dto.CreateAPIKeyRequest  true  "Key details"
// @Success      201      {object}  dto.CreateAPIKeyResponse
// @Failure      400      {object}  shared.APIError
// @Router       /agents/{id}/keys [post]
func (h *Handler) Create(c echo.Context) error {
	agentID, err := h.requireOwner(c)
	if err != nil {
		return err
	}

	var req dto.CreateAPIKeyRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	if req.Name == "" {
		return shared.BadRequest("missing_name", "name is required")
	}

	key := &APIKey{
		AgentID: agentID,
		Name:    req.Name,
	}

	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		expiresAt := time.Now().AddDate(0, 0, *req.ExpiresIn)
		key.ExpiresAt = &expiresAt
	}

	secret, err := h.store.Create(c.Request().Context(), key)
	if err != nil {
		h.logger.Error("failed to create API key", "error", err, "agent_id", agentID)
		return shared.InternalError("create_failed", "failed to create API key")
	}

	return c.JSON(http.StatusCreated, dto.CreateAPIKeyResponse{
		APIKeyResponse: keyToResponse(key),
		Secret:         secret,
	})
}

// Delete godoc
// @Summary      Revoke a widget key
// @Tags         apikeys
// @Param        id     path  string  true  "Agent ID"
// @Param        keyId  path  string  true  "Key ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Router       /agents/{id}/keys/{keyId} [delete]
func (h *Handler) Delete(c echo.Context) error {
	agentID, err := h.requireOwner(c)
	if err != nil {
		return err
	}

	keyID := c.Param("keyId")

	key, err := h.store.GetByID(c.Request().Context(), keyID)
	if err != nil {
		return shared.StoreError(err, "key", "get_failed")
	}

	if key.AgentID != agentID {
		return shared.StoreError(shared.ErrNotFound, "key", "get_failed")
	}

	if err := h.store.Delete(c.Request().Context(), keyID); err != nil {
		h.logger.Error("failed to delete API key", "error", err, "key_id", keyID)
		return shared.InternalError("delete_failed", "failed to delete API key")
	}

	return c.NoContent(http.StatusNoContent)
}
