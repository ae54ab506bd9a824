package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("handler", "user"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/me", h.Me)
	g.POST("/me/developer", h.BecomeDeveloper)
}

// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *Handler) Me(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	u, err := h.store.GetByID(c.Request().Context(), userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("failed to get user", "error", err, "user_id", userID)
		}
		return shared.NotFound("user_not_found", "user not found")
	}

	return c.JSON(http.StatusOK, dto.MeResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		IsDeveloper:   u.IsDeveloper,
	})
}

// @Summary      Become a developer
// @Tags         auth
// @Success      204  "No Content"
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /auth/me/developer [post]
func (h *Handler) BecomeDeveloper(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	if err := h.store.SetDeveloper(c.Request().Context(), userID, true); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("failed to set developer status", "error", err, "user_id", userID)
		}
		return shared.StoreError(err, "user", "update_failed")
	}

	return c.NoContent(http.StatusNoContent)
}
