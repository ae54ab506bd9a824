package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

type AgentReader interface {
	GetOwned(ctx context.Context, id, developerID string) (*agent.Agent, error)
	GetByDeveloper(ctx context.Context, developerID string) ([]*agent.Agent, error)
}

type Handler struct {
	agents AgentReader
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(agents AgentReader, logger *slog.Logger) *Handler {
	return &Handler{
		agents: agents,
		logger: logger.With("handler", "analytics"),
		now:    time.Now,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/agents/:id/analytics", h.GetAgentAnalytics)
	g.GET("/analytics/overview", h.GetOverview)
}

// @Summary      Agent analytics summary
// @Tags         analytics
// @Produce      json
// @Param        id   path      string  true  "Agent ID"
// @Success      200  {object}  dto.AnalyticsSummaryResponse
// @Failure      403  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /agents/{id}/analytics [get]
func (h *Handler) GetAgentAnalytics(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	a, err := h.agents.GetOwned(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return agent.OwnershipError(err)
	}

	return c.JSON(http.StatusOK, ToSummaryResponse(a.ID, Summarize(a.Analytics)))
}

// @Summary      Analytics across the caller's agents
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  dto.OverviewResponse
// @Security     BearerAuth
// @Router       /analytics/overview [get]
func (h *Handler) GetOverview(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	agents, err := h.agents.GetByDeveloper(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list agents", "error", err, "user_id", userID)
		return shared.InternalError("list_failed", "failed to load agents")
	}

	return c.JSON(http.StatusOK, ToOverviewResponse(Fleet(Histories(agents), h.now())))
}

// Histories projects agents onto the view Fleet works on, keeping their order.
func Histories(agents []*agent.Agent) []AgentHistory {
	out := make([]AgentHistory, len(agents))
	for i, a := range agents {
		out[i] = AgentHistory{AgentID: a.ID, Name: a.Name, Interactions: a.Analytics}
	}
	return out
}

func interactionToResponse(in interaction.Interaction) dto.InteractionResponse {
	return dto.InteractionResponse{
		ID:           in.ID,
		Query:        in.Query,
		Response:     in.Response,
		Timestamp:    in.Timestamp.UTC().Format(time.RFC3339),
		ResponseTime: in.ResponseTime,
		Successful:   in.Successful,
	}
}

func ToSummaryResponse(agentID string, s Summary) dto.AnalyticsSummaryResponse {
	recent := make([]dto.InteractionResponse, len(s.RecentInteractions))
	for i, in := range s.RecentInteractions {
		recent[i] = interactionToResponse(in)
	}

	return dto.AnalyticsSummaryResponse{
		AgentID:            agentID,
		TotalInteractions:  s.TotalInteractions,
		AvgResponseTime:    s.AvgResponseTime,
		SuccessRate:        s.SuccessRate,
		UserSatisfaction:   s.UserSatisfaction,
		RecentInteractions: recent,
	}
}

func ToOverviewResponse(fs FleetSummary) dto.OverviewResponse {
	resp := dto.OverviewResponse{
		TotalAgents:       fs.TotalAgents,
		TotalInteractions: fs.TotalInteractions,
		ActiveAgents:      fs.ActiveAgents,
		Performance:       make([]dto.AgentPerformanceResponse, len(fs.Performance)),
		Recent:            make([]dto.RecentActivityResponse, len(fs.Recent)),
	}

	if fs.HasActivity {
		last := fs.LastActivity.UTC().Format(time.RFC3339)
		resp.LastActivity = &last
	}

	for i, p := range fs.Performance {
		resp.Performance[i] = dto.AgentPerformanceResponse{
			AgentID:           p.AgentID,
			Name:              p.Name,
			TotalInteractions: p.Interactions,
			Successful:        p.Successful,
			SuccessPercent:    p.SuccessPercent,
		}
	}
	for i, r := range fs.Recent {
		resp.Recent[i] = dto.RecentActivityResponse{
			AgentID:     r.AgentID,
			Interaction: interactionToResponse(r.Interaction),
		}
	}
	return resp
}
