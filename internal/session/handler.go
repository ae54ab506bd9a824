package session

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	defaultHours = 24
	maxHours     = 168
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
		logger: logger.With("handler", "metrics"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/agents/:id", h.GetMetrics)
	g.GET("/agents/:id/summary", h.GetSummary)
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

func metricsToResponse(m *Metrics) dto.MetricsResponse {
	return dto.MetricsResponse{
		AgentID:        m.AgentID,
		Date:           m.Date,
		Hour:           m.Hour,
		Sessions:       m.Sessions,
		Turns:          m.Turns,
		Failures:       m.Failures,
		VoiceReplies:   m.VoiceReplies,
		RecordFailures: m.RecordFailures,
		AvgLatencyMs:   m.AvgLatencyMs,
	}
}

// @Summary      Hourly widget metrics
// @Tags         metrics
// @Produce      json
// @Param        id     path      string  true   "Agent ID"
// @Param        hours  query     int     false  "Hours to look back (1-168)"
// @Success      200    {object}  dto.MetricsListResponse
// @Failure      403    {object}  shared.APIError
// @Failure      404    {object}  shared.APIError
// @Security     BearerAuth
// @Router       /metrics/agents/{id} [get]
func (h *Handler) GetMetrics(c echo.Context) error {
	agentID, err := h.requireOwner(c)
	if err != nil {
		return err
	}

	hours := defaultHours
	if hr, err := strconv.Atoi(c.QueryParam("hours")); err == nil && hr > 0 && hr <= maxHours {
		hours = hr
	}

	metrics, err := h.store.GetMetrics(c.Request().Context(), agentID, hours)
	if err != nil {
		h.logger.Error("failed to get metrics", "error", err, "agent_id", agentID)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	response := make([]dto.MetricsResponse, len(metrics))
	for i, m := range metrics {
		response[i] = metricsToResponse(m)
	}

	return c.JSON(http.StatusOK, dto.MetricsListResponse{
		AgentID: agentID,
		Hours:   hours,
		Metrics: response,
	})
}

// @Summary      Seven day widget summary
// @Tags         metrics
// @Produce      json
// @Param        id   path      string  true  "Agent ID"
// @Success      200  {object}  dto.SummaryResponse
// @Security     BearerAuth
// @Router       /metrics/agents/{id}/summary [get]
func (h *Handler) GetSummary(c echo.Context) error {
	agentID, err := h.requireOwner(c)
	if err != nil {
		return err
	}

	metrics, err := h.store.GetMetricsForLast7Days(c.Request().Context(), agentID)
	if err != nil {
		h.logger.Error("failed to get metrics summary", "error", err, "agent_id", agentID)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	return c.JSON(http.StatusOK, Summarize(agentID, metrics))
}

// Summarize folds hourly metrics into a seven day summary. The latency is the
// mean of the hourly averages that saw traffic.
func Summarize(agentID string, metrics []*Metrics) dto.SummaryResponse {
	summary := dto.SummaryResponse{AgentID: agentID, Period: "7d"}

	var totalLatency, latencyCount int64
	for _, m := range metrics {
		summary.TotalSessions += m.Sessions
		summary.TotalTurns += m.Turns
		summary.TotalFailures += m.Failures
		summary.VoiceReplies += m.VoiceReplies
		summary.RecordFailures += m.RecordFailures

		if m.AvgLatencyMs > 0 {
			totalLatency += m.AvgLatencyMs
			latencyCount++
		}
	}

	if latencyCount > 0 {
		summary.AvgLatencyMs = totalLatency / latencyCount
	}
	if summary.TotalTurns > 0 {
		summary.FailureRate = float64(summary.TotalFailures) / float64(summary.TotalTurns) * 100
	}
	return summary
}
