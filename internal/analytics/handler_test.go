package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

type stubAgents struct {
	agents  []*agent.Agent
	listErr error
}

func (s *stubAgents) GetOwned(_ context.Context, id, developerID string) (*agent.Agent, error) {
	for _, a := range s.agents {
		if a.ID == id {
			if a.DeveloperID != developerID {
				return nil, shared.ErrForbidden
			}
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubAgents) GetByDeveloper(_ context.Context, developerID string) ([]*agent.Agent, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*agent.Agent
	for _, a := range s.agents {
		if a.DeveloperID == developerID {
			out = append(out, a)
		}
	}
	return out, nil
}

var handlerNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(agents *stubAgents) *Handler {
	h := NewHandler(agents, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return handlerNow }
	return h
}

func serve(h *Handler, fn echo.HandlerFunc, userID, agentID string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if agentID != "" {
		c.SetParamNames("id")
		c.SetParamValues(agentID)
	}
	if userID != "" {
		auth.SetClaimsForTest(c, &auth.Claims{UserID: userID})
	}
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func sampleAgents() *stubAgents {
	return &stubAgents{agents: []*agent.Agent{
		{
			ID: "agent_1", DeveloperID: "dev_1", Name: "Support",
			Analytics: []interaction.Interaction{
				{ID: "int_2", Query: "b", ResponseTime: 1, Successful: true, Timestamp: handlerNow.Add(-time.Hour)},
				{ID: "int_1", Query: "a", ResponseTime: 3, Successful: false, Timestamp: handlerNow.Add(-2 * time.Hour)},
			},
		},
		{ID: "agent_2", DeveloperID: "dev_1", Name: "Sales"},
		{ID: "agent_3", DeveloperID: "dev_2", Name: "Other"},
	}}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	e := echo.New()
	newTestHandler(&stubAgents{}).RegisterRoutes(e.Group("/v1"))

	found := map[string]bool{}
	for _, r := range e.Routes() {
		found[r.Path] = true
	}
	if !found["/v1/agents/:id/analytics"] || !found["/v1/analytics/overview"] {
		t.Errorf("routes not registered: %v", found)
	}
}

func TestHandler_GetAgentAnalytics(t *testing.T) {
	h := newTestHandler(sampleAgents())

	rec := serve(h, h.GetAgentAnalytics, "dev_1", "agent_1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.AnalyticsSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalInteractions != 2 || resp.SuccessRate != 50 || resp.AvgResponseTime != 2 {
		t.Errorf("unexpected summary %+v", resp)
	}
	if math.Abs(resp.UserSatisfaction-53) > 1e-9 {
		t.Errorf("expected satisfaction 53, got %f", resp.UserSatisfaction)
	}
	if len(resp.RecentInteractions) != 2 || resp.RecentInteractions[0].ID != "int_2" {
		t.Errorf("unexpected recent %+v", resp.RecentInteractions)
	}
}

func TestHandler_GetAgentAnalyticsEmpty(t *testing.T) {
	h := newTestHandler(sampleAgents())

	rec := serve(h, h.GetAgentAnalytics, "dev_1", "agent_2")
	var resp dto.AnalyticsSummaryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.TotalInteractions != 0 || resp.UserSatisfaction != 0 || resp.RecentInteractions == nil {
		t.Errorf("unexpected empty summary %+v", resp)
	}
}

func TestHandler_GetAgentAnalyticsErrors(t *testing.T) {
	h := newTestHandler(sampleAgents())

	tests := []struct {
		name    string
		userID  string
		agentID string
		status  int
	}{
		{"anonymous", "", "agent_1", http.StatusUnauthorized},
		{"not owner", "dev_2", "agent_1", http.StatusForbidden},
		{"missing", "dev_1", "agent_404", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(h, h.GetAgentAnalytics, tt.userID, tt.agentID); rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestHandler_GetOverview(t *testing.T) {
	h := newTestHandler(sampleAgents())

	rec := serve(h, h.GetOverview, "dev_1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.OverviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalAgents != 2 || resp.TotalInteractions != 2 || resp.ActiveAgents != 1 {
		t.Errorf("unexpected overview %+v", resp)
	}
	if resp.LastActivity == nil || *resp.LastActivity != "2026-05-01T11:00:00Z" {
		t.Errorf("unexpected last activity %v", resp.LastActivity)
	}
	if len(resp.Performance) != 2 || resp.Performance[0].SuccessPercent == nil || *resp.Performance[0].SuccessPercent != 50 {
		t.Errorf("unexpected performance %+v", resp.Performance)
	}
	if resp.Performance[1].SuccessPercent != nil {
		t.Error("agent without interactions should have no success percent")
	}
	if len(resp.Recent) != 2 {
		t.Errorf("expected 2 recent, got %d", len(resp.Recent))
	}
}

func TestHandler_GetOverviewNoActivity(t *testing.T) {
	h := newTestHandler(&stubAgents{agents: []*agent.Agent{{ID: "agent_9", DeveloperID: "dev_1"}}})

	rec := serve(h, h.GetOverview, "dev_1", "")
	var resp dto.OverviewResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.LastActivity != nil {
		t.Errorf("expected no last activity, got %v", *resp.LastActivity)
	}
}

func TestHandler_GetOverviewError(t *testing.T) {
	h := newTestHandler(&stubAgents{listErr: errors.New("db down")})

	if rec := serve(h, h.GetOverview, "dev_1", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
