package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/interaction"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *agent.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := agent.NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func seedAgent(t *testing.T, store *agent.Store, developerID, name string, interactions int) *agent.Agent {
	ctx := context.Background()
	a := &agent.Agent{DeveloperID: developerID, Name: name}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < interactions; i++ {
		err := store.AppendInteraction(ctx, a.ID, interaction.Interaction{
			ID:           a.ID + "_int_" + string(rune('a'+i)),
			Query:        "question",
			Response:     "answer",
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			ResponseTime: 1.5,
			Successful:   i%2 == 0,
		})
		if err != nil {
			t.Fatalf("AppendInteraction: %v", err)
		}
	}
	return a
}

func run(t *testing.T, store Store, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(func(string) (Store, error) { return store, nil }, "test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--dsn", "sqlite"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummary(t *testing.T) {
	store := setupStore(t)
	a := seedAgent(t, store, "user_1", "Helper", 4)

	out, err := run(t, store, "summary", a.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	var resp dto.AnalyticsSummaryResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if resp.AgentID != a.ID {
		t.Errorf("unexpected agent id %q", resp.AgentID)
	}
	if resp.TotalInteractions != 4 {
		t.Errorf("expected 4 interactions, got %d", resp.TotalInteractions)
	}
	if resp.SuccessRate != 50 {
		t.Errorf("expected 50%% success, got %v", resp.SuccessRate)
	}
}

func TestSummary_UnknownAgent(t *testing.T) {
	store := setupStore(t)

	_, err := run(t, store, "summary", "agent_missing")
	if err == nil || !strings.Contains(err.Error(), "agent_missing not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestSummary_RequiresAgentID(t *testing.T) {
	if _, err := run(t, setupStore(t), "summary"); err == nil {
		t.Error("expected argument error")
	}
}

func TestOverview(t *testing.T) {
	store := setupStore(t)
	seedAgent(t, store, "user_1", "Helper", 2)
	seedAgent(t, store, "user_1", "Quiet", 0)
	seedAgent(t, store, "user_2", "Other", 3)

	out, err := run(t, store, "overview", "--developer", "user_1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	var resp dto.OverviewResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if resp.TotalAgents != 2 {
		t.Errorf("expected 2 agents, got %d", resp.TotalAgents)
	}
	if resp.TotalInteractions != 2 {
		t.Errorf("expected 2 interactions, got %d", resp.TotalInteractions)
	}
	if resp.LastActivity == nil {
		t.Error("expected last activity")
	}
}

func TestOverview_RequiresDeveloper(t *testing.T) {
	if _, err := run(t, setupStore(t), "overview"); err == nil {
		t.Error("expected missing flag error")
	}
}

func TestTrim(t *testing.T) {
	store := setupStore(t)
	a := seedAgent(t, store, "user_1", "Helper", 5)

	out, err := run(t, store, "trim", "--max", "2")
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if !strings.Contains(out, "removed 3 interactions") {
		t.Errorf("unexpected output %q", out)
	}

	got, err := store.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Analytics) != 2 {
		t.Errorf("expected 2 interactions left, got %d", len(got.Analytics))
	}
}

func TestTrim_RejectsNonPositive(t *testing.T) {
	_, err := run(t, setupStore(t), "trim", "--max", "0")
	if err == nil || !strings.Contains(err.Error(), "--max must be positive") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestMissingDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	cmd := NewRootCmd(func(string) (Store, error) {
		t.Fatal("opener should not be called")
		return nil, nil
	}, "test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"trim"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "no database configured") {
		t.Errorf("expected dsn error, got %v", err)
	}
}
