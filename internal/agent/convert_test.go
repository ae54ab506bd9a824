package agent

import (
	"testing"
	"time"

	"github.com/eleven-am/agent-widget/internal/interaction"
)

func sampleAgent() Agent {
	base := time.Date(2024, 5, 1, 9, 15, 30, 123456789, time.FixedZone("CEST", 2*3600))
	return Agent{
		ID:           "agent_1",
		DeveloperID:  "user_1",
		Name:         "Support Bot",
		FirstMessage: "Hi! How can I help?",
		Instructions: "Be concise.",
		Language:     "fr-FR",
		Model:        "gpt-4o-mini",
		Voice:        VoiceConfig{Enabled: true, VoiceID: "alloy", Speed: 1.1},
		Analytics: []interaction.Interaction{
			{ID: "int_2", Query: "where is my order?", Response: "It shipped.", Timestamp: base.Add(time.Minute), ResponseTime: 1.5, Successful: true},
			{ID: "int_1", Query: "hello", Response: "Request failed", Timestamp: base, ResponseTime: 0.25, Successful: false},
		},
	}
}

func TestToStorage_SetsTimestamps(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	rec := ToStorage(sampleAgent(), now)
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v for a new agent", rec.CreatedAt, now)
	}
	if !rec.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, now)
	}

	a := sampleAgent()
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	a.CreatedAt = created
	a.UpdatedAt = created
	rec = ToStorage(a, now)
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want preserved %v", rec.CreatedAt, created)
	}
	if !rec.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want refreshed %v", rec.UpdatedAt, now)
	}
}

func TestToStorage_DefaultsLanguage(t *testing.T) {
	a := sampleAgent()
	a.Language = ""
	rec := ToStorage(a, time.Now())
	if rec.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", rec.Language, DefaultLanguage)
	}
}

func TestToStorage_TimestampsUseSecondsAndNanos(t *testing.T) {
	a := sampleAgent()
	rec := ToStorage(a, time.Now())

	got := rec.Interactions.Data[1].Timestamp
	want := a.Analytics[1].Timestamp
	if got.Seconds != want.Unix() {
		t.Errorf("Seconds = %d, want %d", got.Seconds, want.Unix())
	}
	if got.Nanos != int32(want.Nanosecond()) {
		t.Errorf("Nanos = %d, want %d", got.Nanos, want.Nanosecond())
	}
}

func TestRoundTrip_PreservesInteractions(t *testing.T) {
	a := sampleAgent()
	back := FromStorage(ToStorage(a, time.Now()))

	if len(back.Analytics) != len(a.Analytics) {
		t.Fatalf("expected %d interactions, got %d", len(a.Analytics), len(back.Analytics))
	}
	for i, want := range a.Analytics {
		got := back.Analytics[i]
		if got.ID != want.ID || got.Query != want.Query || got.Response != want.Response ||
			got.ResponseTime != want.ResponseTime || got.Successful != want.Successful {
			t.Errorf("interaction %d mismatch: got %+v, want %+v", i, got, want)
		}
		if got.Timestamp.Unix() != want.Timestamp.Unix() {
			t.Errorf("interaction %d timestamp seconds = %d, want %d", i, got.Timestamp.Unix(), want.Timestamp.Unix())
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("interaction %d timestamp = %v, want %v", i, got.Timestamp, want.Timestamp)
		}
	}
}

func TestRoundTrip_PreservesConfig(t *testing.T) {
	a := sampleAgent()
	back := FromStorage(ToStorage(a, time.Now()))

	if back.ID != a.ID || back.DeveloperID != a.DeveloperID || back.Name != a.Name {
		t.Errorf("identity mismatch: %+v", back)
	}
	if back.FirstMessage != a.FirstMessage || back.Instructions != a.Instructions {
		t.Errorf("prompt mismatch: %+v", back)
	}
	if back.Language != a.Language || back.Model != a.Model {
		t.Errorf("model/language mismatch: %+v", back)
	}
	if back.Voice != a.Voice {
		t.Errorf("Voice = %+v, want %+v", back.Voice, a.Voice)
	}
}

func TestFromStorage_EmptyHistory(t *testing.T) {
	a := FromStorage(Record{ID: "agent_x"})
	if a.Analytics == nil || len(a.Analytics) != 0 {
		t.Errorf("expected empty non-nil history, got %v", a.Analytics)
	}
}
