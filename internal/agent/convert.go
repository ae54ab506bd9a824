package agent

import (
	"time"

	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/shared"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ToStorage converts an agent to its persisted form. UpdatedAt is always set to
// now; CreatedAt is kept when present.
func ToStorage(a Agent, now time.Time) Record {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	language := a.Language
	if language == "" {
		language = DefaultLanguage
	}

	stored := make([]StoredInteraction, len(a.Analytics))
	for i, in := range a.Analytics {
		stored[i] = StoredInteraction{
			ID:           in.ID,
			Query:        in.Query,
			Response:     in.Response,
			Timestamp:    toStoredTimestamp(in.Timestamp),
			ResponseTime: in.ResponseTime,
			Successful:   in.Successful,
		}
	}

	return Record{
		ID:           a.ID,
		DeveloperID:  a.DeveloperID,
		Name:         a.Name,
		Description:  a.Description,
		FirstMessage: a.FirstMessage,
		Instructions: a.Instructions,
		Language:     language,
		Model:        a.Model,
		VoiceEnabled: a.Voice.Enabled,
		VoiceID:      a.Voice.VoiceID,
		VoiceSpeed:   a.Voice.Speed,
		Interactions: shared.NewJSON(stored),
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}
}

// FromStorage converts a persisted record back to an agent.
func FromStorage(r Record) Agent {
	history := make([]interaction.Interaction, len(r.Interactions.Data))
	for i, s := range r.Interactions.Data {
		history[i] = interaction.Interaction{
			ID:           s.ID,
			Query:        s.Query,
			Response:     s.Response,
			Timestamp:    fromStoredTimestamp(s.Timestamp),
			ResponseTime: s.ResponseTime,
			Successful:   s.Successful,
		}
	}

	return Agent{
		ID:           r.ID,
		DeveloperID:  r.DeveloperID,
		Name:         r.Name,
		Description:  r.Description,
		FirstMessage: r.FirstMessage,
		Instructions: r.Instructions,
		Language:     r.Language,
		Model:        r.Model,
		Voice: VoiceConfig{
			Enabled: r.VoiceEnabled,
			VoiceID: r.VoiceID,
			Speed:   r.VoiceSpeed,
		},
		Analytics: history,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toStoredTimestamp(t time.Time) StoredTimestamp {
	ts := timestamppb.New(t)
	return StoredTimestamp{Seconds: ts.GetSeconds(), Nanos: ts.GetNanos()}
}

func fromStoredTimestamp(s StoredTimestamp) time.Time {
	return (&timestamppb.Timestamp{Seconds: s.Seconds, Nanos: s.Nanos}).AsTime()
}
