package analytics

import (
	"math"
	"time"

	"github.com/eleven-am/agent-widget/internal/interaction"
)

// AgentHistory is the read-only view of one agent needed for fleet metrics.
type AgentHistory struct {
	AgentID      string
	Name         string
	Interactions []interaction.Interaction
}

type AgentPerformance struct {
	AgentID      string `json:"agent_id"`
	Name         string `json:"name"`
	Interactions int    `json:"interactions"`
	Successful   int    `json:"successful"`
	// SuccessPercent is rounded to the nearest integer; nil when the agent has
	// no interactions.
	SuccessPercent *int `json:"success_percent,omitempty"`
}

type RecentActivity struct {
	AgentID     string                  `json:"agent_id"`
	Interaction interaction.Interaction `json:"interaction"`
}

type FleetSummary struct {
	TotalAgents       int                `json:"total_agents"`
	TotalInteractions int                `json:"total_interactions"`
	ActiveAgents      int                `json:"active_agents"`
	HasActivity       bool               `json:"has_activity"`
	LastActivity      time.Time          `json:"last_activity"`
	Performance       []AgentPerformance `json:"performance"`
	Recent            []RecentActivity   `json:"recent"`
}

// Fleet aggregates metrics across agents. An agent is active when any of its
// interactions happened within the last seven days of now. LastActivity is the
// zero time when no agent has any interaction.
func Fleet(agents []AgentHistory, now time.Time) FleetSummary {
	fs := FleetSummary{
		TotalAgents: len(agents),
		Performance: make([]AgentPerformance, 0, len(agents)),
		Recent:      []RecentActivity{},
	}

	for _, a := range agents {
		fs.TotalInteractions += len(a.Interactions)

		perf := AgentPerformance{
			AgentID:      a.AgentID,
			Name:         a.Name,
			Interactions: len(a.Interactions),
		}

		active := false
		for i, in := range a.Interactions {
			if in.Successful {
				perf.Successful++
			}
			if now.Sub(in.Timestamp) < activeWindow {
				active = true
			}
			if in.Timestamp.After(fs.LastActivity) {
				fs.LastActivity = in.Timestamp
			}
			if i < fleetRecentPerBot && len(fs.Recent) < RecentLimit {
				fs.Recent = append(fs.Recent, RecentActivity{AgentID: a.AgentID, Interaction: in})
			}
		}
		if active {
			fs.ActiveAgents++
		}

		if perf.Interactions > 0 {
			pct := int(math.Round(float64(perf.Successful) / float64(perf.Interactions) * 100))
			perf.SuccessPercent = &pct
		}
		fs.Performance = append(fs.Performance, perf)
	}

	fs.HasActivity = !fs.LastActivity.IsZero()
	return fs
}
