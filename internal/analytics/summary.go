package analytics

import (
	"math"
	"time"

	"github.com/eleven-am/agent-widget/internal/interaction"
)

const (
	RecentLimit = 5

	successWeight     = 0.7
	speedWeight       = 30.0
	responseTimeCap   = 5.0
	activeWindow      = 7 * 24 * time.Hour
	fleetRecentPerBot = 3
)

// Summary is derived from an agent's history on every call and never stored.
type Summary struct {
	TotalInteractions  int                       `json:"total_interactions"`
	AvgResponseTime    float64                   `json:"avg_response_time"`
	SuccessRate        float64                   `json:"success_rate"`
	UserSatisfaction   float64                   `json:"user_satisfaction"`
	RecentInteractions []interaction.Interaction `json:"recent_interactions"`
}

// Summarize computes the summary of a most-recent-first history.
func Summarize(history []interaction.Interaction) Summary {
	total := len(history)
	if total == 0 {
		return Summary{RecentInteractions: []interaction.Interaction{}}
	}

	var sumResponse float64
	var successful int
	for _, in := range history {
		sumResponse += in.ResponseTime
		if in.Successful {
			successful++
		}
	}

	avg := sumResponse / float64(total)
	rate := float64(successful) / float64(total) * 100

	n := min(total, RecentLimit)
	recent := make([]interaction.Interaction, n)
	copy(recent, history[:n])

	return Summary{
		TotalInteractions:  total,
		AvgResponseTime:    avg,
		SuccessRate:        rate,
		UserSatisfaction:   Satisfaction(rate, avg),
		RecentInteractions: recent,
	}
}

// Satisfaction blends success rate (70%) with speed (30%). Response times are
// capped at five seconds.
func Satisfaction(successRate, avgResponseTime float64) float64 {
	capped := math.Min(math.Max(avgResponseTime, 0), responseTimeCap)
	return successRate*successWeight + (1-capped/responseTimeCap)*speedWeight
}
