package interaction

import "time"

// Interaction is one logged exchange between a user and an agent. It is never
// mutated after creation.
type Interaction struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Response     string    `json:"response"`
	Timestamp    time.Time `json:"timestamp"`
	ResponseTime float64   `json:"response_time"`
	Successful   bool      `json:"successful"`
}

// Outcome is the raw result of a turn before it becomes an Interaction.
type Outcome struct {
	Query        string
	Response     string
	ResponseTime float64
	Successful   bool
}

// Prepend returns history with in placed first. History is ordered most
// recent first.
func Prepend(history []Interaction, in Interaction) []Interaction {
	out := make([]Interaction, 0, len(history)+1)
	out = append(out, in)
	return append(out, history...)
}
