package session

import (
	"strconv"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
	StatusError  Status = "error"
)

// Session mirrors one widget conversation for dashboards.
type Session struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agent_id"`
	ConversationID string    `json:"conversation_id"`
	Status         Status    `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	LastActiveAt   time.Time `json:"last_active_at"`
}

func (s *Session) RedisKey() string {
	return sessionKey(s.ID)
}

func sessionKey(id string) string {
	return "session:" + id
}

func conversationKey(conversationID string) string {
	return "session:conversation:" + conversationID
}

// Metrics is one agent-hour of widget traffic.
type Metrics struct {
	AgentID        string `json:"agent_id"`
	Date           string `json:"date"`
	Hour           int    `json:"hour"`
	Sessions       int64  `json:"sessions"`
	Turns          int64  `json:"turns"`
	Failures       int64  `json:"failures"`
	VoiceReplies   int64  `json:"voice_replies"`
	RecordFailures int64  `json:"record_failures"`
	AvgLatencyMs   int64  `json:"avg_latency_ms"`
}

// TurnStats is what a completed turn contributes to the hourly metrics.
type TurnStats struct {
	Successful   bool
	Spoken       bool
	RecordFailed bool
	LatencyMs    int64
}

const (
	fieldSessions       = "sessions"
	fieldTurns          = "turns"
	fieldFailures       = "failures"
	fieldVoiceReplies   = "voice_replies"
	fieldRecordFailures = "record_failures"
	fieldTotalLatency   = "total_latency_ms"
	fieldLatencyCount   = "latency_count"
)

func MetricsRedisKey(agentID, date string, hour int) string {
	return "agent:" + agentID + ":metrics:" + date + ":" + strconv.Itoa(hour)
}
