package dto

type MetricsResponse struct {
	AgentID        string `json:"agent_id" example:"agent_abc123"`
	Date           string `json:"date" example:"2024-01-15"`
	Hour           int    `json:"hour" example:"14"`
	Sessions       int64  `json:"sessions" example:"12"`
	Turns          int64  `json:"turns" example:"80"`
	Failures       int64  `json:"failures" example:"3"`
	VoiceReplies   int64  `json:"voice_replies" example:"20"`
	RecordFailures int64  `json:"record_failures" example:"0"`
	AvgLatencyMs   int64  `json:"avg_latency_ms" example:"850"`
}

type MetricsListResponse struct {
	AgentID string            `json:"agent_id" example:"agent_abc123"`
	Hours   int               `json:"hours" example:"24"`
	Metrics []MetricsResponse `json:"metrics"`
}

type SummaryResponse struct {
	AgentID        string  `json:"agent_id" example:"agent_abc123"`
	Period         string  `json:"period" example:"7d"`
	TotalSessions  int64   `json:"total_sessions" example:"100"`
	TotalTurns     int64   `json:"total_turns" example:"640"`
	TotalFailures  int64   `json:"total_failures" example:"12"`
	VoiceReplies   int64   `json:"voice_replies" example:"150"`
	RecordFailures int64   `json:"record_failures" example:"1"`
	AvgLatencyMs   int64   `json:"avg_latency_ms" example:"910"`
	FailureRate    float64 `json:"failure_rate" example:"1.9"`
}
