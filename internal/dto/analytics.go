package dto

type InteractionResponse struct {
	ID           string  `json:"id" example:"int_6f1c..."`
	Query        string  `json:"query" example:"Where is my order?"`
	Response     string  `json:"response" example:"It shipped yesterday."`
	Timestamp    string  `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	ResponseTime float64 `json:"response_time" example:"1.42"`
	Successful   bool    `json:"successful" example:"true"`
}

type AnalyticsSummaryResponse struct {
	AgentID            string                `json:"agent_id" example:"agent_abc123"`
	TotalInteractions  int                   `json:"total_interactions" example:"10"`
	AvgResponseTime    float64               `json:"avg_response_time" example:"2.5"`
	SuccessRate        float64               `json:"success_rate" example:"80"`
	UserSatisfaction   float64               `json:"user_satisfaction" example:"71"`
	RecentInteractions []InteractionResponse `json:"recent_interactions"`
}

type AgentPerformanceResponse struct {
	AgentID           string `json:"agent_id" example:"agent_abc123"`
	Name              string `json:"name" example:"Support Bot"`
	TotalInteractions int    `json:"total_interactions" example:"3"`
	Successful        int    `json:"successful" example:"2"`
	SuccessPercent    *int   `json:"success_percent" example:"67"`
}

type RecentActivityResponse struct {
	AgentID     string              `json:"agent_id" example:"agent_abc123"`
	Interaction InteractionResponse `json:"interaction"`
}

type OverviewResponse struct {
	TotalAgents       int                        `json:"total_agents" example:"3"`
	TotalInteractions int                        `json:"total_interactions" example:"120"`
	ActiveAgents      int                        `json:"active_agents" example:"2"`
	LastActivity      *string                    `json:"last_activity,omitempty" example:"2024-01-20T15:45:00Z"`
	Performance       []AgentPerformanceResponse `json:"performance"`
	Recent            []RecentActivityResponse   `json:"recent"`
}
