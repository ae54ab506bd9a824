package dto

type VoiceConfig struct {
	Enabled bool    `json:"enabled" example:"true"`
	VoiceID string  `json:"voice_id,omitempty" example:"alloy"`
	Speed   float32 `json:"speed,omitempty" example:"1.0"`
}

type CreateAgentRequest struct {
	Name         string       `json:"name" example:"Support Bot"`
	Description  string       `json:"description,omitempty" example:"Answers order questions"`
	FirstMessage string       `json:"first_message,omitempty" example:"Hi! How can I help you today?"`
	Instructions string       `json:"instructions,omitempty" example:"You are a friendly support agent."`
	Language     string       `json:"language,omitempty" example:"en-US"`
	Model        string       `json:"model,omitempty" example:"gpt-4o-mini"`
	Voice        *VoiceConfig `json:"voice,omitempty"`
}

type UpdateAgentRequest struct {
	Name         *string      `json:"name,omitempty" example:"Support Bot v2"`
	Description  *string      `json:"description,omitempty"`
	FirstMessage *string      `json:"first_message,omitempty"`
	Instructions *string      `json:"instructions,omitempty"`
	Language     *string      `json:"language,omitempty" example:"fr-FR"`
	Model        *string      `json:"model,omitempty"`
	Voice        *VoiceConfig `json:"voice,omitempty"`
}

type AgentResponse struct {
	ID                string      `json:"id" example:"agent_abc123"`
	DeveloperID       string      `json:"developer_id" example:"user_xyz789"`
	Name              string      `json:"name" example:"Support Bot"`
	Description       string      `json:"description,omitempty"`
	FirstMessage      string      `json:"first_message,omitempty"`
	Instructions      string      `json:"instructions,omitempty"`
	Language          string      `json:"language" example:"en-US"`
	Model             string      `json:"model,omitempty"`
	Voice             VoiceConfig `json:"voice"`
	TotalInteractions int         `json:"total_interactions" example:"42"`
	CreatedAt         string      `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt         string      `json:"updated_at" example:"2024-01-20T15:45:00Z"`
}

type AgentListResponse struct {
	Agents []AgentResponse `json:"agents"`
}
