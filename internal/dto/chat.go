package dto

type ChatMessage struct {
	Sender string `json:"sender" example:"bot" enums:"user,bot"`
	Text   string `json:"text" example:"Hi! How can I help you today?"`
}

type CreateConversationResponse struct {
	ID         string        `json:"id" example:"conv_abc123"`
	AgentID    string        `json:"agent_id" example:"agent_abc123"`
	Transcript []ChatMessage `json:"transcript"`
}

type ConversationResponse struct {
	ID         string        `json:"id" example:"conv_abc123"`
	AgentID    string        `json:"agent_id" example:"agent_abc123"`
	Listening  bool          `json:"listening" example:"false"`
	Transcript []ChatMessage `json:"transcript"`
}

type SendMessageRequest struct {
	Text string `json:"text" example:"Where is my order?"`
}

type TurnResponse struct {
	Reply        ChatMessage `json:"reply"`
	Successful   bool        `json:"successful" example:"true"`
	ResponseTime float64     `json:"response_time" example:"1.42"`
	Warning      string      `json:"warning,omitempty" example:"interaction could not be saved"`
}
