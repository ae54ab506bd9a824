package chat

import (
	"time"

	"github.com/eleven-am/agent-widget/internal/shared"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry as shown in the widget.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

func newMessage(sender Sender, text string, at time.Time) Message {
	return Message{
		ID:        shared.NewID("msg_"),
		Text:      text,
		Sender:    sender,
		Timestamp: at,
	}
}
