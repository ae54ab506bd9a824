package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultMessage is shown when a failure carries no display text.
const DefaultMessage = "An error occurred"

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// AgentConfig is the slice of agent configuration a responder needs.
type AgentConfig struct {
	AgentID      string
	Name         string
	Instructions string
	Language     string
	Model        string
}

// Responder produces a single reply for a query. Implementations report
// failures as *Error when they have something to show the user.
type Responder interface {
	GetResponse(ctx context.Context, query string, cfg AgentConfig) (string, error)
}

// Error is a responder failure with a message that is safe to display.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the display text for a responder failure.
func UserMessage(err error) string {
	var re *Error
	if errors.As(err, &re) && strings.TrimSpace(re.Message) != "" {
		return re.Message
	}
	return DefaultMessage
}

type Config struct {
	Provider         string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	YandexOAuthToken string
	YandexFolderID   string
}

func New(cfg Config) (Responder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case ProviderYandex:
		return NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func systemPrompt(cfg AgentConfig) string {
	var b strings.Builder
	if cfg.Instructions != "" {
		b.WriteString(cfg.Instructions)
	} else if cfg.Name != "" {
		fmt.Fprintf(&b, "You are %s, a helpful assistant embedded in a website chat widget.", cfg.Name)
	} else {
		b.WriteString("You are a helpful assistant embedded in a website chat widget.")
	}
	if cfg.Language != "" {
		fmt.Fprintf(&b, "\nReply in the language identified by %s unless the user writes in another language.", cfg.Language)
	}
	return b.String()
}
