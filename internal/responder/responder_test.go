package responder

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"responder error", &Error{Message: "Service unavailable"}, "Service unavailable"},
		{"wrapped responder error", fmt.Errorf("turn: %w", &Error{Message: "Quota exceeded", Err: errors.New("429")}), "Quota exceeded"},
		{"blank message", &Error{Message: "  "}, DefaultMessage},
		{"plain error", errors.New("dial tcp: connection refused"), DefaultMessage},
		{"nil", nil, DefaultMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Message: "failed", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected Error to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestNew_Provider(t *testing.T) {
	r, err := New(Config{Provider: "OpenAI", OpenAIAPIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := r.(*OpenAI); !ok {
		t.Errorf("expected *OpenAI, got %T", r)
	}

	if _, err := New(Config{Provider: "mystery"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestSystemPrompt(t *testing.T) {
	p := systemPrompt(AgentConfig{Instructions: "Be brief.", Language: "fr-FR"})
	if !strings.HasPrefix(p, "Be brief.") || !strings.Contains(p, "fr-FR") {
		t.Errorf("unexpected prompt %q", p)
	}

	p = systemPrompt(AgentConfig{Name: "Max"})
	if !strings.Contains(p, "Max") {
		t.Errorf("expected agent name in prompt, got %q", p)
	}
}

func TestYandexMessages(t *testing.T) {
	msgs := yandexMessages("hello", AgentConfig{Instructions: "Be kind."})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "Be kind." {
		t.Errorf("unexpected system message %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "hello" {
		t.Errorf("unexpected user message %+v", msgs[1])
	}
}
