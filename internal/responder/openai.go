package responder

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(config), model)
}

func NewOpenAIWithClient(client *openai.Client, model string) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: client, model: model}
}

func (o *OpenAI) GetResponse(ctx context.Context, query string, cfg AgentConfig) (string, error) {
	model := o.model
	if cfg.Model != "" {
		model = cfg.Model
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(cfg)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Message: "The assistant returned an empty response. Please try again."}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &Error{Message: "The assistant returned an empty response. Please try again."}
	}
	return content, nil
}

func openAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "The request was cancelled.", Err: err}
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Message: "The assistant is busy right now. Please try again in a moment.", Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Message: "The assistant is not configured correctly.", Err: err}
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return &Error{Message: "The assistant could not handle this request.", Err: err}
	case status >= http.StatusInternalServerError:
		return &Error{Message: "The assistant is temporarily unavailable. Please try again later.", Err: err}
	default:
		return &Error{Message: "Failed to get a response. Please try again.", Err: err}
	}
}
