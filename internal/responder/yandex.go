package responder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// iamRefreshMargin renews the IAM token this long before it expires.
const iamRefreshMargin = 5 * time.Minute

type Yandex struct {
	ya  yagpt.YaGPTFace
	iam yagpt.IamFace
	now func() time.Time

	mu        sync.Mutex
	iamToken  string
	expiresAt time.Time
}

// NewYandex exchanges the OAuth token for an IAM token up front so that a
// bad token fails at startup. The IAM token is renewed as it nears expiry.
func NewYandex(oauthToken, folderID string) (*Yandex, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	y := newYandex(ya, iam, time.Now)
	if _, err := y.token(context.Background()); err != nil {
		return nil, err
	}
	return y, nil
}

func newYandex(ya yagpt.YaGPTFace, iam yagpt.IamFace, now func() time.Time) *Yandex {
	return &Yandex{ya: ya, iam: iam, now: now}
}

func (y *Yandex) token(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.iamToken != "" && y.now().Add(iamRefreshMargin).Before(y.expiresAt) {
		return y.iamToken, nil
	}

	resp, err := y.iam.CreateWithCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create iam token: %w", err)
	}
	y.iamToken = resp.IamToken
	y.expiresAt = resp.ExpiresAt
	return y.iamToken, nil
}

func (y *Yandex) GetResponse(ctx context.Context, query string, cfg AgentConfig) (string, error) {
	tok, err := y.token(ctx)
	if err != nil {
		return "", &Error{Message: "Failed to get a response. Please try again.", Err: err}
	}

	resp, err := y.ya.CompletionWithCtx(ctx, tok, yandexMessages(query, cfg))
	if err != nil {
		return "", &Error{Message: "Failed to get a response. Please try again.", Err: err}
	}
	if resp == nil || len(resp.Alternatives) == 0 || resp.Alternatives[0].Message.Content == "" {
		return "", &Error{Message: "The assistant returned an empty response. Please try again."}
	}
	return resp.Alternatives[0].Message.Content, nil
}

func yandexMessages(query string, cfg AgentConfig) []yagpt.Message {
	return []yagpt.Message{
		{Role: "system", Content: systemPrompt(cfg)},
		{Role: "user", Content: query},
	}
}
