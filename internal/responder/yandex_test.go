package responder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Morwran/yagpt"
)

type fakeIam struct {
	now     func() time.Time
	ttl     time.Duration
	err     error
	created int
}

func (f *fakeIam) Create() (*yagpt.IamTokenResponse, error) {
	return f.CreateWithCtx(context.Background())
}

func (f *fakeIam) CreateWithCtx(context.Context) (*yagpt.IamTokenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created++
	return &yagpt.IamTokenResponse{
		IamToken:  "iam-" + string(rune('0'+f.created)),
		ExpiresAt: f.now().Add(f.ttl),
	}, nil
}

func (f *fakeIam) Close() error { return nil }

type fakeYagpt struct {
	tokens []string
}

func (f *fakeYagpt) CompletionWithCtx(_ context.Context, iamTok string, m []yagpt.Message) (*yagpt.CompletionResponse, error) {
	f.tokens = append(f.tokens, iamTok)
	return &yagpt.CompletionResponse{
		Alternatives: []yagpt.Alternative{{Message: yagpt.Message{Role: "assistant", Content: "echo: " + m[len(m)-1].Content}}},
	}, nil
}

func (f *fakeYagpt) Completion(iamTok string, m []yagpt.Message) (*yagpt.CompletionResponse, error) {
	return f.CompletionWithCtx(context.Background(), iamTok, m)
}

func TestYandex_RefreshesExpiringToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	iam := &fakeIam{now: clock, ttl: 12 * time.Hour}
	ya := &fakeYagpt{}
	y := newYandex(ya, iam, clock)

	ctx := context.Background()
	reply, err := y.GetResponse(ctx, "hi", AgentConfig{Name: "Helper"})
	if err != nil || reply != "echo: hi" {
		t.Fatalf("GetResponse() = %q, %v", reply, err)
	}

	now = now.Add(6 * time.Hour)
	if _, err := y.GetResponse(ctx, "again", AgentConfig{}); err != nil {
		t.Fatalf("GetResponse: %v", err)
	}

	now = now.Add(6 * time.Hour)
	if _, err := y.GetResponse(ctx, "later", AgentConfig{}); err != nil {
		t.Fatalf("GetResponse: %v", err)
	}

	if iam.created != 2 {
		t.Errorf("expected 2 token exchanges, got %d", iam.created)
	}
	want := []string{"iam-1", "iam-1", "iam-2"}
	for i, tok := range want {
		if ya.tokens[i] != tok {
			t.Errorf("call %d used token %q, want %q", i, ya.tokens[i], tok)
		}
	}
}

func TestYandex_TokenFailureIsUserFacing(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	iam := &fakeIam{now: clock, err: errors.New("oauth token revoked")}
	ya := &fakeYagpt{}
	y := newYandex(ya, iam, clock)

	_, err := y.GetResponse(context.Background(), "hi", AgentConfig{})
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if UserMessage(err) != "Failed to get a response. Please try again." {
		t.Errorf("unexpected message %q", UserMessage(err))
	}
	if len(ya.tokens) != 0 {
		t.Error("completion should not run without a token")
	}
}
