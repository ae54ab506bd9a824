package verification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

type fakeToolkit struct {
	mu     sync.Mutex
	path   string
	apiKey string
	body   map[string]any
	status int
	reply  string
}

func (f *fakeToolkit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	f.mu.Lock()
	f.path = r.URL.Path
	f.apiKey = r.URL.Query().Get("key")
	f.body = body
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func newTestSender(t *testing.T, fake *fakeToolkit) *IdentityToolkitSender {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	sender, err := NewIdentityToolkitSender(context.Background(), "test-api-key", "https://app.example.com/verified",
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("NewIdentityToolkitSender: %v", err)
	}
	return sender
}

func TestIdentityToolkitSender_Success(t *testing.T) {
	fake := &fakeToolkit{reply: `{"kind":"identitytoolkit#GetOobConfirmationCodeResponse","email":"dev@example.com"}`}
	sender := newTestSender(t, fake)

	err := sender.SendVerification(context.Background(), Recipient{UserID: "u1", Email: "dev@example.com", IDToken: "id-token"})
	if err != nil {
		t.Fatalf("SendVerification: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !strings.HasSuffix(fake.path, "getOobConfirmationCode") {
		t.Errorf("unexpected path %q", fake.path)
	}
	if fake.apiKey != "test-api-key" {
		t.Errorf("api key not sent, got %q", fake.apiKey)
	}
	if fake.body["requestType"] != "VERIFY_EMAIL" {
		t.Errorf("unexpected requestType %v", fake.body["requestType"])
	}
	if fake.body["idToken"] != "id-token" {
		t.Errorf("unexpected idToken %v", fake.body["idToken"])
	}
	if fake.body["continueUrl"] != "https://app.example.com/verified" {
		t.Errorf("unexpected continueUrl %v", fake.body["continueUrl"])
	}
}

func TestIdentityToolkitSender_ProviderErrors(t *testing.T) {
	tests := []struct {
		message string
		code    string
	}{
		{"TOO_MANY_ATTEMPTS_TRY_LATER", CodeTooManyRequests},
		{"UNAUTHORIZED_DOMAIN : Domain not allowlisted by project", CodeUnauthorizedContinueURI},
		{"INVALID_ID_TOKEN", CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			fake := &fakeToolkit{
				status: http.StatusBadRequest,
				reply:  `{"error":{"code":400,"message":"` + tt.message + `","errors":[{"message":"` + tt.message + `","domain":"global","reason":"invalid"}]}}`,
			}
			sender := newTestSender(t, fake)

			err := sender.SendVerification(context.Background(), Recipient{UserID: "u1", Email: "dev@example.com", IDToken: "t"})
			var ae *AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *AuthError, got %v", err)
			}
			if ae.Code != tt.code {
				t.Errorf("code = %q, want %q", ae.Code, tt.code)
			}
		})
	}
}
