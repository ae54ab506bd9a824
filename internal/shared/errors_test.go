package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAPIError_WithDetails(t *testing.T) {
	err := NewAPIError("empty_message", "message is empty").WithDetails(map[string]int{"max": 4000})

	if err.Code != "empty_message" || err.Message != "message is empty" {
		t.Errorf("unexpected error %+v", err)
	}
	details, ok := err.Details.(map[string]int)
	if !ok || details["max"] != 4000 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestHTTPHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    *echo.HTTPError
		status int
	}{
		{"bad request", BadRequest("c", "m"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("c", "m"), http.StatusUnauthorized},
		{"forbidden", Forbidden("c", "m"), http.StatusForbidden},
		{"not found", NotFound("c", "m"), http.StatusNotFound},
		{"conflict", Conflict("c", "m"), http.StatusConflict},
		{"too many requests", TooManyRequests("c", "m"), http.StatusTooManyRequests},
		{"internal", InternalError("c", "m"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertHTTPError(t, tt.err, tt.status, "c", "m")
		})
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", ErrNotFound, http.StatusNotFound, "agent_not_found", "agent not found"},
		{"wrapped not found", fmt.Errorf("load: %w", ErrNotFound), http.StatusNotFound, "agent_not_found", "agent not found"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "not_owner", "you don't own this agent"},
		{"conflict", ErrConflict, http.StatusConflict, "agent_exists", "agent already exists"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "too many requests"},
		{"other", errors.New("connection reset"), http.StatusInternalServerError, "get_failed", "failed to load agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertHTTPError(t, StoreError(tt.err, "agent", "get_failed"), tt.status, tt.code, tt.message)
		})
	}
}

func assertHTTPError(t *testing.T, err *echo.HTTPError, expectedStatus int, expectedCode, expectedMessage string) {
	t.Helper()
	if err.Code != expectedStatus {
		t.Errorf("expected status %d, got %d", expectedStatus, err.Code)
	}
	apiErr, ok := err.Message.(*APIError)
	if !ok {
		t.Fatal("expected message to be *APIError")
	}
	if apiErr.Code != expectedCode {
		t.Errorf("expected code '%s', got '%s'", expectedCode, apiErr.Code)
	}
	if apiErr.Message != expectedMessage {
		t.Errorf("expected message '%s', got '%s'", expectedMessage, apiErr.Message)
	}
}
