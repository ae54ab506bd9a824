package verification

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

const (
	CodeUnauthorizedContinueURI = "auth/unauthorized-continue-uri"
	CodeTooManyRequests         = "auth/too-many-requests"
	CodeRateLimited             = "auth/rate-limited"
	CodeUnknown                 = "auth/unknown"
)

const (
	msgUnauthorizedContinueURI = "Unable to send verification email. Please try again later."
	msgTooManyRequests         = "Too many requests. Please try again in a few minutes."
	msgUnknown                 = "Failed to send verification email. Please try again."
)

// AuthError is what callers of the verification flow see. Message is safe to
// show to the user.
type AuthError struct {
	Code       string
	Message    string
	RetryAfter int
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func rateLimited(retryAfter int, cause error) *AuthError {
	return &AuthError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Please wait %d seconds before requesting another verification email", retryAfter),
		RetryAfter: retryAfter,
		Err:        cause,
	}
}

// Classify maps a provider failure to an AuthError. Errors that already are
// AuthErrors pass through unchanged.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}

	switch providerCode(err) {
	case "UNAUTHORIZED_DOMAIN", "INVALID_CONTINUE_URI", "MISSING_CONTINUE_URI":
		return &AuthError{Code: CodeUnauthorizedContinueURI, Message: msgUnauthorizedContinueURI, Err: err}
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "QUOTA_EXCEEDED":
		return &AuthError{Code: CodeTooManyRequests, Message: msgTooManyRequests, Err: err}
	default:
		return &AuthError{Code: CodeUnknown, Message: msgUnknown, Err: err}
	}
}

// providerCode extracts the identity toolkit error code, which arrives as the
// message text, optionally followed by " : detail".
func providerCode(err error) string {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return ""
	}

	msg := gerr.Message
	if msg == "" && len(gerr.Errors) > 0 {
		msg = gerr.Errors[0].Message
	}
	if i := strings.Index(msg, " "); i > 0 {
		msg = msg[:i]
	}
	if msg == "" && gerr.Code == 429 {
		return "TOO_MANY_ATTEMPTS_TRY_LATER"
	}
	return msg
}
