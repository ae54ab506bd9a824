package shared

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
)

// APIError is the JSON body of every error response.
type APIError struct {
	Code    string `json:"code" example:"invalid_request"`
	Message string `json:"message" example:"Invalid request body"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func (e *APIError) ToHTTP(status int) *echo.HTTPError {
	return echo.NewHTTPError(status, e)
}

func BadRequest(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadRequest)
}

func Unauthorized(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusUnauthorized)
}

func Forbidden(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusForbidden)
}

func NotFound(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusNotFound)
}

func Conflict(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusConflict)
}

func TooManyRequests(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusTooManyRequests)
}

func InternalError(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusInternalServerError)
}

// StoreError maps a store sentinel to the HTTP error for the named resource,
// so a missing agent becomes 404 agent_not_found. Anything unrecognised is a
// 500 carrying fallback as its code.
func StoreError(err error, resource, fallback string) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound(resource+"_not_found", resource+" not found")
	case errors.Is(err, ErrForbidden):
		return Forbidden("not_owner", fmt.Sprintf("you don't own this %s", resource))
	case errors.Is(err, ErrConflict):
		return Conflict(resource+"_exists", resource+" already exists")
	case errors.Is(err, ErrRateLimited):
		return TooManyRequests("rate_limited", "too many requests")
	default:
		return InternalError(fallback, "failed to load "+resource)
	}
}
