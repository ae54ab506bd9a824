package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

type UserSyncer interface {
	SyncFromJWT(ctx context.Context, userID, email, name string, emailVerified bool) error
}

type Middleware struct {
	validator  *JWTValidator
	userSyncer UserSyncer
}

func NewMiddleware(validator *JWTValidator, userSyncer UserSyncer) *Middleware {
	return &Middleware{
		validator:  validator,
		userSyncer: userSyncer,
	}
}

func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return shared.Unauthorized("missing_token", "authorization header required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return shared.Unauthorized("invalid_token", "bearer token required")
		}

		claims, err := m.validator.Validate(authHeader)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return shared.Unauthorized("token_expired", "token has expired")
			}
			return shared.Unauthorized("invalid_token", "invalid or malformed token")
		}

		ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		if m.userSyncer != nil {
			if err := m.userSyncer.SyncFromJWT(ctx, claims.UserID, claims.Email, claims.Name, claims.EmailVerified); err != nil {
				return shared.InternalError("user_sync_failed", "failed to load account")
			}
		}

		return next(c)
	}
}

func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Request().Context().Value(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// RequireClaims returns the caller's claims or a 401 when the request did
// not pass through Authenticate.
func RequireClaims(c echo.Context) (*Claims, error) {
	claims := GetClaims(c)
	if claims == nil {
		return nil, shared.Unauthorized("auth_required", "authentication required")
	}
	return claims, nil
}

func RequireAuth(c echo.Context) (string, error) {
	claims, err := RequireClaims(c)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func SetClaimsForTest(c echo.Context, claims *Claims) {
	ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
	c.SetRequest(c.Request().WithContext(ctx))
}
