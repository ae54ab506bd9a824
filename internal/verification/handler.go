package verification

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/eleven-am/agent-widget/internal/auth"
	"github.com/eleven-am/agent-widget/internal/dto"
	"github.com/eleven-am/agent-widget/internal/shared"
	"github.com/labstack/echo/v4"
)

type VerificationSender interface {
	Send(ctx context.Context, r Recipient) error
}

type Handler struct {
	service VerificationSender
	logger  *slog.Logger
}

func NewHandler(service VerificationSender, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("handler", "verification"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/verify-email", h.SendVerification)
}

// @Summary      Send a verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      dto.VerifyEmailRequest  true  "Identity token"
// @Success      202      {object}  dto.VerifyEmailResponse
// @Failure      400      {object}  dto.VerificationErrorResponse
// @Failure      409      {object}  shared.APIError
// @Failure      429      {object}  dto.VerificationErrorResponse
// @Security     BearerAuth
// @Router       /auth/verify-email [post]
func (h *Handler) SendVerification(c echo.Context) error {
	claims, err := auth.RequireClaims(c)
	if err != nil {
		return err
	}
	if claims.EmailVerified {
		return shared.Conflict("already_verified", "email is already verified")
	}
	if claims.Email == "" {
		return shared.BadRequest("missing_email", "account has no email address")
	}

	var req dto.VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	req.IDToken = strings.TrimSpace(req.IDToken)
	if req.IDToken == "" {
		return shared.BadRequest("missing_id_token", "id_token is required")
	}

	err = h.service.Send(c.Request().Context(), Recipient{
		UserID:  claims.UserID,
		Email:   claims.Email,
		IDToken: req.IDToken,
	})
	if err != nil {
		var ae *AuthError
		if !errors.As(err, &ae) {
			ae = Classify(err)
		}
		if ae.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(ae.RetryAfter))
		}
		return c.JSON(statusFor(ae), dto.VerificationErrorResponse{
			Code:       ae.Code,
			Message:    ae.Message,
			RetryAfter: ae.RetryAfter,
		})
	}

	return c.JSON(http.StatusAccepted, dto.VerifyEmailResponse{Email: claims.Email})
}

func statusFor(e *AuthError) int {
	switch e.Code {
	case CodeRateLimited, CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnauthorizedContinueURI:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
