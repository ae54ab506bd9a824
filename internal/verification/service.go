package verification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eleven-am/agent-widget/internal/ratelimit"
)

const cooldownKey = "verify-email"

type Service struct {
	sender   Sender
	cooldown *ratelimit.Cooldown
	logger   *slog.Logger
}

func NewService(sender Sender, cooldown *ratelimit.Cooldown, logger *slog.Logger) *Service {
	return &Service{
		sender:   sender,
		cooldown: cooldown,
		logger:   logger.With("component", "verification"),
	}
}

// Send requests a verification email for r. Every failure is an *AuthError.
// A failed send does not start the cooldown window.
func (s *Service) Send(ctx context.Context, r Recipient) error {
	err := s.cooldown.Do(ctx, cooldownKey+":"+r.UserID, func(ctx context.Context) error {
		return s.sender.SendVerification(ctx, r)
	})
	if err == nil {
		s.logger.Info("verification email sent", "user_id", r.UserID)
		return nil
	}

	var rl *ratelimit.RateLimitedError
	if errors.As(err, &rl) {
		return rateLimited(rl.RetryAfterSeconds, err)
	}

	ae := Classify(err)
	s.logger.Warn("verification email failed", "user_id", r.UserID, "code", ae.Code, "error", err)
	return ae
}
