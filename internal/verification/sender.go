package verification

import (
	"context"
	"fmt"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const requestTypeVerifyEmail = "VERIFY_EMAIL"

// Recipient identifies the account a verification email is for. IDToken is
// the identity provider's token for that account.
type Recipient struct {
	UserID  string
	Email   string
	IDToken string
}

type Sender interface {
	SendVerification(ctx context.Context, r Recipient) error
}

// IdentityToolkitSender asks the identity provider to email a verification
// link that returns the user to continueURL.
type IdentityToolkitSender struct {
	svc         *identitytoolkit.Service
	continueURL string
}

func NewIdentityToolkitSender(ctx context.Context, apiKey, continueURL string, opts ...option.ClientOption) (*IdentityToolkitSender, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create identity toolkit service: %w", err)
	}
	return &IdentityToolkitSender{svc: svc, continueURL: continueURL}, nil
}

func (s *IdentityToolkitSender) SendVerification(ctx context.Context, r Recipient) error {
	req := &identitytoolkit.Relyingparty{
		RequestType: requestTypeVerifyEmail,
		IdToken:     r.IDToken,
		Email:       r.Email,
		ContinueUrl: s.continueURL,
	}

	if _, err := s.svc.Relyingparty.GetOobConfirmationCode(req).Context(ctx).Do(); err != nil {
		return Classify(err)
	}
	return nil
}
