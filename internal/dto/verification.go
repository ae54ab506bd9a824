package dto

type VerificationErrorResponse struct {
	Code       string `json:"code" example:"auth/rate-limited"`
	Message    string `json:"message" example:"Please wait 42 seconds before requesting another verification email"`
	RetryAfter int    `json:"retry_after,omitempty" example:"42"`
}

type VerifyEmailRequest struct {
	IDToken string `json:"id_token" example:"eyJhbGciOiJSUzI1NiIs..."`
}

type VerifyEmailResponse struct {
	Email string `json:"email" example:"dev@example.com"`
}
