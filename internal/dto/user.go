package dto

type MeResponse struct {
	ID            string `json:"id" example:"user_abc123"`
	Email         string `json:"email,omitempty" example:"user@example.com"`
	Name          string `json:"name,omitempty" example:"John Doe"`
	EmailVerified bool   `json:"email_verified" example:"false"`
	IsDeveloper   bool   `json:"is_developer" example:"false"`
}
