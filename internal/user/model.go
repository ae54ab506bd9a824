package user

import "time"

type User struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"index" json:"email,omitempty"`
	Name          string    `json:"name,omitempty"`
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	IsDeveloper   bool      `gorm:"default:false" json:"is_developer"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
