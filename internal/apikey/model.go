package apikey

import "time"

// APIKey authorises an embedded widget to talk to one agent.
type APIKey struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	AgentID    string     `gorm:"not null;index" json:"agent_id"`
	Name       string     `gorm:"not null" json:"name"`
	Prefix     string     `gorm:"uniqueIndex;not null" json:"-"`
	SecretHash string     `gorm:"not null" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (k *APIKey) IsExpired(now time.Time) bool {
	if k.ExpiresAt == nil {
		return false
	}
	return now.After(*k.ExpiresAt)
}
