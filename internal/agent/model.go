package agent

import (
	"time"

	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/shared"
)

const DefaultLanguage = "en-US"

type VoiceConfig struct {
	Enabled bool    `json:"enabled"`
	VoiceID string  `json:"voice_id,omitempty"`
	Speed   float32 `json:"speed,omitempty"`
}

// Agent is the in-memory aggregate. Analytics is ordered most recent first and
// is owned exclusively by the agent.
type Agent struct {
	ID           string
	DeveloperID  string
	Name         string
	Description  string
	FirstMessage string
	Instructions string
	Language     string
	Model        string
	Voice        VoiceConfig
	Analytics    []interaction.Interaction
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StoredTimestamp is the store's native timestamp form.
type StoredTimestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

type StoredInteraction struct {
	ID           string          `json:"id"`
	Query        string          `json:"query"`
	Response     string          `json:"response"`
	Timestamp    StoredTimestamp `json:"timestamp"`
	ResponseTime float64         `json:"responseTime"`
	Successful   bool            `json:"successful"`
}

// Record is the persisted document for an agent.
type Record struct {
	ID           string `gorm:"primaryKey"`
	DeveloperID  string `gorm:"not null;index"`
	Name         string `gorm:"not null"`
	Description  string
	FirstMessage string
	Instructions string
	Language     string `gorm:"default:'en-US'"`
	Model        string
	VoiceEnabled bool `gorm:"default:false"`
	VoiceID      string
	VoiceSpeed   float32

	Interactions shared.JSON[[]StoredInteraction] `gorm:"type:json"`

	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (Record) TableName() string {
	return "agents"
}
