package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/eleven-am/agent-widget/internal/shared"
	"gorm.io/gorm"
)

const (
	secretPrefix = "sk-widget-"
	prefixLen    = 16
)

var (
	ErrMissingKey = errors.New("api key required")
	ErrUnknownKey = errors.New("api key not recognised")
	ErrExpiredKey = errors.New("api key expired")
	ErrWrongAgent = errors.New("api key belongs to another agent")
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&APIKey{})
}

func (s *Store) Create(ctx context.Context, key *APIKey) (secret string, err error) {
	if key.ID == "" {
		key.ID = shared.NewID("key_")
	}

	secret, err = generateSecret()
	if err != nil {
		return "", err
	}

	key.Prefix = secret[:prefixLen]
	key.SecretHash = hashSecret(secret)

	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return "", err
	}
	return secret, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*APIKey, error) {
	var key APIKey
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *Store) GetByAgent(ctx context.Context, agentID string) ([]*APIKey, error) {
	var keys []*APIKey
	err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("created_at ASC").Find(&keys).Error
	return keys, err
}

// Validate resolves a presented secret to its key.
func (s *Store) Validate(ctx context.Context, secret string) (*APIKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingKey
	}
	if len(secret) < prefixLen {
		return nil, ErrUnknownKey
	}

	var key APIKey
	err := s.db.WithContext(ctx).Where("prefix = ?", secret[:prefixLen]).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownKey
	}
	if err != nil {
		return nil, err
	}

	if key.SecretHash != hashSecret(secret) {
		return nil, ErrUnknownKey
	}

	now := s.now()
	if key.IsExpired(now) {
		return nil, ErrExpiredKey
	}

	s.db.WithContext(ctx).Model(&APIKey{}).Where("id = ?", key.ID).Update("last_used_at", now)

	return &key, nil
}

// ValidateAgentKey succeeds only for a live key issued to agentID.
func (s *Store) ValidateAgentKey(ctx context.Context, agentID, secret string) error {
	key, err := s.Validate(ctx, secret)
	if err != nil {
		return err
	}
	if key.AgentID != agentID {
		return ErrWrongAgent
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&APIKey{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByAgent(ctx context.Context, agentID string) error {
	return s.db.WithContext(ctx).Delete(&APIKey{}, "agent_id = ?", agentID).Error
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return secretPrefix + hex.EncodeToString(b), nil
}

func hashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
