package agent

import (
	"context"
	"errors"
	"time"

	"github.com/eleven-am/agent-widget/internal/interaction"
	"github.com/eleven-am/agent-widget/internal/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *Store) Create(ctx context.Context, a *Agent) error {
	if a.ID == "" {
		a.ID = shared.NewID("agent_")
	}
	rec := ToStorage(*a, s.now())
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	a.Language = rec.Language
	a.CreatedAt = rec.CreatedAt
	a.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Agent, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a := FromStorage(rec)
	return &a, nil
}

// GetOwned returns the agent only when developerID owns it.
func (s *Store) GetOwned(ctx context.Context, id, developerID string) (*Agent, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DeveloperID != developerID {
		return nil, shared.ErrForbidden
	}
	return a, nil
}

func (s *Store) GetByDeveloper(ctx context.Context, developerID string) ([]*Agent, error) {
	var recs []Record
	err := s.db.WithContext(ctx).Where("developer_id = ?", developerID).Order("created_at ASC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return fromRecords(recs), nil
}

func (s *Store) ListAll(ctx context.Context) ([]*Agent, error) {
	var recs []Record
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return fromRecords(recs), nil
}

// Update writes the agent's configuration. The interaction history is left
// untouched so that a stale copy cannot overwrite newer interactions.
func (s *Store) Update(ctx context.Context, a *Agent) error {
	rec := ToStorage(*a, s.now())
	result := s.db.WithContext(ctx).Model(&Record{}).Where("id = ?", a.ID).
		Updates(map[string]any{
			"name":          rec.Name,
			"description":   rec.Description,
			"first_message": rec.FirstMessage,
			"instructions":  rec.Instructions,
			"language":      rec.Language,
			"model":         rec.Model,
			"voice_enabled": rec.VoiceEnabled,
			"voice_id":      rec.VoiceID,
			"voice_speed":   rec.VoiceSpeed,
			"updated_at":    rec.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	a.Language = rec.Language
	a.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Record{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AppendInteraction places in at the head of the agent's history and persists
// the whole collection.
func (s *Store) AppendInteraction(ctx context.Context, agentID string, in interaction.Interaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", agentID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}

		a := FromStorage(rec)
		a.Analytics = interaction.Prepend(a.Analytics, in)
		return s.saveHistory(tx, a)
	})
}

// TrimInteractions keeps at most max interactions per agent, dropping the
// oldest. It returns the number of interactions removed.
func (s *Store) TrimInteractions(ctx context.Context, max int) (int, error) {
	if max < 0 {
		max = 0
	}

	var ids []string
	if err := s.db.WithContext(ctx).Model(&Record{}).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		trimmed := 0
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rec Record
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error; err != nil {
				return err
			}
			if len(rec.Interactions.Data) <= max {
				return nil
			}

			a := FromStorage(rec)
			trimmed = len(a.Analytics) - max
			a.Analytics = a.Analytics[:max]
			return s.saveHistory(tx, a)
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed += trimmed
	}
	return removed, nil
}

func (s *Store) saveHistory(tx *gorm.DB, a Agent) error {
	rec := ToStorage(a, s.now())
	return tx.Model(&Record{}).Where("id = ?", a.ID).
		Updates(map[string]any{
			"interactions": rec.Interactions,
			"updated_at":   rec.UpdatedAt,
		}).Error
}

func fromRecords(recs []Record) []*Agent {
	agents := make([]*Agent, len(recs))
	for i, r := range recs {
		a := FromStorage(r)
		agents[i] = &a
	}
	return agents
}
