package user

import (
	"context"
	"errors"

	"github.com/eleven-am/agent-widget/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&User{})
}

func (s *Store) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = shared.NewID("user_")
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) SetDeveloper(ctx context.Context, id string, isDeveloper bool) error {
	return s.updateColumn(ctx, id, "is_developer", isDeveloper)
}

func (s *Store) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	return s.updateColumn(ctx, id, "email_verified", verified)
}

func (s *Store) updateColumn(ctx context.Context, id, column string, value any) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindOrCreateFromJWT upserts the user named by the token's subject. The
// verified flag only ever moves from false to true.
func (s *Store) FindOrCreateFromJWT(ctx context.Context, userID, email, name string, emailVerified bool) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err == nil {
		verified := u.EmailVerified || emailVerified
		if u.Email != email || u.Name != name || u.EmailVerified != verified {
			u.Email = email
			u.Name = name
			u.EmailVerified = verified
			if err := s.db.WithContext(ctx).Save(&u).Error; err != nil {
				return nil, err
			}
		}
		return &u, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u = User{
		ID:            userID,
		Email:         email,
		Name:          name,
		EmailVerified: emailVerified,
	}

	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *Store) SyncFromJWT(ctx context.Context, userID, email, name string, emailVerified bool) error {
	_, err := s.FindOrCreateFromJWT(ctx, userID, email, name, emailVerified)
	return err
}
