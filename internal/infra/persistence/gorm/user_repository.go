package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roomsplit/internal/domain"
	"roomsplit/internal/repository"
)

// GormUserRepository is the UserRepository interface's GORM implementation.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a GormUserRepository instance.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %s: %w", id, err)
	}
	return &user, nil
}

// Upsert creates the user row on first sight and otherwise applies a
// profile push, using GORM's ON DUPLICATE KEY UPDATE clause so concurrent
// first-touch calls for the same user don't race each other into
// ErrDuplicateEntry.
func (r *GormUserRepository) Upsert(ctx context.Context, user domain.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "avatar_url", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert user %s: %w", user.ID, err)
	}
	return nil
}
