// Package gormpersistence implements the repository interfaces on GORM.
package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"study-room/internal/domain"
	"study-room/internal/repository"
)

// GormUserRepository is the GORM implementation of UserRepository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by email '%s': %w", email, err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}
	return &user, nil
}

func (r *GormUserRepository) Save(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save user (id: %d, email: %s): %w", user.ID, user.Email, err)
	}
	return nil
}

// GormProfileRepository is the GORM implementation of ProfileRepository.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a GormProfileRepository.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	if db == nil {
		panic("database connection cannot be nil for GormProfileRepository")
	}
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) FindByUserID(ctx context.Context, userID uint) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).First(&profile, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}
		return nil, fmt.Errorf("gorm: find profile for user %d: %w", userID, err)
	}
	return &profile, nil
}

func (r *GormProfileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).Save(profile).Error
	if err != nil {
		return fmt.Errorf("gorm: save profile (user: %d): %w", profile.ID, err)
	}
	return nil
}
