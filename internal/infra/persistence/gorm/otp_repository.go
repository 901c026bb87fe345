package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"study-room/internal/domain"
	"study-room/internal/repository"
)

// GormOTPRepository is the GORM implementation of OTPRepository.
type GormOTPRepository struct {
	db *gorm.DB
}

// NewGormOTPRepository creates a GormOTPRepository.
func NewGormOTPRepository(db *gorm.DB) *GormOTPRepository {
	if db == nil {
		panic("database connection cannot be nil for GormOTPRepository")
	}
	return &GormOTPRepository{db: db}
}

func (r *GormOTPRepository) Create(ctx context.Context, code *domain.OTPCode) error {
	err := r.db.WithContext(ctx).Create(code).Error
	if err != nil {
		return fmt.Errorf("gorm: create otp code for '%s': %w", code.Email, err)
	}
	return nil
}

// FindLatestByEmail orders by creation time so older unconsumed codes are
// never honored once a newer one exists.
func (r *GormOTPRepository) FindLatestByEmail(ctx context.Context, email string) (*domain.OTPCode, error) {
	var code domain.OTPCode
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrOTPNotFound
		}
		return nil, fmt.Errorf("gorm: find latest otp for '%s': %w", email, err)
	}
	return &code, nil
}

func (r *GormOTPRepository) MarkUsed(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&domain.OTPCode{}).
		Where("id = ?", id).
		Update("used", true)
	if result.Error != nil {
		return fmt.Errorf("gorm: mark otp %d used: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrOTPNotFound
	}
	return nil
}

func (r *GormOTPRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR used = ?", cutoff, true).
		Delete(&domain.OTPCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: purge expired otp codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
