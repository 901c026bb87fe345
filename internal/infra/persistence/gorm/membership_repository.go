package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"study-room/internal/domain"
	"study-room/internal/repository"
)

// GormMembershipRepository is the GORM implementation of MembershipRepository.
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a GormMembershipRepository.
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMembershipRepository")
	}
	return &GormMembershipRepository{db: db}
}

func (r *GormMembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if err != nil {
		// The unique (user_id, room_id) index resolves concurrent joins; the
		// caller decides whether a duplicate is an error.
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create membership (user: %d, room: %d): %w", m.UserID, m.RoomID, err)
	}
	return nil
}

func (r *GormMembershipRepository) Delete(ctx context.Context, userID, roomID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Delete(&domain.Membership{}).Error
	if err != nil {
		return fmt.Errorf("gorm: delete membership (user: %d, room: %d): %w", userID, roomID, err)
	}
	return nil
}

func (r *GormMembershipRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("room_id = ?", roomID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count memberships for room %d: %w", roomID, err)
	}
	return count, nil
}

func (r *GormMembershipRepository) Exists(ctx context.Context, userID, roomID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check membership (user: %d, room: %d): %w", userID, roomID, err)
	}
	return count > 0, nil
}

func (r *GormMembershipRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("joined_at < ?", cutoff).
		Delete(&domain.Membership{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: delete stale memberships before %s: %w", cutoff.Format(time.RFC3339), result.Error)
	}
	return result.RowsAffected, nil
}
