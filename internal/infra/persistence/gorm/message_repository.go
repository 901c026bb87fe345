package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"study-room/internal/domain"
	"study-room/internal/repository"
)

// GormMessageRepository is the GORM implementation of MessageRepository.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a GormMessageRepository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) FindByID(ctx context.Context, id uint) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMessageNotFound
		}
		return nil, fmt.Errorf("gorm: find message by id %d: %w", id, err)
	}
	return &msg, nil
}

// FindRecentByRoom selects the newest limit rows, then returns them oldest
// first so the caller gets an ascending ordered list.
func (r *GormMessageRepository) FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("inserted_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find recent messages for room %d: %w", roomID, err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *GormMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if err != nil {
		return fmt.Errorf("gorm: create message (room: %d, user: %d): %w", m.RoomID, m.UserID, err)
	}
	return nil
}

func (r *GormMessageRepository) UpdateContent(ctx context.Context, id uint, content string) (*domain.Message, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		Update("content", content)
	if result.Error != nil {
		return nil, fmt.Errorf("gorm: update message %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrMessageNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormMessageRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Message{}, id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete message %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrMessageNotFound
	}
	return nil
}
