package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"study-room/internal/domain"
	"study-room/internal/repository"
)

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GormRoomRepository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by slug '%s': %w", slug, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by invite code '%s': %w", code, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindAll(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find all rooms: %w", err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Save(room).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d, slug: %s): %w", room.ID, room.Slug, err)
	}
	return nil
}

func (r *GormRoomRepository) IsSlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by slug '%s': %w", slug, err)
	}
	return count > 0, nil
}

func (r *GormRoomRepository) IsInviteCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("invite_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by invite code '%s': %w", code, err)
	}
	return count > 0, nil
}
