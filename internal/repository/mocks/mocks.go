// Package mocks provides testify mock implementations of the repository
// interfaces for service and hub tests.
package mocks

import (
	"context"
	"time"

	"study-room/internal/domain"

	"github.com/stretchr/testify/mock"
)

// UserRepository mocks repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// ProfileRepository mocks repository.ProfileRepository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) FindByUserID(ctx context.Context, userID uint) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	var profile *domain.Profile
	if args.Get(0) != nil {
		profile = args.Get(0).(*domain.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// RoomRepository mocks repository.RoomRepository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) FindBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	args := m.Called(ctx, slug)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	args := m.Called(ctx, code)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) FindAll(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	var rooms []domain.Room
	if args.Get(0) != nil {
		rooms = args.Get(0).([]domain.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) IsSlugTaken(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) IsInviteCodeTaken(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MembershipRepository mocks repository.MembershipRepository.
type MembershipRepository struct {
	mock.Mock
}

func (m *MembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MembershipRepository) Delete(ctx context.Context, userID, roomID uint) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

func (m *MembershipRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MembershipRepository) Exists(ctx context.Context, userID, roomID uint) (bool, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MembershipRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MessageRepository mocks repository.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) FindByID(ctx context.Context, id uint) (*domain.Message, error) {
	args := m.Called(ctx, id)
	var msg *domain.Message
	if args.Get(0) != nil {
		msg = args.Get(0).(*domain.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepository) FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []domain.Message
	if args.Get(0) != nil {
		msgs = args.Get(0).([]domain.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepository) UpdateContent(ctx context.Context, id uint, content string) (*domain.Message, error) {
	args := m.Called(ctx, id, content)
	var msg *domain.Message
	if args.Get(0) != nil {
		msg = args.Get(0).(*domain.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// OTPRepository mocks repository.OTPRepository.
type OTPRepository struct {
	mock.Mock
}

func (m *OTPRepository) Create(ctx context.Context, code *domain.OTPCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *OTPRepository) FindLatestByEmail(ctx context.Context, email string) (*domain.OTPCode, error) {
	args := m.Called(ctx, email)
	var code *domain.OTPCode
	if args.Get(0) != nil {
		code = args.Get(0).(*domain.OTPCode)
	}
	return code, args.Error(1)
}

func (m *OTPRepository) MarkUsed(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *OTPRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// StateRepository mocks repository.StateRepository.
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) SetMemberCount(ctx context.Context, roomID uint, count int64) error {
	args := m.Called(ctx, roomID, count)
	return args.Error(0)
}

func (m *StateRepository) AdjustMemberCount(ctx context.Context, roomID uint, delta int64) (int64, error) {
	args := m.Called(ctx, roomID, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StateRepository) GetMemberCount(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StateRepository) PublishEvent(ctx context.Context, event domain.RoomEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *StateRepository) SubscribeRoom(ctx context.Context, roomID uint) (<-chan domain.RoomEvent, func(), error) {
	args := m.Called(ctx, roomID)
	var ch <-chan domain.RoomEvent
	if args.Get(0) != nil {
		ch = args.Get(0).(<-chan domain.RoomEvent)
	}
	var cancel func()
	if args.Get(1) != nil {
		cancel = args.Get(1).(func())
	}
	return ch, cancel, args.Error(2)
}

func (m *StateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// OTPDispatcher mocks service.OTPDispatcher.
type OTPDispatcher struct {
	mock.Mock
}

func (m *OTPDispatcher) DispatchOTPEmail(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}
