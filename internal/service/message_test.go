package service_test

import (
	"context"
	"testing"
	"time"

	"study-room/internal/domain"
	"study-room/internal/repository"
	"study-room/internal/repository/mocks"
	"study-room/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMessageService(messageRepo *mocks.MessageRepository, stateRepo *mocks.StateRepository) *service.MessageService {
	var state repository.StateRepository
	if stateRepo != nil {
		state = stateRepo
	}
	return service.NewMessageService(messageRepo, state)
}

func TestMessageService_Send_TrimsAndPublishes(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	mockStateRepo := new(mocks.StateRepository)
	messageService := newMessageService(mockMessageRepo, mockStateRepo)

	ctx := context.Background()

	mockMessageRepo.On("Create", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.RoomID == 10 && m.UserID == 7 && m.Content == "hello room"
	})).
		Run(func(args mock.Arguments) {
			msg := args.Get(1).(*domain.Message)
			msg.ID = 100
			msg.InsertedAt = time.Now()
		}).
		Return(nil).
		Once()
	mockStateRepo.On("PublishEvent", ctx, mock.MatchedBy(func(ev domain.RoomEvent) bool {
		if ev.Table != domain.EventTableMessages || ev.Op != domain.EventInsert || ev.RoomID != 10 {
			return false
		}
		decoded, err := ev.Message()
		return err == nil && decoded.ID == 100
	})).Return(nil).Once()

	msg, err := messageService.Send(ctx, 10, 7, "  hello room  ")

	assert.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, uint(100), msg.ID)
	assert.Equal(t, "hello room", msg.Content)
	mockStateRepo.AssertExpectations(t)
}

func TestMessageService_Send_EmptyContentRejected(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	messageService := newMessageService(mockMessageRepo, nil)

	msg, err := messageService.Send(context.Background(), 10, 7, "   \n\t ")

	assert.Nil(t, msg)
	assert.ErrorIs(t, err, service.ErrEmptyMessage)
	mockMessageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMessageService_Edit_UpdatesAndPublishes(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	mockStateRepo := new(mocks.StateRepository)
	messageService := newMessageService(mockMessageRepo, mockStateRepo)

	ctx := context.Background()
	insertedAt := time.Now().Add(-time.Hour)
	existing := &domain.Message{ID: 100, RoomID: 10, UserID: 7, Content: "old", InsertedAt: insertedAt}
	updated := &domain.Message{ID: 100, RoomID: 10, UserID: 7, Content: "new", InsertedAt: insertedAt, UpdatedAt: time.Now()}

	mockMessageRepo.On("FindByID", ctx, uint(100)).Return(existing, nil).Once()
	mockMessageRepo.On("UpdateContent", ctx, uint(100), "new").Return(updated, nil).Once()
	mockStateRepo.On("PublishEvent", ctx, mock.MatchedBy(func(ev domain.RoomEvent) bool {
		return ev.Table == domain.EventTableMessages && ev.Op == domain.EventUpdate && ev.RoomID == 10
	})).Return(nil).Once()

	msg, err := messageService.Edit(ctx, 100, 7, "new")

	assert.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "new", msg.Content)
	assert.Equal(t, insertedAt, msg.InsertedAt, "editing must not move the insertion timestamp")
	mockStateRepo.AssertExpectations(t)
}

func TestMessageService_Edit_IdenticalContentIsNoOp(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	mockStateRepo := new(mocks.StateRepository)
	messageService := newMessageService(mockMessageRepo, mockStateRepo)

	ctx := context.Background()
	existing := &domain.Message{ID: 100, RoomID: 10, UserID: 7, Content: "same"}
	mockMessageRepo.On("FindByID", ctx, uint(100)).Return(existing, nil).Once()

	msg, err := messageService.Edit(ctx, 100, 7, "  same ")

	assert.NoError(t, err)
	assert.Equal(t, existing, msg)
	mockMessageRepo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
	mockStateRepo.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
}

func TestMessageService_Edit_NonAuthorForbidden(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	messageService := newMessageService(mockMessageRepo, nil)

	ctx := context.Background()
	existing := &domain.Message{ID: 100, RoomID: 10, UserID: 7, Content: "theirs"}
	mockMessageRepo.On("FindByID", ctx, uint(100)).Return(existing, nil).Once()

	msg, err := messageService.Edit(ctx, 100, 99, "mine now")

	assert.Nil(t, msg)
	assert.ErrorIs(t, err, service.ErrForbidden)
	mockMessageRepo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageService_Delete_RemovesAndPublishes(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	mockStateRepo := new(mocks.StateRepository)
	messageService := newMessageService(mockMessageRepo, mockStateRepo)

	ctx := context.Background()
	existing := &domain.Message{ID: 100, RoomID: 10, UserID: 7, Content: "bye"}
	mockMessageRepo.On("FindByID", ctx, uint(100)).Return(existing, nil).Once()
	mockMessageRepo.On("Delete", ctx, uint(100)).Return(nil).Once()
	mockStateRepo.On("PublishEvent", ctx, mock.MatchedBy(func(ev domain.RoomEvent) bool {
		return ev.Table == domain.EventTableMessages && ev.Op == domain.EventDelete && ev.RoomID == 10
	})).Return(nil).Once()

	err := messageService.Delete(ctx, 100, 7)

	assert.NoError(t, err)
	mockStateRepo.AssertExpectations(t)
}

func TestMessageService_Delete_NonAuthorForbidden(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	messageService := newMessageService(mockMessageRepo, nil)

	ctx := context.Background()
	existing := &domain.Message{ID: 100, RoomID: 10, UserID: 7, Content: "theirs"}
	mockMessageRepo.On("FindByID", ctx, uint(100)).Return(existing, nil).Once()

	err := messageService.Delete(ctx, 100, 99)

	assert.ErrorIs(t, err, service.ErrForbidden)
	mockMessageRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestMessageService_Delete_NotFound(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	messageService := newMessageService(mockMessageRepo, nil)

	ctx := context.Background()
	mockMessageRepo.On("FindByID", ctx, uint(404)).Return(nil, repository.ErrMessageNotFound).Once()

	err := messageService.Delete(ctx, 404, 7)

	assert.ErrorIs(t, err, service.ErrMessageNotFound)
}

func TestMessageService_History_ClampsLimit(t *testing.T) {
	mockMessageRepo := new(mocks.MessageRepository)
	messageService := newMessageService(mockMessageRepo, nil)

	ctx := context.Background()
	mockMessageRepo.On("FindRecentByRoom", ctx, uint(10), 50).Return([]domain.Message{}, nil).Once()
	mockMessageRepo.On("FindRecentByRoom", ctx, uint(10), 200).Return([]domain.Message{}, nil).Once()

	_, err := messageService.History(ctx, 10, 0)
	assert.NoError(t, err)

	_, err = messageService.History(ctx, 10, 9999)
	assert.NoError(t, err)

	mockMessageRepo.AssertExpectations(t)
}
