package service

import (
	"context"
	"errors"
	"strings"

	"study-room/internal/domain"
	"study-room/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// MessageService owns the message history and the send/edit/delete write
// paths. Every committed write is published on the room's event channel;
// clients never apply a write optimistically, so the echoed event is the
// only way a message reaches any local list, sender included.
type MessageService struct {
	messageRepo repository.MessageRepository
	stateRepo   repository.StateRepository
}

// NewMessageService creates a MessageService.
func NewMessageService(messageRepo repository.MessageRepository, stateRepo repository.StateRepository) *MessageService {
	if messageRepo == nil {
		panic("MessageRepository cannot be nil for MessageService")
	}
	return &MessageService{
		messageRepo: messageRepo,
		stateRepo:   stateRepo,
	}
}

// History returns the most recent messages of a room ordered by insertion
// time ascending. limit is clamped to a sane range.
func (s *MessageService) History(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	msgs, err := s.messageRepo.FindRecentByRoom(ctx, roomID, limit)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to load message history")
		return nil, ErrInternalServer
	}
	return msgs, nil
}

// Send inserts a message with trimmed content. Empty or whitespace-only
// content is rejected before any write.
func (s *MessageService) Send(ctx context.Context, roomID, userID uint, content string) (*domain.Message, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	msg := &domain.Message{RoomID: roomID, UserID: userID, Content: content}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		logCtx.WithError(err).Error("Failed to insert message")
		return nil, ErrInternalServer
	}

	s.publishMessageEvent(ctx, domain.EventInsert, msg)
	logCtx.WithField("message_id", msg.ID).Debug("Message sent")
	return msg, nil
}

// Edit replaces the content of the caller's own message. Editing to
// identical content is a no-op: no store write, no event. inserted_at is
// never touched.
func (s *MessageService) Edit(ctx context.Context, messageID, userID uint, content string) (*domain.Message, error) {
	logCtx := logrus.WithFields(logrus.Fields{"message_id": messageID, "user_id": userID})

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := s.findOwnMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if msg.Content == content {
		logCtx.Debug("Edit to identical content, skipping write")
		return msg, nil
	}

	updated, err := s.messageRepo.UpdateContent(ctx, messageID, content)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		logCtx.WithError(err).Error("Failed to update message content")
		return nil, ErrInternalServer
	}

	s.publishMessageEvent(ctx, domain.EventUpdate, updated)
	logCtx.Debug("Message edited")
	return updated, nil
}

// Delete removes the caller's own message.
func (s *MessageService) Delete(ctx context.Context, messageID, userID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"message_id": messageID, "user_id": userID})

	msg, err := s.findOwnMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		logCtx.WithError(err).Error("Failed to delete message")
		return ErrInternalServer
	}

	s.publishMessageEvent(ctx, domain.EventDelete, msg)
	logCtx.Debug("Message deleted")
	return nil
}

// findOwnMessage loads a message and enforces that the caller authored it.
func (s *MessageService) findOwnMessage(ctx context.Context, messageID, userID uint) (*domain.Message, error) {
	msg, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		logrus.WithField("message_id", messageID).WithError(err).Error("Repository error finding message")
		return nil, ErrInternalServer
	}
	if msg.UserID != userID {
		logrus.WithFields(logrus.Fields{"message_id": messageID, "user_id": userID, "author_id": msg.UserID}).
			Warn("Rejected message mutation by non-author")
		return nil, ErrForbidden
	}
	return msg, nil
}

// publishMessageEvent notifies room subscribers; the write already
// committed, so failures are logged and swallowed.
func (s *MessageService) publishMessageEvent(ctx context.Context, op string, msg *domain.Message) {
	if s.stateRepo == nil {
		return
	}
	event, err := domain.NewRoomEvent(domain.EventTableMessages, op, msg.RoomID, msg)
	if err != nil {
		logrus.WithError(err).Error("Failed to build message event")
		return
	}
	if err := s.stateRepo.PublishEvent(ctx, event); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": msg.RoomID, "op": op, "message_id": msg.ID}).
			WithError(err).Warn("Failed to publish message event")
	}
}
