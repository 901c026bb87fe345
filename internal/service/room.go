package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"study-room/internal/domain"
	"study-room/internal/repository"

	"github.com/sirupsen/logrus"
)

const defaultMaxMembers = 10

// RoomService owns room creation, the directory listing, membership and
// invite resolution.
type RoomService struct {
	roomRepo       repository.RoomRepository
	membershipRepo repository.MembershipRepository
	stateRepo      repository.StateRepository
}

// NewRoomService creates a RoomService.
func NewRoomService(
	roomRepo repository.RoomRepository,
	membershipRepo repository.MembershipRepository,
	stateRepo repository.StateRepository,
) *RoomService {
	if roomRepo == nil || membershipRepo == nil {
		panic("repositories cannot be nil for RoomService")
	}
	return &RoomService{
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		stateRepo:      stateRepo,
	}
}

// CreateRoomInput carries the user-supplied room fields.
type CreateRoomInput struct {
	Name        string
	Description string
	IconName    string
	MaxMembers  int
}

// CreateRoom inserts a room with a server-generated unique slug and invite
// code.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, input CreateRoomInput) (*domain.Room, error) {
	logCtx := logrus.WithField("creator_id", creatorID)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("room name is required")
	}
	maxMembers := input.MaxMembers
	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}

	slug, err := s.generateUniqueSlug(ctx, name)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique slug")
		return nil, ErrInternalServer
	}
	inviteCode, err := s.generateUniqueInviteCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique invite code")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithFields(logrus.Fields{"slug": slug, "invite_code": inviteCode})

	room := &domain.Room{
		Slug:        slug,
		Name:        name,
		IconName:    input.IconName,
		Description: input.Description,
		Status:      domain.RoomStatusActive,
		MaxMembers:  maxMembers,
		InviteCode:  inviteCode,
		CreatorID:   creatorID,
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Both slug and code were checked for uniqueness just above;
			// a collision here lost a race and is not worth retrying.
			logCtx.WithError(err).Error("Failed to save new room: slug or invite code conflict")
			return nil, ErrInternalServer
		}
		logCtx.WithError(err).Error("Failed to save new room to database")
		return nil, ErrInternalServer
	}

	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	return room, nil
}

// ListRooms returns every room with its live member count. One count query
// is issued per room, matching the directory's fan-out read.
func (s *RoomService) ListRooms(ctx context.Context) ([]domain.RoomWithCount, error) {
	rooms, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, ErrInternalServer
	}

	listed := make([]domain.RoomWithCount, 0, len(rooms))
	for _, room := range rooms {
		count, err := s.membershipRepo.CountByRoom(ctx, room.ID)
		if err != nil {
			logrus.WithField("room_id", room.ID).WithError(err).Error("Failed to count members for room")
			return nil, ErrInternalServer
		}
		listed = append(listed, domain.RoomWithCount{Room: room, MemberCount: count})
	}
	return listed, nil
}

// FindRoomByID returns a room or ErrRoomNotFound.
func (s *RoomService) FindRoomByID(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("room_id", roomID).WithError(err).Error("Repository error finding room")
		return nil, ErrInternalServer
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// FindRoomBySlug returns the room behind a URL slug or ErrRoomNotFound.
func (s *RoomService) FindRoomBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	room, err := s.roomRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("slug", slug).WithError(err).Error("Repository error finding room by slug")
		return nil, ErrInternalServer
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// JoinRoom inserts a membership row for the user. Joining a room the user is
// already in is a no-op success; a duplicate-key failure from a concurrent
// join is treated the same way. Capacity is enforced before inserting a new
// row.
func (s *RoomService) JoinRoom(ctx context.Context, userID, roomID uint) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	room, err := s.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	count, err := s.membershipRepo.CountByRoom(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to count members before join")
		return nil, ErrInternalServer
	}
	if count >= int64(room.MaxMembers) {
		// Existing members may re-enter a full room; only new rows are
		// rejected.
		exists, err := s.membershipRepo.Exists(ctx, userID, roomID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check existing membership")
			return nil, ErrInternalServer
		}
		if exists {
			logCtx.Debug("User already joined; full room re-entry allowed")
			return room, nil
		}
		logCtx.Warn("Join rejected: room at capacity")
		return nil, ErrRoomFull
	}

	membership := &domain.Membership{UserID: userID, RoomID: roomID, JoinedAt: time.Now()}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Debug("Duplicate membership insert ignored: already joined")
			return room, nil
		}
		logCtx.WithError(err).Error("Failed to insert membership row")
		return nil, ErrInternalServer
	}

	s.publishMembershipEvent(ctx, domain.EventInsert, membership)
	logCtx.Info("User joined room")
	return room, nil
}

// JoinByInviteCode resolves the code to a room and joins it.
func (s *RoomService) JoinByInviteCode(ctx context.Context, userID uint, code string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logrus.WithField("invite_code", code).Warn("Join by invite failed: code unknown")
			return nil, ErrInvalidInviteCode
		}
		logrus.WithError(err).Warn("Join by invite failed: repository error")
		return nil, ErrInternalServer
	}
	return s.JoinRoom(ctx, userID, room.ID)
}

// LeaveRoom deletes the membership row. Callers on the teardown path treat
// failures as best-effort; the background sweep ages out any orphan.
func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	if err := s.membershipRepo.Delete(ctx, userID, roomID); err != nil {
		logCtx.WithError(err).Warn("Failed to delete membership row")
		return ErrInternalServer
	}

	s.publishMembershipEvent(ctx, domain.EventDelete, &domain.Membership{UserID: userID, RoomID: roomID})
	logCtx.Info("User left room")
	return nil
}

// ResolveInvite validates an invite link (room id + code) against the room
// record. A missing room or mismatched code both surface as an invalid
// invite; neither creates a membership row.
func (s *RoomService) ResolveInvite(ctx context.Context, roomID uint, code string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "invite_code": code})

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Invite resolution failed: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Repository error resolving invite")
		return nil, ErrInternalServer
	}
	if room.InviteCode != code {
		logCtx.Warn("Invite resolution failed: code mismatch")
		return nil, ErrInvalidInviteCode
	}
	return room, nil
}

// MemberCount returns the authoritative membership row count for a room.
func (s *RoomService) MemberCount(ctx context.Context, roomID uint) (int64, error) {
	count, err := s.membershipRepo.CountByRoom(ctx, roomID)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to count room members")
		return 0, ErrInternalServer
	}
	return count, nil
}

// publishMembershipEvent notifies room subscribers. The row write already
// committed, so a publish failure is logged and swallowed.
func (s *RoomService) publishMembershipEvent(ctx context.Context, op string, m *domain.Membership) {
	if s.stateRepo == nil {
		return
	}
	event, err := domain.NewRoomEvent(domain.EventTableMemberships, op, m.RoomID, m)
	if err != nil {
		logrus.WithError(err).Error("Failed to build membership event")
		return
	}
	if err := s.stateRepo.PublishEvent(ctx, event); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": m.RoomID, "op": op}).
			WithError(err).Warn("Failed to publish membership event")
	}
}

// --- private helpers ---

// generateUniqueSlug lowercases the name into a URL slug and appends a short
// random suffix on collision.
func (s *RoomService) generateUniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "room"
	}

	slug := base
	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		taken, err := s.roomRepo.IsSlugTaken(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("database error checking slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		suffix, err := randomToken(4)
		if err != nil {
			return "", err
		}
		slug = base + "-" + strings.ToLower(suffix)
	}
	return "", fmt.Errorf("failed to generate a unique slug after %d attempts", maxAttempts)
}

func (s *RoomService) generateUniqueInviteCode(ctx context.Context) (string, error) {
	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomToken(6)
		if err != nil {
			return "", err
		}
		taken, err := s.roomRepo.IsInviteCodeTaken(ctx, code)
		if err != nil {
			logrus.WithError(err).WithField("invite_code", code).Error("Database error checking invite code uniqueness")
			return "", fmt.Errorf("database error checking invite code: %w", err)
		}
		if !taken {
			return code, nil
		}
		logrus.WithField("invite_code", code).Warnf("Generated invite code already exists, retrying (attempt %d)", attempt+1)
	}
	return "", fmt.Errorf("failed to generate a unique invite code after %d attempts", 10)
}

// randomToken draws length characters from an unambiguous alphanumeric
// alphabet using crypto/rand.
func randomToken(length int) (string, error) {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b), nil
}

// slugify keeps lowercase alphanumerics and collapses everything else into
// single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
