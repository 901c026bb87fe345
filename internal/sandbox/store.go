// Package sandbox is a self-contained offline room/member/message model
// backed by a local JSON file. It powers demo flows that never touch the
// database or Redis, and its data is never reconciled with them.
package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fixed keys inside the store file. Each key holds one JSON blob.
const (
	KeyRooms       = "demo_rooms"
	KeyProfile     = "demo_profile"
	KeyPreferences = "demo_preferences"
)

// simulatedLatency stands in for the round trip a networked store would
// add, so demo dialogs behave like the real ones.
const simulatedLatency = 150 * time.Millisecond

// Room is a demo room. IDs are uuids so demo data can never collide with
// database row ids.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IconName    string    `json:"icon_name"`
	MaxMembers  int       `json:"max_members"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
	Members     []Member  `json:"members"`
	Messages    []Message `json:"messages"`
}

// Member is a demo membership entry.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Message is a demo message entry.
type Message struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the demo user profile blob.
type Profile struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
}

// Preferences is the demo preferences blob.
type Preferences struct {
	DarkMode bool `json:"dark_mode"`
}

// Event notifies subscribers of a change to a key.
type Event struct {
	Key string
	Op  string // "set" or "delete"
}

// Store is a mutex-guarded JSON-file key/blob store with change
// notifications to in-process subscribers.
type Store struct {
	mu          sync.Mutex
	path        string
	data        map[string]json.RawMessage
	subscribers map[int]chan Event
	nextSubID   int
	latency     time.Duration
}

// Open loads (or creates) the store file at path.
func Open(path string) (*Store, error) {
	s := &Store{
		path:        path,
		data:        make(map[string]json.RawMessage),
		subscribers: make(map[int]chan Event),
		latency:     simulatedLatency,
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fresh store; file is written on first Set.
	case err != nil:
		return nil, fmt.Errorf("sandbox: read store file: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("sandbox: parse store file: %w", err)
		}
	}

	return s, nil
}

// Subscribe registers a change listener. The returned cancel func must be
// called to release it.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 16)
	s.subscribers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Get decodes the blob under key into out. Returns false when the key is
// absent.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	time.Sleep(s.latency)

	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("sandbox: decode key %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key, persists the file and notifies subscribers.
func (s *Store) Set(key string, value interface{}) error {
	time.Sleep(s.latency)

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("sandbox: encode key %q: %w", key, err)
	}

	s.mu.Lock()
	s.data[key] = raw
	err = s.persistLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Event{Key: key, Op: "set"})
	return nil
}

// Delete removes key, persists the file and notifies subscribers. Deleting
// an absent key is a no-op.
func (s *Store) Delete(key string) error {
	time.Sleep(s.latency)

	s.mu.Lock()
	_, existed := s.data[key]
	if existed {
		delete(s.data, key)
	}
	var err error
	if existed {
		err = s.persistLocked()
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if existed {
		s.notify(Event{Key: key, Op: "delete"})
	}
	return nil
}

// persistLocked writes the whole map to disk. Caller holds s.mu. The
// write goes through a temp file so a crash never truncates the store.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("sandbox: encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("sandbox: create store dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("sandbox: write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("sandbox: replace store file: %w", err)
	}
	return nil
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			logrus.WithFields(logrus.Fields{
				"subscriber": id,
				"key":        ev.Key,
			}).Warn("sandbox: subscriber channel full, event dropped")
		}
	}
}

// CreateRoom appends a demo room with a fresh uuid and invite code. The
// caller becomes its first member.
func (s *Store) CreateRoom(name, description, iconName, creatorName string, maxMembers int) (*Room, error) {
	if maxMembers <= 0 {
		maxMembers = 10
	}

	var rooms []Room
	if _, err := s.Get(KeyRooms, &rooms); err != nil {
		return nil, err
	}

	now := time.Now()
	room := Room{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		IconName:    iconName,
		MaxMembers:  maxMembers,
		InviteCode:  uuid.NewString()[:6],
		CreatedAt:   now,
		Members: []Member{{
			ID:       uuid.NewString(),
			Name:     creatorName,
			JoinedAt: now,
		}},
		Messages: []Message{},
	}
	rooms = append(rooms, room)

	if err := s.Set(KeyRooms, rooms); err != nil {
		return nil, err
	}
	return &room, nil
}

// JoinRoom adds a member to a demo room, enforcing capacity. Members are
// matched by name; rejoining under the same name is a no-op.
func (s *Store) JoinRoom(roomID, memberName string) (*Room, error) {
	var rooms []Room
	if _, err := s.Get(KeyRooms, &rooms); err != nil {
		return nil, err
	}

	for i := range rooms {
		if rooms[i].ID != roomID {
			continue
		}
		for _, m := range rooms[i].Members {
			if m.Name == memberName {
				return &rooms[i], nil
			}
		}
		if len(rooms[i].Members) >= rooms[i].MaxMembers {
			return nil, fmt.Errorf("sandbox: room %s is full", roomID)
		}
		rooms[i].Members = append(rooms[i].Members, Member{
			ID:       uuid.NewString(),
			Name:     memberName,
			JoinedAt: time.Now(),
		})
		if err := s.Set(KeyRooms, rooms); err != nil {
			return nil, err
		}
		return &rooms[i], nil
	}

	return nil, fmt.Errorf("sandbox: room %s not found", roomID)
}

// AppendMessage adds a message to a demo room on behalf of a member.
func (s *Store) AppendMessage(roomID, memberID, content string) (*Message, error) {
	var rooms []Room
	if _, err := s.Get(KeyRooms, &rooms); err != nil {
		return nil, err
	}

	for i := range rooms {
		if rooms[i].ID != roomID {
			continue
		}
		msg := Message{
			ID:        uuid.NewString(),
			MemberID:  memberID,
			Content:   content,
			CreatedAt: time.Now(),
		}
		rooms[i].Messages = append(rooms[i].Messages, msg)
		if err := s.Set(KeyRooms, rooms); err != nil {
			return nil, err
		}
		return &msg, nil
	}

	return nil, fmt.Errorf("sandbox: room %s not found", roomID)
}

// Rooms returns all demo rooms.
func (s *Store) Rooms() ([]Room, error) {
	var rooms []Room
	if _, err := s.Get(KeyRooms, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
