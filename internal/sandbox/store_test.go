package sandbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "demo.json"))
	require.NoError(t, err)
	s.latency = 0
	return s
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(KeyProfile, Profile{FullName: "Demo User", Bio: "offline"}))

	var p Profile
	found, err := s.Get(KeyProfile, &p)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Demo User", p.FullName)
}

func TestStore_GetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var p Profile
	found, err := s.Get(KeyProfile, &p)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.json")

	s, err := Open(path)
	require.NoError(t, err)
	s.latency = 0
	require.NoError(t, s.Set(KeyPreferences, Preferences{DarkMode: true}))

	reopened, err := Open(path)
	require.NoError(t, err)
	reopened.latency = 0

	var prefs Preferences
	found, err := reopened.Get(KeyPreferences, &prefs)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, prefs.DarkMode)
}

func TestStore_CreateRoomAddsCreatorAsMember(t *testing.T) {
	s := newTestStore(t)

	room, err := s.CreateRoom("Demo Room", "offline only", "book", "Alice", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Len(t, room.InviteCode, 6)
	require.Len(t, room.Members, 1)
	assert.Equal(t, "Alice", room.Members[0].Name)

	rooms, err := s.Rooms()
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
}

func TestStore_JoinRoomEnforcesCapacity(t *testing.T) {
	s := newTestStore(t)

	room, err := s.CreateRoom("Tiny", "", "", "Alice", 2)
	require.NoError(t, err)

	_, err = s.JoinRoom(room.ID, "Bob")
	require.NoError(t, err)

	_, err = s.JoinRoom(room.ID, "Carol")
	assert.Error(t, err, "third member exceeds capacity 2")
}

func TestStore_JoinRoomSameNameIsNoOp(t *testing.T) {
	s := newTestStore(t)

	room, err := s.CreateRoom("Rejoin", "", "", "Alice", 2)
	require.NoError(t, err)

	joined, err := s.JoinRoom(room.ID, "Alice")
	require.NoError(t, err)
	assert.Len(t, joined.Members, 1)
}

func TestStore_AppendMessage(t *testing.T) {
	s := newTestStore(t)

	room, err := s.CreateRoom("Chatty", "", "", "Alice", 5)
	require.NoError(t, err)

	msg, err := s.AppendMessage(room.ID, room.Members[0].ID, "hello offline world")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	rooms, err := s.Rooms()
	require.NoError(t, err)
	require.Len(t, rooms[0].Messages, 1)
	assert.Equal(t, "hello offline world", rooms[0].Messages[0].Content)
}

func TestStore_SubscribersNotifiedOnSet(t *testing.T) {
	s := newTestStore(t)

	events, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Set(KeyProfile, Profile{FullName: "Notify Me"}))

	select {
	case ev := <-events:
		assert.Equal(t, KeyProfile, ev.Key)
		assert.Equal(t, "set", ev.Op)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestStore_CancelledSubscriberStopsReceiving(t *testing.T) {
	s := newTestStore(t)

	events, cancel := s.Subscribe()
	cancel()

	require.NoError(t, s.Set(KeyProfile, Profile{FullName: "Nobody"}))

	_, open := <-events
	assert.False(t, open, "channel closes on cancel")
}
