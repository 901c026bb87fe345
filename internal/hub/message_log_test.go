package hub

import (
	"testing"

	"study-room/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, op string, msg domain.Message) domain.RoomEvent {
	t.Helper()
	ev, err := domain.NewRoomEvent(domain.EventTableMessages, op, msg.RoomID, msg)
	require.NoError(t, err)
	return ev
}

func TestMessageLog_InsertAppendsInOrder(t *testing.T) {
	log := NewMessageLog()

	log.Apply(mustEvent(t, domain.EventInsert, domain.Message{ID: 1, RoomID: 10, Content: "first"}))
	log.Apply(mustEvent(t, domain.EventInsert, domain.Message{ID: 2, RoomID: 10, Content: "second"}))
	log.Apply(mustEvent(t, domain.EventInsert, domain.Message{ID: 3, RoomID: 10, Content: "third"}))

	msgs := log.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, uint(1), msgs[0].ID)
	assert.Equal(t, uint(2), msgs[1].ID)
	assert.Equal(t, uint(3), msgs[2].ID)
}

func TestMessageLog_SeedOverlapDoesNotDuplicate(t *testing.T) {
	log := NewMessageLog()
	log.Seed([]domain.Message{
		{ID: 1, RoomID: 10, Content: "first"},
		{ID: 2, RoomID: 10, Content: "second"},
	})

	// The event stream replays an insert that the history seed already
	// covered, plus one genuinely new message.
	log.Apply(mustEvent(t, domain.EventInsert, domain.Message{ID: 2, RoomID: 10, Content: "second"}))
	log.Apply(mustEvent(t, domain.EventInsert, domain.Message{ID: 3, RoomID: 10, Content: "third"}))

	msgs := log.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, uint(2), msgs[1].ID)
	assert.Equal(t, uint(3), msgs[2].ID)
}

func TestMessageLog_UpdateReplacesInPlace(t *testing.T) {
	log := NewMessageLog()
	log.Seed([]domain.Message{
		{ID: 1, RoomID: 10, Content: "first"},
		{ID: 2, RoomID: 10, Content: "typo"},
		{ID: 3, RoomID: 10, Content: "third"},
	})

	log.Apply(mustEvent(t, domain.EventUpdate, domain.Message{ID: 2, RoomID: 10, Content: "fixed"}))

	msgs := log.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "fixed", msgs[1].Content)
	assert.Equal(t, uint(2), msgs[1].ID, "update must keep the entry's position")
}

func TestMessageLog_UpdateUnknownIDIgnored(t *testing.T) {
	log := NewMessageLog()
	log.Seed([]domain.Message{{ID: 1, RoomID: 10, Content: "first"}})

	log.Apply(mustEvent(t, domain.EventUpdate, domain.Message{ID: 99, RoomID: 10, Content: "ghost"}))

	require.Equal(t, 1, log.Len())
}

func TestMessageLog_DeleteRemovesExactlyOne(t *testing.T) {
	log := NewMessageLog()
	log.Seed([]domain.Message{
		{ID: 1, RoomID: 10, Content: "first"},
		{ID: 2, RoomID: 10, Content: "doomed"},
		{ID: 3, RoomID: 10, Content: "third"},
	})

	log.Apply(mustEvent(t, domain.EventDelete, domain.Message{ID: 2, RoomID: 10}))

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, uint(1), msgs[0].ID)
	assert.Equal(t, uint(3), msgs[1].ID)

	// Deleting again is a no-op.
	log.Apply(mustEvent(t, domain.EventDelete, domain.Message{ID: 2, RoomID: 10}))
	assert.Equal(t, 2, log.Len())
}

func TestMessageLog_IgnoresMembershipEvents(t *testing.T) {
	log := NewMessageLog()

	ev, err := domain.NewRoomEvent(domain.EventTableMemberships, domain.EventInsert, 10,
		domain.Membership{ID: 1, UserID: 7, RoomID: 10})
	require.NoError(t, err)
	log.Apply(ev)

	assert.Equal(t, 0, log.Len())
}

func TestMessageLog_TrimKeepsNewest(t *testing.T) {
	log := NewMessageLog()

	for i := 1; i <= maxLogEntries+10; i++ {
		log.Apply(mustEvent(t, domain.EventInsert, domain.Message{ID: uint(i), RoomID: 10}))
	}

	msgs := log.Messages()
	require.Len(t, msgs, maxLogEntries)
	assert.Equal(t, uint(11), msgs[0].ID)
	assert.Equal(t, uint(maxLogEntries+10), msgs[len(msgs)-1].ID)
}
