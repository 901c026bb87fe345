package hub

import (
	"encoding/json"
	"testing"

	"study-room/internal/domain"
	"study-room/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newOpenRoomHub builds a hub with one open room holding a single connected
// client, bypassing the register path so only the event handling is under
// test.
func newOpenRoomHub(stateRepo *mocks.StateRepository, roomID uint) (*Hub, *Client) {
	client := &Client{roomID: roomID, userID: 7, send: make(chan []byte, 4)}
	h := &Hub{
		messageChan: make(chan HubMessage, 16),
		rooms: map[uint]*roomState{
			roomID: {
				clients: map[*Client]bool{client: true},
				log:     NewMessageLog(),
			},
		},
		stateRepo: stateRepo,
	}
	return h, client
}

func mustMembershipEvent(t *testing.T, op string, roomID uint) domain.RoomEvent {
	t.Helper()
	m := domain.Membership{UserID: 7, RoomID: roomID}
	ev, err := domain.NewRoomEvent(domain.EventTableMemberships, op, roomID, m)
	require.NoError(t, err)
	return ev
}

// receivedEnvelope pops the next broadcast payload off the client's send
// channel and decodes it.
func receivedEnvelope(t *testing.T, client *Client) eventEnvelope {
	t.Helper()
	select {
	case payload := <-client.send:
		var envelope eventEnvelope
		require.NoError(t, json.Unmarshal(payload, &envelope))
		return envelope
	default:
		t.Fatal("expected a broadcast payload on the client channel")
		return eventEnvelope{}
	}
}

func TestHub_MembershipInsertAdjustsCounterUp(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	h, client := newOpenRoomHub(mockStateRepo, 10)

	mockStateRepo.On("AdjustMemberCount", mock.Anything, uint(10), int64(1)).
		Return(int64(3), nil).Once()

	ev := mustMembershipEvent(t, domain.EventInsert, 10)
	h.handleRoomEvent(HubMessage{Type: "event", RoomID: 10, Event: &ev})

	envelope := receivedEnvelope(t, client)
	require.NotNil(t, envelope.MemberCount)
	assert.Equal(t, int64(3), *envelope.MemberCount)
	assert.Equal(t, domain.EventInsert, envelope.Event.Op)
	mockStateRepo.AssertExpectations(t)
}

func TestHub_MembershipDeleteAdjustsCounterDown(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	h, client := newOpenRoomHub(mockStateRepo, 10)

	mockStateRepo.On("AdjustMemberCount", mock.Anything, uint(10), int64(-1)).
		Return(int64(2), nil).Once()

	ev := mustMembershipEvent(t, domain.EventDelete, 10)
	h.handleRoomEvent(HubMessage{Type: "event", RoomID: 10, Event: &ev})

	envelope := receivedEnvelope(t, client)
	require.NotNil(t, envelope.MemberCount)
	assert.Equal(t, int64(2), *envelope.MemberCount)
	mockStateRepo.AssertExpectations(t)
}

func TestHub_MembershipUnknownOpRefetchesCounter(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	h, client := newOpenRoomHub(mockStateRepo, 10)

	mockStateRepo.On("GetMemberCount", mock.Anything, uint(10)).
		Return(int64(5), nil).Once()

	ev := mustMembershipEvent(t, domain.EventUpdate, 10)
	h.handleRoomEvent(HubMessage{Type: "event", RoomID: 10, Event: &ev})

	envelope := receivedEnvelope(t, client)
	require.NotNil(t, envelope.MemberCount)
	assert.Equal(t, int64(5), *envelope.MemberCount)
	mockStateRepo.AssertNotCalled(t, "AdjustMemberCount", mock.Anything, mock.Anything, mock.Anything)
	mockStateRepo.AssertExpectations(t)
}

func TestHub_EventForClosedRoomIsDropped(t *testing.T) {
	mockStateRepo := new(mocks.StateRepository)
	h, _ := newOpenRoomHub(mockStateRepo, 10)

	// Room 99 was never opened; its event must not touch the counter.
	ev := mustMembershipEvent(t, domain.EventInsert, 99)
	h.handleRoomEvent(HubMessage{Type: "event", RoomID: 99, Event: &ev})

	mockStateRepo.AssertNotCalled(t, "AdjustMemberCount", mock.Anything, mock.Anything, mock.Anything)
}
