package domain

import (
	"encoding/json"
	"fmt"
)

// Tables that emit change events.
const (
	EventTableMessages    = "messages"
	EventTableMemberships = "memberships"
)

// Event operations.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// RoomEvent is a change notification delivered on a room's channel when a
// row scoped to that room is inserted, updated or deleted. Events on one
// channel are delivered in commit order; there is no cross-room ordering.
type RoomEvent struct {
	Table   string          `json:"table"`
	Op      string          `json:"op"`
	RoomID  uint            `json:"room_id"`
	Payload json.RawMessage `json:"payload"`
}

// NewRoomEvent builds an event with the payload marshaled in place.
func NewRoomEvent(table, op string, roomID uint, payload interface{}) (RoomEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return RoomEvent{}, fmt.Errorf("marshal %s %s event payload: %w", table, op, err)
	}
	return RoomEvent{Table: table, Op: op, RoomID: roomID, Payload: raw}, nil
}

// Message decodes the payload as a Message. Valid only for message events.
func (e RoomEvent) Message() (Message, error) {
	var m Message
	if err := json.Unmarshal(e.Payload, &m); err != nil {
		return m, fmt.Errorf("unmarshal message event payload: %w", err)
	}
	return m, nil
}
