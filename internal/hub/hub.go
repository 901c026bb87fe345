// Package hub coordinates the websocket clients of each open room: it
// fans change notifications from the room's event channel out to connected
// clients, keeps the live member counter in step, and routes inbound client
// commands to the services.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"study-room/internal/domain"
	"study-room/internal/repository"
	"study-room/internal/service"

	"github.com/sirupsen/logrus"
)

// Websocket timing constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// HubMessage is the envelope passed on the hub's internal channel.
type HubMessage struct {
	Type    string            // "register", "unregister", "command", "event"
	RoomID  uint
	UserID  uint
	Client  *Client           // register/unregister/command origin
	RawData []byte            // command only: raw websocket payload
	Event   *domain.RoomEvent // event only
}

// roomState is the per-room view owned by the hub goroutine.
type roomState struct {
	clients   map[*Client]bool
	log       *MessageLog
	cancelSub func()
}

// Hub maintains the set of active clients per room and processes all room
// traffic on a single goroutine, so no two goroutines mutate one room's
// state.
type Hub struct {
	messageChan chan HubMessage

	rooms   map[uint]*roomState
	roomsMu sync.RWMutex

	roomService    *service.RoomService
	messageService *service.MessageService
	stateRepo      repository.StateRepository
}

// NewHub creates a Hub.
func NewHub(roomService *service.RoomService, messageService *service.MessageService, stateRepo repository.StateRepository) *Hub {
	if roomService == nil {
		panic("RoomService cannot be nil for Hub")
	}
	if messageService == nil {
		panic("MessageService cannot be nil for Hub")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for Hub")
	}
	return &Hub{
		messageChan:    make(chan HubMessage, 512),
		rooms:          make(map[uint]*roomState),
		roomService:    roomService,
		messageService: messageService,
		stateRepo:      stateRepo,
	}
}

// Run is the hub's main event loop. It must run in its own goroutine.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "event":
			h.handleRoomEvent(msg)
		case "command":
			// Command handling hits the database; keep the loop free.
			go h.handleClientCommand(msg)
		default:
			log.Warnf("Received unknown message type: %s from user %d in room %d", msg.Type, msg.UserID, msg.RoomID)
		}
	}
	log.Info("Hub is shutting down...")
}

// QueueMessage puts a message on the hub's queue without blocking. Returns
// false when the queue is full.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"room_id":      msg.RoomID,
			"user_id":      msg.UserID,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// StopAllSubscriptions tears down every room's event subscription. Called
// during shutdown before the message channel closes.
func (h *Hub) StopAllSubscriptions() {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for roomID, rs := range h.rooms {
		if rs.cancelSub != nil {
			rs.cancelSub()
			rs.cancelSub = nil
		}
		logrus.WithField("room_id", roomID).Debug("Room subscription stopped")
	}
}

// registerClient adds the client to its room, opening the room state and its
// event subscription when this is the room's first client.
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	roomID := client.RoomID()
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": client.UserID(),
		"action":  "registerClient",
	})

	h.roomsMu.Lock()
	rs, ok := h.rooms[roomID]
	if !ok {
		rs = &roomState{
			clients: make(map[*Client]bool),
			log:     NewMessageLog(),
		}
		h.rooms[roomID] = rs
		h.openRoom(roomID, rs, logCtx)
	}
	rs.clients[client] = true
	snapshot := snapshotMessage{
		Type:     "history",
		Messages: rs.log.Messages(),
	}
	h.roomsMu.Unlock()
	logCtx.Info("Client registered to hub")

	go h.sendInitialState(client, snapshot)
}

// openRoom seeds the room's message log and live member counter from the
// database and starts the event subscription. Must be called with roomsMu
// held; the subscription forwards events back through the hub channel, so
// nothing here re-enters room state.
func (h *Hub) openRoom(roomID uint, rs *roomState, logCtx *logrus.Entry) {
	ctx := context.Background()

	history, err := h.messageService.History(ctx, roomID, 0)
	if err != nil {
		logCtx.WithError(err).Error("Failed to seed room message log")
	} else {
		rs.log.Seed(history)
	}

	// Reconcile the live counter with the authoritative row count once per
	// subscription start; after this it only moves by event deltas.
	count, err := h.roomService.MemberCount(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to read member count for counter seed")
	} else if err := h.stateRepo.SetMemberCount(ctx, roomID, count); err != nil {
		logCtx.WithError(err).Error("Failed to seed live member counter")
	}

	events, cancel, err := h.stateRepo.SubscribeRoom(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to subscribe to room events")
		return
	}
	rs.cancelSub = cancel

	go func() {
		for event := range events {
			ev := event
			h.QueueMessage(HubMessage{Type: "event", RoomID: ev.RoomID, Event: &ev})
		}
	}()
	logCtx.Info("Room opened, event subscription started")
}

// unregisterClient removes the client, attempts the best-effort membership
// delete, and closes the room when it empties.
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	roomID := client.RoomID()
	userID := client.UserID()
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
		"action":  "unregisterClient",
	})

	h.roomsMu.Lock()
	rs, roomExists := h.rooms[roomID]
	if roomExists {
		if _, clientExists := rs.clients[client]; clientExists {
			delete(rs.clients, client)
			close(client.send)

			if len(rs.clients) == 0 {
				if rs.cancelSub != nil {
					rs.cancelSub()
				}
				delete(h.rooms, roomID)
				logCtx.Info("Room empty, closed and unsubscribed")
			}
		} else {
			logCtx.Warn("Client not found in room during unregister")
		}
	} else {
		logCtx.Warn("Room not found during client unregister")
	}
	h.roomsMu.Unlock()

	// Best-effort teardown of the membership row. On failure the row stays
	// orphaned until the background sweep ages it out.
	go func() {
		if err := h.roomService.LeaveRoom(context.Background(), userID, roomID); err != nil {
			logCtx.WithError(err).Warn("Best-effort membership delete failed on disconnect")
		}
	}()
	logCtx.Info("Client unregistered from hub")
}

// handleRoomEvent folds a change notification into the room state and fans
// it out to every connected client, the originator included: no client
// applied the write optimistically, so the echo is what makes it visible.
func (h *Hub) handleRoomEvent(msg HubMessage) {
	if msg.Event == nil {
		return
	}
	event := *msg.Event
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": event.RoomID,
		"table":   event.Table,
		"op":      event.Op,
	})

	h.roomsMu.Lock()
	rs, ok := h.rooms[event.RoomID]
	if !ok {
		h.roomsMu.Unlock()
		return // room closed while the event was in flight
	}

	envelope := eventEnvelope{Type: "event", Event: event}
	switch event.Table {
	case domain.EventTableMessages:
		rs.log.Apply(event)
	case domain.EventTableMemberships:
		count, err := h.adjustMemberCount(event)
		if err != nil {
			logCtx.WithError(err).Error("Failed to adjust live member counter")
		} else {
			envelope.MemberCount = &count
		}
	}
	h.roomsMu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal event envelope")
		return
	}
	h.broadcast(event.RoomID, payload)
}

// adjustMemberCount applies the +1/-1 delta for a membership event. The
// count is never refetched from the database on the event path.
func (h *Hub) adjustMemberCount(event domain.RoomEvent) (int64, error) {
	var delta int64
	switch event.Op {
	case domain.EventInsert:
		delta = 1
	case domain.EventDelete:
		delta = -1
	default:
		return h.stateRepo.GetMemberCount(context.Background(), event.RoomID)
	}
	return h.stateRepo.AdjustMemberCount(context.Background(), event.RoomID, delta)
}

// clientCommand is the inbound websocket payload.
type clientCommand struct {
	Action    string `json:"action"` // "send", "edit", "delete"
	Content   string `json:"content,omitempty"`
	MessageID uint   `json:"message_id,omitempty"`
}

// handleClientCommand routes a raw inbound websocket message to the write
// paths. Failures are reported only to the issuing client; the room view is
// never mutated here, it follows from the echoed event.
func (h *Hub) handleClientCommand(msg HubMessage) {
	ctx := context.Background()
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": msg.RoomID,
		"user_id": msg.UserID,
	})

	var cmd clientCommand
	if err := json.Unmarshal(msg.RawData, &cmd); err != nil {
		logCtx.WithError(err).Warn("Undecodable client command")
		h.sendError(msg.Client, "malformed command")
		return
	}

	var err error
	switch cmd.Action {
	case "send":
		_, err = h.messageService.Send(ctx, msg.RoomID, msg.UserID, cmd.Content)
	case "edit":
		_, err = h.messageService.Edit(ctx, cmd.MessageID, msg.UserID, cmd.Content)
	case "delete":
		err = h.messageService.Delete(ctx, cmd.MessageID, msg.UserID)
	default:
		logCtx.Warnf("Unknown client command action: %s", cmd.Action)
		h.sendError(msg.Client, "unknown action")
		return
	}

	if err != nil {
		logCtx.WithField("command", cmd.Action).WithError(err).Warn("Client command failed")
		h.sendError(msg.Client, err.Error())
	}
}

// eventEnvelope wraps a change notification for delivery to clients.
// MemberCount rides along on membership events so clients can display the
// adjusted value without a query.
type eventEnvelope struct {
	Type        string           `json:"type"`
	Event       domain.RoomEvent `json:"event"`
	MemberCount *int64           `json:"member_count,omitempty"`
}

// snapshotMessage is the initial history payload sent to a new client.
type snapshotMessage struct {
	Type        string           `json:"type"`
	Messages    []domain.Message `json:"messages"`
	MemberCount int64            `json:"member_count"`
}

// sendInitialState delivers the room's recent history and live member count
// to a newly registered client.
func (h *Hub) sendInitialState(client *Client, snapshot snapshotMessage) {
	if client == nil {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id":   client.RoomID(),
		"user_id":   client.UserID(),
		"operation": "sendInitialState",
	})

	count, err := h.stateRepo.GetMemberCount(context.Background(), client.RoomID())
	if err != nil {
		logCtx.WithError(err).Warn("Failed to read live member count for snapshot")
	}
	snapshot.MemberCount = count

	payload, err := json.Marshal(snapshot)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal history snapshot")
		return
	}

	select {
	case client.send <- payload:
		logCtx.WithField("messages", len(snapshot.Messages)).Debug("History snapshot sent to client channel")
	default:
		logCtx.Warn("Client send channel full when sending snapshot, message dropped")
	}
}

// sendError reports a failure back to one client.
func (h *Hub) sendError(client *Client, message string) {
	if client == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{"type": "error", "message": message})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

// broadcast delivers a payload to every client of a room.
func (h *Hub) broadcast(roomID uint, payload []byte) {
	h.roomsMu.RLock()
	rs, ok := h.rooms[roomID]
	clientsToSend := make([]*Client, 0)
	if ok {
		for client := range rs.clients {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.roomsMu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	for _, client := range clientsToSend {
		// Non-blocking send so one slow client cannot stall the room.
		select {
		case client.send <- payload:
		default:
			logrus.WithFields(logrus.Fields{
				"room_id":          roomID,
				"receiver_user_id": client.UserID(),
			}).Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}
