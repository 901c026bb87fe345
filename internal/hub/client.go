package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one websocket connection inside a room.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	roomID uint
	userID uint
	send   chan []byte
}

// NewClient creates a Client bound to a hub, connection and room.
func NewClient(hub *Hub, conn *websocket.Conn, roomID uint, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		roomID: roomID,
		userID: userID,
		send:   make(chan []byte, 256),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump pumps inbound websocket messages into the hub as commands. It
// runs in its own goroutine and requests unregistration on exit.
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := HubMessage{Type: "unregister", RoomID: c.roomID, UserID: c.userID, Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).Warn("Timeout sending unregister message to hub channel")
		}
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).Info("ReadPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}

		commandMsg := HubMessage{
			Type:    "command",
			RoomID:  c.roomID,
			UserID:  c.userID,
			Client:  c,
			RawData: message,
		}
		select {
		case c.hub.messageChan <- commandMsg:
		default:
			logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump pumps messages from the send channel to the websocket and keeps
// the connection alive with periodic pings. It runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).Info("WritePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel during unregister.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": c.userID, "room_id": c.roomID}).WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}

func (c *Client) RoomID() uint { return c.roomID }
func (c *Client) UserID() uint { return c.userID }
func (c *Client) CloseConn() { c.conn.Close() }
