package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/auth"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

const (
	writeTimeout   = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client message types
const (
	MsgJoinRoom  = "join-room"
	MsgLeaveRoom = "leave-room"
)

// Acknowledgement events pushed back to the requesting connection
const (
	EventJoined = "room:joined"
	EventLeft   = "room:left"
	EventError  = "error"
)

var errForbiddenRoom = errors.New("room not allowed")

type clientMsg struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// roomAck confirms a join or leave and lists the rooms the connection is in
type roomAck struct {
	Room  string   `json:"room"`
	Rooms []string `json:"rooms"`
}

type errorMsg struct {
	Message string `json:"message"`
	Room    string `json:"room,omitempty"`
}

// conn is a gorilla websocket connection registered in the hub
type conn struct {
	id     string
	wc     *websocket.Conn
	claims *auth.Claims
	hub    *Hub
	logger *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, wc *websocket.Conn, claims *auth.Claims, hub *Hub, logger *zap.Logger) *conn {
	return &conn{
		id:     id,
		wc:     wc,
		claims: claims,
		hub:    hub,
		logger: logger.With(zap.String("conn_id", id), zap.String("user_id", claims.UserID())),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *conn) ID() string { return c.id }

// Send queues msg without blocking. The send channel is never closed, so
// racing publishers cannot panic after disconnect.
func (c *conn) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write loop, which sends a close frame and drops the socket
func (c *conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// canJoin reports whether the connection's caller may join room
func canJoin(claims *auth.Claims, room string) bool {
	if claims.IsAdmin() {
		return true
	}
	return room == entity.UserRoom(claims.UserID())
}

// read processes client messages until the connection fails
func (c *conn) read() error {
	c.wc.SetReadLimit(maxMessageSize)
	c.wc.SetReadDeadline(time.Now().Add(pongWait))
	c.wc.SetPongHandler(func(string) error {
		return c.wc.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		op, data, err := c.wc.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return err
			}
			return nil // client disconnected
		}
		if op != websocket.TextMessage {
			continue
		}
		c.handle(data)
	}
}

func (c *conn) handle(data []byte) {
	var msg clientMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.SendTo(c.id, EventError, errorMsg{Message: "malformed message"})
		return
	}

	switch msg.Type {
	case MsgJoinRoom:
		if msg.Room == "" || !canJoin(c.claims, msg.Room) {
			c.logger.Warn("Room join refused", zap.String("room", msg.Room))
			c.hub.SendTo(c.id, EventError, errorMsg{Message: errForbiddenRoom.Error(), Room: msg.Room})
			return
		}
		if err := c.hub.Join(c.id, msg.Room); err != nil {
			c.hub.SendTo(c.id, EventError, errorMsg{Message: err.Error(), Room: msg.Room})
			return
		}
		c.logger.Debug("Joined room", zap.String("room", msg.Room))
		c.hub.SendTo(c.id, EventJoined, roomAck{Room: msg.Room, Rooms: c.hub.Rooms(c.id)})
	case MsgLeaveRoom:
		c.hub.Leave(c.id, msg.Room)
		c.hub.SendTo(c.id, EventLeft, roomAck{Room: msg.Room, Rooms: c.hub.Rooms(c.id)})
	default:
		c.hub.SendTo(c.id, EventError, errorMsg{Message: "unknown message type " + msg.Type})
	}
}

// write drains the send queue and keeps the connection alive with pings
func (c *conn) write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.wc.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.wc.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("Websocket write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.wc.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
