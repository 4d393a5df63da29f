// Package websocket pushes voucher events to connected browsers. Connections
// join named rooms; the hub fans each published message out to the members of
// a room, or to every connection for broadcasts.
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// ErrUnknownClient is returned when joining a room with an unregistered connection
var ErrUnknownClient = errors.New("unknown websocket client")

// Client is a registered connection. Send must not block: it reports false
// when the message could not be queued. Close asks the connection to shut
// down and may be called more than once.
type Client interface {
	ID() string
	Send(msg []byte) bool
	Close()
}

// Message is the wire format of server pushes
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks connections and their room memberships in memory
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client
	rooms   map[string]map[string]struct{} // room -> connection IDs
	joined  map[string]map[string]struct{} // connection ID -> rooms
	closed  bool
	logger  *zap.Logger

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]Client),
		rooms:   make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a connection with no room memberships. A connection
// registered after Close is closed at once.
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	closed := h.closed
	if !closed {
		h.clients[c.ID()] = c
		h.joined[c.ID()] = make(map[string]struct{})
	}
	h.mu.Unlock()

	if closed {
		c.Close()
	}
}

// Close shuts down every registered connection. Connections unregister
// themselves as their read loops end.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	h.logger.Info("Websocket hub closed", zap.Int("connections", len(clients)))
}

// Unregister removes a connection and every membership it held
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.joined[connID] {
		h.removeMember(room, connID)
	}
	delete(h.joined, connID)
	delete(h.clients, connID)
}

// Join adds a connection to room. Joining twice is a no-op.
func (h *Hub) Join(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.joined[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClient, connID)
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}
	rooms[room] = struct{}{}
	return nil
}

// Leave removes a connection from room
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rooms, ok := h.joined[connID]; ok {
		delete(rooms, room)
	}
	h.removeMember(room, connID)
}

func (h *Hub) removeMember(room, connID string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Publish sends event to the members of room and returns the number of
// connections that accepted it
func (h *Hub) Publish(room, event string, payload interface{}) (int, error) {
	msg, err := encode(event, payload)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for connID := range h.rooms[room] {
		if h.deliver(h.clients[connID], event, msg) {
			sent++
		}
	}
	return sent, nil
}

// Broadcast sends event to every connection
func (h *Hub) Broadcast(event string, payload interface{}) (int, error) {
	msg, err := encode(event, payload)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, c := range h.clients {
		if h.deliver(c, event, msg) {
			sent++
		}
	}
	return sent, nil
}

// SendTo sends event to a single connection
func (h *Hub) SendTo(connID, event string, payload interface{}) bool {
	msg, err := encode(event, payload)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.clients[connID], event, msg)
}

func (h *Hub) deliver(c Client, event string, msg []byte) bool {
	if c == nil {
		return false
	}
	if !c.Send(msg) {
		h.dropped.Add(1)
		h.logger.Warn("Dropping websocket message, send buffer full",
			zap.String("conn_id", c.ID()),
			zap.String("event", event))
		return false
	}
	h.delivered.Add(1)
	return true
}

// Rooms returns the rooms a connection belongs to, sorted
func (h *Hub) Rooms(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.joined[connID]))
	for room := range h.joined[connID] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// RoomSize returns the number of connections in room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Stats reports hub counters for health checks
type Stats struct {
	Connections int   `json:"connections"`
	Rooms       int   `json:"rooms"`
	Admins      int   `json:"admins"`
	Delivered   int64 `json:"delivered"`
	Dropped     int64 `json:"dropped"`
}

// Stats returns a snapshot of the hub counters
func (h *Hub) Stats() Stats {
	admins := h.RoomSize(entity.RoomAdmin)

	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Connections: len(h.clients),
		Rooms:       len(h.rooms),
		Admins:      admins,
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
	}
}

func encode(event string, payload interface{}) ([]byte, error) {
	msg, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", event, err)
	}
	return msg, nil
}
