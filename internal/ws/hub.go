// Package ws carries the realtime transport: a hub of room-scoped sockets
// implementing the engine's broadcast primitive, and the inbound message
// handlers that turn client actions into persisted state changes.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// writeTimeout bounds a single socket write; slow consumers are dropped
// rather than allowed to stall a broadcast.
const writeTimeout = 5 * time.Second

// envelope is the wire frame for every outbound event.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// session is one connected socket, attached to at most one room and, once
// joined, to one player scope within it.
type session struct {
	id     uuid.UUID
	conn   *websocket.Conn
	room   string
	player string
	joined bool
}

type playerScope struct {
	room   string
	player string
}

// Hub tracks which sessions belong to which room and player scopes and
// fans events out to them. It implements the engine's Broadcaster.
type Hub struct {
	log *logrus.Logger

	mu      sync.Mutex
	rooms   map[string]map[*session]struct{}
	players map[playerScope]map[*session]struct{}
}

// NewHub builds an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log:     log,
		rooms:   make(map[string]map[*session]struct{}),
		players: make(map[playerScope]map[*session]struct{}),
	}
}

// attachRoom subscribes a session to room-wide events.
func (h *Hub) attachRoom(sess *session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*session]struct{})
	}
	h.rooms[room][sess] = struct{}{}
	sess.room = room
}

// attachPlayer subscribes a session to a player's private events.
func (h *Hub) attachPlayer(sess *session, room, player string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := playerScope{room: room, player: player}
	if h.players[key] == nil {
		h.players[key] = make(map[*session]struct{})
	}
	h.players[key][sess] = struct{}{}
	sess.player = player
	sess.joined = true
}

// detach removes a session from every scope. Called when the socket closes.
func (h *Hub) detach(sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.rooms[sess.room]; ok {
		delete(set, sess)
		if len(set) == 0 {
			delete(h.rooms, sess.room)
		}
	}
	key := playerScope{room: sess.room, player: sess.player}
	if set, ok := h.players[key]; ok {
		delete(set, sess)
		if len(set) == 0 {
			delete(h.players, key)
		}
	}
}

// ToRoom sends an event to every socket in a room.
func (h *Hub) ToRoom(ctx context.Context, room, event string, payload any) {
	h.send(ctx, h.snapshotRoom(room), room, event, payload)
}

// ToPlayer sends an event to every socket privately scoped to one player in
// a room.
func (h *Hub) ToPlayer(ctx context.Context, room, player, event string, payload any) {
	h.send(ctx, h.snapshotPlayer(room, player), room, event, payload)
}

func (h *Hub) snapshotRoom(room string) []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*session, 0, len(h.rooms[room]))
	for sess := range h.rooms[room] {
		out = append(out, sess)
	}
	return out
}

func (h *Hub) snapshotPlayer(room, player string) []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := playerScope{room: room, player: player}
	out := make([]*session, 0, len(h.players[key]))
	for sess := range h.players[key] {
		out = append(out, sess)
	}
	return out
}

func (h *Hub) send(ctx context.Context, sessions []*session, room, event string, payload any) {
	if len(sessions) == 0 {
		return
	}
	frame, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("ws: encoding event")
		return
	}
	for _, sess := range sessions {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := sess.conn.Write(wctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{
				"room":    room,
				"session": sess.id,
				"event":   event,
			}).Warn("ws: dropping unwritable session")
			h.detach(sess)
			sess.conn.Close(websocket.StatusPolicyViolation, "write failed")
		}
	}
}
