// Package transport maps websocket sessions onto the room coordinator.
// It owns no game rules and is the only package doing network I/O.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/memematch/internal/game"
	"github.com/jason-s-yu/memematch/internal/models"
	"github.com/sirupsen/logrus"
)

// Inbound message types.
const (
	ActionCreateRoom = "create-room"
	ActionJoinRoom   = "join-room"
	ActionStartGame  = "start-game"
	ActionFlipCard   = "flip-card"
	ActionGetRooms   = "get-rooms"
	ActionLeaveRoom  = "leave-room"
)

var (
	errBadRequest    = &game.Error{Code: "bad_request", Message: "Malformed message"}
	errUnknownAction = &game.Error{Code: "unknown_action", Message: "Unknown message type"}
)

// Options tunes the hub.
type Options struct {
	AllowedOrigins []string      // websocket origin patterns; empty allows same-origin only
	SendBuffer     int           // queued events per session before new ones are dropped
	WriteTimeout   time.Duration // per-message write deadline
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	return o
}

// ResultReader serves finished-room lookups. Satisfied by the database stores.
type ResultReader interface {
	RoomResult(ctx context.Context, roomID string) (models.RoomResult, error)
	Participants(ctx context.Context, roomID string) ([]models.Participant, error)
	UserStats(ctx context.Context, walletAddress string) (models.UserStats, error)
}

// HistoryReader serves a room's action log. Satisfied by the Redis historian.
type HistoryReader interface {
	RoomActions(ctx context.Context, roomID string) ([]models.RoomActionRecord, error)
}

// session is one websocket connection.
type session struct {
	id   string
	conn *websocket.Conn
	send chan game.GameEvent
}

// Hub routes session messages to the coordinator and fans events back out.
type Hub struct {
	coord *game.Coordinator
	log   logrus.FieldLogger
	opts  Options

	Results ResultReader  // optional
	History HistoryReader // optional

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHub wires the hub as the coordinator's event sink.
func NewHub(coord *game.Coordinator, opts Options, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Hub{
		coord:    coord,
		log:      log,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*session),
	}
	coord.NotifyFn = h.deliver
	return h
}

// deliver queues an event for a session without blocking.
// Called by rooms with their lock held.
func (h *Hub) deliver(sessionID string, ev game.GameEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	select {
	case s.send <- ev:
	default:
		h.log.WithFields(logrus.Fields{"session": sessionID, "event": ev.Type}).Warn("Send buffer full, dropping event.")
	}
}

func (h *Hub) register(conn *websocket.Conn) *session {
	s := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan game.GameEvent, h.opts.SendBuffer),
	}
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	return s
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
}

// SessionCount returns the number of open connections.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close drops every open connection.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.conn != nil {
			conns = append(conns, s.conn)
		}
	}
	h.mu.RUnlock()
	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "Server shutting down.")
	}
}

// ServeWS upgrades the request and runs the session until the socket closes.
// Closing the socket is handled exactly like leave-room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.opts.AllowedOrigins})
	if err != nil {
		h.log.WithError(err).Warn("WebSocket accept failed.")
		return
	}
	s := h.register(conn)
	log := h.log.WithField("session", s.id)
	log.Debug("Session connected.")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, s, log)

	h.deliver(s.id, game.GameEvent{Type: game.EventConnected, PlayerID: s.id})

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("Read failed.")
			}
			break
		}
		if typ != websocket.MessageText {
			h.deliver(s.id, game.ErrorEvent(errBadRequest))
			continue
		}
		var msg models.GameAction
		if err := json.Unmarshal(data, &msg); err != nil {
			h.deliver(s.id, game.ErrorEvent(errBadRequest))
			continue
		}
		h.handle(s, msg)
	}

	h.disconnect(s)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	log.Debug("Session closed.")
}

// writeLoop drains the session's queue onto the socket.
func (h *Hub) writeLoop(ctx context.Context, s *session, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.send:
			wctx, cancel := context.WithTimeout(ctx, h.opts.WriteTimeout)
			err := wsjson.Write(wctx, s.conn, ev)
			cancel()
			if err != nil {
				log.WithError(err).Debug("Write failed, closing session.")
				_ = s.conn.CloseNow()
				return
			}
		}
	}
}

// disconnect removes the session from its room and from the hub.
func (h *Hub) disconnect(s *session) {
	if err := h.coord.Leave(s.id); err != nil && !errors.Is(err, game.ErrNotInRoom) {
		h.log.WithError(err).WithField("session", s.id).Warn("Leave on disconnect failed.")
	}
	h.unregister(s)
}

type createRoomPayload struct {
	Username      string `json:"username"`
	WalletAddress string `json:"walletAddress"`
	MaxPlayers    int    `json:"maxPlayers"`
	TokenEntry    *int   `json:"tokenEntry"`
}

type joinRoomPayload struct {
	RoomID        string `json:"roomId"`
	Username      string `json:"username"`
	WalletAddress string `json:"walletAddress"`
}

type flipCardPayload struct {
	CardID *int `json:"cardId"`
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadRequest
	}
	return nil
}

// handle routes one inbound message. Failures go back to the sender only.
func (h *Hub) handle(s *session, msg models.GameAction) {
	var err error
	switch msg.ActionType {
	case ActionCreateRoom:
		var p createRoomPayload
		if err = decode(msg.Payload, &p); err == nil {
			_, err = h.coord.CreateRoom(
				game.SessionInfo{SessionID: s.id, Username: p.Username, WalletAddress: p.WalletAddress},
				game.RoomConfig{MaxPlayers: p.MaxPlayers, TokenEntry: p.TokenEntry},
			)
		}
	case ActionJoinRoom:
		var p joinRoomPayload
		if err = decode(msg.Payload, &p); err == nil {
			_, err = h.coord.JoinRoom(p.RoomID, game.SessionInfo{SessionID: s.id, Username: p.Username, WalletAddress: p.WalletAddress})
		}
	case ActionStartGame:
		err = h.coord.Start(s.id)
	case ActionFlipCard:
		var p flipCardPayload
		if err = decode(msg.Payload, &p); err == nil {
			if p.CardID == nil {
				err = errBadRequest
			} else {
				err = h.coord.Flip(s.id, *p.CardID)
			}
		}
	case ActionGetRooms:
		h.deliver(s.id, game.GameEvent{
			Type:    game.EventRoomsList,
			Payload: map[string]interface{}{"rooms": h.coord.ListJoinable()},
		})
	case ActionLeaveRoom:
		err = h.coord.Leave(s.id)
	default:
		err = errUnknownAction
	}

	if err != nil {
		h.log.WithFields(logrus.Fields{"session": s.id, "action": msg.ActionType}).WithError(err).Debug("Request rejected.")
		h.deliver(s.id, game.ErrorEvent(err))
	}
}
