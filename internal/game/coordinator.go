// internal/game/coordinator.go
package game

import (
	"context"
	"encoding/base32"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memematch/engine"
	"github.com/jason-s-yu/memematch/internal/models"
	"github.com/sirupsen/logrus"
)

// ResultStore persists finished rooms.
type ResultStore interface {
	SaveRoomResult(ctx context.Context, res models.RoomResult) error
	RecordParticipant(ctx context.Context, p models.Participant) error
}

// Historian records the ordered action log of each room.
type Historian interface {
	PublishRoomAction(ctx context.Context, rec models.RoomActionRecord) error
}

// Payer transfers reward tokens to a wallet address.
type Payer interface {
	SendTokens(ctx context.Context, recipient string, amount int64) (string, error)
}

// SessionInfo identifies the connected session behind a request.
type SessionInfo struct {
	SessionID     string
	Username      string
	WalletAddress string
}

// RoomConfig holds the host's settings for a new room.
type RoomConfig struct {
	MaxPlayers int  `json:"maxPlayers,omitempty"` // 0 selects the default
	TokenEntry *int `json:"tokenEntry,omitempty"` // nil selects the default
}

var roomIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Coordinator owns every live room and the session-to-room index.
// It is created once in main and shared by the transport.
type Coordinator struct {
	// NotifyFn delivers an event to one session. It is called with a room
	// lock held and must not block or call back into the Coordinator.
	NotifyFn func(sessionID string, ev GameEvent)

	Store     ResultStore // optional
	Historian Historian   // optional
	Treasury  Payer       // optional; pays the winner's reward

	// NewRoomID and Seed are replaceable for tests.
	NewRoomID func() string
	Seed      func() uint64

	opts Options
	log  logrus.FieldLogger

	mu          sync.Mutex
	rooms       map[string]*Room
	sessionRoom map[string]string
	closed      bool // set by Shutdown; no rooms are created or joined after

	bg sync.WaitGroup // persistence, payout and historian goroutines
}

// NewCoordinator creates an empty registry. A nil logger falls back to the standard logrus logger.
func NewCoordinator(opts Options, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		NewRoomID:   randomRoomID,
		Seed:        randomSeed,
		opts:        opts.withDefaults(),
		log:         log,
		rooms:       make(map[string]*Room),
		sessionRoom: make(map[string]string),
	}
}

// Options returns the tunables in effect.
func (c *Coordinator) Options() Options {
	return c.opts
}

// randomRoomID returns an 8 character id drawn from a random UUID.
func randomRoomID() string {
	u := uuid.New()
	return roomIDEncoding.EncodeToString(u[:5])
}

func randomSeed() uint64 {
	u := uuid.New()
	return binary.LittleEndian.Uint64(u[:8])
}

// notify delivers an event to a single session.
func (c *Coordinator) notify(sessionID string, ev GameEvent) {
	if c.NotifyFn == nil {
		c.log.WithField("event", ev.Type).Warn("NotifyFn is nil, cannot deliver event.")
		return
	}
	c.NotifyFn(sessionID, ev)
}

// CreateRoom opens a WAITING room with the session seated as host.
// A session still seated in a finished room is released from it first.
func (c *Coordinator) CreateRoom(s SessionInfo, cfg RoomConfig) (*Room, error) {
	maxPlayers := cfg.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = c.opts.DefaultMaxPlayers
	}
	if maxPlayers < 2 || maxPlayers > 4 {
		return nil, ErrInvalidRoomConfig
	}
	tokenEntry := c.opts.DefaultTokenEntry
	if cfg.TokenEntry != nil {
		if *cfg.TokenEntry < 0 {
			return nil, ErrInvalidRoomConfig
		}
		tokenEntry = *cfg.TokenEntry
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrShuttingDown
	}
	if err := c.releaseSession(s.SessionID); err != nil {
		return nil, err
	}
	id, err := c.allocateID()
	if err != nil {
		c.log.WithField("session", s.SessionID).Error("Room id space exhausted.")
		return nil, err
	}

	host := &models.Player{SessionID: s.SessionID, Username: s.Username, WalletAddress: s.WalletAddress}
	r := newRoom(c, id, host, maxPlayers, tokenEntry, engine.NewDeck(c.Seed(), c.opts.FaceCount))
	c.rooms[id] = r
	c.sessionRoom[s.SessionID] = id

	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.logAction(s.SessionID, "room_create", map[string]interface{}{
		"maxPlayers": maxPlayers,
		"tokenEntry": tokenEntry,
	})
	r.log.WithField("session", s.SessionID).Infof("Room created (max %d, entry %d).", maxPlayers, tokenEntry)

	st := r.snapshot()
	c.notify(s.SessionID, GameEvent{Type: EventRoomCreated, RoomID: id, State: &st})
	return r, nil
}

// allocateID draws room ids until one is free.
// Assumes c.mu is held by caller.
func (c *Coordinator) allocateID() (string, error) {
	for i := 0; i < c.opts.MaxIDAttempts; i++ {
		id := c.NewRoomID()
		if _, taken := c.rooms[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", ErrRoomIDExhausted
}

// releaseSession unseats a session from a finished room so it can move on.
// A session in a live room stays put and gets ErrAlreadyInRoom.
// Assumes c.mu is held by caller and no room lock is held.
func (c *Coordinator) releaseSession(sessionID string) error {
	id, ok := c.sessionRoom[sessionID]
	if !ok {
		return nil
	}
	r, ok := c.rooms[id]
	if !ok {
		delete(c.sessionRoom, sessionID)
		return nil
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.Phase != PhaseFinished {
		return ErrAlreadyInRoom
	}
	delete(c.sessionRoom, sessionID)
	r.removePlayer(sessionID)
	return nil
}

// joinable reports why a room cannot take another player.
// Assumes lock is held by caller.
func (r *Room) joinable() error {
	if len(r.order) >= r.MaxPlayers {
		return ErrRoomFull
	}
	if r.Phase != PhaseWaiting {
		return ErrRoomAlreadyStarted
	}
	return nil
}

// JoinRoom seats the session in a WAITING room with a free seat.
func (c *Coordinator) JoinRoom(roomID string, s SessionInfo) (*Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrShuttingDown
	}
	r, ok := c.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	r.Mu.Lock()
	err := r.joinable()
	r.Mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := c.releaseSession(s.SessionID); err != nil {
		return nil, err
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	// A timer or Start may have run while the room lock was released.
	if err := r.joinable(); err != nil {
		return nil, err
	}

	p := &models.Player{SessionID: s.SessionID, Username: s.Username, WalletAddress: s.WalletAddress}
	r.addPlayer(p)
	c.sessionRoom[s.SessionID] = roomID
	r.logAction(s.SessionID, "player_join", map[string]interface{}{"username": s.Username})
	r.log.WithField("session", s.SessionID).Infof("Player joined (%d/%d).", len(r.order), r.MaxPlayers)

	ps := toPlayerState(p, r.HostID)
	st := r.snapshot()
	r.fireEvent(GameEvent{Type: EventPlayerJoined, RoomID: roomID, Player: &ps, State: &st})
	return r, nil
}

// Leave removes the session from its room. A departing host ends the room.
func (c *Coordinator) Leave(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.sessionRoom[sessionID]
	if !ok {
		return ErrNotInRoom
	}
	delete(c.sessionRoom, sessionID)
	r, ok := c.rooms[id]
	if !ok {
		return nil
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.removePlayer(sessionID)
	return nil
}

// ListJoinable returns WAITING rooms with a free seat, oldest first.
func (c *Coordinator) ListJoinable() []models.RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.RoomSummary, 0, len(c.rooms))
	for _, r := range c.rooms {
		r.Mu.Lock()
		if r.joinable() == nil {
			out = append(out, r.summary())
		}
		r.Mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Evict drops a room and the session mappings that still point at it.
// Pending timers and resolutions are invalidated first. Safe to call twice.
func (c *Coordinator) Evict(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomID]
	if !ok {
		return
	}
	delete(c.rooms, roomID)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	for _, sid := range r.order {
		if c.sessionRoom[sid] == roomID {
			delete(c.sessionRoom, sid)
		}
	}
	r.invalidate()
	r.log.Info("Room evicted.")
}

// Room looks up a room by id.
func (c *Coordinator) Room(roomID string) (*Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	return r, ok
}

// RoomOf returns the room the session is seated in.
func (c *Coordinator) RoomOf(sessionID string) (*Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.sessionRoom[sessionID]
	if !ok {
		return nil, false
	}
	r, ok := c.rooms[id]
	return r, ok
}

// Start starts the game in the session's room.
func (c *Coordinator) Start(sessionID string) error {
	r, ok := c.RoomOf(sessionID)
	if !ok {
		return ErrNotInRoom
	}
	return r.Start(sessionID)
}

// Flip flips a card in the session's room.
func (c *Coordinator) Flip(sessionID string, cardID int) error {
	r, ok := c.RoomOf(sessionID)
	if !ok {
		return ErrNotInRoom
	}
	return r.Flip(sessionID, cardID)
}

// Shutdown aborts every live room, evicts all rooms, and waits for
// in-flight persistence and payouts to finish. CreateRoom and JoinRoom
// fail with ErrShuttingDown from then on. Safe to call twice.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	c.closed = true
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	for _, r := range rooms {
		r.Abort()
	}
	for _, r := range rooms {
		c.Evict(r.ID)
	}
	c.bg.Wait()
	c.log.Infof("Coordinator shut down, %d rooms closed.", len(rooms))
}
