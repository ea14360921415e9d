// internal/game/events.go
package game

import "errors"

// GameEventType represents the type of a room event sent over the session transport.
type GameEventType string

// Event types, matching the client protocol.
const (
	EventRoomCreated  GameEventType = "room-created"  // Private: creator receives the new room.
	EventPlayerJoined GameEventType = "player-joined" // Public: a player took a seat.
	EventGameStarted  GameEventType = "game-started"  // Public: host started the game.
	EventCardFlipped  GameEventType = "card-flipped"  // Public: a card was turned face up.
	EventGameUpdated  GameEventType = "game-updated"  // Public: a flipped pair was settled.
	EventRoomsList    GameEventType = "rooms-list"    // Private: joinable room summaries.
	EventPlayerLeft   GameEventType = "player-left"   // Public: a non-host player left.
	EventHostLeft     GameEventType = "host-left"     // Public: the host left; game-ended follows.
	EventTimerUpdate  GameEventType = "timer-update"  // Public: countdown tick.
	EventGameEnded    GameEventType = "game-ended"    // Public: final result, once per room.
	EventError        GameEventType = "error"         // Private: a request failed.
	EventConnected    GameEventType = "connected"     // Private: session id assigned to a new connection.
)

// EndReason records why a room reached FINISHED.
type EndReason string

const (
	EndCompleted EndReason = "completed" // every pair matched
	EndTimeout   EndReason = "timeout"   // countdown reached zero
	EndHostLeft  EndReason = "host_left" // host left or disconnected
	EndAborted   EndReason = "aborted"   // server shutdown or explicit abort
)

// GameEvent is the standard structure for room events sent to clients.
type GameEvent struct {
	Type     GameEventType `json:"type"`
	RoomID   string        `json:"roomId,omitempty"`
	PlayerID string        `json:"playerId,omitempty"` // Player that left.
	Player   *PlayerState  `json:"player,omitempty"`   // Player that joined.
	CardID   *int          `json:"cardId,omitempty"`   // Card that was flipped.
	Timer    *int          `json:"timer,omitempty"`    // Seconds remaining.

	// game-ended only. Winner is absent when nobody won.
	Winner      *string       `json:"winner,omitempty"`
	FinalScores []PlayerState `json:"finalScores,omitempty"`
	Reward      *int          `json:"reward,omitempty"`
	Reason      EndReason     `json:"reason,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"` // Room lists and errors.

	State *RoomState `json:"state,omitempty"` // Room snapshot after the change.
}

// ErrorEvent builds the private error event for a failed request.
func ErrorEvent(err error) GameEvent {
	code := "internal"
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return GameEvent{
		Type:    EventError,
		Payload: map[string]interface{}{"message": err.Error(), "code": code},
	}
}
