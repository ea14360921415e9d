// internal/game/errors.go
package game

// Error is a room-level failure reported to the session that caused it.
// It is never broadcast and never ends the room.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Errors returned by Coordinator and Room operations. Compare with errors.Is.
var (
	ErrRoomNotFound        = &Error{Code: "room_not_found", Message: "Room not found"}
	ErrRoomFull            = &Error{Code: "room_full", Message: "Room is full"}
	ErrRoomAlreadyStarted  = &Error{Code: "room_already_started", Message: "Game already started"}
	ErrNotHost             = &Error{Code: "not_host", Message: "Only the host can start the game"}
	ErrInsufficientPlayers = &Error{Code: "insufficient_players", Message: "At least 2 players are required to start"}
	ErrInvalidCardID       = &Error{Code: "invalid_card_id", Message: "Card does not exist"}
	ErrNotInRoom           = &Error{Code: "not_in_room", Message: "You are not in a room"}
	ErrAlreadyInRoom       = &Error{Code: "already_in_room", Message: "You are already in a room"}
	ErrInvalidRoomConfig   = &Error{Code: "invalid_room_config", Message: "Room settings are out of range"}
	ErrRoomIDExhausted     = &Error{Code: "room_id_exhausted", Message: "Could not allocate a room id"}
	ErrShuttingDown        = &Error{Code: "shutting_down", Message: "Server is shutting down"}
)
