// internal/models/models.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Player is a connected session seated in a room.
// Created on join, removed on leave/disconnect or when the room is evicted.
type Player struct {
	SessionID     string
	Username      string
	WalletAddress string
	Score         int
	CompletedAt   *time.Time // set when this player matched the final pair
	JoinedAt      time.Time
}

// RoomSummary is the lobby listing entry for a joinable room.
type RoomSummary struct {
	ID           string    `json:"id"`
	HostUsername string    `json:"hostUsername"`
	PlayerCount  int       `json:"playerCount"`
	MaxPlayers   int       `json:"maxPlayers"`
	TokenEntry   int       `json:"tokenEntry"`
	WinnerReward int       `json:"winnerReward"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GameAction is an inbound client message before routing.
type GameAction struct {
	ActionType string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// RoomResult is the durable record of a finished room.
type RoomResult struct {
	RoomID          string     `json:"roomId"`
	HostSessionID   string     `json:"hostSessionId"`
	MaxPlayers      int        `json:"maxPlayers"`
	PlayerCount     int        `json:"playerCount"`
	TokenEntry      int        `json:"tokenEntry"`
	WinnerReward    int        `json:"winnerReward"`
	EndReason       string     `json:"endReason"`
	WinnerSessionID string     `json:"winnerSessionId,omitempty"` // empty when there is no winner
	WinnerWallet    string     `json:"winnerWallet,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"` // nil if the room never started
	FinishedAt      time.Time  `json:"finishedAt"`
}

// Participant is the durable record of one player's result in a room.
type Participant struct {
	RoomID        string     `json:"roomId"`
	SessionID     string     `json:"sessionId"`
	Username      string     `json:"username"`
	WalletAddress string     `json:"walletAddress"`
	Score         int        `json:"score"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	IsWinner      bool       `json:"isWinner"`
}

// RoomActionRecord is one entry of a room's action history.
type RoomActionRecord struct {
	ID             uuid.UUID              `json:"id"`
	RoomID         string                 `json:"roomId"`
	ActionIndex    int                    `json:"actionIndex"`
	ActorSessionID string                 `json:"actorSessionId,omitempty"`
	ActionType     string                 `json:"actionType"`
	ActionPayload  map[string]interface{} `json:"actionPayload"`
	Timestamp      int64                  `json:"timestamp"` // unix millis
}

// UserStats aggregates a wallet's results across rooms.
type UserStats struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
	GamesPlayed   int    `json:"gamesPlayed"`
	GamesWon      int    `json:"gamesWon"`
}
