// internal/game/sync_state.go
package game

import (
	"github.com/jason-s-yu/memematch/engine"
	"github.com/jason-s-yu/memematch/internal/models"
)

// CardState represents a card for client synchronization.
// Face is only revealed while the card is face up.
type CardState struct {
	ID        int         `json:"id"`
	Face      engine.Face `json:"face,omitempty"`
	IsFlipped bool        `json:"isFlipped"`
	IsMatched bool        `json:"isMatched"`
}

// PlayerState represents a seated player as seen by every client.
type PlayerState struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	WalletAddress string `json:"walletAddress"`
	Score         int    `json:"score"`
	CompletedAt   *int64 `json:"completedAt,omitempty"` // unix millis
	IsHost        bool   `json:"isHost"`
}

// RoomState is a full snapshot of a room, identical for all observers.
type RoomState struct {
	RoomID       string        `json:"roomId"`
	HostID       string        `json:"hostId"`
	Phase        Phase         `json:"phase"`
	Cards        []CardState   `json:"cards"`
	Players      []PlayerState `json:"players"` // join order
	MaxPlayers   int           `json:"maxPlayers"`
	TokenEntry   int           `json:"tokenEntry"`
	WinnerReward int           `json:"winnerReward"`
	Timer        int           `json:"timer"`
	GameStarted  bool          `json:"gameStarted"`
	GameEnded    bool          `json:"gameEnded"`
	Winner       string        `json:"winner,omitempty"`
	EndReason    EndReason     `json:"endReason,omitempty"`
}

// toPlayerState converts a seated player for the wire.
func toPlayerState(p *models.Player, hostID string) PlayerState {
	ps := PlayerState{
		ID:            p.SessionID,
		Username:      p.Username,
		WalletAddress: p.WalletAddress,
		Score:         p.Score,
		IsHost:        p.SessionID == hostID,
	}
	if p.CompletedAt != nil {
		ms := p.CompletedAt.UnixMilli()
		ps.CompletedAt = &ms
	}
	return ps
}

// snapshot generates the current room state.
// Assumes lock is held by caller.
func (r *Room) snapshot() RoomState {
	st := RoomState{
		RoomID:       r.ID,
		HostID:       r.HostID,
		Phase:        r.Phase,
		Cards:        make([]CardState, len(r.Deck)),
		Players:      make([]PlayerState, 0, len(r.order)),
		MaxPlayers:   r.MaxPlayers,
		TokenEntry:   r.TokenEntry,
		WinnerReward: r.WinnerReward,
		Timer:        r.RemainingSeconds,
		GameStarted:  r.Phase != PhaseWaiting,
		GameEnded:    r.Phase == PhaseFinished,
		Winner:       r.WinnerID,
		EndReason:    r.EndReason,
	}

	for i, c := range r.Deck {
		cs := CardState{ID: c.ID, IsFlipped: c.IsFlipped, IsMatched: c.IsMatched}
		if c.FaceUp() {
			cs.Face = c.Face
		}
		st.Cards[i] = cs
	}

	for _, id := range r.order {
		st.Players = append(st.Players, toPlayerState(r.players[id], r.HostID))
	}
	return st
}

// State returns a snapshot of the room, safe to call from any goroutine.
func (r *Room) State() RoomState {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.snapshot()
}

// summary builds the lobby listing entry.
// Assumes lock is held by caller.
func (r *Room) summary() models.RoomSummary {
	host := "Unknown"
	if p, ok := r.players[r.HostID]; ok {
		host = p.Username
	}
	return models.RoomSummary{
		ID:           r.ID,
		HostUsername: host,
		PlayerCount:  len(r.order),
		MaxPlayers:   r.MaxPlayers,
		TokenEntry:   r.TokenEntry,
		WinnerReward: r.WinnerReward,
		CreatedAt:    r.CreatedAt,
	}
}
