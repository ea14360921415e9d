// internal/game/engine_adapter.go
package game

import (
	"time"

	"github.com/jason-s-yu/memematch/engine"
	"github.com/jason-s-yu/memematch/internal/models"
)

// scheduleResolution arms the reveal-delay callback that settles the two pending cards.
// The callback captures the current token; a discarded pair bumps the token so
// a late callback finds a mismatch and returns without touching the room.
// Assumes lock is held by caller.
func (r *Room) scheduleResolution() {
	r.resolveToken++
	token := r.resolveToken
	r.resolveTimer = time.AfterFunc(r.coord.opts.RevealDelay, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()

		if r.evicted || r.Phase != PhaseInProgress || r.resolveToken != token || len(r.pending) != 2 {
			r.log.WithField("token", token).Debug("Ignoring stale pair resolution.")
			return
		}
		r.resolvePending()
	})
}

// cancelResolution discards any pending pair and invalidates its callback.
// Cards already face up stay face up.
// Assumes lock is held by caller.
func (r *Room) cancelResolution() {
	r.resolveToken++
	if r.resolveTimer != nil {
		r.resolveTimer.Stop()
		r.resolveTimer = nil
	}
	r.pending = nil
}

// resolvePending settles the pending pair through the engine.
// A match scores one point for the player who flipped the second card;
// matching the final pair records their completion time and ends the room.
// Assumes lock is held by caller.
func (r *Room) resolvePending() {
	first, second := r.pending[0], r.pending[1]
	r.pending = nil
	r.resolveTimer = nil

	ia := engine.CardIndex(r.Deck, first.CardID)
	ib := engine.CardIndex(r.Deck, second.CardID)
	if ia < 0 || ib < 0 {
		r.log.Errorf("Pending cards %d/%d missing from deck.", first.CardID, second.CardID)
		return
	}

	outcome := engine.ResolvePair(&r.Deck[ia], &r.Deck[ib])
	mover := r.players[second.FlippedBy]
	if outcome == engine.OutcomeMatch && mover != nil {
		mover.Score++
	}
	r.logAction(second.FlippedBy, "pair_resolved", map[string]interface{}{
		"cards":   []int{first.CardID, second.CardID},
		"outcome": outcome.String(),
	})

	if outcome == engine.OutcomeMatch && engine.AllMatched(r.Deck) {
		if mover != nil {
			now := time.Now()
			mover.CompletedAt = &now
		}
		r.endGame(EndCompleted)
		return
	}

	st := r.snapshot()
	r.fireEvent(GameEvent{Type: EventGameUpdated, RoomID: r.ID, State: &st})
}

// selectWinner picks the winner among the seated players.
// Returns nil when no one qualifies or the game never started.
// Assumes lock is held by caller.
func (r *Room) selectWinner() *models.Player {
	if len(r.order) == 0 || r.StartedAt == nil {
		return nil
	}
	standings := make([]engine.Standing, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		standings = append(standings, engine.Standing{ID: p.SessionID, Score: p.Score, CompletedAt: p.CompletedAt})
	}
	idx := engine.SelectWinner(standings)
	if idx < 0 {
		return nil
	}
	return r.players[standings[idx].ID]
}
