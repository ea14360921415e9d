// internal/game/room.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memematch/engine"
	"github.com/jason-s-yu/memematch/internal/models"
	"github.com/sirupsen/logrus"
)

// Phase is the coarse lifecycle state of a room.
type Phase string

const (
	PhaseWaiting    Phase = "WAITING"     // accepting players
	PhaseInProgress Phase = "IN_PROGRESS" // cards may be flipped
	PhaseFinished   Phase = "FINISHED"    // terminal; evicted after the grace period
)

// pendingFlip is a face-up card waiting to be settled against its partner.
type pendingFlip struct {
	CardID    int
	FlippedBy string // session that turned the card over
}

// Room represents the state and logic for a single multiplayer match.
// All mutable state is guarded by Mu.
type Room struct {
	ID           string
	HostID       string
	MaxPlayers   int
	TokenEntry   int
	WinnerReward int

	Phase            Phase
	RemainingSeconds int
	Deck             []engine.Card

	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	EndReason  EndReason
	WinnerID   string

	players map[string]*models.Player
	order   []string // join order

	pending      []pendingFlip
	resolveToken uint64      // bumped whenever pending is armed or discarded
	resolveTimer *time.Timer // reveal-delay callback, nil when idle

	countdown  *countdown
	evictTimer *time.Timer
	evicted    bool

	actionIndex int

	coord *Coordinator
	log   logrus.FieldLogger

	Mu sync.Mutex
}

// newRoom builds a WAITING room with the host seated first.
func newRoom(c *Coordinator, id string, host *models.Player, maxPlayers, tokenEntry int, deck []engine.Card) *Room {
	r := &Room{
		ID:               id,
		HostID:           host.SessionID,
		MaxPlayers:       maxPlayers,
		TokenEntry:       tokenEntry,
		WinnerReward:     tokenEntry * maxPlayers,
		Phase:            PhaseWaiting,
		RemainingSeconds: c.opts.GameDuration,
		Deck:             deck,
		CreatedAt:        time.Now(),
		players:          make(map[string]*models.Player),
		coord:            c,
		log:              c.log.WithField("room", id),
	}
	r.addPlayer(host)
	return r
}

// Players returns a copy of the seated players in join order.
func (r *Room) Players() []models.Player {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	out := make([]models.Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.players[id])
	}
	return out
}

// hasPlayer reports whether the session is seated.
// Assumes lock is held by caller.
func (r *Room) hasPlayer(sessionID string) bool {
	_, ok := r.players[sessionID]
	return ok
}

// addPlayer seats a player at the end of the join order.
// Assumes lock is held by caller.
func (r *Room) addPlayer(p *models.Player) {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	r.players[p.SessionID] = p
	r.order = append(r.order, p.SessionID)
}

// removePlayer unseats a player and notifies the rest of the room.
// A departing host ends any room that is not already finished.
// Assumes lock is held by caller.
func (r *Room) removePlayer(sessionID string) {
	if !r.hasPlayer(sessionID) {
		return
	}
	delete(r.players, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	isHost := sessionID == r.HostID
	r.logAction(sessionID, "player_leave", map[string]interface{}{"host": isHost})
	r.log.WithField("session", sessionID).Infof("Player left (host: %v).", isHost)

	if isHost && r.Phase != PhaseFinished {
		r.fireEvent(GameEvent{Type: EventHostLeft, RoomID: r.ID, PlayerID: sessionID})
		r.endGame(EndHostLeft)
		return
	}
	st := r.snapshot()
	r.fireEvent(GameEvent{Type: EventPlayerLeft, RoomID: r.ID, PlayerID: sessionID, State: &st})
}

// Start moves the room from WAITING to IN_PROGRESS and starts the countdown.
// Only the host may start, and at least two players must be seated.
func (r *Room) Start(requester string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if requester != r.HostID {
		return ErrNotHost
	}
	if len(r.order) < 2 {
		return ErrInsufficientPlayers
	}
	if r.Phase != PhaseWaiting {
		return ErrRoomAlreadyStarted
	}

	now := time.Now()
	r.Phase = PhaseInProgress
	r.StartedAt = &now
	r.RemainingSeconds = r.coord.opts.GameDuration
	r.pending = nil
	r.startCountdown()

	r.logAction(requester, "game_start", map[string]interface{}{"players": len(r.order)})
	r.log.Infof("Game started with %d players.", len(r.order))

	st := r.snapshot()
	r.fireEvent(GameEvent{Type: EventGameStarted, RoomID: r.ID, State: &st})
	return nil
}

// Flip turns a card face up on behalf of a seated player.
//
// Late or conflicting flips are silently dropped (not queued): the room is
// not in progress, the card is already face up or matched, or a pair is
// already waiting to be settled. Only an unknown card id is an error.
func (r *Room) Flip(requester string, cardID int) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseInProgress || !r.hasPlayer(requester) {
		return nil
	}
	idx := engine.CardIndex(r.Deck, cardID)
	if idx < 0 {
		return ErrInvalidCardID
	}
	card := &r.Deck[idx]
	if card.IsFlipped || card.IsMatched || len(r.pending) >= 2 {
		return nil
	}

	card.IsFlipped = true
	r.pending = append(r.pending, pendingFlip{CardID: cardID, FlippedBy: requester})
	r.logAction(requester, "card_flip", map[string]interface{}{"cardId": cardID})

	if len(r.pending) == 2 {
		r.scheduleResolution()
	}

	st := r.snapshot()
	r.fireEvent(GameEvent{Type: EventCardFlipped, RoomID: r.ID, CardID: &cardID, State: &st})
	return nil
}

// EndGame finishes the room for the given reason. Calling it again is a no-op.
func (r *Room) EndGame(reason EndReason) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.endGame(reason)
}

// Abort ends a room that has not finished yet.
func (r *Room) Abort() {
	r.EndGame(EndAborted)
}

// endGame finalizes the room: stops timers, picks the winner, broadcasts the
// result, hands it to the collaborators, and schedules eviction.
// Assumes lock is held by caller.
func (r *Room) endGame(reason EndReason) {
	if r.Phase == PhaseFinished {
		r.log.Debugf("EndGame(%s) called, but room is already finished.", reason)
		return
	}
	now := time.Now()
	r.Phase = PhaseFinished
	r.FinishedAt = &now
	r.EndReason = reason

	r.stopCountdown()
	r.cancelResolution()

	winner := r.selectWinner()
	var winnerID *string
	if winner != nil {
		r.WinnerID = winner.SessionID
		id := winner.SessionID
		winnerID = &id
	}

	finalScores := make([]PlayerState, 0, len(r.order))
	for _, id := range r.order {
		finalScores = append(finalScores, toPlayerState(r.players[id], r.HostID))
	}

	r.logAction("", "game_end", map[string]interface{}{
		"reason": string(reason),
		"winner": r.WinnerID,
		"reward": r.WinnerReward,
	})
	r.log.WithField("reason", reason).Infof("Game ended. Winner: %q.", r.WinnerID)

	reward := r.WinnerReward
	st := r.snapshot()
	r.fireEvent(GameEvent{
		Type:        EventGameEnded,
		RoomID:      r.ID,
		Winner:      winnerID,
		FinalScores: finalScores,
		Reward:      &reward,
		Reason:      reason,
		State:       &st,
	})

	r.persistResult(winner)
	r.payReward(winner)
	r.scheduleEviction()
}

// scheduleEviction removes the room from the registry after the grace period.
// Assumes lock is held by caller.
func (r *Room) scheduleEviction() {
	if r.evicted {
		return
	}
	grace := r.coord.opts.EvictionGrace
	id := r.ID
	r.evictTimer = time.AfterFunc(grace, func() {
		r.coord.Evict(id)
	})
}

// invalidate stops every scheduled callback before the room leaves the registry.
// Assumes lock is held by caller.
func (r *Room) invalidate() {
	r.evicted = true
	r.stopCountdown()
	r.cancelResolution()
	if r.evictTimer != nil {
		r.evictTimer.Stop()
		r.evictTimer = nil
	}
}

// fireEvent sends an event to every seated player.
// Assumes lock is held by caller.
func (r *Room) fireEvent(ev GameEvent) {
	for _, id := range r.order {
		r.coord.notify(id, ev)
	}
}

// persistResult hands the final room and participant records to the durable store.
// Store failures never affect the live room.
// Assumes lock is held by caller.
func (r *Room) persistResult(winner *models.Player) {
	store := r.coord.Store
	if store == nil {
		return
	}

	res := models.RoomResult{
		RoomID:        r.ID,
		HostSessionID: r.HostID,
		MaxPlayers:    r.MaxPlayers,
		PlayerCount:   len(r.order),
		TokenEntry:    r.TokenEntry,
		WinnerReward:  r.WinnerReward,
		EndReason:     string(r.EndReason),
		CreatedAt:     r.CreatedAt,
		StartedAt:     r.StartedAt,
		FinishedAt:    *r.FinishedAt,
	}
	if winner != nil {
		res.WinnerSessionID = winner.SessionID
		res.WinnerWallet = winner.WalletAddress
	}

	parts := make([]models.Participant, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		parts = append(parts, models.Participant{
			RoomID:        r.ID,
			SessionID:     p.SessionID,
			Username:      p.Username,
			WalletAddress: p.WalletAddress,
			Score:         p.Score,
			CompletedAt:   p.CompletedAt,
			IsWinner:      winner != nil && winner.SessionID == p.SessionID,
		})
	}

	log := r.log
	r.coord.bg.Add(1)
	go func() {
		defer r.coord.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.SaveRoomResult(ctx, res); err != nil {
			log.WithError(err).Error("Failed to save room result.")
			return
		}
		for _, p := range parts {
			if err := store.RecordParticipant(ctx, p); err != nil {
				log.WithError(err).WithField("session", p.SessionID).Error("Failed to record participant.")
			}
		}
	}()
}

// payReward sends the winner's reward from the treasury wallet.
// The transfer runs in the background; room logic never waits on it.
// Assumes lock is held by caller.
func (r *Room) payReward(winner *models.Player) {
	treasury := r.coord.Treasury
	if treasury == nil || winner == nil || r.WinnerReward <= 0 || winner.WalletAddress == "" {
		return
	}
	recipient := winner.WalletAddress
	sessionID := winner.SessionID
	amount := int64(r.WinnerReward)

	r.coord.bg.Add(1)
	go func() {
		defer r.coord.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		txID, err := treasury.SendTokens(ctx, recipient, amount)
		if err != nil {
			r.log.WithError(err).WithField("session", sessionID).Error("Reward payout failed.")
			return
		}
		r.Mu.Lock()
		r.logAction(sessionID, "reward_paid", map[string]interface{}{
			"recipient": recipient,
			"amount":    amount,
			"txId":      txID,
		})
		r.Mu.Unlock()
		r.log.WithField("session", sessionID).Infof("Paid %d tokens to %s (tx %s).", amount, recipient, txID)
	}()
}

// logAction sends room action details to the historian.
// Increments the internal action index for ordering.
// Assumes lock is held by caller.
func (r *Room) logAction(actorID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	historian := r.coord.Historian
	if historian == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.RoomActionRecord{
		ID:             uuid.New(),
		RoomID:         r.ID,
		ActionIndex:    r.actionIndex,
		ActorSessionID: actorID,
		ActionType:     actionType,
		ActionPayload:  payload,
		Timestamp:      time.Now().UnixMilli(),
	}

	r.coord.bg.Add(1)
	go func(rec models.RoomActionRecord) {
		defer r.coord.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := historian.PublishRoomAction(ctx, rec); err != nil {
			r.log.WithError(err).Errorf("Failed publishing action %d (%s).", rec.ActionIndex, rec.ActionType)
		}
	}(rec)
}
