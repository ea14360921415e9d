package engine

// PairOutcome is the result of settling two face-up cards.
type PairOutcome uint8

const (
	OutcomeMismatch PairOutcome = iota // cards turned back over
	OutcomeMatch                       // cards stay face up for good
)

func (o PairOutcome) String() string {
	if o == OutcomeMatch {
		return "match"
	}
	return "mismatch"
}

// ResolvePair settles two flipped cards in place.
//   - Same face → both matched (and stay flipped).
//   - Different face → both turned back face down.
//
// Matched cards are never reverted.
func ResolvePair(a, b *Card) PairOutcome {
	if a.Face == b.Face {
		a.IsMatched, b.IsMatched = true, true
		a.IsFlipped, b.IsFlipped = true, true
		return OutcomeMatch
	}
	if !a.IsMatched {
		a.IsFlipped = false
	}
	if !b.IsMatched {
		b.IsFlipped = false
	}
	return OutcomeMismatch
}

// AllMatched reports whether every card in the deck has been matched.
// An empty deck is never considered complete.
func AllMatched(deck []Card) bool {
	if len(deck) == 0 {
		return false
	}
	for _, c := range deck {
		if !c.IsMatched {
			return false
		}
	}
	return true
}

// SelectWinner returns the index of the winning standing, or -1 for no winner.
//
// Rules:
//   - The highest score wins outright.
//   - Among players tied on the highest score, the one with the earliest
//     CompletedAt wins.
//   - If the tied players have no CompletedAt at all, there is no winner.
//
// Input order (join order) never decides the outcome.
func SelectWinner(standings []Standing) int {
	if len(standings) == 0 {
		return -1
	}

	best := standings[0].Score
	for _, s := range standings[1:] {
		if s.Score > best {
			best = s.Score
		}
	}

	var leaders []int
	for i, s := range standings {
		if s.Score == best {
			leaders = append(leaders, i)
		}
	}
	if len(leaders) == 1 {
		return leaders[0]
	}

	winner := -1
	for _, i := range leaders {
		at := standings[i].CompletedAt
		if at == nil {
			continue
		}
		if winner == -1 || at.Before(*standings[winner].CompletedAt) {
			winner = i
		}
	}
	return winner
}
