// Package engine implements the meme-match deck and pair rules.
//
// Everything here is pure: no locks, no clocks, no I/O. The service layer
// owns timing and concurrency and calls into this package to build decks,
// settle flipped pairs, and pick a winner.
package engine

// ---------------------------------------------------------------------------
// xorshift64 RNG, inline, no interface
// ---------------------------------------------------------------------------

type rng struct{ state uint64 }

// newRNG spreads the seed with one splitmix64 round so that small or
// sequential seeds still produce unrelated streams.
func newRNG(seed uint64) *rng {
	z := seed + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	if z == 0 {
		z = 1 // xorshift can't start at 0
	}
	return &rng{state: z}
}

func (r *rng) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// intn returns a uniformly distributed number in [0, n).
// Rejection sampling keeps the result unbiased for every n.
func (r *rng) intn(n uint64) uint64 {
	limit := ^uint64(0) - (^uint64(0) % n)
	for {
		v := r.next()
		if v < limit {
			return v % n
		}
	}
}

// ---------------------------------------------------------------------------
// Deck construction
// ---------------------------------------------------------------------------

// NewDeck builds a shuffled deck holding two cards for each of the first
// faceCount faces. The same seed always yields the same order.
func NewDeck(seed uint64, faceCount int) []Card {
	n := numFaces(faceCount)
	deck := make([]Card, 0, 2*n)
	for i := 0; i < n; i++ {
		deck = append(deck,
			Card{ID: 2 * i, Face: Faces[i]},
			Card{ID: 2*i + 1, Face: Faces[i]},
		)
	}

	// Fisher-Yates shuffle.
	r := newRNG(seed)
	for i := len(deck) - 1; i > 0; i-- {
		j := int(r.intn(uint64(i + 1)))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// CardIndex returns the position of the card with the given id, or -1.
func CardIndex(deck []Card, id int) int {
	for i := range deck {
		if deck[i].ID == id {
			return i
		}
	}
	return -1
}
