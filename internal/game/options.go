// internal/game/options.go
package game

import (
	"time"

	"github.com/jason-s-yu/memematch/engine"
)

// Options holds the room tunables shared by every room of a Coordinator.
type Options struct {
	GameDuration      int           // seconds on the clock when a game starts
	TickInterval      time.Duration // wall time per clock second
	RevealDelay       time.Duration // how long a flipped pair stays visible before it is settled
	EvictionGrace     time.Duration // how long a finished room stays in the registry
	FaceCount         int           // distinct faces per deck
	DefaultMaxPlayers int
	DefaultTokenEntry int
	MaxIDAttempts     int // room id collisions tolerated before giving up
}

// DefaultOptions returns the production tunables.
func DefaultOptions() Options {
	return Options{
		GameDuration:      120,
		TickInterval:      time.Second,
		RevealDelay:       time.Second,
		EvictionGrace:     30 * time.Second,
		FaceCount:         engine.DefaultFaceCount,
		DefaultMaxPlayers: 2,
		DefaultTokenEntry: 5,
		MaxIDAttempts:     8,
	}
}

// withDefaults fills zero or negative fields from DefaultOptions.
// DefaultTokenEntry is the exception: zero means free rooms and is kept,
// only a negative entry is replaced.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GameDuration <= 0 {
		o.GameDuration = d.GameDuration
	}
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if o.RevealDelay <= 0 {
		o.RevealDelay = d.RevealDelay
	}
	if o.EvictionGrace <= 0 {
		o.EvictionGrace = d.EvictionGrace
	}
	if o.FaceCount <= 0 {
		o.FaceCount = d.FaceCount
	}
	if o.DefaultMaxPlayers <= 0 {
		o.DefaultMaxPlayers = d.DefaultMaxPlayers
	}
	if o.DefaultTokenEntry < 0 {
		o.DefaultTokenEntry = d.DefaultTokenEntry
	}
	if o.MaxIDAttempts <= 0 {
		o.MaxIDAttempts = d.MaxIDAttempts
	}
	return o
}
