// Package database defines the durable store for finished rooms.
// Drivers live in the postgres and sqlite subpackages.
package database

import (
	"context"
	"errors"

	"github.com/jason-s-yu/memematch/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists room results and per-wallet stats.
type Store interface {
	SaveRoomResult(ctx context.Context, res models.RoomResult) error
	// RecordParticipant stores one player's result and bumps the wallet's stats.
	RecordParticipant(ctx context.Context, p models.Participant) error

	RoomResult(ctx context.Context, roomID string) (models.RoomResult, error)
	Participants(ctx context.Context, roomID string) ([]models.Participant, error)
	UserStats(ctx context.Context, walletAddress string) (models.UserStats, error)

	Close() error
}

// Noop discards writes and finds nothing. Used when no store is configured.
type Noop struct{}

func (Noop) SaveRoomResult(context.Context, models.RoomResult) error     { return nil }
func (Noop) RecordParticipant(context.Context, models.Participant) error { return nil }

func (Noop) RoomResult(context.Context, string) (models.RoomResult, error) {
	return models.RoomResult{}, ErrNotFound
}

func (Noop) Participants(context.Context, string) ([]models.Participant, error) {
	return nil, nil
}

func (Noop) UserStats(context.Context, string) (models.UserStats, error) {
	return models.UserStats{}, ErrNotFound
}

func (Noop) Close() error { return nil }
