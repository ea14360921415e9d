// Package postgres provides a PostgreSQL-backed result store using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/memematch/internal/database"
	"github.com/jason-s-yu/memematch/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_rooms (
    id                TEXT PRIMARY KEY,
    host_session_id   TEXT NOT NULL,
    max_players       INTEGER NOT NULL,
    current_players   INTEGER NOT NULL,
    game_state        TEXT NOT NULL DEFAULT 'finished',
    end_reason        TEXT NOT NULL,
    token_entry       INTEGER NOT NULL,
    winner_reward     INTEGER NOT NULL,
    winner_session_id TEXT NOT NULL DEFAULT '',
    winner_wallet     TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL,
    started_at        TIMESTAMPTZ,
    finished_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS game_participants (
    id             BIGSERIAL PRIMARY KEY,
    room_id        TEXT NOT NULL REFERENCES game_rooms(id) ON DELETE CASCADE,
    session_id     TEXT NOT NULL,
    username       TEXT NOT NULL,
    wallet_address TEXT NOT NULL DEFAULT '',
    score          INTEGER NOT NULL DEFAULT 0,
    completed_at   TIMESTAMPTZ,
    is_winner      BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (room_id, session_id)
);

CREATE TABLE IF NOT EXISTS users (
    wallet_address TEXT PRIMARY KEY,
    username       TEXT NOT NULL,
    games_played   INTEGER NOT NULL DEFAULT 0,
    games_won      INTEGER NOT NULL DEFAULT 0
);
`

// Store persists room results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ database.Store = (*Store)(nil)

// Connect opens a pool against url, verifies it and ensures the schema exists.
func Connect(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// SaveRoomResult upserts the record of a finished room.
func (s *Store) SaveRoomResult(ctx context.Context, res models.RoomResult) error {
	if res.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_rooms (
		   id, host_session_id, max_players, current_players, game_state, end_reason,
		   token_entry, winner_reward, winner_session_id, winner_wallet,
		   created_at, started_at, finished_at
		 ) VALUES ($1, $2, $3, $4, 'finished', $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   current_players = EXCLUDED.current_players,
		   end_reason = EXCLUDED.end_reason,
		   winner_session_id = EXCLUDED.winner_session_id,
		   winner_wallet = EXCLUDED.winner_wallet,
		   started_at = EXCLUDED.started_at,
		   finished_at = EXCLUDED.finished_at`,
		res.RoomID, res.HostSessionID, res.MaxPlayers, res.PlayerCount, res.EndReason,
		res.TokenEntry, res.WinnerReward, res.WinnerSessionID, res.WinnerWallet,
		res.CreatedAt, res.StartedAt, res.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save room %s: %w", res.RoomID, err)
	}
	return nil
}

// RecordParticipant stores one player's result and updates the wallet's stats
// in a single transaction.
func (s *Store) RecordParticipant(ctx context.Context, p models.Participant) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO game_participants (
			   room_id, session_id, username, wallet_address, score, completed_at, is_winner
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (room_id, session_id) DO NOTHING`,
			p.RoomID, p.SessionID, p.Username, p.WalletAddress, p.Score, p.CompletedAt, p.IsWinner,
		)
		if err != nil {
			return fmt.Errorf("insert participant %s/%s: %w", p.RoomID, p.SessionID, err)
		}
		if tag.RowsAffected() == 0 || p.WalletAddress == "" {
			return nil
		}
		won := 0
		if p.IsWinner {
			won = 1
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO users (wallet_address, username, games_played, games_won)
			 VALUES ($1, $2, 1, $3)
			 ON CONFLICT (wallet_address) DO UPDATE SET
			   username = EXCLUDED.username,
			   games_played = users.games_played + 1,
			   games_won = users.games_won + EXCLUDED.games_won`,
			p.WalletAddress, p.Username, won,
		)
		if err != nil {
			return fmt.Errorf("update stats for %s: %w", p.WalletAddress, err)
		}
		return nil
	})
}

// RoomResult loads a finished room.
func (s *Store) RoomResult(ctx context.Context, roomID string) (models.RoomResult, error) {
	var res models.RoomResult
	err := s.pool.QueryRow(ctx,
		`SELECT id, host_session_id, max_players, current_players, end_reason, token_entry,
		        winner_reward, winner_session_id, winner_wallet, created_at, started_at, finished_at
		 FROM game_rooms WHERE id = $1`, roomID,
	).Scan(
		&res.RoomID, &res.HostSessionID, &res.MaxPlayers, &res.PlayerCount, &res.EndReason, &res.TokenEntry,
		&res.WinnerReward, &res.WinnerSessionID, &res.WinnerWallet, &res.CreatedAt, &res.StartedAt, &res.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoomResult{}, database.ErrNotFound
	}
	if err != nil {
		return models.RoomResult{}, fmt.Errorf("get room %s: %w", roomID, err)
	}
	return res, nil
}

// Participants lists a room's players in the order they were recorded.
func (s *Store) Participants(ctx context.Context, roomID string) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT room_id, session_id, username, wallet_address, score, completed_at, is_winner
		 FROM game_participants WHERE room_id = $1 ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants of %s: %w", roomID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Participant, error) {
		var p models.Participant
		err := row.Scan(&p.RoomID, &p.SessionID, &p.Username, &p.WalletAddress, &p.Score, &p.CompletedAt, &p.IsWinner)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan participants of %s: %w", roomID, err)
	}
	return out, nil
}

// UserStats loads the aggregate results for a wallet.
func (s *Store) UserStats(ctx context.Context, walletAddress string) (models.UserStats, error) {
	var st models.UserStats
	err := s.pool.QueryRow(ctx,
		`SELECT wallet_address, username, games_played, games_won FROM users WHERE wallet_address = $1`,
		walletAddress,
	).Scan(&st.WalletAddress, &st.Username, &st.GamesPlayed, &st.GamesWon)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserStats{}, database.ErrNotFound
	}
	if err != nil {
		return models.UserStats{}, fmt.Errorf("get stats for %s: %w", walletAddress, err)
	}
	return st, nil
}
