// Package sqlite provides a SQLite-backed result store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jason-s-yu/memematch/internal/database"
	"github.com/jason-s-yu/memematch/internal/database/sqlite/migrations"
	"github.com/jason-s-yu/memematch/internal/models"
	_ "modernc.org/sqlite"
)

// Store persists room results in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ database.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Open opens a SQLite result store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// applyMigrations executes each embedded .sql file at most once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range files {
		var count int
		if err := sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRoomResult inserts or replaces the record of a finished room.
func (s *Store) SaveRoomResult(ctx context.Context, res models.RoomResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(res.RoomID) == "" {
		return fmt.Errorf("room id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_rooms (
		   id, host_session_id, max_players, current_players, game_state, end_reason,
		   token_entry, winner_reward, winner_session_id, winner_wallet,
		   created_at, started_at, finished_at
		 ) VALUES (?, ?, ?, ?, 'finished', ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   current_players = excluded.current_players,
		   end_reason = excluded.end_reason,
		   winner_session_id = excluded.winner_session_id,
		   winner_wallet = excluded.winner_wallet,
		   started_at = excluded.started_at,
		   finished_at = excluded.finished_at`,
		res.RoomID,
		res.HostSessionID,
		res.MaxPlayers,
		res.PlayerCount,
		res.EndReason,
		res.TokenEntry,
		res.WinnerReward,
		res.WinnerSessionID,
		res.WinnerWallet,
		toMillis(res.CreatedAt),
		nullMillis(res.StartedAt),
		toMillis(res.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save room %s: %w", res.RoomID, err)
	}
	return nil
}

// RecordParticipant stores one player's result and updates the wallet's stats.
func (s *Store) RecordParticipant(ctx context.Context, p models.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin participant tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO game_participants (
		   room_id, session_id, username, wallet_address, score, completed_at, is_winner
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(room_id, session_id) DO NOTHING`,
		p.RoomID, p.SessionID, p.Username, p.WalletAddress, p.Score, nullMillis(p.CompletedAt), p.IsWinner,
	)
	if err != nil {
		return fmt.Errorf("insert participant %s/%s: %w", p.RoomID, p.SessionID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert participant %s/%s: %w", p.RoomID, p.SessionID, err)
	}

	// Stats only move the first time a participant is recorded.
	if inserted > 0 && p.WalletAddress != "" {
		won := 0
		if p.IsWinner {
			won = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (wallet_address, username, games_played, games_won)
			 VALUES (?, ?, 1, ?)
			 ON CONFLICT(wallet_address) DO UPDATE SET
			   username = excluded.username,
			   games_played = users.games_played + 1,
			   games_won = users.games_won + excluded.games_won`,
			p.WalletAddress, p.Username, won,
		); err != nil {
			return fmt.Errorf("update stats for %s: %w", p.WalletAddress, err)
		}
	}
	return tx.Commit()
}

// RoomResult loads a finished room.
func (s *Store) RoomResult(ctx context.Context, roomID string) (models.RoomResult, error) {
	var (
		res       models.RoomResult
		createdAt int64
		startedAt sql.NullInt64
		finished  int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, host_session_id, max_players, current_players, end_reason, token_entry,
		        winner_reward, winner_session_id, winner_wallet, created_at, started_at, finished_at
		 FROM game_rooms WHERE id = ?`, roomID,
	).Scan(
		&res.RoomID, &res.HostSessionID, &res.MaxPlayers, &res.PlayerCount, &res.EndReason, &res.TokenEntry,
		&res.WinnerReward, &res.WinnerSessionID, &res.WinnerWallet, &createdAt, &startedAt, &finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoomResult{}, database.ErrNotFound
	}
	if err != nil {
		return models.RoomResult{}, fmt.Errorf("get room %s: %w", roomID, err)
	}
	res.CreatedAt = fromMillis(createdAt)
	res.StartedAt = timePtr(startedAt)
	res.FinishedAt = fromMillis(finished)
	return res, nil
}

// Participants lists a room's players in the order they were recorded.
func (s *Store) Participants(ctx context.Context, roomID string) ([]models.Participant, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT room_id, session_id, username, wallet_address, score, completed_at, is_winner
		 FROM game_participants WHERE room_id = ? ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants of %s: %w", roomID, err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var (
			p           models.Participant
			completedAt sql.NullInt64
		)
		if err := rows.Scan(&p.RoomID, &p.SessionID, &p.Username, &p.WalletAddress, &p.Score, &completedAt, &p.IsWinner); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.CompletedAt = timePtr(completedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UserStats loads the aggregate results for a wallet.
func (s *Store) UserStats(ctx context.Context, walletAddress string) (models.UserStats, error) {
	var st models.UserStats
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT wallet_address, username, games_played, games_won FROM users WHERE wallet_address = ?`,
		walletAddress,
	).Scan(&st.WalletAddress, &st.Username, &st.GamesPlayed, &st.GamesWon)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserStats{}, database.ErrNotFound
	}
	if err != nil {
		return models.UserStats{}, fmt.Errorf("get stats for %s: %w", walletAddress, err)
	}
	return st, nil
}
