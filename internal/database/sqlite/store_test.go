package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jason-s-yu/memematch/internal/database"
	"github.com/jason-s-yu/memematch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenTwiceAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var count int
	require.NoError(t, s2.sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRoomResultRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	started := created.Add(10 * time.Second)
	finished := started.Add(90 * time.Second)
	completed := finished.Add(-time.Second)

	res := models.RoomResult{
		RoomID:          "ROOM1",
		HostSessionID:   "sess-a",
		MaxPlayers:      2,
		PlayerCount:     2,
		TokenEntry:      5,
		WinnerReward:    10,
		EndReason:       "completed",
		WinnerSessionID: "sess-b",
		WinnerWallet:    "wallet-b",
		CreatedAt:       created,
		StartedAt:       &started,
		FinishedAt:      finished,
	}
	require.NoError(t, store.SaveRoomResult(ctx, res))
	require.NoError(t, store.RecordParticipant(ctx, models.Participant{
		RoomID: "ROOM1", SessionID: "sess-a", Username: "alice", WalletAddress: "wallet-a", Score: 3,
	}))
	require.NoError(t, store.RecordParticipant(ctx, models.Participant{
		RoomID: "ROOM1", SessionID: "sess-b", Username: "bob", WalletAddress: "wallet-b", Score: 5,
		CompletedAt: &completed, IsWinner: true,
	}))

	got, err := store.RoomResult(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Equal(t, res.WinnerSessionID, got.WinnerSessionID)
	assert.Equal(t, res.EndReason, got.EndReason)
	assert.True(t, created.Equal(got.CreatedAt))
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))
	assert.True(t, finished.Equal(got.FinishedAt))

	parts, err := store.Participants(ctx, "ROOM1")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "sess-a", parts[0].SessionID)
	assert.Nil(t, parts[0].CompletedAt)
	assert.False(t, parts[0].IsWinner)
	assert.True(t, parts[1].IsWinner)
	require.NotNil(t, parts[1].CompletedAt)
	assert.True(t, completed.Equal(*parts[1].CompletedAt))
}

func TestRoomResult_NotStarted(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.SaveRoomResult(ctx, models.RoomResult{
		RoomID: "ROOM2", HostSessionID: "sess-a", MaxPlayers: 2, PlayerCount: 1,
		EndReason: "host_left", CreatedAt: now, FinishedAt: now,
	}))

	got, err := store.RoomResult(ctx, "ROOM2")
	require.NoError(t, err)
	assert.Nil(t, got.StartedAt)
	assert.Empty(t, got.WinnerSessionID)
}

func TestNotFound(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	_, err := store.RoomResult(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.UserStats(ctx, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
	parts, err := store.Participants(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestUserStatsAccumulate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Now()

	for i, room := range []string{"R1", "R2", "R3"} {
		require.NoError(t, store.SaveRoomResult(ctx, models.RoomResult{
			RoomID: room, HostSessionID: "sess-a", MaxPlayers: 2, PlayerCount: 2,
			EndReason: "timeout", CreatedAt: now, FinishedAt: now,
		}))
		require.NoError(t, store.RecordParticipant(ctx, models.Participant{
			RoomID: room, SessionID: "sess-a", Username: "alice", WalletAddress: "wallet-a", IsWinner: i != 1,
		}))
	}
	// Recording the same participant again leaves stats alone.
	require.NoError(t, store.RecordParticipant(ctx, models.Participant{
		RoomID: "R3", SessionID: "sess-a", Username: "alice", WalletAddress: "wallet-a", IsWinner: true,
	}))

	st, err := store.UserStats(ctx, "wallet-a")
	require.NoError(t, err)
	assert.Equal(t, "alice", st.Username)
	assert.Equal(t, 3, st.GamesPlayed)
	assert.Equal(t, 2, st.GamesWon)
}

func TestParticipantRequiresRoom(t *testing.T) {
	store := openTempStore(t)
	err := store.RecordParticipant(context.Background(), models.Participant{RoomID: "ghost", SessionID: "sess-a"})
	assert.Error(t, err, "foreign key on room_id")
}

func TestCloseNil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
