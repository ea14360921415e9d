package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/memematch/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistorian(t *testing.T) (*Historian, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewHistorian(rdb, time.Hour), mr
}

func TestPublishRoomAction(t *testing.T) {
	h, mr := newTestHistorian(t)
	ctx := context.Background()

	// Published out of order on purpose.
	for _, idx := range []int{2, 1, 3} {
		err := h.PublishRoomAction(ctx, models.RoomActionRecord{
			ID:             uuid.New(),
			RoomID:         "ROOM1",
			ActionIndex:    idx,
			ActorSessionID: "sess-a",
			ActionType:     "card_flip",
			ActionPayload:  map[string]interface{}{"cardId": float64(idx)},
			Timestamp:      time.Now().UnixMilli(),
		})
		require.NoError(t, err)
	}

	key := actionsKey("ROOM1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	recs, err := h.RoomActions(ctx, "ROOM1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.ActionIndex)
		assert.Equal(t, "card_flip", rec.ActionType)
		assert.Equal(t, float64(rec.ActionIndex), rec.ActionPayload["cardId"])
	}
}

func TestRoomActions_Empty(t *testing.T) {
	h, _ := newTestHistorian(t)
	recs, err := h.RoomActions(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPublishRoomAction_RedisDown(t *testing.T) {
	h, mr := newTestHistorian(t)
	mr.Close()

	err := h.PublishRoomAction(context.Background(), models.RoomActionRecord{RoomID: "ROOM1", ActionType: "game_end"})
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	rdb, err := Connect(context.Background(), addr, "", 0)
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = Connect(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
