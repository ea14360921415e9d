// internal/cache/historian.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jason-s-yu/memematch/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultHistoryTTL is how long a room's action log is kept after its last write.
const DefaultHistoryTTL = 24 * time.Hour

// Connect opens a Redis client and verifies it with a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// Historian appends room actions to a per-room Redis list.
type Historian struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewHistorian wraps a Redis client. A non-positive ttl selects DefaultHistoryTTL.
func NewHistorian(rdb redis.UniversalClient, ttl time.Duration) *Historian {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &Historian{rdb: rdb, ttl: ttl}
}

func actionsKey(roomID string) string {
	return "memematch:room:" + roomID + ":actions"
}

// PublishRoomAction appends rec to its room's action list and refreshes the list TTL.
func (h *Historian) PublishRoomAction(ctx context.Context, rec models.RoomActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action %d: %w", rec.ActionIndex, err)
	}
	key := actionsKey(rec.RoomID)
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish action to %s: %w", key, err)
	}
	return nil
}

// RoomActions returns a room's recorded actions ordered by action index.
// Publishes race each other, so list order alone is not authoritative.
func (h *Historian) RoomActions(ctx context.Context, roomID string) ([]models.RoomActionRecord, error) {
	raw, err := h.rdb.LRange(ctx, actionsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read actions for room %s: %w", roomID, err)
	}
	out := make([]models.RoomActionRecord, 0, len(raw))
	for _, s := range raw {
		var rec models.RoomActionRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode action for room %s: %w", roomID, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionIndex < out[j].ActionIndex })
	return out, nil
}
