// Package redisstore keeps warn counters in Redis (LEDGER_BACKEND=redis).
// Each counter is a hash incremented inside a MULTI/EXEC block, so concurrent
// increments from several bot shards never lose an update.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

var redisWarnPrefix = "warns/"

const (
	fieldCount     = "count"
	fieldUpdatedAt = "updatedAt"
)

// WarnStore is a database.WarnStore backed by Redis hashes.
type WarnStore struct {
	Client *redis.Client
}

var _ database.WarnStore = (*WarnStore)(nil)

// New connects to redisURL and checks the connection.
func New(redisURL string) (*WarnStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &WarnStore{Client: rdb}, nil
}

func warnKey(guildID, userID string) string {
	return redisWarnPrefix + guildID + "/" + userID
}

func (s *WarnStore) GetWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	vals, err := s.Client.HGetAll(ctx, warnKey(guildID, userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return parseRecord(guildID, userID, vals)
}

func (s *WarnStore) IncrementWarnRecord(ctx context.Context, guildID, userID string) (*models.WarnRecord, error) {
	key := warnKey(guildID, userID)
	now := time.Now().UTC()

	var incr *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, fieldCount, 1)
		pipe.HSet(ctx, key, fieldUpdatedAt, now.Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return nil, err
	}

	n, err := incr.Result()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative warn counter %d for %s", n, key)
	}
	return &models.WarnRecord{GuildID: guildID, UserID: userID, WarnCount: uint64(n), UpdatedAt: now}, nil
}

func (s *WarnStore) ResetWarnRecord(ctx context.Context, guildID, userID string) error {
	key := warnKey(guildID, userID)
	exists, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}
	return s.Client.HSet(ctx, key,
		fieldCount, 0,
		fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
}

// Close releases the client.
func (s *WarnStore) Close() error {
	return s.Client.Close()
}

func parseRecord(guildID, userID string, vals map[string]string) (*models.WarnRecord, error) {
	rec := &models.WarnRecord{GuildID: guildID, UserID: userID}
	if v, ok := vals[fieldCount]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid warn count %q: %w", v, err)
		}
		rec.WarnCount = n
	}
	if v, ok := vals[fieldUpdatedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.UpdatedAt = t
		}
	}
	return rec, nil
}
