package stores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisBackend stores each snapshot as a JSON value under
// "onboardbuddy:<account>:<key>".
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

type redisSnapshot struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func (r *RedisBackend) Load(ctx context.Context, accountID uint, key string) (*Snapshot, error) {
	raw, err := r.client.Get(ctx, redisKey(accountID, key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored redisSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode redis snapshot: %w", err)
	}
	return &Snapshot{Version: stored.Version, Data: stored.Data}, nil
}

func (r *RedisBackend) Save(ctx context.Context, accountID uint, key string, snap Snapshot) error {
	data := snap.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	raw, err := json.Marshal(redisSnapshot{Version: snap.Version, Data: data})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKey(accountID, key), raw, 0).Err()
}

func redisKey(accountID uint, key string) string {
	return fmt.Sprintf("onboardbuddy:%d:%s", accountID, key)
}
