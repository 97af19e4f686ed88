package middleware

import (
	"context"
	"fmt"
	"time"

	"onboardbuddy/models"
	"onboardbuddy/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// UploadRateLimiter caps image uploads per user per minute. With a nil storage
// the limiter keeps its counters in memory.
func UploadRateLimiter(max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return uploadRateLimitKey(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			utils.LogEvent("rate_limit_hit", map[string]interface{}{
				"key":        uploadRateLimitKey(c),
				"endpoint":   c.Path(),
				"ip":         c.IP(),
				"user_agent": c.Get("User-Agent"),
			})
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many uploads. Please wait before uploading again.",
				"retry_after": "1 minute",
			})
		},
		Storage: storage,
	})
}

func uploadRateLimitKey(c *fiber.Ctx) string {
	if user, ok := c.Locals("user").(*models.User); ok {
		return fmt.Sprintf("rl:upload:%d", user.ID)
	}
	return "rl:upload:ip:" + c.IP()
}

// RedisStorage implements fiber.Storage on a shared client. Keys are
// namespaced so Reset never touches snapshot data.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client, prefix: "onboardbuddy:limiter:"}
}

func (r *RedisStorage) Get(key string) ([]byte, error) {
	val, err := r.client.Get(context.Background(), r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	return r.client.Set(context.Background(), r.prefix+key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), r.prefix+key).Err()
}

func (r *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
