// Package memory stores per-conversation context entries in Redis.
package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lists are capped so a long-lived conversation cannot grow without bound.
const maxEntries = 200

type RedisStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client, prefix: "messaging:conversation_memory:v1"}
}

func (s *RedisStore) Append(ctx context.Context, conversationID uuid.UUID, entry string) error {
	key := s.key(conversationID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, entry)
	pipe.LTrim(ctx, key, -maxEntries, -1)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) History(ctx context.Context, conversationID uuid.UUID) ([]string, error) {
	entries, err := s.redis.LRange(ctx, s.key(conversationID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func (s *RedisStore) key(conversationID uuid.UUID) string {
	return fmt.Sprintf("%s:{%s}", s.prefix, conversationID.String())
}
