package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-llm/internal/domain"
)

// ChatCache guarda el snapshot serializado de los mensajes de un chat.
// No es autoritativo: el store durable manda, y una entrada puede faltar o
// expirar en cualquier momento sin afectar la corrección.
type ChatCache interface {
	GetMessages(ctx context.Context, chatID string) ([]domain.Message, bool, error)
	PutMessages(ctx context.Context, chatID string, msgs []domain.Message) error
	Invalidate(ctx context.Context, chatID string) error
}

type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisChatCache implementa ChatCache sobre Redis con TTL fijo.
type RedisChatCache struct {
	client redisCmdable
	ttl    time.Duration
	prefix string
}

func NewRedisChatCache(client *redis.Client, ttl time.Duration) *RedisChatCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisChatCache{
		client: client,
		ttl:    ttl,
		prefix: "chat:",
	}
}

func (c *RedisChatCache) GetMessages(ctx context.Context, chatID string) ([]domain.Message, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+chatID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var msgs []domain.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		// Entrada corrupta: tratarla como miss para que el caller repueble.
		return nil, false, err
	}
	return msgs, true, nil
}

func (c *RedisChatCache) PutMessages(ctx context.Context, chatID string, msgs []domain.Message) error {
	payload, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+chatID, payload, c.ttl).Err()
}

func (c *RedisChatCache) Invalidate(ctx context.Context, chatID string) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Del(ctx, c.prefix+chatID).Err()
}
