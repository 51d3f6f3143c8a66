package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"prizmora/models"
)

// Init 连接 Redis 并检查连通性
func Init(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// CoinCache 币列表的短期缓存，值为 JSON 序列化的 CoinPage
type CoinCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCoinCache(client *redis.Client, ttl time.Duration) *CoinCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CoinCache{client: client, ttl: ttl}
}

func (c *CoinCache) GetPage(ctx context.Context, key string) (models.CoinPage, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CoinPage{}, false, nil
	}
	if err != nil {
		return models.CoinPage{}, false, err
	}
	var page models.CoinPage
	if err := json.Unmarshal(data, &page); err != nil {
		return models.CoinPage{}, false, err
	}
	return page, true, nil
}

func (c *CoinCache) SetPage(ctx context.Context, key string, page models.CoinPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
