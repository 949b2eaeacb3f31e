// FilePath: internal/repository/cache/cache.catalog.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const keyPrefix = "tp:plants:search:"

// CatalogCache keeps plant search results in redis. The catalog is reference
// data, so a stale entry only lives for the TTL. Redis errors are logged and
// treated as misses.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

// NewClient builds a redis client from the service configuration
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func searchKey(term string, limit int) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, limit, strings.ToLower(strings.TrimSpace(term)))
}

func (c *CatalogCache) GetSearch(ctx context.Context, term string, limit int) ([]models.Plant, bool) {
	raw, err := c.client.Get(ctx, searchKey(term, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			nuts.L.Warnf("[CatalogCache] Get failed: %v", err)
		}
		return nil, false
	}
	var plants []models.Plant
	if err := json.Unmarshal(raw, &plants); err != nil {
		nuts.L.Warnf("[CatalogCache] Dropping unreadable entry: %v", err)
		return nil, false
	}
	return plants, true
}

func (c *CatalogCache) SetSearch(ctx context.Context, term string, limit int, plants []models.Plant) {
	raw, err := json.Marshal(plants)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, searchKey(term, limit), raw, c.ttl).Err(); err != nil {
		nuts.L.Warnf("[CatalogCache] Set failed: %v", err)
	}
}

func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CatalogCache) Close() error {
	return c.client.Close()
}
