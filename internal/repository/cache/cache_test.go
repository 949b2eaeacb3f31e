package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/itsatony/talkingplants/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKey_NormalizesTerm(t *testing.T) {
	assert.Equal(t, searchKey("Fig", 20), searchKey("  fig ", 20))
	assert.NotEqual(t, searchKey("fig", 20), searchKey("fig", 5))
}

func TestCatalogCache_UnreachableRedisIsAMiss(t *testing.T) {
	// grab a free port and close it so nothing is listening there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewCatalogCache(client, time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.SetSearch(ctx, "fig", 20, []models.Plant{{ID: 1, CommonNameEn: "Fig"}})
	plants, ok := c.GetSearch(ctx, "fig", 20)
	assert.False(t, ok)
	assert.Nil(t, plants)
	assert.Error(t, c.Ping(ctx))
}
