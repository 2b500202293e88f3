package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
)

// RedisClient caches per-user library "seen" flags so the library page can
// badge newly downloaded items without another table. Redis is a pure cache
// here: losing it only re-badges items, it never affects the ledger.
type RedisClient struct {
	inner *redis.Client
}

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	REDIS_TRUE = "1"
)

var ctx = context.Background()

func GetRedisClient() *RedisClient {
	return &RedisClient{
		inner: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
			Password: os.Getenv("REDIS_PASSWD"),
			DB:       0, // use default DB
		})}
}

func LibraryItemKey(userId string, itemId string) string {
	return fmt.Sprintf("library_seen_%s_%s", userId, itemId)
}

// GetLibrarySeenStatus returns, per item id, whether the user has already
// opened the item from their library. Missing keys read as unseen.
func (r RedisClient) GetLibrarySeenStatus(itemIds []string, userId string) ([]bool, error) {
	itemKeys := []string{}
	for _, id := range itemIds {
		itemKeys = append(itemKeys, LibraryItemKey(userId, id))
	}

	res, err := r.inner.MGet(ctx, itemKeys...).Result()
	if err != nil {
		return nil, err
	}
	status := make([]bool, 0, len(res))
	for _, v := range res {
		status = append(status, v != nil)
	}
	return status, nil
}

// MarkLibraryItemsSeen marks items as opened. MSetNX keeps the first-seen
// semantics on concurrent marks.
func (r RedisClient) MarkLibraryItemsSeen(itemIds []string, userId string) error {
	keyValues := []interface{}{}
	for _, id := range itemIds {
		keyValues = append(keyValues, LibraryItemKey(userId, id))
		keyValues = append(keyValues, REDIS_TRUE)
	}
	return r.inner.MSetNX(ctx, keyValues...).Err()
}
