// matchmaker/store/queue_pool_store.go
package store

import (
	"context"
	"fmt"

	redisu "github.com/djobbo/Kyu-System/shared/redis"
	"github.com/redis/go-redis/v9"
)

// PoolEntry is one waiting queue entry in a bracket's redis pool.
type PoolEntry struct {
	QueueID string
	Rating  int64 // Player rating at enqueue time
}

// QueuePoolStore manages the per-bracket pool of waiting queue entries in
// Redis. The pool is a sorted set keyed by rating so the pairing worker can
// pick close-rated opponents cheaply; the mongo queue document stays the
// record of truth for the entry's state.
type QueuePoolStore struct {
	redisClient *redis.ClusterClient
}

// NewQueuePoolStore creates a new instance of QueuePoolStore.
func NewQueuePoolStore(redisClient *redis.ClusterClient) *QueuePoolStore {
	return &QueuePoolStore{
		redisClient: redisClient,
	}
}

// Enqueue adds a queue entry to its bracket's pool.
func (qps *QueuePoolStore) Enqueue(ctx context.Context, bracket, queueID string, rating int64) error {
	key := fmt.Sprintf(redisu.QueuePoolKeyPrefix, bracket)
	err := qps.redisClient.ZAdd(ctx, key, redis.Z{Score: float64(rating), Member: queueID}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue %s into pool for bracket %s: %w", queueID, bracket, err)
	}
	return nil
}

// Entries returns the bracket's waiting entries ordered by rating.
func (qps *QueuePoolStore) Entries(ctx context.Context, bracket string) ([]PoolEntry, error) {
	key := fmt.Sprintf(redisu.QueuePoolKeyPrefix, bracket)
	zs, err := qps.redisClient.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pool for bracket %s: %w", bracket, err)
	}

	entries := make([]PoolEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, PoolEntry{QueueID: member, Rating: int64(z.Score)})
	}
	return entries, nil
}

// Remove deletes queue entries from a bracket's pool, after they were matched
// or expired. Missing members are ignored.
func (qps *QueuePoolStore) Remove(ctx context.Context, bracket string, queueIDs ...string) error {
	if len(queueIDs) == 0 {
		return nil
	}
	key := fmt.Sprintf(redisu.QueuePoolKeyPrefix, bracket)
	members := make([]interface{}, 0, len(queueIDs))
	for _, id := range queueIDs {
		members = append(members, id)
	}
	if err := qps.redisClient.ZRem(ctx, key, members...).Err(); err != nil {
		return fmt.Errorf("failed to remove entries from pool for bracket %s: %w", bracket, err)
	}
	return nil
}

// Size returns the number of waiting entries in a bracket's pool.
func (qps *QueuePoolStore) Size(ctx context.Context, bracket string) (int64, error) {
	key := fmt.Sprintf(redisu.QueuePoolKeyPrefix, bracket)
	n, err := qps.redisClient.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to size pool for bracket %s: %w", bracket, err)
	}
	return n, nil
}
