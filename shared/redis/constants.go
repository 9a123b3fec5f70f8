// shared/redis/constants.go
package redis

import "fmt"

const (
	// QueuePoolKeyPrefix is the sorted set of waiting queue entries for one
	// bracket: queue_pool:{bracket}. Member is the queue entry ID, score is
	// the player's rating at enqueue time.
	QueuePoolKeyPrefix = "queue_pool:{%s}:"
)

// ErrRedisKeyNotFound is returned when an expected Redis key is absent.
var ErrRedisKeyNotFound = fmt.Errorf("redis key not found")
