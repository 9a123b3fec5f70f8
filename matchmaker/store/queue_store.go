// matchmaker/store/queue_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/djobbo/Kyu-System/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// QueueStore represents the MongoDB data store for queue entries.
type QueueStore struct {
	collection *mongo.Collection
}

// NewQueueStore creates a new QueueStore instance.
func NewQueueStore(collection *mongo.Collection) *QueueStore {
	return &QueueStore{
		collection: collection,
	}
}

// CreateQueue inserts a new queue entry into the collection.
func (qs *QueueStore) CreateQueue(ctx context.Context, queue *models.Queue) error {
	_, err := qs.collection.InsertOne(ctx, queue)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("queue entry %s already exists", queue.ID)
		}
		return fmt.Errorf("failed to create queue entry %s: %w", queue.ID, err)
	}
	return nil
}

// GetQueueByID retrieves a queue entry by its ID.
func (qs *QueueStore) GetQueueByID(ctx context.Context, id string) (*models.Queue, error) {
	var queue models.Queue
	filter := bson.M{"_id": id}
	err := qs.collection.FindOne(ctx, filter).Decode(&queue)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &queue, nil
}

// GetQueuesByPlayerID retrieves all queue entries for one player.
func (qs *QueueStore) GetQueuesByPlayerID(ctx context.Context, playerID string) ([]models.Queue, error) {
	var queues []models.Queue
	cursor, err := qs.collection.Find(ctx, bson.M{"player_id": playerID})
	if err != nil {
		return nil, fmt.Errorf("failed to find queue entries for player %s: %w", playerID, err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &queues); err != nil {
		return nil, fmt.Errorf("failed to decode queue entries for player %s: %w", playerID, err)
	}
	return queues, nil
}

// GetAllQueues retrieves every queue entry.
func (qs *QueueStore) GetAllQueues(ctx context.Context) ([]models.Queue, error) {
	var queues []models.Queue
	cursor, err := qs.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all queue entries: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &queues); err != nil {
		return nil, fmt.Errorf("failed to decode all queue entries: %w", err)
	}
	return queues, nil
}

// MarkMatched transitions a waiting queue entry to matched and records the
// match it was placed into. The state filter makes the transition a
// compare-and-swap: an entry that expired or was matched concurrently is not
// touched.
func (qs *QueueStore) MarkMatched(ctx context.Context, id, matchID string) error {
	filter := bson.M{"_id": id, "state": models.QueueStateWaiting}
	update := bson.M{"$set": bson.M{"state": models.QueueStateMatched, "match_id": matchID}}
	res, err := qs.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark queue entry %s matched: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("queue entry %s not waiting, cannot mark matched", id)
	}
	return nil
}

// ExpireStaleWaiting transitions every waiting entry created before the
// cutoff to expired and returns the affected entries so the caller can clean
// up the redis pool.
func (qs *QueueStore) ExpireStaleWaiting(ctx context.Context, cutoff time.Time) ([]models.Queue, error) {
	filter := bson.M{"state": models.QueueStateWaiting, "created_at": bson.M{"$lt": cutoff}}

	var stale []models.Queue
	cursor, err := qs.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale queue entries: %w", err)
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &stale); err != nil {
		return nil, fmt.Errorf("failed to decode stale queue entries: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(stale))
	for _, q := range stale {
		ids = append(ids, q.ID)
	}
	update := bson.M{"$set": bson.M{"state": models.QueueStateExpired}}
	if _, err := qs.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "state": models.QueueStateWaiting}, update); err != nil {
		return nil, fmt.Errorf("failed to expire stale queue entries: %w", err)
	}
	return stale, nil
}
