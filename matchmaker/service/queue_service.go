// matchmaker/service/queue_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// QueueService encapsulates the business logic for queue entries.
type QueueService struct {
	queueStore  *store.QueueStore
	playerStore *store.PlayerStore
	poolStore   *store.QueuePoolStore
}

// NewQueueService creates a new QueueService instance.
func NewQueueService(qs *store.QueueStore, ps *store.PlayerStore, pool *store.QueuePoolStore) *QueueService {
	return &QueueService{
		queueStore:  qs,
		playerStore: ps,
		poolStore:   pool,
	}
}

// EnterQueue creates a waiting queue entry for a player in their bracket and
// publishes it to the bracket's redis pool for the pairing worker.
func (qs *QueueService) EnterQueue(ctx context.Context, playerID string) (*models.Queue, error) {
	player, err := qs.playerStore.GetPlayerByID(ctx, playerID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to check player %s: %w", playerID, err)
	}

	now := time.Now()
	queue := &models.Queue{
		ID:        uuid.New().String(),
		PlayerID:  player.ID,
		Bracket:   player.Bracket,
		State:     models.QueueStateWaiting,
		CreatedAt: &now,
	}
	if err := qs.queueStore.CreateQueue(ctx, queue); err != nil {
		return nil, fmt.Errorf("service failed to create queue entry: %w", err)
	}

	// The mongo document is the record of truth; a failed pool publish only
	// delays pairing until the entry expires, so it is logged, not fatal.
	if err := qs.poolStore.Enqueue(ctx, player.Bracket, queue.ID, player.Rating); err != nil {
		log.Printf("ERROR: Failed to publish queue entry %s to pool for bracket %s: %v", queue.ID, player.Bracket, err)
	}

	return queue, nil
}

// GetQueue retrieves a queue entry by ID.
func (qs *QueueService) GetQueue(ctx context.Context, id string) (*models.Queue, error) {
	queue, err := qs.queueStore.GetQueueByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrQueueNotFound
		}
		return nil, fmt.Errorf("service failed to get queue entry: %w", err)
	}
	return queue, nil
}

// GetQueuesForPlayer retrieves every queue entry of one player, past and
// present.
func (qs *QueueService) GetQueuesForPlayer(ctx context.Context, playerID string) ([]models.Queue, error) {
	if _, err := qs.playerStore.GetPlayerByID(ctx, playerID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to check player %s: %w", playerID, err)
	}
	queues, err := qs.queueStore.GetQueuesByPlayerID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("service failed to list queue entries for player %s: %w", playerID, err)
	}
	return queues, nil
}

// ListQueues retrieves every queue entry.
func (qs *QueueService) ListQueues(ctx context.Context) ([]models.Queue, error) {
	queues, err := qs.queueStore.GetAllQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list queue entries: %w", err)
	}
	return queues, nil
}
