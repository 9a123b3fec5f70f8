// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	matchmakerapi "github.com/djobbo/Kyu-System/matchmaker/api"
	"github.com/djobbo/Kyu-System/matchmaker/pairing"
	"github.com/djobbo/Kyu-System/matchmaker/service"
	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/api"
	"github.com/djobbo/Kyu-System/shared/config"
	mongodbu "github.com/djobbo/Kyu-System/shared/mongodb"
	redisu "github.com/djobbo/Kyu-System/shared/redis"
	"github.com/djobbo/Kyu-System/shared/registry"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadMatchmakerServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Fatalf("Failed to disconnect from MongoDB: %v", err)
		}
		log.Println("Disconnected from MongoDB.")
	}()

	// --- 3. Connect to Redis ---
	redisClient, err := redisu.NewRedisClusterClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis Cluster: %v", err)
	}
	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Fatalf("Error closing Redis client: %v", err)
		}
		log.Println("Redis Client closed..")
	}()

	// --- 4. Initialize Data Stores (passing MongoDB collections) ---
	usersCollection := mongoClient.Collection(cfg.MongoDBUsersCollection)
	playersCollection := mongoClient.Collection(cfg.MongoDBPlayersCollection)
	queuesCollection := mongoClient.Collection(cfg.MongoDBQueuesCollection)
	teamsCollection := mongoClient.Collection(cfg.MongoDBTeamsCollection)
	matchesCollection := mongoClient.Collection(cfg.MongoDBMatchesCollection)

	userStore := store.NewUserStore(usersCollection)
	playerStore := store.NewPlayerStore(playersCollection)
	queueStore := store.NewQueueStore(queuesCollection)
	teamStore := store.NewTeamStore(teamsCollection)
	// The match store drives the settlement transaction, so it needs the raw
	// client for sessions on top of its collections.
	matchStore := store.NewMatchStore(mongoClient.RawClient(), matchesCollection, playersCollection)
	poolStore := store.NewQueuePoolStore(redisClient)

	// --- 5. Initialize Business Logic Services (passing stores) ---
	rosterService := service.NewRosterService(userStore, playerStore)
	queueService := service.NewQueueService(queueStore, playerStore, poolStore)
	teamService := service.NewTeamService(teamStore, playerStore, cfg.MongoDBPlayersCollection)
	matchService := service.NewMatchService(matchStore, teamStore)
	settlementService := service.NewSettlementService(matchStore, teamStore, playerStore, cfg.KFor)

	// --- 6. Initialize API Handlers (passing business logic services) ---
	handlers := matchmakerapi.NewMatchmakerAPIHandlers(rosterService, queueService, teamService, matchService, settlementService, cfg.EloKFactor)

	// --- 7. Initialize and Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, "matchmaker-service", &cfg.CommonConfig)
	go registrar.Start() // Start the heartbeating goroutine
	defer registrar.Stop()

	// --- 8. Start the Pairing Worker ---
	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL)
	pairer := pairing.NewPairer(cfg, registryClient, queueStore, poolStore, teamService, matchService, registrar)
	go pairer.Start()
	defer pairer.Stop()

	// --- 9. Start the Team Rating Sync Job ---
	syncStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.TeamRatingSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-syncStop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				if _, err := teamService.SyncTeamRatings(ctx); err != nil {
					log.Printf("ERROR: Periodic team rating sync failed: %v", err)
				}
				cancel()
			}
		}
	}()
	defer close(syncStop)

	// --- 10. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	handlers.RegisterRoutes(baseServer.Router)

	// --- 11. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 12. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}
