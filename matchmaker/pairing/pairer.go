package pairing

import (
	"context"
	"log"
	"time"

	"github.com/djobbo/Kyu-System/matchmaker/service"
	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/cluster"
	"github.com/djobbo/Kyu-System/shared/config"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/djobbo/Kyu-System/shared/registry"
)

// Pairer is the periodic matchmaking worker. Each tick it walks the brackets
// this instance is responsible for, pairs the two closest-rated waiting
// entries into a fresh in_progress match, and expires entries that waited
// longer than the configured TTL.
//
// Bracket ownership is decided by consistent hashing over the active
// matchmaker instances, so running several instances never double-pairs a
// bracket.
type Pairer struct {
	config            *config.MatchmakerServiceConfig
	registryClient    *registry.RegistryClient
	assignmentManager *cluster.ServiceAssignmentManager
	queueStore        *store.QueueStore
	poolStore         *store.QueuePoolStore
	teamService       *service.TeamService
	matchService      *service.MatchService
	serviceRegistrar  *registry.ServiceRegistrar
	ctx               context.Context
	cancel            context.CancelFunc
}

// NewPairer creates a new Pairer instance.
func NewPairer(
	cfg *config.MatchmakerServiceConfig,
	registryClient *registry.RegistryClient,
	queueStore *store.QueueStore,
	poolStore *store.QueuePoolStore,
	teamService *service.TeamService,
	matchService *service.MatchService,
	serviceRegistrar *registry.ServiceRegistrar,
) *Pairer {
	log.Println("Pairer: Initialized.")
	ctx, cancel := context.WithCancel(context.Background())

	assignmentManager := cluster.NewServiceAssignmentManager(
		registryClient,
		serviceRegistrar,
		cfg.HeartbeatInterval, // Using heartbeat interval for consistent hash updates
	)

	return &Pairer{
		config:            cfg,
		registryClient:    registryClient,
		assignmentManager: assignmentManager,
		queueStore:        queueStore,
		poolStore:         poolStore,
		teamService:       teamService,
		matchService:      matchService,
		serviceRegistrar:  serviceRegistrar,
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Start initiates the pairing loop. This should be run in a goroutine.
func (p *Pairer) Start() {
	log.Printf("Pairer starting with interval %v over brackets %v", p.config.PairingInterval, p.config.Brackets)
	ticker := time.NewTicker(p.config.PairingInterval)
	defer ticker.Stop()

	// Start the ServiceAssignmentManager's update loop in a goroutine
	go p.assignmentManager.Start()

	for {
		select {
		case <-p.ctx.Done():
			log.Println("Pairer shutting down.")
			p.assignmentManager.Stop()
			return
		case <-ticker.C:
			p.performPairingTick()
		}
	}
}

// Stop gracefully stops the pairing loop.
func (p *Pairer) Stop() {
	p.cancel()
}

// performPairingTick executes the logic for a single pairing tick.
func (p *Pairer) performPairingTick() {
	p.expireStaleEntries()

	for _, bracket := range p.config.Brackets {
		isResponsible, err := p.assignmentManager.IsResponsible(bracket)
		if err != nil {
			log.Printf("WARNING: Pairer: Failed to check responsibility for bracket %s: %v", bracket, err)
			continue
		}
		if !isResponsible {
			continue
		}
		p.pairBracket(bracket)
	}
}

// pairBracket pairs waiting entries of one bracket until fewer than two
// remain. The pool is rating-ordered, so the closest-rated opponents are
// always adjacent.
func (p *Pairer) pairBracket(bracket string) {
	// A pool with fewer than two entries cannot pair anything; skip the
	// full range read.
	size, err := p.poolStore.Size(p.ctx, bracket)
	if err != nil {
		log.Printf("ERROR: Pairer: Failed to size pool for bracket %s: %v", bracket, err)
		return
	}
	if size < 2 {
		return
	}

	entries, err := p.poolStore.Entries(p.ctx, bracket)
	if err != nil {
		log.Printf("ERROR: Pairer: Failed to read pool for bracket %s: %v", bracket, err)
		return
	}

	for len(entries) >= 2 {
		// Pick the adjacent pair with the smallest rating gap.
		best := 0
		for i := 1; i < len(entries)-1; i++ {
			if entries[i+1].Rating-entries[i].Rating < entries[best+1].Rating-entries[best].Rating {
				best = i
			}
		}
		a, b := entries[best], entries[best+1]
		entries = append(entries[:best], entries[best+2:]...)

		if err := p.pairEntries(bracket, a, b); err != nil {
			log.Printf("ERROR: Pairer: Failed to pair entries %s and %s in bracket %s: %v", a.QueueID, b.QueueID, bracket, err)
		}
	}
}

// pairEntries turns two waiting queue entries into an in_progress match
// between two single-player teams. Entries whose mongo document is no longer
// waiting are dropped from the pool without a match.
func (p *Pairer) pairEntries(bracket string, a, b store.PoolEntry) error {
	queueA, okA := p.waitingQueue(bracket, a.QueueID)
	queueB, okB := p.waitingQueue(bracket, b.QueueID)
	if !okA || !okB {
		// Whichever entry is still waiting goes back into contention next tick.
		return nil
	}

	teamA, err := p.teamService.CreateTeam(p.ctx, []string{queueA.PlayerID}, bracket)
	if err != nil {
		return err
	}
	teamB, err := p.teamService.CreateTeam(p.ctx, []string{queueB.PlayerID}, bracket)
	if err != nil {
		return err
	}

	match, err := p.matchService.CreateMatch(p.ctx, []string{teamA.ID, teamB.ID}, bracket, models.MatchStateInProgress)
	if err != nil {
		return err
	}

	for _, queueID := range []string{a.QueueID, b.QueueID} {
		if err := p.queueStore.MarkMatched(p.ctx, queueID, match.ID); err != nil {
			log.Printf("WARNING: Pairer: Failed to mark queue entry %s matched for match %s: %v", queueID, match.ID, err)
		}
	}
	if err := p.poolStore.Remove(p.ctx, bracket, a.QueueID, b.QueueID); err != nil {
		log.Printf("WARNING: Pairer: Failed to remove paired entries from pool for bracket %s: %v", bracket, err)
	}

	log.Printf("Pairer: Match %s created in bracket %s between players %s (%d) and %s (%d).",
		match.ID, bracket, queueA.PlayerID, a.Rating, queueB.PlayerID, b.Rating)
	return nil
}

// waitingQueue loads a pool entry's mongo document and reports whether it is
// still pairable. Entries that expired or vanished are evicted from the pool.
func (p *Pairer) waitingQueue(bracket, queueID string) (*models.Queue, bool) {
	queue, err := p.queueStore.GetQueueByID(p.ctx, queueID)
	if err != nil || queue.State != models.QueueStateWaiting {
		if err != nil {
			log.Printf("WARNING: Pairer: Dropping unreadable pool entry %s in bracket %s: %v", queueID, bracket, err)
		}
		if remErr := p.poolStore.Remove(p.ctx, bracket, queueID); remErr != nil {
			log.Printf("WARNING: Pairer: Failed to evict pool entry %s in bracket %s: %v", queueID, bracket, remErr)
		}
		return nil, false
	}
	return queue, true
}

// expireStaleEntries expires waiting entries older than the queue TTL and
// cleans their pool memberships. Every instance may run this; the store's
// state filter keeps the transition idempotent.
func (p *Pairer) expireStaleEntries() {
	cutoff := time.Now().Add(-p.config.QueueEntryTTL)
	expired, err := p.queueStore.ExpireStaleWaiting(p.ctx, cutoff)
	if err != nil {
		log.Printf("ERROR: Pairer: Failed to expire stale queue entries: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	byBracket := make(map[string][]string)
	for _, q := range expired {
		byBracket[q.Bracket] = append(byBracket[q.Bracket], q.ID)
	}
	for bracket, ids := range byBracket {
		if err := p.poolStore.Remove(p.ctx, bracket, ids...); err != nil {
			log.Printf("WARNING: Pairer: Failed to clean expired entries from pool for bracket %s: %v", bracket, err)
		}
	}
	log.Printf("Pairer: Expired %d stale queue entries.", len(expired))
}
