package service

import (
	"context"
	"sync"
	"testing"

	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeGraphStore is an in-memory MatchSettlementStore/TeamLookup/PlayerLookup
// with the same compare-and-swap semantics as the mongo-backed stores.
type fakeGraphStore struct {
	mu      sync.Mutex
	matches map[string]*models.Match
	teams   map[string]models.Team
	players map[string]*models.Player

	readBarrier *sync.WaitGroup // When set, GetMatchByID waits until every racer has read
	reads       int
	writes      int
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		matches: make(map[string]*models.Match),
		teams:   make(map[string]models.Team),
		players: make(map[string]*models.Player),
	}
}

func (f *fakeGraphStore) GetMatchByID(_ context.Context, id string) (*models.Match, error) {
	f.mu.Lock()
	m, ok := f.matches[id]
	if ok {
		cp := *m
		m = &cp
	}
	f.reads++
	barrier := f.readBarrier
	f.mu.Unlock()

	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	return m, nil
}

func (f *fakeGraphStore) GetTeamsByIDs(_ context.Context, ids []string) ([]models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var teams []models.Team
	for _, id := range ids {
		if t, ok := f.teams[id]; ok {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

func (f *fakeGraphStore) GetPlayersByIDs(_ context.Context, ids []string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var players []models.Player
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			players = append(players, *p)
		}
	}
	return players, nil
}

func (f *fakeGraphStore) WriteSettlement(_ context.Context, matchID string, expectedPrior models.MatchState, score string, newRatings map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.matches[matchID]
	if !ok || m.State != expectedPrior {
		return store.ErrSettlementConflict
	}
	m.State = models.MatchStateSettled
	m.Score = score
	for id, r := range newRatings {
		f.players[id].Rating = r
	}
	f.writes++
	return nil
}

func (f *fakeGraphStore) ratingOf(t *testing.T, id string) int64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	require.True(t, ok, "player %s missing", id)
	return p.Rating
}

// seedMatch creates an in_progress 1v1 between two fresh players at the given
// ratings and returns the match ID.
func (f *fakeGraphStore) seedMatch(ratingA, ratingB int64) string {
	f.players["pa"] = &models.Player{ID: "pa", Bracket: "open", Rating: ratingA}
	f.players["pb"] = &models.Player{ID: "pb", Bracket: "open", Rating: ratingB}
	f.teams["ta"] = models.Team{ID: "ta", Bracket: "open", PlayerIDs: []string{"pa"}}
	f.teams["tb"] = models.Team{ID: "tb", Bracket: "open", PlayerIDs: []string{"pb"}}
	f.matches["m1"] = &models.Match{ID: "m1", Bracket: "open", TeamIDs: []string{"ta", "tb"}, State: models.MatchStateInProgress}
	return "m1"
}

func fixedK(k int) func(string) int {
	return func(string) int { return k }
}

func TestParseOutcome(t *testing.T) {
	t.Run("recognized encodings", func(t *testing.T) {
		cases := map[string]float64{
			"1-0":   1,
			"0-1":   0,
			"2-2":   0.5,
			"13-7":  1,
			" 3-4 ": 0,
		}
		for score, want := range cases {
			got, err := ParseOutcome(score)
			require.NoError(t, err, "score %q", score)
			assert.Equal(t, want, got, "score %q", score)
		}
	})

	t.Run("rejected encodings", func(t *testing.T) {
		for _, score := range []string{"", "1", "a-b", "1-", "-1", "1--2", "win"} {
			_, err := ParseOutcome(score)
			assert.ErrorIs(t, err, ErrInvalidOutcome, "score %q", score)
		}
	})
}

func TestSettleMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a 1v1 and applies both ratings", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		result, err := ss.SettleMatch(ctx, matchID, "1-0")
		require.NoError(t, err)

		assert.Equal(t, matchID, result.MatchID)
		assert.Equal(t, "1-0", result.Score)
		assert.Equal(t, int64(1016), result.NewRating["pa"])
		assert.Equal(t, int64(984), result.NewRating["pb"])
		assert.Equal(t, int64(1016), fake.ratingOf(t, "pa"))
		assert.Equal(t, int64(984), fake.ratingOf(t, "pb"))
		assert.Equal(t, models.MatchStateSettled, fake.matches[matchID].State)
	})

	t.Run("draw against equal opponent changes nothing", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		result, err := ss.SettleMatch(ctx, matchID, "2-2")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), result.NewRating["pa"])
		assert.Equal(t, int64(1000), result.NewRating["pb"])
	})

	t.Run("team update uses mean rating and shares the delta", func(t *testing.T) {
		fake := newFakeGraphStore()
		fake.players["a1"] = &models.Player{ID: "a1", Bracket: "open", Rating: 1000}
		fake.players["a2"] = &models.Player{ID: "a2", Bracket: "open", Rating: 1200}
		fake.players["b1"] = &models.Player{ID: "b1", Bracket: "open", Rating: 900}
		fake.players["b2"] = &models.Player{ID: "b2", Bracket: "open", Rating: 1100}
		fake.teams["ta"] = models.Team{ID: "ta", Bracket: "open", PlayerIDs: []string{"a1", "a2"}}
		fake.teams["tb"] = models.Team{ID: "tb", Bracket: "open", PlayerIDs: []string{"b1", "b2"}}
		fake.matches["m1"] = &models.Match{ID: "m1", Bracket: "open", TeamIDs: []string{"ta", "tb"}, State: models.MatchStateInProgress}
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		// Mean 1100 vs mean 1000: the favorites win, every member of a team
		// moves by the same amount.
		result, err := ss.SettleMatch(ctx, "m1", "1-0")
		require.NoError(t, err)
		assert.Equal(t, int64(1012), result.NewRating["a1"])
		assert.Equal(t, int64(1212), result.NewRating["a2"])
		assert.Equal(t, int64(888), result.NewRating["b1"])
		assert.Equal(t, int64(1088), result.NewRating["b2"])
	})

	t.Run("per bracket K is honored", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		ss := NewSettlementService(fake, fake, fake, func(bracket string) int {
			require.Equal(t, "open", bracket)
			return 16
		})

		result, err := ss.SettleMatch(ctx, matchID, "1-0")
		require.NoError(t, err)
		assert.Equal(t, int64(1008), result.NewRating["pa"])
	})

	t.Run("unknown match", func(t *testing.T) {
		fake := newFakeGraphStore()
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, "missing", "1-0")
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("invalid score aborts before any read", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "banana")
		assert.ErrorIs(t, err, ErrInvalidOutcome)
		assert.Zero(t, fake.reads)
	})

	t.Run("pending match is too early to settle", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		fake.matches[matchID].State = models.MatchStatePending
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "1-0")
		assert.ErrorIs(t, err, ErrMatchNotSettleable)
		assert.Equal(t, int64(1000), fake.ratingOf(t, "pa"))
	})

	t.Run("settling twice fails and leaves ratings untouched", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "1-0")
		require.NoError(t, err)

		_, err = ss.SettleMatch(ctx, matchID, "0-1")
		assert.ErrorIs(t, err, ErrMatchNotSettleable)

		// Ratings still reflect the first settlement only.
		assert.Equal(t, int64(1016), fake.ratingOf(t, "pa"))
		assert.Equal(t, int64(984), fake.ratingOf(t, "pb"))
		assert.Equal(t, 1, fake.writes)
	})

	t.Run("dangling team reference mutates nothing", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		delete(fake.teams, "tb")
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "1-0")
		assert.ErrorIs(t, err, ErrIncompleteGraph)
		assert.Equal(t, int64(1000), fake.ratingOf(t, "pa"))
		assert.Equal(t, models.MatchStateInProgress, fake.matches[matchID].State)
		assert.Zero(t, fake.writes)
	})

	t.Run("empty roster is a data integrity fault", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		fake.teams["tb"] = models.Team{ID: "tb", Bracket: "open", PlayerIDs: nil}
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "1-0")
		assert.ErrorIs(t, err, ErrIncompleteGraph)
		assert.Zero(t, fake.writes)
	})

	t.Run("dangling player reference mutates nothing", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		delete(fake.players, "pb")
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "1-0")
		assert.ErrorIs(t, err, ErrIncompleteGraph)
		assert.Equal(t, int64(1000), fake.ratingOf(t, "pa"))
		assert.Zero(t, fake.writes)
	})

	t.Run("wrong team cardinality", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)
		fake.matches[matchID].TeamIDs = []string{"ta"}
		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		_, err := ss.SettleMatch(ctx, matchID, "1-0")
		assert.ErrorIs(t, err, ErrIncompleteGraph)
	})

	t.Run("concurrent settlements: exactly one wins", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)

		// Both attempts read the in_progress match before either writes, so
		// the compare-and-swap is the only thing deciding the race.
		barrier := &sync.WaitGroup{}
		barrier.Add(2)
		fake.readBarrier = barrier

		ss := NewSettlementService(fake, fake, fake, fixedK(32))

		errs := make(chan error, 2)
		go func() {
			_, err := ss.SettleMatch(ctx, matchID, "1-0")
			errs <- err
		}()
		go func() {
			_, err := ss.SettleMatch(ctx, matchID, "1-0")
			errs <- err
		}()
		err1, err2 := <-errs, <-errs

		var failures int
		for _, err := range []error{err1, err2} {
			if err != nil {
				failures++
				assert.ErrorIs(t, err, ErrSettlementConflict)
			}
		}
		assert.Equal(t, 1, failures, "exactly one attempt must lose the race")
		assert.Equal(t, 1, fake.writes)

		// Final state matches the winning attempt only.
		assert.Equal(t, int64(1016), fake.ratingOf(t, "pa"))
		assert.Equal(t, int64(984), fake.ratingOf(t, "pb"))
		assert.Equal(t, models.MatchStateSettled, fake.matches[matchID].State)
	})

	t.Run("reads have no side effects", func(t *testing.T) {
		fake := newFakeGraphStore()
		matchID := fake.seedMatch(1000, 1000)

		first, err := fake.GetMatchByID(ctx, matchID)
		require.NoError(t, err)
		second, err := fake.GetMatchByID(ctx, matchID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Zero(t, fake.writes)
	})
}
