// matchmaker/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/djobbo/Kyu-System/matchmaker/service"
	"github.com/djobbo/Kyu-System/shared/api"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/djobbo/Kyu-System/shared/rating"
	"github.com/gorilla/mux"
)

// MatchmakerAPIHandlers holds references to the services that handle business logic.
type MatchmakerAPIHandlers struct {
	RosterService     *service.RosterService
	QueueService      *service.QueueService
	TeamService       *service.TeamService
	MatchService      *service.MatchService
	SettlementService *service.SettlementService
	DefaultK          int // Used by the rating compute endpoint when no K is supplied
}

// NewMatchmakerAPIHandlers is the constructor for the API handlers.
func NewMatchmakerAPIHandlers(rs *service.RosterService, qs *service.QueueService, ts *service.TeamService, ms *service.MatchService, ss *service.SettlementService, defaultK int) *MatchmakerAPIHandlers {
	return &MatchmakerAPIHandlers{
		RosterService:     rs,
		QueueService:      qs,
		TeamService:       ts,
		MatchService:      ms,
		SettlementService: ss,
		DefaultK:          defaultK,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// These are specific to the API and might differ slightly from the models if needed.
type CreateUserRequest struct {
	Name      string `json:"name"`
	DiscordID string `json:"discordId"`
}

type CreatePlayerRequest struct {
	UserID  string `json:"userId"`
	Bracket string `json:"bracket"`
}

type CreateQueueRequest struct {
	PlayerID string `json:"playerId"`
}

type CreateTeamRequest struct {
	PlayerIDs []string `json:"playerIds"`
	Bracket   string   `json:"bracket"`
}

type CreateMatchRequest struct {
	TeamIDs []string `json:"teamIds"`
	Bracket string   `json:"bracket"`
	State   string   `json:"state"` // "pending" (default) or "in_progress"
}

type MatchResultRequest struct {
	Score string `json:"score"` // "<a>-<b>", e.g. "2-1"
}

type ComputeRatingRequest struct {
	RatingA int64   `json:"ratingA"`
	RatingB int64   `json:"ratingB"`
	ScoreA  float64 `json:"scoreA"` // 1 win, 0 loss, 0.5 draw
	K       int     `json:"k"`      // Optional, defaults to the configured K
}

type ComputeRatingResponse struct {
	ExpectedA  float64 `json:"expectedA"`
	ExpectedB  float64 `json:"expectedB"`
	NewRatingA int64   `json:"newRatingA"`
	NewRatingB int64   `json:"newRatingB"`
	K          int     `json:"k"`
}

type SyncTeamRatingsResponse struct {
	TeamRatings map[string]int64 `json:"teamRatings"`
	Message     string           `json:"message"`
}

// --- User Handlers ---

// CreateUserHandler handles requests to register a new user.
// POST /users
func (mah *MatchmakerAPIHandlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		api.WriteError(w, http.StatusBadRequest, "User name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := mah.RosterService.CreateUser(ctx, req.Name, req.DiscordID)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Name, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	api.WriteJSON(w, http.StatusCreated, user)
	log.Printf("User %s (%s) created successfully.", user.Name, user.ID)
}

// GetUserHandler handles requests to retrieve a user by ID.
// GET /users/{id}
func (mah *MatchmakerAPIHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := mah.RosterService.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("User %s not found", id))
			return
		}
		log.Printf("Error getting user %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}

// GetUserByDiscordHandler handles requests to look a user up by Discord ID.
// GET /users/discord/{discordID}
func (mah *MatchmakerAPIHandlers) GetUserByDiscordHandler(w http.ResponseWriter, r *http.Request) {
	discordID := mux.Vars(r)["discordID"]
	if discordID == "" {
		api.WriteError(w, http.StatusBadRequest, "Discord ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := mah.RosterService.GetUserByDiscordID(ctx, discordID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("No user with Discord ID %s", discordID))
			return
		}
		log.Printf("Error getting user by discord id %s: %v", discordID, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}

// ListUsersHandler handles requests to list every user.
// GET /users
func (mah *MatchmakerAPIHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	users, err := mah.RosterService.ListUsers(ctx)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	api.WriteJSON(w, http.StatusOK, users)
}

// GetUserPlayersHandler handles requests to list a user's bracket entries.
// GET /users/{id}/players
func (mah *MatchmakerAPIHandlers) GetUserPlayersHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := mah.RosterService.GetUser(ctx, id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("User %s not found", id))
			return
		}
		log.Printf("Error checking user %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}

	players, err := mah.RosterService.GetPlayersForUser(ctx, id)
	if err != nil {
		log.Printf("Error listing players for user %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list players")
		return
	}

	api.WriteJSON(w, http.StatusOK, players)
}

// --- Player Handlers ---

// CreatePlayerHandler handles requests to enter a user into a bracket.
// Joining the same bracket twice returns the existing entry unchanged.
// POST /players
func (mah *MatchmakerAPIHandlers) CreatePlayerHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Bracket == "" {
		api.WriteError(w, http.StatusBadRequest, "User ID and bracket are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := mah.RosterService.JoinBracket(ctx, req.UserID, req.Bracket)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("User %s not found", req.UserID))
			return
		}
		log.Printf("Error creating player for user %s in bracket %s: %v", req.UserID, req.Bracket, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to create player")
		return
	}

	api.WriteJSON(w, http.StatusCreated, player)
	log.Printf("Player %s ready for user %s in bracket %s.", player.ID, req.UserID, req.Bracket)
}

// GetPlayerHandler handles requests to retrieve a player by ID.
// GET /players/{id}
func (mah *MatchmakerAPIHandlers) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	player, err := mah.RosterService.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Player %s not found", id))
			return
		}
		log.Printf("Error getting player %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve player")
		return
	}

	api.WriteJSON(w, http.StatusOK, player)
}

// ListPlayersHandler handles requests to list every player.
// GET /players
func (mah *MatchmakerAPIHandlers) ListPlayersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	players, err := mah.RosterService.ListPlayers(ctx)
	if err != nil {
		log.Printf("Error listing players: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list players")
		return
	}

	api.WriteJSON(w, http.StatusOK, players)
}

// GetPlayerQueuesHandler handles requests to list a player's queue entries.
// GET /players/{id}/queues
func (mah *MatchmakerAPIHandlers) GetPlayerQueuesHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	queues, err := mah.QueueService.GetQueuesForPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Player %s not found", id))
			return
		}
		log.Printf("Error listing queue entries for player %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list queue entries")
		return
	}

	api.WriteJSON(w, http.StatusOK, queues)
}

// GetPlayerTeamsHandler handles requests to list the teams a player is
// rostered on.
// GET /players/{id}/teams
func (mah *MatchmakerAPIHandlers) GetPlayerTeamsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teams, err := mah.TeamService.GetTeamsForPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Player %s not found", id))
			return
		}
		log.Printf("Error listing teams for player %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list teams")
		return
	}

	api.WriteJSON(w, http.StatusOK, teams)
}

// --- Queue Handlers ---

// CreateQueueHandler handles requests to enter a player into the queue of
// their bracket.
// POST /queues
func (mah *MatchmakerAPIHandlers) CreateQueueHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		api.WriteError(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	queue, err := mah.QueueService.EnterQueue(ctx, req.PlayerID)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Player %s not found", req.PlayerID))
			return
		}
		log.Printf("Error queueing player %s: %v", req.PlayerID, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to create queue entry")
		return
	}

	api.WriteJSON(w, http.StatusCreated, queue)
	log.Printf("Player %s queued in bracket %s (entry %s).", req.PlayerID, queue.Bracket, queue.ID)
}

// GetQueueHandler handles requests to retrieve a queue entry by ID.
// GET /queues/{id}
func (mah *MatchmakerAPIHandlers) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Queue entry ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	queue, err := mah.QueueService.GetQueue(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrQueueNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Queue entry %s not found", id))
			return
		}
		log.Printf("Error getting queue entry %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve queue entry")
		return
	}

	api.WriteJSON(w, http.StatusOK, queue)
}

// ListQueuesHandler handles requests to list every queue entry.
// GET /queues
func (mah *MatchmakerAPIHandlers) ListQueuesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	queues, err := mah.QueueService.ListQueues(ctx)
	if err != nil {
		log.Printf("Error listing queue entries: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list queue entries")
		return
	}

	api.WriteJSON(w, http.StatusOK, queues)
}

// --- Team Handlers ---

// CreateTeamHandler handles requests to form a team. A team with the same
// roster in the same bracket is returned instead of duplicated.
// POST /teams
func (mah *MatchmakerAPIHandlers) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.PlayerIDs) == 0 || req.Bracket == "" {
		api.WriteError(w, http.StatusBadRequest, "Player IDs and bracket are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := mah.TeamService.CreateTeam(ctx, req.PlayerIDs, req.Bracket)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			api.WriteError(w, http.StatusNotFound, "One or more roster players not found")
			return
		}
		log.Printf("Error creating team in bracket %s: %v", req.Bracket, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	api.WriteJSON(w, http.StatusCreated, team)
	log.Printf("Team %s ready in bracket %s (%d players).", team.ID, team.Bracket, len(team.PlayerIDs))
}

// GetTeamHandler handles requests to retrieve a team by ID.
// GET /teams/{id}
func (mah *MatchmakerAPIHandlers) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Team ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := mah.TeamService.GetTeam(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Team %s not found", id))
			return
		}
		log.Printf("Error getting team %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve team")
		return
	}

	api.WriteJSON(w, http.StatusOK, team)
}

// ListTeamsHandler handles requests to list every team.
// GET /teams
func (mah *MatchmakerAPIHandlers) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	teams, err := mah.TeamService.ListTeams(ctx)
	if err != nil {
		log.Printf("Error listing teams: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list teams")
		return
	}

	api.WriteJSON(w, http.StatusOK, teams)
}

// GetTeamPlayersHandler handles requests to resolve a team's roster.
// GET /teams/{id}/players
func (mah *MatchmakerAPIHandlers) GetTeamPlayersHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Team ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	players, err := mah.TeamService.GetTeamPlayers(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Team %s not found", id))
			return
		}
		log.Printf("Error resolving roster for team %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to resolve team roster")
		return
	}

	api.WriteJSON(w, http.StatusOK, players)
}

// SyncTeamRatingsHandler aggregates player ratings from MongoDB and updates
// the cached team averages.
// POST /teams/sync-ratings
func (mah *MatchmakerAPIHandlers) SyncTeamRatingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second) // Longer timeout for aggregation
	defer cancel()

	teamRatings, err := mah.TeamService.SyncTeamRatings(ctx)
	if err != nil {
		log.Printf("Error in team rating aggregation: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to aggregate team ratings")
		return
	}

	api.WriteJSON(w, http.StatusOK, SyncTeamRatingsResponse{
		TeamRatings: teamRatings,
		Message:     "Team ratings aggregated and updated in MongoDB successfully.",
	})
}

// GetTeamMatchesHandler handles requests to list the matches a team took
// part in.
// GET /teams/{id}/matches
func (mah *MatchmakerAPIHandlers) GetTeamMatchesHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Team ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	matches, err := mah.MatchService.GetMatchesForTeam(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Team %s not found", id))
			return
		}
		log.Printf("Error listing matches for team %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list matches")
		return
	}

	api.WriteJSON(w, http.StatusOK, matches)
}

// --- Match Handlers ---

// CreateMatchHandler handles requests to record a new match.
// POST /matches
func (mah *MatchmakerAPIHandlers) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Bracket == "" {
		api.WriteError(w, http.StatusBadRequest, "Bracket is required")
		return
	}
	state := models.MatchState(req.State)
	if req.State == "" {
		state = models.MatchStatePending
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	match, err := mah.MatchService.CreateMatch(ctx, req.TeamIDs, req.Bracket, state)
	if err != nil {
		if errors.Is(err, service.ErrIncompleteGraph) {
			api.WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Match references do not resolve: %v", err))
			return
		}
		log.Printf("Error creating match in bracket %s: %v", req.Bracket, err)
		api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Failed to create match: %v", err))
		return
	}

	api.WriteJSON(w, http.StatusCreated, match)
	log.Printf("Match %s created in bracket %s (%s).", match.ID, match.Bracket, match.State)
}

// GetMatchHandler handles requests to retrieve a match by ID.
// GET /matches/{id}
func (mah *MatchmakerAPIHandlers) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Match ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	match, err := mah.MatchService.GetMatch(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Match %s not found", id))
			return
		}
		log.Printf("Error getting match %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to retrieve match")
		return
	}

	api.WriteJSON(w, http.StatusOK, match)
}

// ListMatchesHandler handles requests to list every match.
// GET /matches
func (mah *MatchmakerAPIHandlers) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	matches, err := mah.MatchService.ListMatches(ctx)
	if err != nil {
		log.Printf("Error listing matches: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to list matches")
		return
	}

	api.WriteJSON(w, http.StatusOK, matches)
}

// GetMatchTeamsHandler handles requests to resolve a match's teams.
// GET /matches/{id}/teams
func (mah *MatchmakerAPIHandlers) GetMatchTeamsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Match ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teams, err := mah.MatchService.GetMatchTeams(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Match %s not found", id))
			return
		}
		log.Printf("Error resolving teams for match %s: %v", id, err)
		api.WriteError(w, http.StatusInternalServerError, "Failed to resolve match teams")
		return
	}

	api.WriteJSON(w, http.StatusOK, teams)
}

// SetMatchResultHandler handles requests to settle a finished match. On
// success it returns the applied ratings; a lost settlement race returns 409
// and the caller should re-fetch the match to observe the committed outcome.
// POST /matches/{id}/result
func (mah *MatchmakerAPIHandlers) SetMatchResultHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "Match ID is required")
		return
	}

	var req MatchResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := mah.SettlementService.SettleMatch(ctx, id, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Match %s not found", id))
		case errors.Is(err, service.ErrInvalidOutcome):
			api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Score %q does not encode a valid outcome", req.Score))
		case errors.Is(err, service.ErrMatchNotSettleable):
			api.WriteError(w, http.StatusConflict, fmt.Sprintf("Match %s is not in a settleable state", id))
		case errors.Is(err, service.ErrSettlementConflict):
			api.WriteError(w, http.StatusConflict, fmt.Sprintf("Match %s was settled concurrently", id))
		case errors.Is(err, service.ErrIncompleteGraph):
			api.WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Match %s references teams or players that do not resolve", id))
		default:
			log.Printf("Error settling match %s: %v", id, err)
			api.WriteError(w, http.StatusInternalServerError, "Failed to settle match")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
	log.Printf("Match %s settled via API with score %s.", id, req.Score)
}

// --- Rating Handlers ---

// ComputeRatingHandler exposes the rating engine directly for tooling: given
// two ratings and an actual score it returns the expected scores and the
// post-update ratings without touching any stored document.
// POST /rating/compute
func (mah *MatchmakerAPIHandlers) ComputeRatingHandler(w http.ResponseWriter, r *http.Request) {
	var req ComputeRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScoreA != 0 && req.ScoreA != 0.5 && req.ScoreA != 1 {
		api.WriteError(w, http.StatusBadRequest, "scoreA must be 0, 0.5 or 1")
		return
	}
	k := req.K
	if k == 0 {
		k = mah.DefaultK
	}
	if k < 0 {
		api.WriteError(w, http.StatusBadRequest, "k must be positive")
		return
	}

	api.WriteJSON(w, http.StatusOK, ComputeRatingResponse{
		ExpectedA:  rating.ExpectedScore(req.RatingA, req.RatingB),
		ExpectedB:  rating.ExpectedScore(req.RatingB, req.RatingA),
		NewRatingA: rating.NewRating(k, req.RatingA, req.RatingB, req.ScoreA),
		NewRatingB: rating.NewRating(k, req.RatingB, req.RatingA, 1-req.ScoreA),
		K:          k,
	})
}

// HealthzHandler reports liveness.
// GET /healthz
func (mah *MatchmakerAPIHandlers) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterRoutes registers all API endpoints for the Matchmaker Service.
// This method is called from main.go to set up the HTTP routes.
func (mah *MatchmakerAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", mah.CreateUserHandler).Methods("POST")
	router.HandleFunc("/users", mah.ListUsersHandler).Methods("GET")
	router.HandleFunc("/users/discord/{discordID}", mah.GetUserByDiscordHandler).Methods("GET")
	router.HandleFunc("/users/{id}", mah.GetUserHandler).Methods("GET")
	router.HandleFunc("/users/{id}/players", mah.GetUserPlayersHandler).Methods("GET")

	router.HandleFunc("/players", mah.CreatePlayerHandler).Methods("POST")
	router.HandleFunc("/players", mah.ListPlayersHandler).Methods("GET")
	router.HandleFunc("/players/{id}", mah.GetPlayerHandler).Methods("GET")
	router.HandleFunc("/players/{id}/queues", mah.GetPlayerQueuesHandler).Methods("GET")
	router.HandleFunc("/players/{id}/teams", mah.GetPlayerTeamsHandler).Methods("GET")

	router.HandleFunc("/queues", mah.CreateQueueHandler).Methods("POST")
	router.HandleFunc("/queues", mah.ListQueuesHandler).Methods("GET")
	router.HandleFunc("/queues/{id}", mah.GetQueueHandler).Methods("GET")

	router.HandleFunc("/teams", mah.CreateTeamHandler).Methods("POST")
	router.HandleFunc("/teams", mah.ListTeamsHandler).Methods("GET")
	router.HandleFunc("/teams/sync-ratings", mah.SyncTeamRatingsHandler).Methods("POST")
	router.HandleFunc("/teams/{id}", mah.GetTeamHandler).Methods("GET")
	router.HandleFunc("/teams/{id}/players", mah.GetTeamPlayersHandler).Methods("GET")
	router.HandleFunc("/teams/{id}/matches", mah.GetTeamMatchesHandler).Methods("GET")

	router.HandleFunc("/matches", mah.CreateMatchHandler).Methods("POST")
	router.HandleFunc("/matches", mah.ListMatchesHandler).Methods("GET")
	router.HandleFunc("/matches/{id}", mah.GetMatchHandler).Methods("GET")
	router.HandleFunc("/matches/{id}/teams", mah.GetMatchTeamsHandler).Methods("GET")
	router.HandleFunc("/matches/{id}/result", mah.SetMatchResultHandler).Methods("POST")

	router.HandleFunc("/rating/compute", mah.ComputeRatingHandler).Methods("POST")
	router.HandleFunc("/healthz", mah.HealthzHandler).Methods("GET")
}
