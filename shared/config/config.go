// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields that are shared across services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis-cluster:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration
	ServicePort             int           // The port this service listens on, used for registration
}

// MatchmakerServiceConfig holds configuration specific to the matchmaker service.
type MatchmakerServiceConfig struct {
	CommonConfig                            // Embed CommonConfig
	ListenAddr               string         // Address for the HTTP server (e.g., ":8080")
	MongoDBConnStr           string         // MongoDB connection string
	MongoDBDatabase          string         // MongoDB database name (e.g., "kyu")
	MongoDBUsersCollection   string         // Collection for users
	MongoDBPlayersCollection string         // Collection for players (bracket entries)
	MongoDBQueuesCollection  string         // Collection for queue entries
	MongoDBTeamsCollection   string         // Collection for teams
	MongoDBMatchesCollection string         // Collection for matches
	EloKFactor               int            // Default K used for rating updates
	EloKOverrides            map[string]int // Per-bracket K overrides, e.g. "ranked=24,open=40"
	PairingInterval          time.Duration  // How often the pairing worker scans its brackets
	QueueEntryTTL            time.Duration  // How long a queue entry may wait before it expires
	TeamRatingSyncInterval   time.Duration  // How often cached team ratings are re-aggregated
	Brackets                 []string       // Brackets the pairing worker considers
}

// WebClientConfig holds configuration for the minimal web client.
type WebClientConfig struct {
	ListenAddr    string // Address the web client serves on (e.g., ":3000")
	MatchmakerURL string // Base URL of the matchmaker service
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis-cluster:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Service IP (for registration, from the Kubernetes Pod IP)
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		cfg.ServiceIP = "0.0.0.0"
		fmt.Printf("WARNING: POD_IP not set, defaulting ServiceIP to %s\n", cfg.ServiceIP)
	}

	return cfg, nil
}

// LoadMatchmakerServiceConfig loads configuration for the matchmaker service.
func LoadMatchmakerServiceConfig() (*MatchmakerServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for matchmaker: %w", err)
	}

	cfg := &MatchmakerServiceConfig{
		CommonConfig:             common,
		ListenAddr:               os.Getenv("MATCHMAKER_LISTEN_ADDR"),
		MongoDBConnStr:           os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:          os.Getenv("MONGODB_DATABASE"),
		MongoDBUsersCollection:   os.Getenv("MONGODB_USERS_COLLECTION"),
		MongoDBPlayersCollection: os.Getenv("MONGODB_PLAYERS_COLLECTION"),
		MongoDBQueuesCollection:  os.Getenv("MONGODB_QUEUES_COLLECTION"),
		MongoDBTeamsCollection:   os.Getenv("MONGODB_TEAMS_COLLECTION"),
		MongoDBMatchesCollection: os.Getenv("MONGODB_MATCHES_COLLECTION"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017"
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "kyu"
	}
	if cfg.MongoDBUsersCollection == "" {
		cfg.MongoDBUsersCollection = "users"
	}
	if cfg.MongoDBPlayersCollection == "" {
		cfg.MongoDBPlayersCollection = "players"
	}
	if cfg.MongoDBQueuesCollection == "" {
		cfg.MongoDBQueuesCollection = "queues"
	}
	if cfg.MongoDBTeamsCollection == "" {
		cfg.MongoDBTeamsCollection = "teams"
	}
	if cfg.MongoDBMatchesCollection == "" {
		cfg.MongoDBMatchesCollection = "matches"
	}

	cfg.EloKFactor, err = getInt("ELO_K_FACTOR", 32)
	if err != nil {
		return nil, err
	}
	if cfg.EloKFactor <= 0 {
		return nil, fmt.Errorf("ELO_K_FACTOR must be a positive integer (got %d)", cfg.EloKFactor)
	}

	cfg.EloKOverrides, err = parseKOverrides(os.Getenv("ELO_K_OVERRIDES"))
	if err != nil {
		return nil, err
	}

	cfg.PairingInterval, err = getDuration("PAIRING_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.QueueEntryTTL, err = getDuration("QUEUE_ENTRY_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.TeamRatingSyncInterval, err = getDuration("TEAM_RATING_SYNC_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	bracketsStr := os.Getenv("MATCHMAKING_BRACKETS")
	if bracketsStr == "" {
		cfg.Brackets = []string{"open", "ranked"}
	} else {
		for _, b := range strings.Split(bracketsStr, ",") {
			cfg.Brackets = append(cfg.Brackets, strings.TrimSpace(b))
		}
	}

	// Extract ServicePort from ListenAddr
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from MATCHMAKER_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}

// LoadWebClientConfig loads configuration for the web client.
func LoadWebClientConfig() (*WebClientConfig, error) {
	cfg := &WebClientConfig{
		ListenAddr:    os.Getenv("WEBCLIENT_LISTEN_ADDR"),
		MatchmakerURL: os.Getenv("MATCHMAKER_URL"),
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":3000"
	}
	if cfg.MatchmakerURL == "" {
		cfg.MatchmakerURL = "http://matchmaker:8080"
	}
	return cfg, nil
}

// KFor resolves the K factor for a bracket, falling back to the default.
func (cfg *MatchmakerServiceConfig) KFor(bracket string) int {
	if k, ok := cfg.EloKOverrides[bracket]; ok {
		return k
	}
	return cfg.EloKFactor
}

// parseKOverrides parses "bracket=k,bracket=k" pairs.
func parseKOverrides(raw string) (map[string]int, error) {
	overrides := make(map[string]int)
	if raw == "" {
		return overrides, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid ELO_K_OVERRIDES entry %q, want bracket=k", pair)
		}
		k, err := strconv.Atoi(parts[1])
		if err != nil || k <= 0 {
			return nil, fmt.Errorf("invalid K value %q for bracket %q in ELO_K_OVERRIDES", parts[1], parts[0])
		}
		overrides[parts[0]] = k
	}
	return overrides, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8080" -> 8080)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
