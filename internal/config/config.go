package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/cardvault.db"

	// Session identity used by the orchestrator. In production this comes
	// from the authenticated session; in dev it defaults to the demo user.
	UserID string

	// UserCards maps userID -> owned cardIDs, parsed from
	// CARDVAULT_USER_CARDS ("user-001:card-001|card-002,user-002:card-003").
	// Used by the dev seeder and the in-memory ownership store.
	UserCards map[string][]string

	// Token signing
	SigningKey string
	TokenTTL   time.Duration

	// Secure viewer
	ViewTimeout time.Duration

	// Audit log bounds
	AuditMaxEvents     int // in-memory store cap; 0 = default
	AuditRetentionDays int // sqlite retention; 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("CARDVAULT_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("CARDVAULT_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("CARDVAULT_DB_PATH", "./data/cardvault.db")
	userID := getenvDefault("CARDVAULT_USER_ID", "user-001")
	userCards := parseUserCards(os.Getenv("CARDVAULT_USER_CARDS"))

	signingKey := getenvDefault("CARDVAULT_SIGNING_KEY", "")
	tokenTTL := time.Duration(getenvInt("CARDVAULT_TOKEN_TTL_SECONDS", 120)) * time.Second
	viewTimeout := time.Duration(getenvInt("CARDVAULT_VIEW_TIMEOUT_MS", 60000)) * time.Millisecond

	maxEvents := getenvInt("CARDVAULT_AUDIT_MAX_EVENTS", 0)
	retentionDays := getenvInt("CARDVAULT_AUDIT_RETENTION_DAYS", 0)
	pruneInterval := getenvInt("CARDVAULT_PRUNE_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		UserID:    userID,
		UserCards: userCards,

		SigningKey: signingKey,
		TokenTTL:   tokenTTL,

		ViewTimeout: viewTimeout,

		AuditMaxEvents:     maxEvents,
		AuditRetentionDays: retentionDays,
		PruneIntervalHours: pruneInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseUserCards parses "user-001:card-001|card-002,user-002:card-003".
// Malformed entries are skipped.
func parseUserCards(v string) map[string][]string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	out := make(map[string][]string)
	for _, entry := range strings.Split(v, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		userID, cards, ok := strings.Cut(entry, ":")
		userID = strings.TrimSpace(userID)
		if !ok || userID == "" {
			continue
		}
		for _, c := range strings.Split(cards, "|") {
			c = strings.TrimSpace(c)
			if c != "" {
				out[userID] = append(out[userID], c)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
