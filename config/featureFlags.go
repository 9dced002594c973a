package config

import (
	"os"
	"strings"
)

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// GateAutoCreateEnabled controls whether submitting an eligible stock entry
// queues creation of its gate pass.
//
// Set via env:
// - GATE_PASS_AUTO_CREATE=false to disable (default on)
func GateAutoCreateEnabled() bool {
	return envBool("GATE_PASS_AUTO_CREATE", true)
}

// GateJobsInline runs gate pass jobs on a goroutine instead of the Pub/Sub outbox.
// Intended for local runs without an emulator.
//
// Set via env:
// - GATE_PASS_JOBS_INLINE=true
func GateJobsInline() bool {
	return envBool("GATE_PASS_JOBS_INLINE", false)
}

// SkipMigrations leaves schema changes to cmd/migrate.
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS", false)
}

// RateLimitEnabled turns on the redis-backed per-client limiter.
func RateLimitEnabled() bool {
	return envBool("RATE_LIMIT_ENABLED", false)
}
