// seed-admin creates or updates the admin console user. Admin users have role = 'A' and
// see every business; the backend returns role "Admin" on login.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... REDIS_ADDRESS=... \
//	SEED_ADMIN_PASSWORD=... go run ./cmd/seed-admin --business-id=<uuid>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
)

func main() {
	businessID := flag.String("business-id", "", "Required: business id the admin logs in to")
	username := flag.String("username", "gateAdmin", "Admin username")
	name := flag.String("name", "Gate Admin", "Display name")
	email := flag.String("email", "", "Optional email")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD must be set (at least 8 characters)")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	// Updating an existing admin ends its sessions, which live in redis.
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	user, err := models.UpsertUser(context.Background(), &models.SeedUserInput{
		BusinessId: strings.TrimSpace(*businessID),
		Username:   *username,
		Name:       *name,
		Email:      *email,
		Password:   password,
		Role:       models.UserRoleAdmin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded admin user: username=%q id=%d (role=Admin)\n", user.Username, user.ID)
}
