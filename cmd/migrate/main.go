// migrate runs the schema migrations that the API skips when SKIP_MIGRATIONS=true.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/migrate
package main

import (
	"fmt"
	"os"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
	"github.com/sirupsen/logrus"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	config.GetLogger().WithFields(logrus.Fields{"field": "migrations"}).Info("running AutoMigrate")
	models.MigrateTable()
	fmt.Println("migrations complete")
}
