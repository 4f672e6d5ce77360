package sqlite

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const busyTimeoutPragma = "_pragma=busy_timeout(5000)"

// NewGorm opens (creating if needed) the SQLite database at path.
// It backs local development and the test suites; production runs on Postgres.
func NewGorm(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,

		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: retrieve sql db: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions serialised.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + busyTimeoutPragma
}
