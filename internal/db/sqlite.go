package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenSQLite opens a SQLite database. It backs RockDeals and the test suites.
func OpenSQLite(dsn string, debug bool) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(dsn), GormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	return conn, nil
}

// MemoryDSN returns a shared in-memory SQLite DSN unique to name.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}
