package testdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"matlog/internal/db"
)

// Open returns a migrated in-memory sqlite database closed at test cleanup.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	if err := db.RunMigrations(context.Background(), conn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return conn
}

// Exec runs raw SQL, e.g. to install failure triggers.
func Exec(t *testing.T, conn *sqlx.DB, query string) {
	t.Helper()
	if _, err := conn.Exec(query); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// Clock returns a time source that advances one second per call, starting at start.
func Clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}
