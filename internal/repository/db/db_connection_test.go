package db

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestInitDB_SQLiteInMemory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := InitDB(ctx, Options{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected sqlite pool capped at 1, got %d", got)
	}

	var id int64
	if err := db.GetContext(ctx, &id,
		`INSERT INTO users (username, password) VALUES (?, ?) RETURNING id`, "alice", "h"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id 1, got %d", id)
	}

	// schema is idempotent
	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestInitDB_UsernameUnique(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, Options{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('a', 'h')`); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES ('a', 'h')`); err == nil {
		t.Fatalf("expected unique violation")
	}
}

func TestSchemaFor_UnsupportedDriver(t *testing.T) {
	_, err := schemaFor("mysql")
	if err == nil || !strings.Contains(err.Error(), "unsupported driver") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}
