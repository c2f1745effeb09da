package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no board matches the given id.
	ErrNotFound = errors.New("board not found")
	// ErrConflict is returned when a board kept changing under Mutate.
	ErrConflict = errors.New("board changed concurrently")
)

// Connect opens the database and verifies the connection.
// SQLite only supports one writer at a time, and an in-memory database lives
// on a single connection, so sqlite3 handles are limited to one connection.
func Connect(driverName, dsn string) (*sqlx.DB, error) {
	if _, err := dialectFor(driverName); err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if driverName == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	return db, nil
}

// Migrate creates the boards and users tables if they don't exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", d.name, err)
		}
	}
	return nil
}
