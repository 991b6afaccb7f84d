package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database behind the development marketplace backend.
type DB struct {
	*sql.DB
}

const pragmas = "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

// Open opens the chat database at path. A single connection is kept so
// concurrent sends from HTTP handlers are serialized by database/sql
// instead of surfacing SQLITE_BUSY.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db %s: %w", path, err)
	}
	return &DB{db}, nil
}
