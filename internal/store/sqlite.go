package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/msgboard/internal/models"
)

// DefaultSQLitePath is used when no database path is configured.
const DefaultSQLitePath = "./data/msgboard.db"

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to DefaultSQLitePath.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = DefaultSQLitePath
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates the messages table if it doesn't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id   TEXT PRIMARY KEY NOT NULL,
			text TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListAll retrieves every message in storage order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]models.Message, error) {
	defer observe("sqlite", "list", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT id, text FROM messages`)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	messages, err := collectRows(rows)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return messages, nil
}

// FindByID retrieves all messages stored under id.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) ([]models.Message, error) {
	defer observe("sqlite", "find", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT id, text FROM messages WHERE id = ?`, id)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	defer rows.Close()

	messages, err := collectRows(rows)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return messages, nil
}

// Save inserts msg, generating an ID first if it has none.
func (s *SQLiteStore) Save(ctx context.Context, msg *models.Message) error {
	defer observe("sqlite", "save", time.Now())

	generated := assignID(msg)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, text) VALUES (?, ?)
	`, msg.ID, msg.Text)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	recordSave(generated)
	return nil
}

func collectRows(rows *sql.Rows) ([]models.Message, error) {
	messages := []models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
