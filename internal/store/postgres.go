package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/msgboard/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates the messages table if it doesn't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id   TEXT PRIMARY KEY,
			text TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListAll retrieves every message in storage order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]models.Message, error) {
	defer observe("postgres", "list", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT id, text FROM messages`)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	messages, err := collectPgRows(rows)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return messages, nil
}

// FindByID retrieves all messages stored under id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) ([]models.Message, error) {
	defer observe("postgres", "find", time.Now())

	rows, err := s.pool.Query(ctx, `SELECT id, text FROM messages WHERE id = $1`, id)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}

	messages, err := collectPgRows(rows)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return messages, nil
}

// Save inserts msg, generating an ID first if it has none.
func (s *PostgresStore) Save(ctx context.Context, msg *models.Message) error {
	defer observe("postgres", "save", time.Now())

	generated := assignID(msg)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, text) VALUES ($1, $2)
	`, msg.ID, msg.Text)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	recordSave(generated)
	return nil
}

func collectPgRows(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

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
