package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/msgboard/internal/crypto"
	"github.com/eldtechnologies/msgboard/internal/metrics"
	"github.com/eldtechnologies/msgboard/internal/models"
)

// MessageStore defines the interface for persistent storage of messages.
// Both PostgresStore and SQLiteStore implement this interface.
type MessageStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Message operations
	ListAll(ctx context.Context) ([]models.Message, error)
	FindByID(ctx context.Context, id string) ([]models.Message, error)
	Save(ctx context.Context, msg *models.Message) error
}

// StorageError wraps a failure reported by the database backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsDuplicateID reports whether err is a primary key violation on insert.
func IsDuplicateID(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// uniqueViolation is the SQLSTATE Postgres reports for duplicate keys.
const uniqueViolation = "23505"

// rowScanner is satisfied by *sql.Rows and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMessage maps the (id, text) columns of the current row.
func scanMessage(row rowScanner) (models.Message, error) {
	var msg models.Message
	err := row.Scan(&msg.ID, &msg.Text)
	return msg, err
}

// assignID gives msg a fresh identifier when the caller did not supply one.
// It reports whether the identifier was generated.
func assignID(msg *models.Message) bool {
	if msg.ID != "" {
		return false
	}
	msg.ID = crypto.NewMessageID()
	return true
}

// observe records the latency of a store operation.
func observe(backend, op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// recordSave counts a persisted message by where its id came from.
func recordSave(generated bool) {
	source := "client"
	if generated {
		source = "generated"
	}
	metrics.MessagesSaved.WithLabelValues(source).Inc()
}
