package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"signalSentry/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.ProcessedIDRepository using SQLite. Each
// storage ID owns its own slice of the processed_messages table, so units
// never see each other's state.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/signal_sentry.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS processed_messages (
		storage_id   TEXT NOT NULL,
		message_id   INTEGER NOT NULL,
		processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (storage_id, message_id)
	);
	CREATE INDEX IF NOT EXISTS idx_processed_messages_storage ON processed_messages (storage_id);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// LoadProcessedIDs returns every message ID recorded under storageID.
func (r *Repository) LoadProcessedIDs(ctx context.Context, storageID string) (map[int]struct{}, error) {
	const query = `SELECT message_id FROM processed_messages WHERE storage_id = ?`

	rows, err := r.db.QueryContext(ctx, query, storageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed IDs for '%s': %w: %w", storageID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan processed ID for '%s': %w", storageID, err)
		}
		ids[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processed ID rows for '%s': %w", storageID, err)
	}
	r.logger.Debug(ctx, "Processed IDs loaded", map[string]interface{}{"storageID": storageID, "count": len(ids)})
	return ids, nil
}

// AppendProcessedID records one handled message ID under storageID.
// Re-recording an already-known ID is a no-op, which keeps the operation
// idempotent across restarts.
func (r *Repository) AppendProcessedID(ctx context.Context, storageID string, messageID int) error {
	const query = `INSERT OR IGNORE INTO processed_messages (storage_id, message_id) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, storageID, messageID); err != nil {
		return fmt.Errorf("failed to record processed ID %d for '%s': %w: %w", messageID, storageID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Processed ID recorded", map[string]interface{}{"storageID": storageID, "messageID": messageID})
	return nil
}
