package thread

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store.
//
// It stores conversation threads in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process deployments requiring persistence
//   - Prototyping before migrating to a shared database
//
// SQLiteStore uses WAL mode for concurrent reads and transactional writes.
//
// Schema:
//   - threads: one row per conversation thread
//   - turns: ordered turn history, metadata serialized as JSON
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore creates a new SQLite-backed thread store.
//
// The path parameter specifies the database file location:
//   - "./threads.db" - file in current directory
//   - ":memory:" - in-memory database (data lost on close)
//
// The store automatically creates the database file and required tables,
// enables WAL mode, and configures a busy timeout.
//
// Example:
//
//	store, err := thread.NewSQLiteStore("./threads.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteStore{
		db:   db,
		path: path,
	}

	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates the required database schema if it doesn't exist.
func (s *SQLiteStore) createTables(ctx context.Context) error {
	threadsTable := `
		CREATE TABLE IF NOT EXISTS threads (
			id TEXT NOT NULL PRIMARY KEY,
			created_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, threadsTable); err != nil {
		return fmt.Errorf("failed to create threads table: %w", err)
	}

	turnsTable := `
		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_name TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY(thread_id) REFERENCES threads(id)
		)
	`
	if _, err := s.db.ExecContext(ctx, turnsTable); err != nil {
		return fmt.Errorf("failed to create turns table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_turns_thread_id ON turns(thread_id, id)"); err != nil {
		return fmt.Errorf("failed to create idx_turns_thread_id: %w", err)
	}

	return nil
}

// CreateThread creates a new empty thread with a generated UUID.
func (s *SQLiteStore) CreateThread(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, "INSERT INTO threads (id, created_at) VALUES (?, ?)", id, createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	return id, nil
}

// GetThread retrieves a thread with its full turn history.
//
// Returns ErrThreadNotFound if the ID doesn't exist.
func (s *SQLiteStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	var createdAtStr string
	err := s.db.QueryRowContext(ctx, "SELECT created_at FROM threads WHERE id = ?", id).Scan(&createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse thread timestamp: %w", err)
	}

	t := &Thread{ID: id, CreatedAt: createdAt}

	query := `
		SELECT role, content, tool_name, metadata, created_at
		FROM turns
		WHERE thread_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			turn         Turn
			metadataJSON string
			turnCreated  string
		)
		if err := rows.Scan(&turn.Role, &turn.Content, &turn.ToolName, &metadataJSON, &turnCreated); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}

		if metadataJSON != "" && metadataJSON != "{}" {
			if err := json.Unmarshal([]byte(metadataJSON), &turn.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal turn metadata: %w", err)
			}
		}

		turn.CreatedAt, err = time.Parse(time.RFC3339Nano, turnCreated)
		if err != nil {
			return nil, fmt.Errorf("failed to parse turn timestamp: %w", err)
		}

		t.Turns = append(t.Turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turn rows: %w", err)
	}

	return t, nil
}

// AddTurn appends a turn to an existing thread.
//
// Returns ErrThreadNotFound if the thread ID doesn't exist.
// Thread-safe for concurrent writes.
func (s *SQLiteStore) AddTurn(ctx context.Context, id string, turn Turn) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM threads WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check thread existence: %w", err)
	}
	if exists == 0 {
		return ErrThreadNotFound
	}

	metadataJSON := []byte("{}")
	if turn.Metadata != nil {
		metadataJSON, err = json.Marshal(turn.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal turn metadata: %w", err)
		}
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO turns (thread_id, role, content, tool_name, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		turn.Role,
		turn.Content,
		turn.ToolName,
		string(metadataJSON),
		turn.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to add turn: %w", err)
	}

	return nil
}

// Close closes the database connection.
//
// Calling Close multiple times is safe.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}
