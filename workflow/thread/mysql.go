package thread

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// MySQLStore is a MySQL/MariaDB implementation of Store.
//
// Designed for:
//   - Production deployments requiring persistence
//   - Shared conversation history across multiple workers
//   - Audit trails of workflow consultations
//
// MySQLStore uses connection pooling and parameterized queries.
//
// Schema:
//   - threads: one row per conversation thread
//   - turns: ordered turn history, metadata stored as JSON
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed thread store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Security Warning:
//
//	NEVER hardcode credentials in your source code. Use environment variables:
//	    dsn := os.Getenv("MYSQL_DSN")
//	    store, err := thread.NewMySQLStore(dsn)
//
// The store automatically creates required tables and configures
// connection pooling.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	store := &MySQLStore{db: db}

	if err := store.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates the required database schema if it doesn't exist.
func (m *MySQLStore) createTables(ctx context.Context) error {
	threadsTable := `
		CREATE TABLE IF NOT EXISTS threads (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			created_at TIMESTAMP(6) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, threadsTable); err != nil {
		return fmt.Errorf("failed to create threads table: %w", err)
	}

	turnsTable := `
		CREATE TABLE IF NOT EXISTS turns (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			thread_id VARCHAR(36) NOT NULL,
			role VARCHAR(32) NOT NULL,
			content MEDIUMTEXT NOT NULL,
			tool_name VARCHAR(255) NOT NULL DEFAULT '',
			metadata JSON NOT NULL,
			created_at TIMESTAMP(6) NOT NULL,
			INDEX idx_thread_id (thread_id, id),
			FOREIGN KEY (thread_id) REFERENCES threads(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, turnsTable); err != nil {
		return fmt.Errorf("failed to create turns table: %w", err)
	}

	return nil
}

// CreateThread creates a new empty thread with a generated UUID.
func (m *MySQLStore) CreateThread(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return "", fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	id := uuid.NewString()
	_, err := m.db.ExecContext(ctx,
		"INSERT INTO threads (id, created_at) VALUES (?, ?)",
		id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	return id, nil
}

// GetThread retrieves a thread with its full turn history.
//
// Returns ErrThreadNotFound if the ID doesn't exist.
func (m *MySQLStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	t := &Thread{ID: id}
	err := m.db.QueryRowContext(ctx, "SELECT created_at FROM threads WHERE id = ?", id).Scan(&t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	query := `
		SELECT role, content, tool_name, metadata, created_at
		FROM turns
		WHERE thread_id = ?
		ORDER BY id ASC
	`
	rows, err := m.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			turn         Turn
			metadataJSON []byte
		)
		if err := rows.Scan(&turn.Role, &turn.Content, &turn.ToolName, &metadataJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}

		if len(metadataJSON) > 0 && string(metadataJSON) != "{}" {
			if err := json.Unmarshal(metadataJSON, &turn.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal turn metadata: %w", err)
			}
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
func (m *MySQLStore) AddTurn(ctx context.Context, id string, turn Turn) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	var exists int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM threads WHERE id = ?", id).Scan(&exists)
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
	_, err = m.db.ExecContext(ctx, query,
		id, turn.Role, turn.Content, turn.ToolName, string(metadataJSON), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add turn: %w", err)
	}

	return nil
}

// Close closes the database connection.
//
// Calling Close multiple times is safe.
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	return m.db.PingContext(ctx)
}
