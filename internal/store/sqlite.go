package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers while a write is in flight.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		study TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);

	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		questions_json TEXT NOT NULL,
		current_index INTEGER NOT NULL DEFAULT 0,
		history_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interviews_username ON interviews(username);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateCandidate inserts a new candidate.
func (s *SQLiteStore) CreateCandidate(ctx context.Context, c *domain.Candidate) error {
	query := `
	INSERT INTO candidates (id, username, password_hash, study, target, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Username, c.PasswordHash, c.FieldOfStudy, c.TargetEmployer, c.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by username.
func (s *SQLiteStore) GetCandidate(ctx context.Context, username string) (*domain.Candidate, error) {
	query := `
		SELECT id, username, password_hash, study, target, created_at
		FROM candidates WHERE username = ?`

	var c domain.Candidate
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&c.ID, &c.Username, &c.PasswordHash, &c.FieldOfStudy, &c.TargetEmployer, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate row: %w", err)
	}
	c.CreatedAt = time.UnixMilli(createdAt)
	return &c, nil
}

// CreateSession stores a session token.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *domain.Session) error {
	query := `INSERT INTO sessions (token, username, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, sess.Token, sess.Username, sess.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token.
func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT token, username, created_at FROM sessions WHERE token = ?`

	var sess domain.Session
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, token).Scan(&sess.Token, &sess.Username, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	sess.CreatedAt = time.UnixMilli(createdAt)
	return &sess, nil
}

// DeleteExpiredSessions removes sessions older than ttl.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	threshold := time.Now().Add(-ttl).UnixMilli()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// CreateInterview inserts a new interview.
func (s *SQLiteStore) CreateInterview(ctx context.Context, iv *domain.Interview) error {
	questionsJSON, historyJSON, err := encodeInterview(iv)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO interviews (id, username, questions_json, current_index, history_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		iv.ID, iv.Username, questionsJSON, iv.CurrentIndex, historyJSON,
		iv.CreatedAt.UnixMilli(), iv.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

// GetInterview retrieves an interview by id.
func (s *SQLiteStore) GetInterview(ctx context.Context, id string) (*domain.Interview, error) {
	query := `
		SELECT id, username, questions_json, current_index, history_json, created_at, updated_at
		FROM interviews WHERE id = ?`

	iv, err := scanInterview(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return iv, nil
}

// UpdateInterview persists the cursor and history with a compare-and-swap on the cursor.
// SQLITE_BUSY errors are retried with exponential backoff.
func (s *SQLiteStore) UpdateInterview(ctx context.Context, iv *domain.Interview, expectedIndex int) error {
	_, historyJSON, err := encodeInterview(iv)
	if err != nil {
		return err
	}

	query := `
	UPDATE interviews SET current_index = ?, history_json = ?, updated_at = ?
	WHERE id = ? AND current_index = ?`

	return shared.RetryOnBusy(ctx, 3, 50*time.Millisecond, func() error {
		result, err := s.db.ExecContext(ctx, query,
			iv.CurrentIndex, historyJSON, iv.UpdatedAt.UnixMilli(), iv.ID, expectedIndex,
		)
		if err != nil {
			return fmt.Errorf("update interview: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			slog.Warn("UpdateInterview affected 0 rows", "interview_id", iv.ID, "expected_index", expectedIndex)
			return domain.ErrConflict
		}
		return nil
	})
}

// ListInterviews returns every interview owned by username.
func (s *SQLiteStore) ListInterviews(ctx context.Context, username string) ([]*domain.Interview, error) {
	query := `
		SELECT id, username, questions_json, current_index, history_json, created_at, updated_at
		FROM interviews WHERE username = ? ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("query interviews: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close interview rows", "error", closeErr)
		}
	}()

	var out []*domain.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interviews: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*domain.Interview, error) {
	var iv domain.Interview
	var questionsJSON, historyJSON string
	var createdAt, updatedAt int64

	err := row.Scan(&iv.ID, &iv.Username, &questionsJSON, &iv.CurrentIndex, &historyJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan interview row: %w", err)
	}
	if err := json.Unmarshal([]byte(questionsJSON), &iv.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for %s: %w", iv.ID, err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &iv.History); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", iv.ID, err)
	}
	iv.CreatedAt = time.UnixMilli(createdAt)
	iv.UpdatedAt = time.UnixMilli(updatedAt)
	return &iv, nil
}

func encodeInterview(iv *domain.Interview) (string, string, error) {
	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return "", "", fmt.Errorf("encode questions: %w", err)
	}
	history := iv.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", "", fmt.Errorf("encode history: %w", err)
	}
	return string(questions), string(historyJSON), nil
}
