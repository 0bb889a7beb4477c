package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions and conversation exchanges in PostgreSQL.
type Store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewStore creates a Store with a pgx connection pool.
func NewStore(dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return &Store{db: pool, logger: logger}, nil
}

// Migrate reads and executes all .up.sql files from the migrations
// directory in lexical order.
func (s *Store) Migrate(ctx context.Context, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		s.logger.Info("Migration applied", zap.String("file", f))
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.db.Close()
}

// CreateSession inserts a new session for the user and returns its ID.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, status)
		VALUES (gen_random_uuid(), $1, 'active')
		RETURNING id`, userID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// SessionUser returns the owning user of a session.
func (s *Store) SessionUser(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx,
		`SELECT user_id FROM sessions WHERE id = $1`, sessionID,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session user: %w", err)
	}
	return userID, nil
}

// SessionCount returns how many sessions the user has opened.
func (s *Store) SessionCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("session count: %w", err)
	}
	return n, nil
}

// AppendExchange stores one user message and the assistant response with
// the turn's metadata.
func (s *Store) AppendExchange(ctx context.Context, sessionID, userMsg, response string, meta map[string]any) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO messages (id, session_id, role, content, metadata)
		VALUES (gen_random_uuid(), $1, 'user', $2, $3)`,
		sessionID, userMsg, metaJSON)
	batch.Queue(`
		INSERT INTO messages (id, session_id, role, content, metadata)
		VALUES (gen_random_uuid(), $1, 'assistant', $2, $3)`,
		sessionID, response, metaJSON)

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("append exchange: %w", err)
		}
	}
	return nil
}

// History returns up to limit recent messages for a session,
// most-recent-last.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx, `
		SELECT role, content, metadata FROM (
			SELECT role, content, metadata, created_at
			FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(&e.Role, &e.Content, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if len(metaJSON) > 0 {
			json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveProfile upserts the serialized profile and assessment for a user.
func (s *Store) SaveProfile(ctx context.Context, userID string, profileJSON, assessmentJSON []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, profile, assessment, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id)
		DO UPDATE SET profile = $2, assessment = $3, updated_at = now()`,
		userID, profileJSON, assessmentJSON)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadProfile returns the serialized profile and assessment for a user,
// or (nil, nil, nil) when none is stored yet.
func (s *Store) LoadProfile(ctx context.Context, userID string) (profileJSON, assessmentJSON []byte, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT profile, assessment FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&profileJSON, &assessmentJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	return profileJSON, assessmentJSON, nil
}
