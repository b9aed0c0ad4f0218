package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"relaybot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists transcripts and profiles in SQLite so history
// survives a restart. It implements the same contract as MemoryStore;
// append-only semantics are enforced by never issuing UPDATE or DELETE
// on the entries table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		user_id     INTEGER PRIMARY KEY,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL REFERENCES transcripts(user_id),
		kind        INTEGER NOT NULL,
		content     TEXT,
		media_kind  INTEGER NOT NULL DEFAULT 0,
		media_ref   TEXT,
		sender      INTEGER NOT NULL,
		at          DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_user ON entries(user_id, id);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id     INTEGER PRIMARY KEY,
		first_name  TEXT,
		last_name   TEXT,
		username    TEXT,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Ensure(ctx context.Context, user domain.UserID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transcripts (user_id) VALUES (?)`, int64(user))
	if err != nil {
		return false, fmt.Errorf("ensure transcript: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Append(ctx context.Context, user domain.UserID, e domain.ConversationEntry) error {
	if _, err := s.Ensure(ctx, user); err != nil {
		return err
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (user_id, kind, content, media_kind, media_ref, sender, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(user), int(e.Kind), e.Content, int(e.Media), e.Ref, int(e.Sender), at,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, user domain.UserID) ([]domain.ConversationEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, content, media_kind, media_ref, sender, at
		 FROM entries WHERE user_id = ? ORDER BY id`, int64(user))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConversationEntry, 0, 16)
	for rows.Next() {
		var e domain.ConversationEntry
		var kind, media, sender int
		if err := rows.Scan(&kind, &e.Content, &media, &e.Ref, &sender, &e.At); err != nil {
			return nil, err
		}
		e.Kind = domain.EntryKind(kind)
		e.Media = domain.MediaKind(media)
		e.Sender = domain.Sender(sender)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) KnownUsers(ctx context.Context) ([]domain.UserID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM transcripts ORDER BY created_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, domain.UserID(id))
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, user domain.UserID, p domain.UserProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, username, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
		   first_name = excluded.first_name,
		   last_name  = excluded.last_name,
		   username   = excluded.username,
		   updated_at = CURRENT_TIMESTAMP`,
		int64(user), p.FirstName, p.LastName, p.Username,
	)
	return err
}

func (s *SQLiteStore) Profile(ctx context.Context, user domain.UserID) (domain.UserProfile, bool, error) {
	var p domain.UserProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT first_name, last_name, username FROM profiles WHERE user_id = ?`,
		int64(user)).Scan(&p.FirstName, &p.LastName, &p.Username)
	if err == sql.ErrNoRows {
		return domain.UserProfile{}, false, nil
	}
	if err != nil {
		return domain.UserProfile{}, false, err
	}
	return p, true, nil
}

func (s *SQLiteStore) Close() error {
	s.logger.Debug("closing transcript database")
	return s.db.Close()
}
