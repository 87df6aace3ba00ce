package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the database handle and hands out repositories.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// missing tables. A bare file path is accepted as well as a file: URI.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite has a single writer; one connection keeps pragmas and
	// transactions on the same handle.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DSN turns a path into a file: URI carrying the connection pragmas.
// Values that are already URIs pass through unchanged.
func DSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SkillRepo() SkillRepo         { return &skillRepo{db: s.db} }
func (s *Store) UserSkillRepo() UserSkillRepo { return &userSkillRepo{db: s.db} }
func (s *Store) ReviewRepo() ReviewRepo       { return &reviewRepo{db: s.db} }
func (s *Store) QuizRepo() QuizRepo           { return &quizRepo{db: s.db} }
func (s *Store) AttemptRepo() AttemptRepo     { return &attemptRepo{db: s.db} }
func (s *Store) ObjectiveRepo() ObjectiveRepo { return &objectiveRepo{db: s.db} }
func (s *Store) MilestoneRepo() MilestoneRepo { return &milestoneRepo{db: s.db} }
func (s *Store) ProfileRepo() ProfileRepo     { return &profileRepo{db: s.db} }
func (s *Store) SprintRepo() SprintRepo       { return &sprintRepo{db: s.db} }
func (s *Store) EventRepo() EventRepo         { return &eventRepo{db: s.db} }

// applyPragmas configures SQLite for single-user workloads.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PATHWISE_DB environment variable
// 2. $XDG_DATA_HOME/pathwise/pathwise.db
// 3. ~/.local/share/pathwise/pathwise.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PATHWISE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "pathwise", "pathwise.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
