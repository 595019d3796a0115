// Package runlog persists a history of diagnostic passes.
//
// The core components are pure and keep no state; the run log lives outside
// them, in the server layer, so designers can review what past passes found.
// It uses SQLite in WAL mode. If the store fails to open, diagnostics still
// run — the server simply skips history.
package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/narrativekit/moodcheck/internal/model"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Run is one recorded diagnostic pass.
type Run struct {
	ID                  string                 `json:"id"`
	Project             string                 `json:"project"`
	Domain              string                 `json:"domain"`
	ConflictCount       int                    `json:"conflict_count"`
	RecommendationCount int                    `json:"recommendation_count"`
	Conflicts           []model.Conflict       `json:"conflicts,omitempty"`
	Recommendations     []model.Recommendation `json:"recommendations,omitempty"`
	CreatedAt           string                 `json:"created_at"`
}

// AddRunParams holds the input for recording a diagnostic pass.
type AddRunParams struct {
	Project         string
	Domain          string
	Conflicts       []model.Conflict
	Recommendations []model.Recommendation
}

// Config holds run log configuration.
type Config struct {
	DataDir string
	MaxRuns int
}

// DefaultConfig returns the default run log configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".moodcheck"),
		MaxRuns: 200,
	}
}

// Store is the run history backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store: it creates the data directory if needed, opens SQLite
// with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("runlog: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "runs.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("runlog: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("runlog: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("runlog: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id                   TEXT PRIMARY KEY,
			project              TEXT NOT NULL,
			domain               TEXT NOT NULL,
			conflict_count       INTEGER NOT NULL,
			recommendation_count INTEGER NOT NULL,
			conflicts            TEXT NOT NULL,
			recommendations      TEXT NOT NULL,
			created_at           TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// AddRun records one diagnostic pass and returns its id. Older runs beyond
// MaxRuns are pruned per project.
func (s *Store) AddRun(p AddRunParams) (string, error) {
	conflictsJSON, err := json.Marshal(p.Conflicts)
	if err != nil {
		return "", fmt.Errorf("runlog: marshal conflicts: %w", err)
	}
	recsJSON, err := json.Marshal(p.Recommendations)
	if err != nil {
		return "", fmt.Errorf("runlog: marshal recommendations: %w", err)
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO runs (id, project, domain, conflict_count, recommendation_count, conflicts, recommendations, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Project, p.Domain, len(p.Conflicts), len(p.Recommendations),
		string(conflictsJSON), string(recsJSON), createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("runlog: insert run: %w", err)
	}

	if s.cfg.MaxRuns > 0 {
		if err := s.prune(p.Project); err != nil {
			return id, fmt.Errorf("runlog: prune: %w", err)
		}
	}
	return id, nil
}

// prune deletes a project's oldest runs beyond MaxRuns.
func (s *Store) prune(project string) error {
	_, err := s.db.Exec(`
		DELETE FROM runs WHERE project = ? AND id NOT IN (
			SELECT id FROM runs WHERE project = ?
			ORDER BY created_at DESC, id LIMIT ?
		)`, project, project, s.cfg.MaxRuns)
	return err
}

// GetRun returns one run with its full payloads.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, project, domain, conflict_count, recommendation_count, conflicts, recommendations, created_at
		FROM runs WHERE id = ?`, id)

	var run Run
	var conflictsJSON, recsJSON string
	err := row.Scan(&run.ID, &run.Project, &run.Domain, &run.ConflictCount,
		&run.RecommendationCount, &conflictsJSON, &recsJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("runlog: run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("runlog: get run: %w", err)
	}

	if err := json.Unmarshal([]byte(conflictsJSON), &run.Conflicts); err != nil {
		return nil, fmt.Errorf("runlog: unmarshal conflicts: %w", err)
	}
	if err := json.Unmarshal([]byte(recsJSON), &run.Recommendations); err != nil {
		return nil, fmt.Errorf("runlog: unmarshal recommendations: %w", err)
	}
	return &run, nil
}

// RecentRuns returns a project's latest runs, newest first, without the
// JSON payloads. limit <= 0 defaults to 10.
func (s *Store) RecentRuns(project string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT id, project, domain, conflict_count, recommendation_count, created_at
		FROM runs WHERE project = ?
		ORDER BY created_at DESC, id LIMIT ?`, project, limit)
	if err != nil {
		return nil, fmt.Errorf("runlog: recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Project, &run.Domain,
			&run.ConflictCount, &run.RecommendationCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("runlog: scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
