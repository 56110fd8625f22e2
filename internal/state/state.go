package state

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
    id          TEXT PRIMARY KEY,
    script      TEXT NOT NULL,
    parameters  TEXT NOT NULL DEFAULT '{}',
    running     INTEGER NOT NULL DEFAULT 1,
    started_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);
`

// Store wraps a SQLite database tracking executions this client started.
// It is what makes reattachment possible: a later invocation can look up a
// still-running execution instead of starting a new one.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at $XDG_STATE_HOME/scriptctl/state.db.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateHome, "scriptctl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for safe concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordStarted persists a freshly started execution.
func (s *Store) RecordStarted(id, scriptName string, values map[string]string) error {
	params, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO executions (id, script, parameters, running)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			script = excluded.script,
			parameters = excluded.parameters,
			running = 1,
			finished_at = NULL
	`, id, scriptName, string(params))
	return err
}

// MarkFinished records that an execution is no longer running.
func (s *Store) MarkFinished(id string) error {
	_, err := s.db.Exec(`
		UPDATE executions
		SET running = 0, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	return err
}

// ActiveExecution returns the id of the most recently started execution of
// the given script that hasn't been marked finished, or "" if there is none.
func (s *Store) ActiveExecution(scriptName string) (string, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT id FROM executions
		WHERE script = ? AND running = 1
		ORDER BY started_at DESC
		LIMIT 1
	`, scriptName).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// Execution is one recorded run.
type Execution struct {
	ID         string
	Script     string
	Parameters map[string]string
	Running    bool
	StartedAt  time.Time
}

// History returns recorded executions, most recent first.
func (s *Store) History(limit int) ([]Execution, error) {
	rows, err := s.db.Query(`
		SELECT id, script, parameters, running, started_at
		FROM executions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Execution
	for rows.Next() {
		var e Execution
		var params string
		var running int
		var startedAt string
		if err := rows.Scan(&e.ID, &e.Script, &params, &running, &startedAt); err != nil {
			return nil, err
		}
		e.Running = running == 1
		e.StartedAt, _ = time.Parse("2006-01-02 15:04:05", startedAt)
		if err := json.Unmarshal([]byte(params), &e.Parameters); err != nil {
			e.Parameters = nil
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
