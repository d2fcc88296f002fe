package models

import (
	"database/sql"
	"fmt"

	"github.com/weldtech/weldwatch/internal/types"
	_ "modernc.org/sqlite"
)

// schemaSQL creates the model catalog and the single-row system state
// table that names the active model. IF NOT EXISTS keeps it idempotent
// across restarts.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS models (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	model_type TEXT NOT NULL DEFAULT '',
	lower_limit REAL NOT NULL DEFAULT 0.0,
	upper_limit REAL NOT NULL DEFAULT 100.0
);
CREATE TABLE IF NOT EXISTS system_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	active_model_id INTEGER REFERENCES models(id)
);
INSERT OR IGNORE INTO system_state (id, active_model_id) VALUES (1, NULL);
`

// Store is the plant-floor SQLite model database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the model database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping model database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create model schema: %w", err)
	}

	return &Store{db: db}, nil
}

// ActiveModel returns the model named by system_state, or ok=false when
// no model is active.
func (s *Store) ActiveModel() (types.ActiveModel, bool, error) {
	var m types.ActiveModel

	row := s.db.QueryRow(`
		SELECT m.id, m.name, m.model_type, m.lower_limit, m.upper_limit
		FROM system_state st
		JOIN models m ON m.id = st.active_model_id
		WHERE st.id = 1`)

	err := row.Scan(&m.ID, &m.Name, &m.ModelType, &m.LowerLimit, &m.UpperLimit)
	if err == sql.ErrNoRows {
		return types.ActiveModel{}, false, nil
	}
	if err != nil {
		return types.ActiveModel{}, false, fmt.Errorf("failed to query active model: %w", err)
	}

	return m, true, nil
}

// SaveModel inserts a new model or updates an existing one (ID != 0) and
// returns its id.
func (s *Store) SaveModel(m types.ActiveModel) (int64, error) {
	if m.ID != 0 {
		_, err := s.db.Exec(
			`UPDATE models SET name = ?, model_type = ?, lower_limit = ?, upper_limit = ? WHERE id = ?`,
			m.Name, m.ModelType, m.LowerLimit, m.UpperLimit, m.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to update model %d: %w", m.ID, err)
		}
		return m.ID, nil
	}

	res, err := s.db.Exec(
		`INSERT INTO models (name, model_type, lower_limit, upper_limit) VALUES (?, ?, ?, ?)`,
		m.Name, m.ModelType, m.LowerLimit, m.UpperLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to insert model: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted model id: %w", err)
	}
	return id, nil
}

// ListModels returns the full model catalog.
func (s *Store) ListModels() ([]types.ActiveModel, error) {
	rows, err := s.db.Query(
		`SELECT id, name, model_type, lower_limit, upper_limit FROM models ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var out []types.ActiveModel
	for rows.Next() {
		var m types.ActiveModel
		if err := rows.Scan(&m.ID, &m.Name, &m.ModelType, &m.LowerLimit, &m.UpperLimit); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ActivateModel marks the given model as active.
func (s *Store) ActivateModel(id int64) error {
	res, err := s.db.Exec(`UPDATE system_state SET active_model_id = ? WHERE id = 1`, id)
	if err != nil {
		return fmt.Errorf("failed to activate model %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("system_state row missing; model database not initialized")
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
