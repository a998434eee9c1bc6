package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS explorations (
    id TEXT PRIMARY KEY,
    app_name TEXT NOT NULL,
    category TEXT NOT NULL,
    persona TEXT NOT NULL,
    custom_navigation TEXT,
    save_to_memory BOOLEAN DEFAULT FALSE,
    status TEXT DEFAULT 'pending',
    error_message TEXT,
    current_stage INTEGER DEFAULT 0,
    total_stages INTEGER DEFAULT 4,
    created_at TIMESTAMPTZ DEFAULT now(),
    updated_at TIMESTAMPTZ DEFAULT now(),
    completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS exploration_stages (
    id BIGSERIAL PRIMARY KEY,
    exploration_id TEXT NOT NULL REFERENCES explorations(id),
    stage_number INTEGER NOT NULL,
    stage_name TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    md_content TEXT,
    error_message TEXT,
    started_at TIMESTAMPTZ,
    completed_at TIMESTAMPTZ,
    UNIQUE(exploration_id, stage_number)
);

CREATE TABLE IF NOT EXISTS exploration_results (
    id BIGSERIAL PRIMARY KEY,
    exploration_id TEXT UNIQUE NOT NULL REFERENCES explorations(id),
    summary TEXT,
    positive_findings TEXT,
    issues TEXT,
    recommendations TEXT,
    metrics TEXT,
    ux_score DOUBLE PRECISION,
    complexity_score DOUBLE PRECISION,
    full_json TEXT,
    created_at TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS comparison_snapshots (
    id BIGSERIAL PRIMARY KEY,
    exploration_id TEXT NOT NULL REFERENCES explorations(id),
    snapshot_name TEXT,
    category TEXT,
    persona TEXT,
    ux_score DOUBLE PRECISION,
    complexity_score DOUBLE PRECISION,
    key_metrics TEXT,
    created_at TIMESTAMPTZ DEFAULT now()
);
`

// PostgresStore persists explorations in PostgreSQL, for deployments where
// several workers share one database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects with the given DSN and applies the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateExploration(n NewExploration) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := generateID()
	_, err = tx.Exec(
		`INSERT INTO explorations (id, app_name, category, persona, custom_navigation, save_to_memory, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'running')`,
		id, n.AppName, n.Category, n.Persona, n.CustomNavigation, n.SaveToMemory,
	)
	if err != nil {
		return "", fmt.Errorf("create exploration: %w", err)
	}

	for i := 1; i <= TotalStages; i++ {
		_, err = tx.Exec(
			`INSERT INTO exploration_stages (exploration_id, stage_number, stage_name, status)
			 VALUES ($1, $2, $3, 'pending')`,
			id, i, StageNames[i],
		)
		if err != nil {
			return "", fmt.Errorf("seed stage %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) GetExploration(id string) (*Exploration, error) {
	row := s.db.QueryRow(
		`SELECT id, app_name, category, persona, custom_navigation, save_to_memory,
		        status, error_message, current_stage, total_stages, created_at, updated_at, completed_at
		 FROM explorations WHERE id = $1`, id)
	return scanExploration(row, false)
}

func (s *PostgresStore) UpdateExplorationStatus(id, status string, currentStage *int, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE explorations
		 SET status = $1,
		     current_stage = COALESCE($2, current_stage),
		     error_message = CASE WHEN $3 != '' THEN $3 ELSE error_message END,
		     updated_at = now()
		 WHERE id = $4`,
		status, currentStage, errMsg, id,
	)
	if err != nil {
		return err
	}
	if status == "completed" {
		_, err = s.db.Exec(`UPDATE explorations SET completed_at = now() WHERE id = $1`, id)
	}
	return err
}

func (s *PostgresStore) ListExplorations(f ListFilter) ([]Exploration, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT e.id, e.app_name, e.category, e.persona, e.custom_navigation, e.save_to_memory,
	                 e.status, e.error_message, e.current_stage, e.total_stages, e.created_at, e.updated_at, e.completed_at,
	                 r.ux_score, r.complexity_score
	          FROM explorations e
	          LEFT JOIN exploration_results r ON e.id = r.exploration_id
	          WHERE 1=1`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND e.category = $%d`, len(args))
	}
	if f.Persona != "" {
		args = append(args, f.Persona)
		query += fmt.Sprintf(` AND e.persona = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY e.created_at DESC LIMIT $%d`, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exploration
	for rows.Next() {
		e, err := scanExploration(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkStageRunning(explorationID string, number int) error {
	_, err := s.db.Exec(
		`UPDATE exploration_stages SET status = 'running', started_at = now()
		 WHERE exploration_id = $1 AND stage_number = $2`,
		explorationID, number,
	)
	return err
}

func (s *PostgresStore) FinishStage(explorationID string, number int, status, content, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE exploration_stages
		 SET status = $1, md_content = $2, error_message = $3, completed_at = now()
		 WHERE exploration_id = $4 AND stage_number = $5`,
		status, content, errMsg, explorationID, number,
	)
	return err
}

func (s *PostgresStore) GetStage(explorationID string, number int) (*Stage, error) {
	row := s.db.QueryRow(
		`SELECT exploration_id, stage_number, stage_name, status, md_content, error_message, started_at, completed_at
		 FROM exploration_stages WHERE exploration_id = $1 AND stage_number = $2`,
		explorationID, number,
	)
	return scanStage(row)
}

func (s *PostgresStore) GetStages(explorationID string) ([]Stage, error) {
	rows, err := s.db.Query(
		`SELECT exploration_id, stage_number, stage_name, status, md_content, error_message, started_at, completed_at
		 FROM exploration_stages WHERE exploration_id = $1 ORDER BY stage_number`,
		explorationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveResult(r *Result) error {
	_, err := s.db.Exec(
		`INSERT INTO exploration_results
		 (exploration_id, summary, positive_findings, issues, recommendations, metrics, ux_score, complexity_score, full_json)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (exploration_id) DO UPDATE SET
		     summary = EXCLUDED.summary,
		     positive_findings = EXCLUDED.positive_findings,
		     issues = EXCLUDED.issues,
		     recommendations = EXCLUDED.recommendations,
		     metrics = EXCLUDED.metrics,
		     ux_score = EXCLUDED.ux_score,
		     complexity_score = EXCLUDED.complexity_score,
		     full_json = EXCLUDED.full_json`,
		r.ExplorationID, r.Summary,
		string(r.Positive), string(r.Issues), string(r.Recommendations), string(r.Metrics),
		r.UXScore, r.ComplexityScore, string(r.FullJSON),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetResult(explorationID string) (*Result, error) {
	row := s.db.QueryRow(
		`SELECT exploration_id, summary, positive_findings, issues, recommendations, metrics,
		        ux_score, complexity_score, full_json, created_at
		 FROM exploration_results WHERE exploration_id = $1`,
		explorationID,
	)
	return scanResult(row, false)
}

func (s *PostgresStore) LatestResult() (*Result, error) {
	row := s.db.QueryRow(
		`SELECT r.exploration_id, r.summary, r.positive_findings, r.issues, r.recommendations, r.metrics,
		        r.ux_score, r.complexity_score, r.full_json, r.created_at,
		        e.app_name, e.category, e.persona
		 FROM exploration_results r
		 JOIN explorations e ON r.exploration_id = e.id
		 ORDER BY r.created_at DESC, r.id DESC LIMIT 1`,
	)
	return scanResult(row, true)
}

func (s *PostgresStore) CreateSnapshot(explorationID, name string) (int64, error) {
	e, err := s.GetExploration(explorationID)
	if err != nil {
		return 0, err
	}
	r, err := s.GetResult(explorationID)
	if err != nil {
		return 0, err
	}

	if name == "" {
		name = DefaultSnapshotName(e.AppName, e.CreatedAt)
	}
	metrics := r.Metrics
	if metrics == nil {
		metrics = json.RawMessage("{}")
	}

	var id int64
	err = s.db.QueryRow(
		`INSERT INTO comparison_snapshots
		 (exploration_id, snapshot_name, category, persona, ux_score, complexity_score, key_metrics)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		explorationID, name, e.Category, e.Persona, r.UXScore, r.ComplexityScore, string(metrics),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListSnapshots(category, persona string) ([]Snapshot, error) {
	query := `SELECT cs.id, cs.exploration_id, cs.snapshot_name, e.app_name, cs.category, cs.persona,
	                 cs.ux_score, cs.complexity_score, cs.key_metrics, cs.created_at
	          FROM comparison_snapshots cs
	          JOIN explorations e ON cs.exploration_id = e.id
	          WHERE 1=1`
	args := []any{}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` AND cs.category = $%d`, len(args))
	}
	if persona != "" {
		args = append(args, persona)
		query += fmt.Sprintf(` AND cs.persona = $%d`, len(args))
	}
	query += ` ORDER BY cs.created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var name, metrics sql.NullString
		if err := rows.Scan(&snap.ID, &snap.ExplorationID, &name, &snap.AppName, &snap.Category, &snap.Persona,
			&snap.UXScore, &snap.ComplexityScore, &metrics, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snap.Name = name.String
		if metrics.Valid {
			snap.KeyMetrics = json.RawMessage(metrics.String)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
