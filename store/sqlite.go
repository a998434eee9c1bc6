package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS explorations (
    id TEXT PRIMARY KEY,
    app_name TEXT NOT NULL,
    category TEXT NOT NULL,
    persona TEXT NOT NULL,
    custom_navigation TEXT,
    save_to_memory INTEGER DEFAULT 0,
    status TEXT DEFAULT 'pending',
    error_message TEXT,
    current_stage INTEGER DEFAULT 0,
    total_stages INTEGER DEFAULT 4,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS exploration_stages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exploration_id TEXT NOT NULL REFERENCES explorations(id),
    stage_number INTEGER NOT NULL,
    stage_name TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    md_content TEXT,
    error_message TEXT,
    started_at DATETIME,
    completed_at DATETIME,
    UNIQUE(exploration_id, stage_number)
);

CREATE TABLE IF NOT EXISTS exploration_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exploration_id TEXT UNIQUE NOT NULL REFERENCES explorations(id),
    summary TEXT,
    positive_findings TEXT,
    issues TEXT,
    recommendations TEXT,
    metrics TEXT,
    ux_score REAL,
    complexity_score REAL,
    full_json TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS comparison_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exploration_id TEXT NOT NULL REFERENCES explorations(id),
    snapshot_name TEXT,
    category TEXT,
    persona TEXT,
    ux_score REAL,
    complexity_score REAL,
    key_metrics TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists explorations in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateExploration(n NewExploration) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := generateID()
	saveInt := 0
	if n.SaveToMemory {
		saveInt = 1
	}
	_, err = tx.Exec(
		`INSERT INTO explorations (id, app_name, category, persona, custom_navigation, save_to_memory, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'running')`,
		id, n.AppName, n.Category, n.Persona, n.CustomNavigation, saveInt,
	)
	if err != nil {
		return "", fmt.Errorf("create exploration: %w", err)
	}

	for i := 1; i <= TotalStages; i++ {
		_, err = tx.Exec(
			`INSERT INTO exploration_stages (exploration_id, stage_number, stage_name, status)
			 VALUES (?, ?, ?, 'pending')`,
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

func (s *SQLiteStore) GetExploration(id string) (*Exploration, error) {
	row := s.db.QueryRow(
		`SELECT id, app_name, category, persona, custom_navigation, save_to_memory,
		        status, error_message, current_stage, total_stages, created_at, updated_at, completed_at
		 FROM explorations WHERE id = ?`, id)
	return scanExploration(row, false)
}

func (s *SQLiteStore) UpdateExplorationStatus(id, status string, currentStage *int, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE explorations
		 SET status = ?,
		     current_stage = COALESCE(?, current_stage),
		     error_message = CASE WHEN ? != '' THEN ? ELSE error_message END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, currentStage, errMsg, errMsg, id,
	)
	if err != nil {
		return err
	}
	if status == "completed" {
		_, err = s.db.Exec(`UPDATE explorations SET completed_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	}
	return err
}

func (s *SQLiteStore) ListExplorations(f ListFilter) ([]Exploration, error) {
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
		query += ` AND e.category = ?`
		args = append(args, f.Category)
	}
	if f.Persona != "" {
		query += ` AND e.persona = ?`
		args = append(args, f.Persona)
	}
	query += ` ORDER BY e.created_at DESC LIMIT ?`
	args = append(args, limit)

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

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExploration(row rowScanner, withScores bool) (*Exploration, error) {
	var e Exploration
	var customNav, errMsg sql.NullString
	var completedAt sql.NullTime

	dest := []any{
		&e.ID, &e.AppName, &e.Category, &e.Persona, &customNav, &e.SaveToMemory,
		&e.Status, &errMsg, &e.CurrentStage, &e.TotalStages, &e.CreatedAt, &e.UpdatedAt, &completedAt,
	}
	var uxScore, cxScore sql.NullFloat64
	if withScores {
		dest = append(dest, &uxScore, &cxScore)
	}

	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.CustomNavigation = customNav.String
	e.ErrorMessage = errMsg.String
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	if uxScore.Valid {
		e.UXScore = &uxScore.Float64
	}
	if cxScore.Valid {
		e.ComplexityScore = &cxScore.Float64
	}
	return &e, nil
}

func (s *SQLiteStore) MarkStageRunning(explorationID string, number int) error {
	_, err := s.db.Exec(
		`UPDATE exploration_stages SET status = 'running', started_at = CURRENT_TIMESTAMP
		 WHERE exploration_id = ? AND stage_number = ?`,
		explorationID, number,
	)
	return err
}

func (s *SQLiteStore) FinishStage(explorationID string, number int, status, content, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE exploration_stages
		 SET status = ?, md_content = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		 WHERE exploration_id = ? AND stage_number = ?`,
		status, content, errMsg, explorationID, number,
	)
	return err
}

func (s *SQLiteStore) GetStage(explorationID string, number int) (*Stage, error) {
	row := s.db.QueryRow(
		`SELECT exploration_id, stage_number, stage_name, status, md_content, error_message, started_at, completed_at
		 FROM exploration_stages WHERE exploration_id = ? AND stage_number = ?`,
		explorationID, number,
	)
	st, err := scanStage(row)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) GetStages(explorationID string) ([]Stage, error) {
	rows, err := s.db.Query(
		`SELECT exploration_id, stage_number, stage_name, status, md_content, error_message, started_at, completed_at
		 FROM exploration_stages WHERE exploration_id = ? ORDER BY stage_number`,
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

func scanStage(row rowScanner) (*Stage, error) {
	var st Stage
	var content, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&st.ExplorationID, &st.Number, &st.Name, &st.Status, &content, &errMsg, &startedAt, &completedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	st.Content = content.String
	st.ErrorMessage = errMsg.String
	if startedAt.Valid {
		st.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		st.CompletedAt = &completedAt.Time
	}
	return &st, nil
}

func (s *SQLiteStore) SaveResult(r *Result) error {
	_, err := s.db.Exec(
		`INSERT INTO exploration_results
		 (exploration_id, summary, positive_findings, issues, recommendations, metrics, ux_score, complexity_score, full_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(exploration_id) DO UPDATE SET
		     summary = excluded.summary,
		     positive_findings = excluded.positive_findings,
		     issues = excluded.issues,
		     recommendations = excluded.recommendations,
		     metrics = excluded.metrics,
		     ux_score = excluded.ux_score,
		     complexity_score = excluded.complexity_score,
		     full_json = excluded.full_json`,
		r.ExplorationID, r.Summary,
		string(r.Positive), string(r.Issues), string(r.Recommendations), string(r.Metrics),
		r.UXScore, r.ComplexityScore, string(r.FullJSON),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetResult(explorationID string) (*Result, error) {
	row := s.db.QueryRow(
		`SELECT exploration_id, summary, positive_findings, issues, recommendations, metrics,
		        ux_score, complexity_score, full_json, created_at
		 FROM exploration_results WHERE exploration_id = ?`,
		explorationID,
	)
	return scanResult(row, false)
}

func (s *SQLiteStore) LatestResult() (*Result, error) {
	row := s.db.QueryRow(
		`SELECT r.exploration_id, r.summary, r.positive_findings, r.issues, r.recommendations, r.metrics,
		        r.ux_score, r.complexity_score, r.full_json, r.created_at,
		        e.app_name, e.category, e.persona
		 FROM exploration_results r
		 JOIN explorations e ON r.exploration_id = e.id
		 ORDER BY r.created_at DESC, r.rowid DESC LIMIT 1`,
	)
	return scanResult(row, true)
}

func scanResult(row rowScanner, withApp bool) (*Result, error) {
	var r Result
	var summary, positive, issues, recs, metrics, fullJSON sql.NullString

	dest := []any{
		&r.ExplorationID, &summary, &positive, &issues, &recs, &metrics,
		&r.UXScore, &r.ComplexityScore, &fullJSON, &r.CreatedAt,
	}
	if withApp {
		dest = append(dest, &r.AppName, &r.Category, &r.Persona)
	}

	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.Summary = summary.String
	if positive.Valid {
		r.Positive = json.RawMessage(positive.String)
	}
	if issues.Valid {
		r.Issues = json.RawMessage(issues.String)
	}
	if recs.Valid {
		r.Recommendations = json.RawMessage(recs.String)
	}
	if metrics.Valid {
		r.Metrics = json.RawMessage(metrics.String)
	}
	if fullJSON.Valid {
		r.FullJSON = json.RawMessage(fullJSON.String)
	}
	return &r, nil
}

func (s *SQLiteStore) CreateSnapshot(explorationID, name string) (int64, error) {
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

	res, err := s.db.Exec(
		`INSERT INTO comparison_snapshots
		 (exploration_id, snapshot_name, category, persona, ux_score, complexity_score, key_metrics)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		explorationID, name, e.Category, e.Persona, r.UXScore, r.ComplexityScore, string(metrics),
	)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) ListSnapshots(category, persona string) ([]Snapshot, error) {
	query := `SELECT cs.id, cs.exploration_id, cs.snapshot_name, e.app_name, cs.category, cs.persona,
	                 cs.ux_score, cs.complexity_score, cs.key_metrics, cs.created_at
	          FROM comparison_snapshots cs
	          JOIN explorations e ON cs.exploration_id = e.id
	          WHERE 1=1`
	args := []any{}
	if category != "" {
		query += ` AND cs.category = ?`
		args = append(args, category)
	}
	if persona != "" {
		query += ` AND cs.persona = ?`
		args = append(args, persona)
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
		var name sql.NullString
		var metrics sql.NullString
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

func (s *SQLiteStore) Close() error { return s.db.Close() }
