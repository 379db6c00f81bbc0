package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type WorkflowRun struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	Steps       json.RawMessage `json:"steps"`
	Results     json.RawMessage `json:"results,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// WorkflowStats aggregates workflow counts by terminal status.
type WorkflowStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

func scanWorkflowRun(scanner interface {
	Scan(dest ...any) error
}) (*WorkflowRun, error) {
	r := &WorkflowRun{}
	var steps string
	var results, errText *string
	err := scanner.Scan(&r.ID, &r.UserID, &r.Name, &r.Status, &steps, &results, &errText, &r.CreatedAt, &r.UpdatedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	r.Steps = json.RawMessage(steps)
	if results != nil {
		r.Results = json.RawMessage(*results)
	}
	if errText != nil {
		r.Error = *errText
	}
	return r, nil
}

const workflowColumns = `id, user_id, name, status, steps, results, error, created_at, updated_at, completed_at`

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (s *Store) SaveWorkflowRun(r *WorkflowRun) error {
	_, err := s.db.Exec(`
		INSERT INTO workflows (id, user_id, name, status, steps, results, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			steps = excluded.steps,
			results = excluded.results,
			error = excluded.error,
			updated_at = CURRENT_TIMESTAMP,
			completed_at = CASE WHEN excluded.status IN ('completed', 'failed') THEN CURRENT_TIMESTAMP ELSE completed_at END`,
		r.ID, r.UserID, r.Name, r.Status, string(r.Steps), nullableJSON(r.Results), r.Error)
	if err != nil {
		return fmt.Errorf("save workflow run: %w", err)
	}
	return nil
}

func (s *Store) GetWorkflowRun(id string) (*WorkflowRun, error) {
	row := s.db.QueryRow(`SELECT `+workflowColumns+` FROM workflows WHERE id = ?`, id)
	r, err := scanWorkflowRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow run: %w", err)
	}
	return r, nil
}

// ListWorkflowRuns returns runs newest first. An empty userID lists every user.
func (s *Store) ListWorkflowRuns(userID string) ([]WorkflowRun, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	return s.queryWorkflowRuns(query, args...)
}

func (s *Store) ListWorkflowRunsByStatus(status string) ([]WorkflowRun, error) {
	return s.queryWorkflowRuns(`SELECT `+workflowColumns+` FROM workflows WHERE status = ? ORDER BY created_at, rowid`, status)
}

func (s *Store) queryWorkflowRuns(query string, args ...any) ([]WorkflowRun, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	defer rows.Close()

	var runs []WorkflowRun
	for rows.Next() {
		r, err := scanWorkflowRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (s *Store) GetWorkflowStats(userID string) (WorkflowStats, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM workflows`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	var st WorkflowStats
	if err := s.db.QueryRow(query, args...).Scan(&st.Total, &st.Completed, &st.Failed); err != nil {
		return WorkflowStats{}, fmt.Errorf("workflow stats: %w", err)
	}
	return st, nil
}
