package store

import (
	"fmt"
	"time"
)

// TrainingRecord is one captured agent interaction. Payload is JSON, or an
// encrypted blob when Sealed is set.
type TrainingRecord struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Payload   []byte    `json:"payload"`
	Sealed    bool      `json:"sealed"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveTrainingRecord(r *TrainingRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO training_interactions (id, agent_id, user_id, kind, payload, sealed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.AgentID, r.UserID, r.Kind, r.Payload, r.Sealed)
	if err != nil {
		return fmt.Errorf("save training record: %w", err)
	}
	return nil
}

// ListTrainingRecords returns records oldest first, optionally limited to one agent.
func (s *Store) ListTrainingRecords(agentID string) ([]TrainingRecord, error) {
	query := `SELECT id, agent_id, user_id, kind, payload, sealed, created_at FROM training_interactions`
	var args []any
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list training records: %w", err)
	}
	defer rows.Close()

	var out []TrainingRecord
	for rows.Next() {
		var r TrainingRecord
		if err := rows.Scan(&r.ID, &r.AgentID, &r.UserID, &r.Kind, &r.Payload, &r.Sealed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan training record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountTrainingRecords() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM training_interactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count training records: %w", err)
	}
	return n, nil
}
