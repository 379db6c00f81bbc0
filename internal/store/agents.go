package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AgentMemory is the persisted memory snapshot of one agent for one user.
type AgentMemory struct {
	UserID    string          `json:"user_id"`
	AgentID   string          `json:"agent_id"`
	Name      string          `json:"name"`
	Memory    json.RawMessage `json:"memory"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Store) SaveAgentMemory(m *AgentMemory) error {
	_, err := s.db.Exec(`
		INSERT INTO agent_memory (user_id, agent_id, name, memory, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, agent_id) DO UPDATE SET
			name = excluded.name,
			memory = excluded.memory,
			updated_at = CURRENT_TIMESTAMP`,
		m.UserID, m.AgentID, m.Name, string(m.Memory))
	if err != nil {
		return fmt.Errorf("save agent memory: %w", err)
	}
	return nil
}

func (s *Store) GetAgentMemory(userID, agentID string) (*AgentMemory, error) {
	m := &AgentMemory{}
	var memory string
	err := s.db.QueryRow(`SELECT user_id, agent_id, name, memory, updated_at FROM agent_memory WHERE user_id = ? AND agent_id = ?`, userID, agentID).
		Scan(&m.UserID, &m.AgentID, &m.Name, &memory, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent memory: %w", err)
	}
	m.Memory = json.RawMessage(memory)
	return m, nil
}

func (s *Store) ListAgentMemory(userID string) ([]AgentMemory, error) {
	rows, err := s.db.Query(`SELECT user_id, agent_id, name, memory, updated_at FROM agent_memory WHERE user_id = ? ORDER BY agent_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list agent memory: %w", err)
	}
	defer rows.Close()

	var out []AgentMemory
	for rows.Next() {
		var m AgentMemory
		var memory string
		if err := rows.Scan(&m.UserID, &m.AgentID, &m.Name, &memory, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent memory: %w", err)
		}
		m.Memory = json.RawMessage(memory)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAgentMemory(userID, agentID string) error {
	_, err := s.db.Exec(`DELETE FROM agent_memory WHERE user_id = ? AND agent_id = ?`, userID, agentID)
	return err
}
