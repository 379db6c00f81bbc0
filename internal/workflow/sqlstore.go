package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/agent"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
)

// SQLStore keeps workflows in the sqlite store.
type SQLStore struct {
	store *store.Store
}

func NewSQLStore(s *store.Store) *SQLStore {
	return &SQLStore{store: s}
}

func (s *SQLStore) Save(wf *Workflow) error {
	steps, err := json.Marshal(wf.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	var results json.RawMessage
	if len(wf.Results) > 0 {
		if results, err = json.Marshal(wf.Results); err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
	}
	return s.store.SaveWorkflowRun(&store.WorkflowRun{
		ID:      wf.ID,
		UserID:  wf.UserID,
		Name:    wf.Name,
		Status:  string(wf.Status),
		Steps:   steps,
		Results: results,
		Error:   wf.Error,
	})
}

func (s *SQLStore) Get(id string) (*Workflow, error) {
	run, err := s.store.GetWorkflowRun(id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return fromRun(run)
}

func (s *SQLStore) List(userID string) ([]*Workflow, error) {
	runs, err := s.store.ListWorkflowRuns(userID)
	if err != nil {
		return nil, err
	}
	return fromRuns(runs)
}

func (s *SQLStore) ListByStatus(status Status) ([]*Workflow, error) {
	runs, err := s.store.ListWorkflowRunsByStatus(string(status))
	if err != nil {
		return nil, err
	}
	return fromRuns(runs)
}

func (s *SQLStore) Stats(userID string) (Stats, error) {
	st, err := s.store.GetWorkflowStats(userID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: st.Total, Completed: st.Completed, Failed: st.Failed}, nil
}

func fromRuns(runs []store.WorkflowRun) ([]*Workflow, error) {
	out := make([]*Workflow, 0, len(runs))
	for i := range runs {
		wf, err := fromRun(&runs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	return out, nil
}

func fromRun(run *store.WorkflowRun) (*Workflow, error) {
	wf := &Workflow{
		ID:          run.ID,
		UserID:      run.UserID,
		Name:        run.Name,
		Status:      Status(run.Status),
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
		CompletedAt: run.CompletedAt,
	}
	if err := json.Unmarshal(run.Steps, &wf.Steps); err != nil {
		return nil, fmt.Errorf("decode steps of %s: %w", run.ID, err)
	}
	if len(run.Results) > 0 {
		if err := json.Unmarshal(run.Results, &wf.Results); err != nil {
			return nil, fmt.Errorf("decode results of %s: %w", run.ID, err)
		}
	}
	if wf.Results == nil {
		wf.Results = make(map[string]agent.Response)
	}
	return wf, nil
}
