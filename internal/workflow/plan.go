package workflow

import (
	"fmt"
	"strings"
)

// nextRound splits remaining step indices into the steps whose dependencies
// are all in completed and those still blocked.
func nextRound(steps []Step, remaining []int, completed map[string]bool) (ready, blocked []int) {
	for _, idx := range remaining {
		if dependenciesMet(steps[idx], completed) {
			ready = append(ready, idx)
		} else {
			blocked = append(blocked, idx)
		}
	}
	return ready, blocked
}

func dependenciesMet(s Step, completed map[string]bool) bool {
	for _, dep := range s.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

func markCompleted(completed map[string]bool, s Step) {
	completed[s.AgentID] = true
	if s.TaskID != "" {
		completed[s.TaskID] = true
	}
}

// Rounds simulates execution and returns the step indices of each round. It
// fails with ErrUnsatisfiable when a cycle or an unknown dependency blocks
// the remaining steps.
func Rounds(steps []Step) ([][]int, error) {
	completed := make(map[string]bool)
	remaining := make([]int, len(steps))
	for i := range steps {
		remaining[i] = i
	}

	var rounds [][]int
	for len(remaining) > 0 {
		ready, blocked := nextRound(steps, remaining, completed)
		if len(ready) == 0 {
			return rounds, unsatisfiable(steps, blocked)
		}
		for _, idx := range ready {
			markCompleted(completed, steps[idx])
		}
		rounds = append(rounds, ready)
		remaining = blocked
	}
	return rounds, nil
}

func unsatisfiable(steps []Step, blocked []int) error {
	parts := make([]string, 0, len(blocked))
	for _, idx := range blocked {
		s := steps[idx]
		parts = append(parts, fmt.Sprintf("%s (%s) waits on [%s]", s.key(), s.AgentID, strings.Join(s.Dependencies, ", ")))
	}
	return fmt.Errorf("%w: %s", ErrUnsatisfiable, strings.Join(parts, "; "))
}
