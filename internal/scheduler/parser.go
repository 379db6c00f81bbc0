package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// Schedule is a parsed auto-execute expression: a cron expression or
// "@every <duration>".
type Schedule struct {
	Kind     string        `json:"kind"` // "cron" or "interval"
	CronExpr string        `json:"cron_expr,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`
}

func ParseSchedule(raw string) (*Schedule, error) {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return nil, fmt.Errorf("empty schedule")
	}

	if rest, ok := strings.CutPrefix(expr, "@every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("parse interval %q: %w", rest, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval must be positive: %s", d)
		}
		return &Schedule{Kind: "interval", Interval: d}, nil
	}

	if !gronx.New().IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	return &Schedule{Kind: "cron", CronExpr: expr}, nil
}

// Next returns the first run time strictly after t.
func (s *Schedule) Next(t time.Time) (time.Time, error) {
	switch s.Kind {
	case "cron":
		return gronx.NextTickAfter(s.CronExpr, t, false)
	case "interval":
		return t.Add(s.Interval), nil
	default:
		return time.Time{}, fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
}
