package llm

import (
	"context"
	"log/slog"
	"time"
)

type retrying struct {
	next     Generator
	attempts int
	delay    time.Duration
}

// WithRetry retries failed generations with exponential backoff, capped at
// 30s between attempts. A cancelled context stops retrying immediately.
func WithRetry(next Generator, attempts int, initialDelay time.Duration) Generator {
	if attempts <= 1 {
		return next
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	return &retrying{next: next, attempts: attempts, delay: initialDelay}
}

func (r *retrying) Generate(ctx context.Context, req Request) (Response, error) {
	delay := r.delay
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || i == r.attempts-1 {
			break
		}

		slog.Debug("generation failed, retrying", "attempt", i+1, "delay", delay, "error", err)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return Response{}, ctx.Err()
		case <-t.C:
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	return Response{}, lastErr
}
