package llm

import (
	"context"
	"time"
)

type bounded struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to next by d. A zero d returns next as is.
func WithTimeout(next Generator, d time.Duration) Generator {
	if d <= 0 {
		return next
	}
	return &bounded{next: next, timeout: d}
}

func (b *bounded) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.Generate(ctx, req)
}
