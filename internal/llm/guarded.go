package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// guardedClient wraps a Client with a Guard. The pipeline runs some stages
// concurrently, so access to the guard is serialized here rather than in
// Guard itself.
type guardedClient struct {
	inner Client

	mu    sync.Mutex
	guard Guard
}

// NewGuarded wraps a client with a circuit breaker. Once maxFailures
// consecutive calls fail, further calls short-circuit until the cooldown
// elapses.
func NewGuarded(inner Client, maxFailures int, cooldown time.Duration) Client {
	return &guardedClient{
		inner: inner,
		guard: NewGuard(maxFailures, cooldown),
	}
}

func (g *guardedClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	g.mu.Lock()
	allowed := g.guard.Allow()
	until := g.guard.DisabledUntil()
	g.mu.Unlock()

	if !allowed {
		return ChatResponse{}, fmt.Errorf("model endpoint disabled until %s after repeated failures", until.Format(time.RFC3339))
	}

	resp, err := g.inner.Chat(ctx, req)

	g.mu.Lock()
	if err != nil {
		g.guard.RecordFailure()
	} else {
		g.guard.RecordSuccess()
	}
	g.mu.Unlock()

	return resp, err
}
