package llm

import (
	"context"
	"encoding/json"
	"time"

	"flowsmith/internal/llmclient"
)

// Timeout bounds each GenerateJSON call with its own deadline so a stuck
// provider cannot hold a dialogue turn open indefinitely.
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return nil
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &timeboxed{next: next, d: d}
	}
}

type timeboxed struct {
	next llmclient.LLMClient
	d    time.Duration
}

func (t *timeboxed) Name() string { return t.next.Name() }
func (t *timeboxed) Close() error { return t.next.Close() }

func (t *timeboxed) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.GenerateJSON(ctx, prompt, input)
}
