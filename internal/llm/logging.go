package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"flowsmith/internal/llmclient"
)

// Logging logs each GenerateJSON call with its duration and outcome.
func Logging(scope string) Middleware {
	if scope == "" {
		scope = "llm"
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logged{next: next, scope: scope}
	}
}

type logged struct {
	next  llmclient.LLMClient
	scope string
}

func (l *logged) Name() string { return l.next.Name() }
func (l *logged) Close() error { return l.next.Close() }

func (l *logged) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	start := time.Now()
	resp, err := l.next.GenerateJSON(ctx, prompt, input)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		log.Printf("[%s] %s call failed after %s: %v", l.scope, l.next.Name(), elapsed, err)
		return nil, err
	}
	log.Printf("[%s] %s call ok in %s (%d bytes)", l.scope, l.next.Name(), elapsed, len(resp))
	return resp, nil
}
