package llm

import (
	"flowsmith/internal/llmclient"
)

// Middleware wraps an LLMClient with a cross-cutting concern.
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Chain applies middlewares left to right: the first middleware becomes
// the outermost layer.
func Chain(base llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
