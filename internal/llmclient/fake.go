package llmclient

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient returns scripted JSON payloads in order. It is used for
// offline runs and tests; when the script runs out it returns a minimal
// empty interpretation shape.
type FakeClient struct {
	mu        sync.Mutex
	responses []json.RawMessage
	errs      []error
	calls     int
}

func NewFakeClient(responses ...json.RawMessage) *FakeClient {
	return &FakeClient{responses: responses}
}

// NewFakeClientWithErrors pairs each response with an error slot; a nil
// error returns the response, a non-nil error is returned instead.
func NewFakeClientWithErrors(responses []json.RawMessage, errs []error) *FakeClient {
	return &FakeClient{responses: responses, errs: errs}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Calls reports how many GenerateJSON calls were made.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeClient) GenerateJSON(_ context.Context, _ string, _ any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return json.RawMessage(`{"components":[],"connections":[],"clarification_needed":false,"flow_description":""}`), nil
}
