package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flowsmith/internal/catalog"
	"flowsmith/internal/dialogue"
	"flowsmith/internal/flowgraph"
	"flowsmith/internal/interpret"
	"flowsmith/internal/llmclient"
	"flowsmith/internal/session"
)

func newTestHandler(t *testing.T, responses ...json.RawMessage) *FlowHandler {
	t.Helper()
	kb := catalog.BuiltinCatalog()
	interp := interpret.New(kb, llmclient.NewFakeClient(responses...))
	mgr := dialogue.NewManager(interp, session.NewMemoryStore(), 5)
	return NewFlowHandler(mgr, flowgraph.NewBuilder(kb))
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeDialogue(t *testing.T, w *httptest.ResponseRecorder) dialogueResponse {
	t.Helper()
	var resp dialogueResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func TestHandleInterpret_Resolved(t *testing.T) {
	h := newTestHandler(t, json.RawMessage(`{
		"components": [{"component_type": "ChatInput"}],
		"connections": [],
		"clarification_needed": false
	}`))

	w := postJSON(t, h.HandleInterpret, "/api/interpret", `{"instruction": "capture user input"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeDialogue(t, w)
	if resp.SessionID == "" {
		t.Fatal("missing session_id")
	}
	if resp.Interpretation == nil || resp.Interpretation.ClarificationNeeded {
		t.Fatalf("unexpected interpretation: %+v", resp.Interpretation)
	}
}

func TestHandleInterpret_EmptyInstruction(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h.HandleInterpret, "/api/interpret", `{"instruction": "  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "InvalidInstruction" {
		t.Fatalf("code = %q", code)
	}
}

func TestHandleInterpret_MethodAndBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/interpret", nil)
	w := httptest.NewRecorder()
	h.HandleInterpret(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", w.Code)
	}

	w = postJSON(t, h.HandleInterpret, "/api/interpret", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", w.Code)
	}
}

func TestHandleClarify_Flow(t *testing.T) {
	h := newTestHandler(t,
		json.RawMessage(`{"components": [], "connections": [], "clarification_needed": true}`),
		json.RawMessage(`{"components": [{"component_type": "ChatInput"}], "connections": [], "clarification_needed": false}`),
	)

	w := postJSON(t, h.HandleInterpret, "/api/interpret", `{"instruction": "do something vague"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("interpret status = %d: %s", w.Code, w.Body.String())
	}
	start := decodeDialogue(t, w)
	if !start.Interpretation.ClarificationNeeded || len(start.Interpretation.ClarificationQuestions) == 0 {
		t.Fatalf("expected pending question: %+v", start.Interpretation)
	}
	qid := start.Interpretation.ClarificationQuestions[0].QuestionID

	// Wrong question id is a protocol violation.
	w = postJSON(t, h.HandleClarify, "/api/clarify",
		`{"session_id": "`+start.SessionID+`", "question_id": "bogus", "answer": "x"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("bogus question status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "UnknownQuestion" {
		t.Fatalf("code = %q", code)
	}

	w = postJSON(t, h.HandleClarify, "/api/clarify",
		`{"session_id": "`+start.SessionID+`", "question_id": "`+qid+`", "answer": "a chat echo flow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("clarify status = %d: %s", w.Code, w.Body.String())
	}
	resolved := decodeDialogue(t, w)
	if resolved.Interpretation.ClarificationNeeded {
		t.Fatalf("expected resolution: %+v", resolved.Interpretation)
	}
}

func TestHandleClarify_UnknownSession(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h.HandleClarify, "/api/clarify",
		`{"session_id": "missing", "question_id": "q", "answer": "a"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "SessionNotFound" {
		t.Fatalf("code = %q", code)
	}
}

func TestHandleAbandon(t *testing.T) {
	h := newTestHandler(t, json.RawMessage(`{"components": [], "connections": [], "clarification_needed": true}`))

	w := postJSON(t, h.HandleInterpret, "/api/interpret", `{"instruction": "something"}`)
	start := decodeDialogue(t, w)

	w = postJSON(t, h.HandleAbandon, "/api/abandon", `{"session_id": "`+start.SessionID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("abandon status = %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, h.HandleClarify, "/api/clarify",
		`{"session_id": "`+start.SessionID+`", "question_id": "q", "answer": "a"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("post-abandon status = %d", w.Code)
	}
}

func TestHandleBuildFlow(t *testing.T) {
	h := newTestHandler(t)

	w := postJSON(t, h.HandleBuildFlow, "/api/flow/build", `{"interpretation": {
		"components": [
			{"component_type": "ChatInput"},
			{"component_type": "ChatOutput"}
		],
		"connections": [
			{"source_component_idx": 0, "target_component_idx": 1, "source_field": "message", "target_field": "message"}
		],
		"clarification_needed": false
	}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var graph flowgraph.FlowGraph
	if err := json.Unmarshal(w.Body.Bytes(), &graph); err != nil {
		t.Fatalf("decode graph: %v", err)
	}
	if len(graph.Nodes) != 2 || len(graph.Edges) != 1 || len(graph.RejectedConnections) != 0 {
		t.Fatalf("unexpected graph: %+v", graph)
	}
}

func TestHandleBuildFlow_NotResolved(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h.HandleBuildFlow, "/api/flow/build", `{"interpretation": {
		"components": [],
		"connections": [],
		"clarification_needed": true,
		"clarification_questions": [{"question_id": "q1", "question": "which?"}]
	}}`)
	if w.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "InterpretationNotResolved" {
		t.Fatalf("code = %q", code)
	}
}
