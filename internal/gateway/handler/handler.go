package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"flowsmith/internal/dialogue"
	"flowsmith/internal/flowgraph"
	"flowsmith/internal/interpret"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses. Soft
// per-connection failures never reach here; they travel inside the
// FlowGraph's rejected_connections.
func writeError(w http.ResponseWriter, err error) {
	code, status := "Internal", http.StatusInternalServerError
	switch {
	case errors.Is(err, interpret.ErrInvalidInstruction):
		code, status = "InvalidInstruction", http.StatusBadRequest
	case errors.Is(err, interpret.ErrInterpretationFailed):
		code, status = "InterpretationFailed", http.StatusBadGateway
	case errors.Is(err, dialogue.ErrUnknownQuestion):
		code, status = "UnknownQuestion", http.StatusConflict
	case errors.Is(err, dialogue.ErrEmptyAnswer):
		code, status = "InvalidAnswer", http.StatusBadRequest
	case errors.Is(err, dialogue.ErrSessionNotFound):
		code, status = "SessionNotFound", http.StatusNotFound
	case errors.Is(err, dialogue.ErrAbandoned):
		code, status = "DialogueAbandoned", http.StatusGone
	case errors.Is(err, dialogue.ErrInvalidState):
		code, status = "InvalidDialogueState", http.StatusConflict
	case errors.Is(err, flowgraph.ErrNotResolved):
		code, status = "InterpretationNotResolved", http.StatusPreconditionFailed
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "InvalidRequest",
			Message: "invalid JSON body: " + err.Error(),
		}})
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Code:    "MethodNotAllowed",
			Message: "use POST",
		}})
		return false
	}
	return true
}
