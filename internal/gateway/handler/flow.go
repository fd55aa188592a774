package handler

import (
	"errors"
	"net/http"

	"flowsmith/internal/dialogue"
	"flowsmith/internal/flowgraph"
	"flowsmith/internal/interpret"
	"flowsmith/internal/metrics"
)

// FlowHandler serves the interpretation and flow-construction endpoints.
type FlowHandler struct {
	mgr     *dialogue.Manager
	builder *flowgraph.Builder
}

func NewFlowHandler(mgr *dialogue.Manager, builder *flowgraph.Builder) *FlowHandler {
	return &FlowHandler{mgr: mgr, builder: builder}
}

type interpretRequest struct {
	Instruction string `json:"instruction"`
}

type dialogueResponse struct {
	SessionID      string                    `json:"session_id"`
	Interpretation *interpret.Interpretation `json:"interpretation"`
}

type clarifyRequest struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type abandonRequest struct {
	SessionID string `json:"session_id"`
}

type buildRequest struct {
	Interpretation *interpret.Interpretation `json:"interpretation"`
}

// HandleInterpret starts a dialogue from an instruction and returns the
// first interpretation together with the session id to clarify against.
func (h *FlowHandler) HandleInterpret(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req interpretRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sessionID, out, err := h.mgr.Start(r.Context(), req.Instruction)
	if err != nil {
		switch {
		case errors.Is(err, interpret.ErrInvalidInstruction):
			metrics.Interpretations.WithLabelValues("invalid").Inc()
		default:
			metrics.Interpretations.WithLabelValues("failed").Inc()
		}
		writeError(w, err)
		return
	}
	metrics.Interpretations.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, dialogueResponse{SessionID: sessionID, Interpretation: out})
}

// HandleClarify answers the currently pending question of a dialogue.
func (h *FlowHandler) HandleClarify(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req clarifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.mgr.Answer(r.Context(), req.SessionID, req.QuestionID, req.Answer)
	if err != nil {
		if errors.Is(err, interpret.ErrInterpretationFailed) {
			metrics.Interpretations.WithLabelValues("failed").Inc()
		}
		writeError(w, err)
		return
	}
	metrics.Interpretations.WithLabelValues("ok").Inc()
	metrics.ClarificationTurns.Inc()
	if out.ForcedResolution {
		metrics.ForcedResolutions.Inc()
	}
	writeJSON(w, http.StatusOK, dialogueResponse{SessionID: req.SessionID, Interpretation: out})
}

// HandleAbandon cancels a dialogue.
func (h *FlowHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req abandonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.mgr.Abandon(r.Context(), req.SessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"abandoned": true})
}

// HandleBuildFlow compiles a resolved interpretation into a flow graph.
func (h *FlowHandler) HandleBuildFlow(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req buildRequest
	if !decodeBody(w, r, &req) {
		return
	}
	graph, err := h.builder.Build(r.Context(), req.Interpretation)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.FlowsBuilt.Inc()
	for _, rej := range graph.RejectedConnections {
		metrics.RejectedConnections.WithLabelValues(string(rej.Reason)).Inc()
	}
	writeJSON(w, http.StatusOK, graph)
}
