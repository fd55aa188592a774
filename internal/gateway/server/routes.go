package server

import (
	"net/http"

	"flowsmith/internal/gateway/handler"
	"flowsmith/internal/gateway/middleware"
	"flowsmith/internal/metrics"
)

func NewMux(flowHandler *handler.FlowHandler) http.Handler {
	mux := http.NewServeMux()

	// Flow Handlers
	mux.HandleFunc("/api/interpret", flowHandler.HandleInterpret)
	mux.HandleFunc("/api/clarify", flowHandler.HandleClarify)
	mux.HandleFunc("/api/abandon", flowHandler.HandleAbandon)
	mux.HandleFunc("/api/flow/build", flowHandler.HandleBuildFlow)
	mux.HandleFunc("/api/dialogue/watch", flowHandler.HandleDialogueWatch)

	// Observability
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Middleware
	return middleware.CORS(mux)
}
