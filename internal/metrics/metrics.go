// Package metrics exposes Prometheus counters for the interpretation and
// flow-construction pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Interpretations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsmith_interpretations_total",
		Help: "Interpreter calls by outcome.",
	}, []string{"outcome"})

	ClarificationTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsmith_clarification_turns_total",
		Help: "Answers folded into a dialogue.",
	})

	ForcedResolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsmith_forced_resolutions_total",
		Help: "Dialogues resolved by the turn limit instead of the model.",
	})

	FlowsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsmith_flows_built_total",
		Help: "Successfully compiled flow graphs.",
	})

	RejectedConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsmith_rejected_connections_total",
		Help: "Connections rejected during flow construction, by reason.",
	}, []string{"reason"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
