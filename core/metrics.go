package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

var TransactionsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "hub",
	Name:      "transactions",
}, []string{"mode"})

var HubResyncs = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "hub",
	Name:      "resyncs",
})

var HubUndoRedo = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "hub",
	Name:      "undo_redo",
}, []string{"direction"})

var HubPacked = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "hub",
	Name:      "packed_transactions",
})

// Collectors returns the metrics of the package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		TransactionsApplied,
		HubResyncs,
		HubUndoRedo,
		HubPacked,
	}
}
