package storage

import (
	"github.com/prometheus/client_golang/prometheus"
)

var LogWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "storage",
	Name:      "log_writes",
}, []string{"result"})

var LogReadFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "storage",
	Name:      "log_read_failures",
})

// Collectors returns the metrics of the package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		LogWrites,
		LogReadFailures,
	}
}
