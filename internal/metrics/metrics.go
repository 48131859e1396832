// Package metrics exposes Prometheus counters for the device operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal counts reachability probes by outcome status.
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autoconf",
		Name:      "probes_total",
		Help:      "Reachability probes by result status.",
	}, []string{"status"})

	// TransportSessionsTotal counts SSH sessions by open outcome.
	TransportSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autoconf",
		Name:      "transport_sessions_total",
		Help:      "Device transport sessions by open result.",
	}, []string{"result"})

	// AuditWritesTotal counts audit log writes, including failed ones.
	AuditWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autoconf",
		Name:      "audit_writes_total",
		Help:      "Audit log writes by result.",
	}, []string{"result"})
)
