// Package metrics registers the process-wide Prometheus collectors. The
// router serves them at /metrics via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation modes reported on RegistrationsTotal.
const (
	ModeRandom   = "random"
	ModeReserved = "reserved"
)

var (
	// RegistrationsTotal counts issued numbers by allocation mode.
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sft",
		Subsystem: "registry",
		Name:      "registrations_total",
		Help:      "Numbers issued, partitioned by allocation mode.",
	}, []string{"mode"})

	// RegistrationFailuresTotal counts rejected allocation attempts.
	RegistrationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sft",
		Subsystem: "registry",
		Name:      "registration_failures_total",
		Help:      "Rejected allocation attempts, partitioned by reason.",
	}, []string{"reason"})

	// NumbersRemaining tracks the size of the unissued pool.
	NumbersRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sft",
		Subsystem: "registry",
		Name:      "numbers_remaining",
		Help:      "Numbers still available in the allocation range.",
	})

	// ExportsTotal counts rendered ledger exports by format.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sft",
		Subsystem: "registry",
		Name:      "exports_total",
		Help:      "Ledger exports rendered, partitioned by format.",
	}, []string{"format"})
)
