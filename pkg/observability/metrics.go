// Package observability provides Prometheus metrics for the framework.
//
// Labels are restricted to bounded sets (state names, component type
// codes) to keep cardinality under control; entity IDs and channel
// names never appear as label values.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComponentTransitionsTotal counts component lifecycle transitions.
	ComponentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s8r_component_state_transitions_total",
		Help: "Total number of component lifecycle state transitions, by source and target state.",
	}, []string{"from", "to"})

	// MachineTransitionsTotal counts machine state transitions.
	MachineTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s8r_machine_state_transitions_total",
		Help: "Total number of machine state transitions, by source and target state.",
	}, []string{"from", "to"})

	// DataEventsTotal counts data events published on the flow hub.
	DataEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "s8r_data_events_published_total",
		Help: "Total number of component data events published.",
	})

	// PipelineProcessedTotal counts pipeline executions by outcome.
	PipelineProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s8r_pipeline_processed_total",
		Help: "Total number of pipeline executions, by outcome (ok, invalid, error).",
	}, []string{"outcome"})

	// ActiveComponents tracks components currently in the Active state.
	ActiveComponents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "s8r_active_components",
		Help: "Current number of components in the Active lifecycle state.",
	})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "s8r_circuit_breaker_state",
		Help: "Circuit breaker state by pipeline (closed=1, half-open=1, open=1; others 0).",
	}, []string{"pipeline", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s8r_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to open state).",
	}, []string{"pipeline"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// RecordComponentTransition increments the component transition counter.
func RecordComponentTransition(from, to string) {
	ComponentTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordMachineTransition increments the machine transition counter.
func RecordMachineTransition(from, to string) {
	MachineTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordDataEvent increments the published data event counter.
func RecordDataEvent() {
	DataEventsTotal.Inc()
}

// RecordPipelineOutcome increments the pipeline execution counter.
func RecordPipelineOutcome(outcome string) {
	PipelineProcessedTotal.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState records the active breaker state for a pipeline.
func SetCircuitBreakerState(pipeline, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(pipeline, s).Set(value)
	}
}

// RecordCircuitBreakerTrip increments the trip counter when a breaker
// opens.
func RecordCircuitBreakerTrip(pipeline string) {
	circuitBreakerTrips.WithLabelValues(pipeline).Inc()
}
