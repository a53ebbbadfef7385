// Package observability exposes Prometheus counters for the workflow engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry        *prometheus.Registry
	transitions     *prometheus.CounterVec
	executions      *prometheus.CounterVec
	conflictRetries *prometheus.CounterVec
	stockMovements  *prometheus.CounterVec
}

// NewMetrics creates the counters on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmms_work_order_transitions_total",
			Help: "Work order status transitions by target status.",
		}, []string{"to"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmms_schedule_executions_total",
			Help: "Maintenance schedule executions by result.",
		}, []string{"result"}),
		conflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmms_conflict_retries_total",
			Help: "Units of work retried after a concurrency conflict.",
		}, []string{"operation"}),
		stockMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cmms_stock_movements_total",
			Help: "Stock movements written by the reservation ledger.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(m.transitions, m.executions, m.conflictRetries, m.stockMovements)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Transition counts a work order entering status to.
func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// ScheduleExecuted counts an execution attempt; result is "ok", "not_due" or "error".
func (m *Metrics) ScheduleExecuted(result string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(result).Inc()
}

// ConflictRetry counts a retried unit of work.
func (m *Metrics) ConflictRetry(operation string) {
	if m == nil {
		return
	}
	m.conflictRetries.WithLabelValues(operation).Inc()
}

// StockMovement counts a written stock movement.
func (m *Metrics) StockMovement(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}
