package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gate decisions recorded by GateDecision.
const (
	DecisionAllowed  = "allowed"
	DecisionBlocked  = "blocked"
	DecisionFailOpen = "fail_open"
)

// Collector holds the service's metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	InvoiceMutations  *prometheus.CounterVec
	MutationConflicts *prometheus.CounterVec
	GateDecisions     *prometheus.CounterVec
	GateEvaluation    prometheus.Histogram
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		InvoiceMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_mutations_total",
			Help:      "Invoice mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		MutationConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_mutation_conflicts_total",
			Help:      "Optimistic version conflicts seen while mutating invoices.",
		}, []string{"operation"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_gate_decisions_total",
			Help:      "Document access decisions by result.",
		}, []string{"decision"}),
		GateEvaluation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_status_evaluation_seconds",
			Help:      "Time spent evaluating a client's payment status.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.InvoiceMutations,
		c.MutationConflicts,
		c.GateDecisions,
		c.GateEvaluation,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Mutation(operation string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.InvoiceMutations.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) Conflict(operation string) {
	if c == nil {
		return
	}
	c.MutationConflicts.WithLabelValues(operation).Inc()
}

func (c *Collector) GateDecision(decision string) {
	if c == nil {
		return
	}
	c.GateDecisions.WithLabelValues(decision).Inc()
}

func (c *Collector) ObserveEvaluation(start time.Time) {
	if c == nil {
		return
	}
	c.GateEvaluation.Observe(time.Since(start).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
