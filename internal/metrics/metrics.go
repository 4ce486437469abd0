// Package metrics exposes prometheus collectors for the quote session host.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/straye-as/blind-quote/internal/actions"
)

const namespace = "blind_quote"

// Collectors groups the application metrics on a private registry
type Collectors struct {
	registry          *prometheus.Registry
	dispatches        *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	calculationErrors prometheus.Counter
	autoSaves         *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Actions dispatched into the state container.",
		}, []string{"namespace", "changed"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent reducing one action.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"namespace"}),
		calculationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculation_errors_total",
			Help:      "Calculation runs that reported a pricing error.",
		}),
		autoSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosaves_total",
			Help:      "Auto-save attempts by target and result.",
		}, []string{"target", "result"}),
	}

	c.registry.MustRegister(
		c.dispatches,
		c.dispatchDuration,
		c.calculationErrors,
		c.autoSaves,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collectors are registered on
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveDispatch matches store.Observer
func (c *Collectors) ObserveDispatch(a actions.Action, changed bool, elapsed time.Duration) {
	ns := string(a.Type().Namespace())
	if ns == "" {
		ns = "none"
	}
	label := "false"
	if changed {
		label = "true"
	}
	c.dispatches.WithLabelValues(ns, label).Inc()
	c.dispatchDuration.WithLabelValues(ns).Observe(elapsed.Seconds())
}

// ObserveCalculationError counts a calculation run that surfaced a pricing error
func (c *Collectors) ObserveCalculationError() {
	c.calculationErrors.Inc()
}

// ObserveAutoSave counts one auto-save attempt
func (c *Collectors) ObserveAutoSave(target, result string) {
	c.autoSaves.WithLabelValues(target, result).Inc()
}

// Handler serves the registry in the prometheus text format
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
