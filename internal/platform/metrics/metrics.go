package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cau_eleitoral"

// Collectors holds the process-wide prometheus collectors. It satisfies the
// Metrics port of both the election-core and judgment-session contexts.
type Collectors struct {
	registry         *prometheus.Registry
	ballotsCast      *prometheus.CounterVec
	tallyRuns        *prometheus.CounterVec
	tallyDuration    *prometheus.HistogramVec
	phaseTransitions *prometheus.CounterVec
	verdicts         *prometheus.CounterVec
}

// New registers every collector on registry. A nil registry gets a fresh one
// with the go and process collectors attached.
func New(registry *prometheus.Registry) *Collectors {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	promautoFactory := promauto.With(registry)
	return &Collectors{
		registry: registry,
		ballotsCast: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_cast_total",
			Help:      "ballot cast attempts by outcome",
		}, []string{"outcome"}),
		tallyRuns: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tally_runs_total",
			Help:      "completed tally runs by mode",
		}, []string{"mode"}),
		tallyDuration: promautoFactory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tally_duration_seconds",
			Help:      "tally run duration by mode",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		phaseTransitions: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "election phase transitions by target phase",
		}, []string{"phase", "automatic"}),
		verdicts: promautoFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "finalized judgment verdicts by resolution and decision kind",
		}, []string{"resolution", "kind"}),
	}
}

func (c *Collectors) ObserveCast(outcome string) {
	c.ballotsCast.WithLabelValues(outcome).Inc()
}

func (c *Collectors) ObserveTally(mode string, seconds float64) {
	c.tallyRuns.WithLabelValues(mode).Inc()
	c.tallyDuration.WithLabelValues(mode).Observe(seconds)
}

func (c *Collectors) ObservePhaseTransition(phase string, automatic bool) {
	c.phaseTransitions.WithLabelValues(phase, strconv.FormatBool(automatic)).Inc()
}

func (c *Collectors) ObserveVerdict(resolution string, kind string) {
	c.verdicts.WithLabelValues(resolution, kind).Inc()
}

func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
