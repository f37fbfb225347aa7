package observability

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/julescmay/machina"
)

// Collector records transition metrics. Register it on a Prometheus registry
// and attach its hooks to a machine; one Collector may be shared by several
// machines (its hooks are safe for concurrent use), in which case the
// counters and the histogram aggregate across all of them.
type Collector struct {
	transitions *prometheus.CounterVec
	redirects   *prometheus.CounterVec
	hops        prometheus.Histogram
	current     *prometheus.GaugeVec

	mu   sync.Mutex
	last string
}

// CollectorOption configures NewCollector.
type CollectorOption func(*Collector)

// WithCurrentState adds a machina_current_state gauge (1 for the active
// state, 0 otherwise). The gauge is labeled by state only, so it is meaningful
// for a Collector observing a single machine; shared collectors should leave
// it off.
func WithCurrentState() CollectorOption {
	return func(c *Collector) {
		c.current = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "machina_current_state",
				Help: "1 for the active state, 0 otherwise",
			},
			[]string{"state"},
		)
	}
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer, opts ...CollectorOption) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "machina_transitions_total",
				Help: "Completed transitions by final state",
			},
			[]string{"state"},
		),
		redirects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "machina_redirects_total",
				Help: "Entry redirects followed, by edge",
			},
			[]string{"from", "to"},
		),
		hops: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "machina_redirect_hops",
				Help:    "Redirects followed per completed transition",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
	}
	for _, opt := range opts {
		opt(c)
	}

	reg.MustRegister(c.transitions, c.redirects, c.hops)
	if c.current != nil {
		reg.MustRegister(c.current)
	}
	return c
}

// Hooks returns the hook set for string-keyed machines (e.g. pkg/flow).
func (c *Collector) Hooks() machina.Hooks[string] {
	return HooksFor[string](c)
}

// HooksFor returns the hook set for machines with an arbitrary identifier
// type; identifiers become labels via fmt.Sprint.
func HooksFor[S comparable](c *Collector) machina.Hooks[S] {
	return machina.Hooks[S]{
		OnRedirect: func(from, to S) {
			c.redirects.WithLabelValues(label(from), label(to)).Inc()
		},
		OnEntered: func(state S, hops int) {
			c.entered(label(state), hops)
		},
	}
}

func (c *Collector) entered(state string, hops int) {
	c.transitions.WithLabelValues(state).Inc()
	c.hops.Observe(float64(hops))

	if c.current == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != "" && c.last != state {
		c.current.WithLabelValues(c.last).Set(0)
	}
	c.current.WithLabelValues(state).Set(1)
	c.last = state
}

func label[S comparable](id S) string {
	return fmt.Sprint(id)
}
