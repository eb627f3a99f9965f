// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
)

// Collector holds the remod metric vectors. Feed it through Hooks.
type Collector struct {
	wired     *prometheus.CounterVec
	active    *prometheus.GaugeVec
	emissions *prometheus.CounterVec
	snapshots *prometheus.CounterVec
	faults    *prometheus.CounterVec
}

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		wired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remod_instances_wired_total",
				Help: "Total number of module instances wired",
			},
			[]string{"module"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "remod_instances_active",
				Help: "Module instances wired and not yet torn down",
			},
			[]string{"module"},
		),
		emissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remod_emissions_total",
				Help: "Values delivered, by channel and kind (input, feedback, output)",
			},
			[]string{"module", "channel", "kind"},
		),
		snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remod_snapshots_total",
				Help: "Snapshots published by the aggregator",
			},
			[]string{"module"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remod_faults_total",
				Help: "Runtime faults recorded while delivering",
			},
			[]string{"module", "code"},
		),
	}

	for _, col := range []prometheus.Collector{c.wired, c.active, c.emissions, c.snapshots, c.faults} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// Hooks returns engine hooks that update the collector.
func (c *Collector) Hooks() engine.Hooks {
	return engine.Hooks{
		OnWired: func(info engine.InstanceInfo, _ ir.ModuleSpec) {
			c.wired.WithLabelValues(info.Module).Inc()
			c.active.WithLabelValues(info.Module).Inc()
		},
		OnEmission: func(e ir.Emission) {
			c.emissions.WithLabelValues(e.Module, e.Channel, string(e.Kind)).Inc()
		},
		OnSnapshot: func(info engine.InstanceInfo, _ *engine.Snapshot) {
			c.snapshots.WithLabelValues(info.Module).Inc()
		},
		OnFault: func(info engine.InstanceInfo, err *engine.RuntimeError) {
			c.faults.WithLabelValues(info.Module, string(err.Code)).Inc()
		},
		OnTornDown: func(info engine.InstanceInfo, _ int64) {
			c.active.WithLabelValues(info.Module).Dec()
		},
	}
}

// WriteText renders every metric family of g in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// Handler serves g over HTTP for scraping.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
