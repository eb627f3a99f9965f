package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/modules"
	"github.com/roach88/remod/internal/stream"
)

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	return c, reg
}

func TestCollector_CounterRun(t *testing.T) {
	c, _ := newCollector(t)
	m, ok := modules.Lookup("Counter")
	require.True(t, ok)

	inst, err := engine.Wire(m, engine.WithHooks(c.Hooks()))
	require.NoError(t, err)
	require.NoError(t, inst.Set("increment", nil))
	require.NoError(t, inst.Set("increment", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.wired.WithLabelValues("Counter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.active.WithLabelValues("Counter")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.emissions.WithLabelValues("Counter", "increment", "input")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.emissions.WithLabelValues("Counter", "currentCount", "feedback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.emissions.WithLabelValues("Counter", "displayText", "output")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.snapshots.WithLabelValues("Counter")))

	inst.Close()
	assert.Equal(t, 0.0, testutil.ToFloat64(c.active.WithLabelValues("Counter")))
}

func TestCollector_Faults(t *testing.T) {
	c, _ := newCollector(t)
	loop := engine.Module{
		Spec: ir.ModuleSpec{
			Name:           "Loop",
			Purpose:        "Feeds itself",
			Input:          []string{"start"},
			OutputFeedback: []string{"tick"},
			Initial:        ir.Record{"tick": ir.Int(0)},
		},
		Logic: func(in engine.Streams) engine.Streams {
			return engine.Streams{"tick": stream.Merge(in["start"], in["tick"])}
		},
	}
	inst, err := engine.Wire(loop, engine.WithHooks(c.Hooks()), engine.WithMaxFeedbackDepth(3))
	require.NoError(t, err)
	defer inst.Close()

	assert.Error(t, inst.Set("start", ir.Int(1)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.faults.WithLabelValues("Loop", "FEEDBACK_LOOP")))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	c, reg := newCollector(t)
	c.Hooks().OnWired(engine.InstanceInfo{ID: "i", Module: "Greeting"}, ir.ModuleSpec{})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "# HELP remod_instances_wired_total Total number of module instances wired")
	assert.Contains(t, out, "# TYPE remod_instances_wired_total counter")
	assert.Contains(t, out, `remod_instances_wired_total{module="Greeting"} 1`)
	assert.Contains(t, out, `remod_instances_active{module="Greeting"} 1`)
}

func TestHandler(t *testing.T) {
	c, reg := newCollector(t)
	c.Hooks().OnWired(engine.InstanceInfo{ID: "i", Module: "Progress"}, ir.ModuleSpec{})

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `remod_instances_wired_total{module="Progress"} 1`))
}
