package metrics

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgomes/lineage/lineage"
)

func TestObserverCountsDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg)
	require.NoError(t, err)

	h, err := lineage.Build(
		lineage.TypeSpec{Name: "Base", Methods: []lineage.Method{{
			Name: "Run",
			Body: func(*lineage.Call) (lineage.Value, error) { return lineage.NewNil(), nil },
		}}},
		lineage.TypeSpec{Name: "Child", Parent: "Base", Methods: []lineage.Method{{
			Name: "Run",
			Kind: lineage.Overrides,
			Body: func(call *lineage.Call) (lineage.Value, error) { return call.CallBase() },
		}}},
	)
	require.NoError(t, err)
	d := lineage.NewDispatcher(h, lineage.Options{Output: io.Discard, Observer: obs})

	ctx := context.Background()
	inst, err := d.Construct(ctx, "Child")
	require.NoError(t, err)
	_, err = d.Invoke(ctx, inst, "Run")
	require.NoError(t, err)
	_, err = d.Invoke(ctx, inst, "Missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.constructions.WithLabelValues("Child")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.baseCalls.WithLabelValues("Child", "Run")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.resolutions.WithLabelValues("Child", "Run", "Child", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.resolutions.WithLabelValues("Base", "Run", "Base", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.resolutions.WithLabelValues("Child", "Missing", "", "false")))

	var out strings.Builder
	require.NoError(t, Dump(&out, reg))
	assert.Contains(t, out.String(), "# TYPE lineage_constructions_total counter\n")
	assert.Contains(t, out.String(), `lineage_constructions_total{type="Child"} 1`)
	assert.Contains(t, out.String(), `lineage_base_calls_total{method="Run",owner="Child"} 1`)
}

func TestNewObserverReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewObserver(reg)
	require.NoError(t, err)
	second, err := NewObserver(reg)
	require.NoError(t, err)

	first.ObserveConstruct("A", 1)
	second.ObserveConstruct("A", 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.constructions.WithLabelValues("A")))
}
