package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Observer records dispatch events in Prometheus counters. It satisfies
// lineage.Observer.
type Observer struct {
	resolutions   *prometheus.CounterVec
	constructions *prometheus.CounterVec
	baseCalls     *prometheus.CounterVec
}

// NewObserver registers the dispatch counters on reg. A nil reg uses the
// default registerer. Collectors that are already registered are reused.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_resolutions_total",
		Help: "Method resolutions by requested type, method and outcome",
	}, []string{"type", "method", "owner", "found"})
	constructions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_constructions_total",
		Help: "Instances constructed by most-derived type",
	}, []string{"type"})
	baseCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_base_calls_total",
		Help: "Base calls by the type issuing them",
	}, []string{"owner", "method"})

	var err error
	if resolutions, err = register(reg, resolutions); err != nil {
		return nil, err
	}
	if constructions, err = register(reg, constructions); err != nil {
		return nil, err
	}
	if baseCalls, err = register(reg, baseCalls); err != nil {
		return nil, err
	}
	return &Observer{resolutions: resolutions, constructions: constructions, baseCalls: baseCalls}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func (o *Observer) ObserveResolve(typeName, method, owner string, found bool) {
	o.resolutions.WithLabelValues(typeName, method, owner, strconv.FormatBool(found)).Inc()
}

func (o *Observer) ObserveConstruct(typeName string, _ int) {
	o.constructions.WithLabelValues(typeName).Inc()
}

func (o *Observer) ObserveBaseCall(owner, method string) {
	o.baseCalls.WithLabelValues(owner, method).Inc()
}

// Dump writes every gathered family to w in the Prometheus text exposition
// format.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
