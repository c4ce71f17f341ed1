/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RequireCounterValue fails the test immediately unless counter has the wanted value.
// The counter must be a single unlabeled series (e.g. a curried vector's With(nil)).
func RequireCounterValue(t require.TestingT, counter prometheus.Counter, want float64) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireMetricValue(t, counter, want, func(m *dto.Metric) float64 { return m.GetCounter().GetValue() })
}

// RequireGaugeValue fails the test immediately unless gauge has the wanted value.
func RequireGaugeValue(t require.TestingT, gauge prometheus.Gauge, want float64) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireMetricValue(t, gauge, want, func(m *dto.Metric) float64 { return m.GetGauge().GetValue() })
}

func requireMetricValue(t require.TestingT, c prometheus.Collector, want float64, value func(*dto.Metric) float64) {
	// A pedantic registry also checks that the collector describes what it collects.
	reg := prometheus.NewPedanticRegistry()
	ok := assert.NoError(t, reg.Register(c))
	var families []*dto.MetricFamily
	if ok {
		var err error
		families, err = reg.Gather()
		ok = assert.NoError(t, err) &&
			assert.Len(t, families, 1) &&
			assert.Len(t, families[0].GetMetric(), 1) &&
			assert.Equal(t, want, value(families[0].GetMetric()[0]), families[0].GetName())
	}
	if !ok {
		t.FailNow()
	}
}
