/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// recordingT collects failures instead of failing the test that uses it.
type recordingT struct {
	failed   bool
	messages []string
}

func (t *recordingT) Errorf(format string, args ...interface{}) {
	t.messages = append(t.messages, fmt.Sprintf(format, args...))
}

func (t *recordingT) FailNow() {
	t.failed = true
}

func TestRequireCounterValue(t *testing.T) {
	evictions := prometheus.NewCounter(prometheus.CounterOpts{Name: "evictions_total"})
	evictions.Add(3)

	rt := &recordingT{}
	RequireCounterValue(rt, evictions, 2)
	require.True(t, rt.failed)
	require.NotEmpty(t, rt.messages)

	rt = &recordingT{}
	RequireCounterValue(rt, evictions, 3)
	require.False(t, rt.failed)
	require.Empty(t, rt.messages)
}

func TestRequireGaugeValue(t *testing.T) {
	users := prometheus.NewGauge(prometheus.GaugeOpts{Name: "users_amount"})
	users.Set(5)

	rt := &recordingT{}
	RequireGaugeValue(rt, users, 4)
	require.True(t, rt.failed)

	rt = &recordingT{}
	RequireGaugeValue(rt, users, 5)
	require.False(t, rt.failed)
}
