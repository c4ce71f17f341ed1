/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-evalcache/internal/namehash"
	"github.com/acronis/go-evalcache/payload"
)

func mustHash(t *testing.T, name string) string {
	t.Helper()
	h, err := namehash.Sum(name)
	require.NoError(t, err)
	return h
}

func makeRaw(t *testing.T, fields map[string]interface{}) payload.Value {
	t.Helper()
	v := payload.FromAny(fields)
	require.True(t, v.IsObject())
	return v
}

func TestValueSetLookupHashedAndPlain(t *testing.T) {
	hashedFlag := mustHash(t, "flag_a")
	hashedConfig := mustHash(t, "config_a")

	hashed := NewValueSet(makeRaw(t, map[string]interface{}{
		"feature_gates": map[string]interface{}{
			hashedFlag: map[string]interface{}{"name": hashedFlag, "value": true, "rule_id": "rule-1"},
		},
		"dynamic_configs": map[string]interface{}{
			hashedConfig: map[string]interface{}{"value": map[string]interface{}{"color": "red"}, "rule_id": "rule-2"},
		},
	}))
	gate, ok := hashed.CheckGate("flag_a")
	require.True(t, ok)
	require.Equal(t, GateResult{Name: hashedFlag, Value: true, RuleID: "rule-1"}, gate)
	cfg, ok := hashed.GetConfig("config_a")
	require.True(t, ok)
	require.Equal(t, "rule-2", cfg.RuleID)
	color, ok := cfg.Get("color")
	require.True(t, ok)
	require.True(t, payload.String("red").Equal(color))

	plain := NewValueSet(makeRaw(t, map[string]interface{}{
		"feature_gates": map[string]interface{}{
			"flag_a": map[string]interface{}{"value": true, "rule_id": "rule-3"},
		},
		"dynamic_configs": map[string]interface{}{
			"config_a": map[string]interface{}{"value": map[string]interface{}{"size": 3}},
		},
	}))
	gate, ok = plain.CheckGate("flag_a")
	require.True(t, ok)
	require.Equal(t, "flag_a", gate.Name)
	require.Equal(t, "rule-3", gate.RuleID)
	cfg, ok = plain.GetConfig("config_a")
	require.True(t, ok)
	size, ok := cfg.Get("size")
	require.True(t, ok)
	n, _ := size.AsNumber()
	require.Equal(t, 3.0, n)

	var params struct {
		Size  int    `json:"size"`
		Color string `json:"color"`
	}
	params.Color = "blue"
	require.NoError(t, cfg.Decode(&params))
	require.Equal(t, 3, params.Size)
	require.Equal(t, "blue", params.Color)
}

func TestValueSetHashedFormWins(t *testing.T) {
	vs := NewValueSet(makeRaw(t, map[string]interface{}{
		"feature_gates": map[string]interface{}{
			mustHash(t, "flag_a"): map[string]interface{}{"value": true, "rule_id": "hashed"},
			"flag_a":              map[string]interface{}{"value": false, "rule_id": "plain"},
		},
	}))
	gate, ok := vs.CheckGate("flag_a")
	require.True(t, ok)
	require.Equal(t, "hashed", gate.RuleID)
}

func TestValueSetAbsence(t *testing.T) {
	vs := NewValueSet(makeRaw(t, map[string]interface{}{
		"feature_gates": map[string]interface{}{"flag_a": map[string]interface{}{"value": true}},
	}))
	_, ok := vs.CheckGate("unknown")
	require.False(t, ok)
	_, ok = vs.GetConfig("flag_a")
	require.False(t, ok, "gates and configs are separate mappings")
	_, ok = vs.GetLayer("flag_a")
	require.False(t, ok)
}

func TestValueSetMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  payload.Value
	}{
		{name: "null", raw: payload.Null()},
		{name: "array", raw: payload.Array(payload.String("x"))},
		{name: "empty object", raw: payload.Object(nil)},
		{name: "gates of wrong kind", raw: payload.MustParseJSON(`{"feature_gates": [1, 2], "dynamic_configs": "oops"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := NewValueSet(tt.raw)
			require.Empty(t, vs.GateNames())
			require.Empty(t, vs.ConfigNames())
			require.Empty(t, vs.LayerNames())
			require.True(t, tt.raw.Equal(vs.RawData()))
		})
	}
}

func TestValueSetDefaultsAndSkippedEntries(t *testing.T) {
	vs := NewValueSet(payload.MustParseJSON(`{
		"feature_gates": {"g1": {}, "g2": "not an object", "g3": {"value": "yes", "rule_id": 7}},
		"dynamic_configs": {"c1": {"value": [1, 2]}, "c2": 42}
	}`))
	require.Equal(t, []string{"g1", "g3"}, vs.GateNames())
	require.Equal(t, []string{"c1"}, vs.ConfigNames())

	gate, ok := vs.CheckGate("g3")
	require.True(t, ok)
	require.Equal(t, GateResult{Name: "g3"}, gate)

	cfg, ok := vs.GetConfig("c1")
	require.True(t, ok)
	require.True(t, cfg.Value.IsObject())
	require.Equal(t, 0, cfg.Value.Len())
}

func TestValueSetConfigFields(t *testing.T) {
	vs := NewValueSet(payload.MustParseJSON(`{
		"dynamic_configs": {"exp": {
			"value": {"button": "blue"},
			"rule_id": "r",
			"is_user_in_experiment": true,
			"is_experiment_active": true,
			"is_device_based": true,
			"secondary_exposures": [{"gate": "g", "gateValue": "true", "ruleID": "x"}, "junk", {"n": 1}]
		}}
	}`))
	cfg, ok := vs.GetConfig("exp")
	require.True(t, ok)
	assert.True(t, cfg.IsUserInExperiment)
	assert.True(t, cfg.IsExperimentActive)
	assert.True(t, cfg.IsDeviceBased)
	assert.Equal(t, []Exposure{{"gate": "g", "gateValue": "true", "ruleID": "x"}, {}}, cfg.SecondaryExposures)
	assert.Equal(t, "exp", cfg.EntryName())
	assert.Equal(t, "r", cfg.EntryRuleID())
}

func TestValueSetLayer(t *testing.T) {
	vs := NewValueSet(payload.MustParseJSON(`{
		"layer_configs": {"checkout_layer": {
			"name": "hashed-layer",
			"value": {"button": "green", "size": 2},
			"rule_id": "layer-rule",
			"allocated_experiment_name": "exp-1",
			"is_user_in_experiment": true,
			"explicit_parameters": ["size", "button", "size"],
			"secondary_exposures": [{"gate": "a"}],
			"undelegated_secondary_exposures": [{"gate": "b"}]
		}}
	}`))
	layer, ok := vs.GetLayer("checkout_layer")
	require.True(t, ok)
	require.Equal(t, "hashed-layer", layer.HashedName)
	require.Equal(t, "exp-1", layer.AllocatedExperimentName)
	require.Equal(t, []string{"button", "size"}, layer.ExplicitParameters)
	require.True(t, layer.IsExplicitParameter("size"))
	require.False(t, layer.IsExplicitParameter("color"))
	require.Equal(t, []Exposure{{"gate": "b"}}, layer.UndelegatedSecondaryExposures)

	var exposed []string
	onExposure := func(l LayerResult, parameterName string) {
		require.Equal(t, "checkout_layer", l.Name)
		exposed = append(exposed, parameterName)
	}
	v, ok := layer.Get("button", onExposure)
	require.True(t, ok)
	require.True(t, payload.String("green").Equal(v))
	_, ok = layer.Get("missing", onExposure)
	require.False(t, ok)
	_, ok = layer.Get("size", nil)
	require.True(t, ok)
	require.Equal(t, []string{"button"}, exposed)
}

func TestValueSetResultsAreCopies(t *testing.T) {
	vs := NewValueSet(payload.MustParseJSON(`{
		"feature_gates": {"g": {"value": true, "secondary_exposures": [{"gate": "dep"}]}}
	}`))
	gate, ok := vs.CheckGate("g")
	require.True(t, ok)
	gate.SecondaryExposures[0]["gate"] = "changed"
	gate.SecondaryExposures = append(gate.SecondaryExposures, Exposure{})

	again, ok := vs.CheckGate("g")
	require.True(t, ok)
	require.Equal(t, []Exposure{{"gate": "dep"}}, again.SecondaryExposures)
}

func TestValueSetCreationTime(t *testing.T) {
	before := time.Now()
	vs := NewValueSet(payload.Object(nil))
	require.False(t, vs.CreationTime().Before(before))

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, at, NewValueSetAt(payload.Object(nil), at).CreationTime())
}

func TestResultInterface(t *testing.T) {
	results := []Result{GateResult{Name: "g", RuleID: "1"}, ConfigResult{Name: "c", RuleID: "2"}, LayerResult{Name: "l", RuleID: "3"}}
	var names, rules []string
	for _, r := range results {
		names = append(names, r.EntryName())
		rules = append(rules, r.EntryRuleID())
	}
	require.Equal(t, []string{"g", "c", "l"}, names)
	require.Equal(t, []string{"1", "2", "3"}, rules)
}
