/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"sort"

	"github.com/acronis/go-evalcache/payload"
)

// Payload field names.
const (
	fieldFeatureGates   = "feature_gates"
	fieldDynamicConfigs = "dynamic_configs"
	fieldLayerConfigs   = "layer_configs"

	fieldName                          = "name"
	fieldValue                         = "value"
	fieldRuleID                        = "rule_id"
	fieldSecondaryExposures            = "secondary_exposures"
	fieldUndelegatedSecondaryExposures = "undelegated_secondary_exposures"
	fieldIsDeviceBased                 = "is_device_based"
	fieldIsUserInExperiment            = "is_user_in_experiment"
	fieldIsExperimentActive            = "is_experiment_active"
	fieldAllocatedExperimentName       = "allocated_experiment_name"
	fieldExplicitParameters            = "explicit_parameters"
)

// Exposure is a secondary exposure record (e.g. {"gate": ..., "gateValue": ..., "ruleID": ...}).
type Exposure map[string]string

// Result is implemented by GateResult, ConfigResult and LayerResult.
type Result interface {
	// EntryName returns the name of the entry as delivered by the server.
	EntryName() string

	// EntryRuleID returns the identifier of the rule that produced the result.
	EntryRuleID() string
}

// GateResult is a cached evaluation of a feature gate.
type GateResult struct {
	Name               string
	Value              bool
	RuleID             string
	SecondaryExposures []Exposure
}

// EntryName implements Result.
func (g GateResult) EntryName() string { return g.Name }

// EntryRuleID implements Result.
func (g GateResult) EntryRuleID() string { return g.RuleID }

func newGateResult(name string, obj payload.Value) GateResult {
	value, _ := obj.Field(fieldValue).AsBool()
	ruleID, _ := obj.Field(fieldRuleID).AsString()
	return GateResult{
		Name:               name,
		Value:              value,
		RuleID:             ruleID,
		SecondaryExposures: parseExposures(obj.Field(fieldSecondaryExposures)),
	}
}

func (g GateResult) clone() GateResult {
	g.SecondaryExposures = cloneExposures(g.SecondaryExposures)
	return g
}

// ConfigResult is a cached evaluation of a dynamic config (or an experiment).
type ConfigResult struct {
	Name               string
	Value              payload.Value // Always an object.
	RuleID             string
	SecondaryExposures []Exposure
	IsUserInExperiment bool
	IsExperimentActive bool
	IsDeviceBased      bool
}

// EntryName implements Result.
func (c ConfigResult) EntryName() string { return c.Name }

// EntryRuleID implements Result.
func (c ConfigResult) EntryRuleID() string { return c.RuleID }

// Get returns the value of the config parameter.
func (c ConfigResult) Get(key string) (payload.Value, bool) {
	return c.Value.Lookup(key)
}

// Decode copies the config parameters into out (see payload.Value.Decode).
func (c ConfigResult) Decode(out interface{}) error {
	return c.Value.Decode(out)
}

func newConfigResult(name string, obj payload.Value) ConfigResult {
	ruleID, _ := obj.Field(fieldRuleID).AsString()
	inExperiment, _ := obj.Field(fieldIsUserInExperiment).AsBool()
	experimentActive, _ := obj.Field(fieldIsExperimentActive).AsBool()
	deviceBased, _ := obj.Field(fieldIsDeviceBased).AsBool()
	return ConfigResult{
		Name:               name,
		Value:              objectOrEmpty(obj.Field(fieldValue)),
		RuleID:             ruleID,
		SecondaryExposures: parseExposures(obj.Field(fieldSecondaryExposures)),
		IsUserInExperiment: inExperiment,
		IsExperimentActive: experimentActive,
		IsDeviceBased:      deviceBased,
	}
}

func (c ConfigResult) clone() ConfigResult {
	c.SecondaryExposures = cloneExposures(c.SecondaryExposures)
	return c
}

// LayerResult is a cached evaluation of a layer.
// A layer delegates its parameters to the experiment the user is allocated to.
type LayerResult struct {
	Name                          string
	HashedName                    string
	Value                         payload.Value // Always an object.
	RuleID                        string
	AllocatedExperimentName       string
	IsUserInExperiment            bool
	IsExperimentActive            bool
	IsDeviceBased                 bool
	SecondaryExposures            []Exposure
	UndelegatedSecondaryExposures []Exposure
	ExplicitParameters            []string // Sorted.
}

// EntryName implements Result.
func (l LayerResult) EntryName() string { return l.Name }

// EntryRuleID implements Result.
func (l LayerResult) EntryRuleID() string { return l.RuleID }

// Get returns the value of the layer parameter.
// If the parameter exists and onExposure is not nil, onExposure is called with the layer and the parameter name,
// so the caller can log a parameter exposure.
func (l LayerResult) Get(key string, onExposure func(layer LayerResult, parameterName string)) (payload.Value, bool) {
	v, ok := l.Value.Lookup(key)
	if ok && onExposure != nil {
		onExposure(l.clone(), key)
	}
	return v, ok
}

// IsExplicitParameter reports whether the parameter is set explicitly by the allocated experiment.
func (l LayerResult) IsExplicitParameter(key string) bool {
	i := sort.SearchStrings(l.ExplicitParameters, key)
	return i < len(l.ExplicitParameters) && l.ExplicitParameters[i] == key
}

func newLayerResult(name string, obj payload.Value) LayerResult {
	hashedName, _ := obj.Field(fieldName).AsString()
	ruleID, _ := obj.Field(fieldRuleID).AsString()
	allocated, _ := obj.Field(fieldAllocatedExperimentName).AsString()
	inExperiment, _ := obj.Field(fieldIsUserInExperiment).AsBool()
	experimentActive, _ := obj.Field(fieldIsExperimentActive).AsBool()
	deviceBased, _ := obj.Field(fieldIsDeviceBased).AsBool()
	return LayerResult{
		Name:                          name,
		HashedName:                    hashedName,
		Value:                         objectOrEmpty(obj.Field(fieldValue)),
		RuleID:                        ruleID,
		AllocatedExperimentName:       allocated,
		IsUserInExperiment:            inExperiment,
		IsExperimentActive:            experimentActive,
		IsDeviceBased:                 deviceBased,
		SecondaryExposures:            parseExposures(obj.Field(fieldSecondaryExposures)),
		UndelegatedSecondaryExposures: parseExposures(obj.Field(fieldUndelegatedSecondaryExposures)),
		ExplicitParameters:            parseStringSet(obj.Field(fieldExplicitParameters)),
	}
}

func (l LayerResult) clone() LayerResult {
	l.SecondaryExposures = cloneExposures(l.SecondaryExposures)
	l.UndelegatedSecondaryExposures = cloneExposures(l.UndelegatedSecondaryExposures)
	if l.ExplicitParameters != nil {
		l.ExplicitParameters = append([]string(nil), l.ExplicitParameters...)
	}
	return l
}

func objectOrEmpty(v payload.Value) payload.Value {
	if v.IsObject() {
		return v
	}
	return payload.Object(nil)
}

// parseExposures keeps only string fields of object items. Items of other kinds are skipped.
func parseExposures(v payload.Value) []Exposure {
	items, ok := v.AsArray()
	if !ok || len(items) == 0 {
		return nil
	}
	exposures := make([]Exposure, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		exposure := make(Exposure, item.Len())
		item.Range(func(key string, field payload.Value) bool {
			if s, isStr := field.AsString(); isStr {
				exposure[key] = s
			}
			return true
		})
		exposures = append(exposures, exposure)
	}
	return exposures
}

func parseStringSet(v payload.Value) []string {
	items, ok := v.AsArray()
	if !ok || len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		s, isStr := item.AsString()
		if !isStr {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

func cloneExposures(exposures []Exposure) []Exposure {
	if exposures == nil {
		return nil
	}
	cloned := make([]Exposure, len(exposures))
	for i, e := range exposures {
		c := make(Exposure, len(e))
		for k, v := range e {
			c[k] = v
		}
		cloned[i] = c
	}
	return cloned
}
