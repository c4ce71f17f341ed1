/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"sort"
	"time"

	"github.com/acronis/go-evalcache/internal/namehash"
	"github.com/acronis/go-evalcache/payload"
)

// ValueSet is an immutable snapshot of evaluation results fetched for one user.
type ValueSet struct {
	raw          payload.Value
	gates        map[string]GateResult
	configs      map[string]ConfigResult
	layers       map[string]LayerResult
	creationTime time.Time
}

// NewValueSet builds a ValueSet from a raw server payload. Its creation time is the current time.
// Missing or malformed "feature_gates", "dynamic_configs" and "layer_configs" fields are treated as empty.
func NewValueSet(raw payload.Value) *ValueSet {
	return NewValueSetAt(raw, time.Now())
}

// NewValueSetAt is like NewValueSet but uses the given creation time.
func NewValueSetAt(raw payload.Value, creationTime time.Time) *ValueSet {
	vs := &ValueSet{
		raw:          raw,
		gates:        make(map[string]GateResult),
		configs:      make(map[string]ConfigResult),
		layers:       make(map[string]LayerResult),
		creationTime: creationTime,
	}
	raw.Field(fieldFeatureGates).Range(func(name string, obj payload.Value) bool {
		if obj.IsObject() {
			vs.gates[name] = newGateResult(name, obj)
		}
		return true
	})
	raw.Field(fieldDynamicConfigs).Range(func(name string, obj payload.Value) bool {
		if obj.IsObject() {
			vs.configs[name] = newConfigResult(name, obj)
		}
		return true
	})
	raw.Field(fieldLayerConfigs).Range(func(name string, obj payload.Value) bool {
		if obj.IsObject() {
			vs.layers[name] = newLayerResult(name, obj)
		}
		return true
	})
	return vs
}

// RawData returns the payload the ValueSet was built from.
func (vs *ValueSet) RawData() payload.Value {
	return vs.raw
}

// CreationTime returns the time the ValueSet was built at.
func (vs *ValueSet) CreationTime() time.Time {
	return vs.creationTime
}

// GateNames returns sorted names of all gates as delivered by the server.
func (vs *ValueSet) GateNames() []string {
	return sortedKeys(vs.gates)
}

// ConfigNames returns sorted names of all dynamic configs as delivered by the server.
func (vs *ValueSet) ConfigNames() []string {
	return sortedKeys(vs.configs)
}

// LayerNames returns sorted names of all layers as delivered by the server.
func (vs *ValueSet) LayerNames() []string {
	return sortedKeys(vs.layers)
}

// CheckGate returns the gate with the given name.
// The hashed form of the name is looked up first, then the name itself.
func (vs *ValueSet) CheckGate(name string) (GateResult, bool) {
	return vs.checkGate(namehash.Default(), name)
}

// GetConfig returns the dynamic config with the given name.
// The hashed form of the name is looked up first, then the name itself.
func (vs *ValueSet) GetConfig(name string) (ConfigResult, bool) {
	return vs.getConfig(namehash.Default(), name)
}

// GetLayer returns the layer with the given name.
// The hashed form of the name is looked up first, then the name itself.
func (vs *ValueSet) GetLayer(name string) (LayerResult, bool) {
	return vs.getLayer(namehash.Default(), name)
}

func (vs *ValueSet) checkGate(h *namehash.Hasher, name string) (GateResult, bool) {
	g, ok := lookup(h, vs.gates, name)
	if !ok {
		return GateResult{}, false
	}
	return g.clone(), true
}

func (vs *ValueSet) getConfig(h *namehash.Hasher, name string) (ConfigResult, bool) {
	c, ok := lookup(h, vs.configs, name)
	if !ok {
		return ConfigResult{}, false
	}
	return c.clone(), true
}

func (vs *ValueSet) getLayer(h *namehash.Hasher, name string) (LayerResult, bool) {
	l, ok := lookup(h, vs.layers, name)
	if !ok {
		return LayerResult{}, false
	}
	return l.clone(), true
}

// lookup tries the hashed name and then the plain one. A hashing failure is a miss.
func lookup[R any](h *namehash.Hasher, entries map[string]R, name string) (R, bool) {
	var zero R
	hashed, err := h.Hash(name)
	if err != nil {
		return zero, false
	}
	if r, ok := entries[hashed]; ok {
		return r, true
	}
	if r, ok := entries[name]; ok {
		return r, true
	}
	return zero, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
