/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package payload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
	_ yaml.Marshaler   = Value{}
	_ yaml.Unmarshaler = (*Value)(nil)
)

// ParseJSON decodes JSON document into Value.
func ParseJSON(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// ParseYAML decodes YAML document into Value.
func ParseYAML(data []byte) (Value, error) {
	var v Value
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

// MustParseJSON is like ParseJSON but panics on error.
// It is intended for tests and static fixtures.
func MustParseJSON(data string) Value {
	v, err := ParseJSON([]byte(data))
	if err != nil {
		panic(fmt.Errorf("parse json: %w", err))
	}
	return v
}

// MarshalJSON implements json.Marshaler interface.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler interface.
// Numbers are decoded as float64.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// MarshalYAML implements yaml.Marshaler interface.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
