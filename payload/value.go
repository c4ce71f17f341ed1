/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package payload

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"

	"github.com/spf13/cast"
)

// Kind is a kind of the value stored in Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns a human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is an immutable semi-structured value (null, bool, number, string, array or object).
// The zero value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Null returns a null value.
func Null() Value {
	return Value{}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number returns a numeric value.
// NaN and infinities have no JSON form, so they are converted to null.
func Number(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Null()
	}
	return Value{kind: KindNumber, n: n}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array returns an array value. Passed items are copied.
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: KindArray, arr: arr}
}

// Object returns an object value. Passed fields are copied.
func Object(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	for k, v := range fields {
		obj[k] = v
	}
	return Value{kind: KindObject, obj: obj}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsBool returns the boolean stored in the value.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number stored in the value.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsString returns the string stored in the value.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsArray returns a copy of array items.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	res := make([]Value, len(v.arr))
	copy(res, v.arr)
	return res, true
}

// AsObject returns a copy of object fields.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	res := make(map[string]Value, len(v.obj))
	for k, f := range v.obj {
		res[k] = f
	}
	return res, true
}

// IsObject reports whether the value is an object.
func (v Value) IsObject() bool {
	return v.kind == KindObject
}

// Len returns the number of items in an array or fields in an object, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	}
	return 0
}

// Lookup returns the object field with the given name.
// It returns false if the value is not an object or the field does not exist.
func (v Value) Lookup(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f, ok
}

// Field returns the object field with the given name or null on any mismatch.
func (v Value) Field(name string) Value {
	f, _ := v.Lookup(name)
	return f
}

// Keys returns sorted names of object fields.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for each object field in unspecified order until fn returns false.
// It does nothing for non-object values.
func (v Value) Range(fn func(name string, field Value) bool) {
	if v.kind != KindObject {
		return
	}
	for k, f := range v.obj {
		if !fn(k, f) {
			return
		}
	}
}

// Equal reports whether two values are deeply equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, f := range v.obj {
			of, ok := other.obj[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the value into plain Go types
// (nil, bool, float64, string, []interface{}, map[string]interface{}).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		res := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			res[i] = item.Interface()
		}
		return res
	case KindObject:
		res := make(map[string]interface{}, len(v.obj))
		for k, f := range v.obj {
			res[k] = f.Interface()
		}
		return res
	}
	return nil
}

// FromAny converts an arbitrary decoded Go value (e.g. produced by encoding/json or yaml.v3) into Value.
// Values of unsupported types are converted to null.
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(n)
	case float64:
		return Number(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		n, err := cast.ToFloat64E(t)
		if err != nil {
			return Null()
		}
		return Number(n)
	case []interface{}:
		arr := make([]Value, len(t))
		for i, item := range t {
			arr[i] = FromAny(item)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, f := range t {
			obj[k] = FromAny(f)
		}
		return Value{kind: KindObject, obj: obj}
	case map[interface{}]interface{}:
		m, err := cast.ToStringMapE(t)
		if err != nil {
			return Null()
		}
		return FromAny(m)
	}
	return fromReflected(reflect.ValueOf(x))
}

func fromReflected(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null()
		}
		arr := make([]Value, rv.Len())
		for i := range arr {
			arr[i] = FromAny(rv.Index(i).Interface())
		}
		return Value{kind: KindArray, arr: arr}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null()
		}
		obj := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = FromAny(iter.Value().Interface())
		}
		return Value{kind: KindObject, obj: obj}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.String:
		return String(rv.String())
	}
	return Null()
}
