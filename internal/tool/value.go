package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ValueType identifies which variant a Value holds.
type ValueType uint8

// Value variants.
const (
	TypeNull ValueType = iota
	TypeBool
	TypeNumber
	TypeString
	TypeList
	TypeMap
)

// String returns the schema name of the variant.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeList:
		return "array"
	case TypeMap:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Value is a tagged variant holding one JSON-like parameter value.
// The zero Value is null.
type Value struct {
	typ  ValueType
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{typ: TypeNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// List wraps a list of values.
func List(items ...Value) Value { return Value{typ: TypeList, list: items} }

// Map wraps a nested object.
func Map(m map[string]Value) Value { return Value{typ: TypeMap, m: m} }

// Type returns the variant tag.
func (v Value) Type() ValueType { return v.typ }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsBool returns the boolean and true when v holds a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsNumber returns the number and true when v holds a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.typ == TypeNumber }

// AsInt returns the number as int when it is integral.
func (v Value) AsInt() (int, bool) {
	if v.typ != TypeNumber || v.n != math.Trunc(v.n) {
		return 0, false
	}
	return int(v.n), true
}

// AsString returns the string and true when v holds a string.
func (v Value) AsString() (string, bool) { return v.s, v.typ == TypeString }

// AsList returns the list and true when v holds a list.
func (v Value) AsList() ([]Value, bool) { return v.list, v.typ == TypeList }

// AsMap returns the nested object and true when v holds a map.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.typ == TypeMap }

// Any converts v back into plain Go values (nil, bool, float64, string, []any, map[string]any).
func (v Value) Any() any {
	switch v.typ {
	case TypeBool:
		return v.b
	case TypeNumber:
		return v.n
	case TypeString:
		return v.s
	case TypeList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Any()
		}
		return out
	case TypeMap:
		out := make(map[string]any, len(v.m))
		for key, item := range v.m {
			out[key] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes v as plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes any JSON document into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a JSON- or YAML-decoded Go value into a Value.
func ValueOf(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed, nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int:
		return Number(float64(typed)), nil
	case int8:
		return Number(float64(typed)), nil
	case int16:
		return Number(float64(typed)), nil
	case int32:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case uint:
		return Number(float64(typed)), nil
	case uint8:
		return Number(float64(typed)), nil
	case uint16:
		return Number(float64(typed)), nil
	case uint32:
		return Number(float64(typed)), nil
	case uint64:
		return Number(float64(typed)), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedValue, typed)
		}
		return Number(f), nil
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = converted
		}
		return List(items...), nil
	case []string:
		items := make([]Value, len(typed))
		for i, item := range typed {
			items[i] = String(item)
		}
		return List(items...), nil
	case map[string]any:
		out := make(map[string]Value, len(typed))
		for key, item := range typed {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = converted
		}
		return Map(out), nil
	case map[any]any:
		out := make(map[string]Value, len(typed))
		for key, item := range typed {
			name, ok := key.(string)
			if !ok {
				return Value{}, fmt.Errorf("%w: non-string key %T", ErrUnsupportedValue, key)
			}
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", name, err)
			}
			out[name] = converted
		}
		return Map(out), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

// Params is the parameter bag passed to a tool. Keys are parameter names.
type Params map[string]Value

// ParamsFrom converts a decoded JSON object into Params.
func ParamsFrom(raw map[string]any) (Params, error) {
	params := make(Params, len(raw))
	for key, item := range raw {
		value, err := ValueOf(item)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		params[key] = value
	}
	return params, nil
}

// Get returns the value stored under key.
func (p Params) Get(key string) (Value, bool) {
	value, ok := p[key]
	return value, ok
}

// String returns a string parameter.
func (p Params) String(key string) (string, bool) {
	return p[key].AsString()
}

// Number returns a numeric parameter.
func (p Params) Number(key string) (float64, bool) {
	return p[key].AsNumber()
}

// Bool returns a boolean parameter.
func (p Params) Bool(key string) (bool, bool) {
	return p[key].AsBool()
}

// Keys returns parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Any converts the bag back into a plain map for templates and encoders.
func (p Params) Any() map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for key, value := range p {
		out[key] = value.Any()
	}
	return out
}
