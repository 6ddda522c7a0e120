package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over canonical JSON values.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) irValue() {}

// String represents a JSON string.
type String string

func (String) irValue() {}

// Int represents a JSON number with an integral value.
type Int int64

func (Int) irValue() {}

// Number represents any other JSON number, kept as its literal text so no
// float64 rounding happens.
type Number string

func (Number) irValue() {}

// Bool represents a JSON boolean.
type Bool bool

func (Bool) irValue() {}

// Array represents a JSON array.
type Array []Value

func (Array) irValue() {}

// Object represents a JSON object.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// FromJSON converts a decoded JSON value into a Value.
// Accepts what encoding/json produces (with or without UseNumber) plus the
// plain Go integers yaml.v3 produces.
func FromJSON(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return Int(n), nil
		}
		return Number(val.String()), nil
	case float64:
		if val == float64(int64(val)) {
			return Int(int64(val)), nil
		}
		return Number(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := FromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs above the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
