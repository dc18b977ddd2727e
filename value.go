package splunkd

import (
	"strconv"
	"strings"
)

// Value is the dynamically typed payload of an entry's content. The parser
// produces one of three shapes: a Scalar holding raw text, a List of nested
// values, or a Dict of named values. Schema-aware coercion (booleans,
// integers, timestamps) is the caller's job; the content layer is type-erased.
type Value interface {
	isValue()
}

// Scalar is a leaf value, kept in its wire form.
type Scalar string

func (s Scalar) isValue() {}

func (s Scalar) String() string { return string(s) }

// List is an ordered sequence of values.
type List []Value

func (l List) isValue() {}

// Dict is a string-keyed collection of values which remembers insertion
// order. Keys are unique after normalization; the parser treats a collision
// against an existing non-dict value as a format error.
type Dict struct {
	keys []string
	m    map[string]Value
}

func (d *Dict) isValue() {}

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{m: make(map[string]Value)}
}

// Len returns the number of keys in the dict.
func (d *Dict) Len() int { return len(d.keys) }

// Keys returns the dict's keys in insertion order.
func (d *Dict) Keys() []string {
	ks := make([]string, len(d.keys))
	copy(ks, d.keys)
	return ks
}

// Get returns the value stored under key, and whether it was present. A
// present key may hold a nil Value (the wire had an empty element).
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Set inserts v under key. Inserting under a key that already holds a Dict
// merges recursively when v is itself a Dict; anything else colliding with an
// existing key is a format error.
func (d *Dict) Set(key string, v Value) error {
	old, ok := d.m[key]
	if !ok {
		d.keys = append(d.keys, key)
		d.m[key] = v
		return nil
	}
	oldDict, oldIsDict := old.(*Dict)
	newDict, newIsDict := v.(*Dict)
	if !oldIsDict || !newIsDict {
		return formatErrorf("key collision at '%v'", key)
	}
	for _, k := range newDict.keys {
		if err := oldDict.Set(k, newDict.m[k]); err != nil {
			return err
		}
	}
	return nil
}

// child returns the Dict stored under key, creating it if the key is absent.
// An existing non-dict value under key is a format error.
func (d *Dict) child(key string) (*Dict, error) {
	old, ok := d.m[key]
	if !ok {
		nd := NewDict()
		d.keys = append(d.keys, key)
		d.m[key] = nd
		return nd, nil
	}
	nd, ok := old.(*Dict)
	if !ok {
		return nil, formatErrorf("key '%v' holds a non-dict value, can't descend into it", key)
	}
	return nd, nil
}

// GetString returns the scalar stored under key as a string.
func (d *Dict) GetString(key string) (string, error) {
	v, ok := d.m[key]
	if !ok {
		return "", formatErrorf("no value for key '%v'", key)
	}
	s, ok := v.(Scalar)
	if !ok {
		return "", formatErrorf("value for key '%v' is not a scalar: %#v", key, v)
	}
	return string(s), nil
}

// GetBool returns the scalar stored under key coerced to a bool, accepting
// the wire forms "0", "1", "true" and "false" (case-insensitive).
func (d *Dict) GetBool(key string) (bool, error) {
	s, err := d.GetString(key)
	if err != nil {
		return false, err
	}
	v, err := BoolConverter{}.Convert(s)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// GetInt returns the scalar stored under key coerced to an int64.
func (d *Dict) GetInt(key string) (int64, error) {
	s, err := d.GetString(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, formatErrorf("value '%v' for key '%v' is not an integer", s, key)
	}
	return n, nil
}
