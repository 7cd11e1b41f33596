package pipeline

import (
	"maps"
	"math"
	"slices"
	"strings"
)

// Params maps parameter or result names to values. Values are scalars, tables, paths or URIs.
type Params map[string]any

// Clone returns a shallow copy. A nil Params clones to an empty, non-nil map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)

	return out
}

// Merge returns a new map with p overlaid by state. Keys present in state win.
// Neither input is modified.
func (p Params) Merge(state Params) Params {
	out := p.Clone()
	maps.Copy(out, state)

	return out
}

// Keys returns the sorted keys.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Args reads a unit's merged parameters into typed values and records which keys were consumed.
// The first failure is kept and reported by Err.
type Args struct {
	unit   string
	params Params
	used   map[string]struct{}
	err    error
}

// NewArgs wraps params for the given unit.
func NewArgs(unit string, params Params) *Args {
	return &Args{
		unit:   unit,
		params: params,
		used:   make(map[string]struct{}, len(params)),
	}
}

func (a *Args) fail(key string, err error) {
	if a.err == nil {
		a.err = &ConstructionError{Unit: a.unit, Key: key, Err: err}
	}
}

// Fail records a unit-specific validation failure for key.
func (a *Args) Fail(key string, err error) {
	a.fail(key, err)
}

// Err returns the first read failure, or a ConstructionError naming every key that was
// supplied but never read.
func (a *Args) Err() error {
	if a.err != nil {
		return a.err
	}

	var unused []string
	for _, k := range a.params.Keys() {
		if _, ok := a.used[k]; !ok {
			unused = append(unused, k)
		}
	}
	if len(unused) > 0 {
		return &ConstructionError{Unit: a.unit, Key: strings.Join(unused, ","), Err: ErrUnexpectedParam}
	}

	return nil
}

// Required reads key as T. A missing or nil value is ErrMissingParam; a value that cannot be
// converted to T is ErrInvalidParam.
func Required[T any](a *Args, key string) T {
	var zero T
	a.used[key] = struct{}{}
	v, ok := a.params[key]
	if !ok || v == nil {
		a.fail(key, ErrMissingParam)

		return zero
	}
	out, ok := coerce[T](v)
	if !ok {
		a.fail(key, ErrInvalidParam)

		return zero
	}

	return out
}

// Optional reads key as T, falling back to def when the key is absent or nil.
func Optional[T any](a *Args, key string, def T) T {
	a.used[key] = struct{}{}
	v, ok := a.params[key]
	if !ok || v == nil {
		return def
	}
	out, ok := coerce[T](v)
	if !ok {
		a.fail(key, ErrInvalidParam)

		return def
	}

	return out
}

// coerce converts values decoded from YAML (int, []any, map[string]any) into the shapes
// units declare.
func coerce[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}

	var (
		zero T
		out  any
		ok   bool
	)
	switch any(zero).(type) {
	case int:
		out, ok = toInt(v)
	case []string:
		out, ok = toStrings(v)
	case map[string]string:
		out, ok = toStringMap(v)
	case map[string][]string:
		out, ok = toStringsMap(v)
	default:
		return zero, false
	}
	if !ok {
		return zero, false
	}

	t, ok := out.(T)

	return t, ok
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}

		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}

		return int(n), true
	}

	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}

		return out, true
	}

	return nil, false
}

func toStringMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, e := range m {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[k] = str
		}

		return out, true
	}

	return nil, false
}

func toStringsMap(v any) (map[string][]string, bool) {
	switch m := v.(type) {
	case map[string][]string:
		return m, true
	case map[string]any:
		out := make(map[string][]string, len(m))
		for k, e := range m {
			list, ok := toStrings(e)
			if !ok {
				return nil, false
			}
			out[k] = list
		}

		return out, true
	}

	return nil, false
}
