package archive

import (
	"fmt"
)

// FieldWriter is implemented by ops that persist configuration beyond
// their name.
type FieldWriter interface {
	WriteFields(w *Writer)
}

// FieldReader is implemented by ops that restore configuration from a
// saved field map. An op implementing FieldWriter implements FieldReader
// too; the pair must round-trip.
type FieldReader interface {
	ReadFields(r *Reader) error
}

// Writer collects an op's named fields for serialization.
type Writer struct {
	fields map[string]any
}

func newWriter() *Writer {
	return &Writer{fields: make(map[string]any)}
}

// SetFloat64 records a scalar field.
func (w *Writer) SetFloat64(key string, v float64) { w.fields[key] = v }

// SetFloat64s records a numeric slice field.
func (w *Writer) SetFloat64s(key string, v []float64) { w.fields[key] = v }

// SetInt records an integer field.
func (w *Writer) SetInt(key string, v int) { w.fields[key] = int64(v) }

// SetInts records an integer slice field.
func (w *Writer) SetInts(key string, v []int) {
	vs := make([]int64, len(v))
	for i, x := range v {
		vs[i] = int64(x)
	}
	w.fields[key] = vs
}

// SetString records a string field.
func (w *Writer) SetString(key string, v string) { w.fields[key] = v }

// SetBool records a boolean field.
func (w *Writer) SetBool(key string, v bool) { w.fields[key] = v }

// Reader exposes a saved field map with typed accessors. Decoded
// MessagePack values carry loose numeric types, so every accessor
// coerces before returning.
type Reader struct {
	fields map[string]any
}

func newReader(fields map[string]any) *Reader {
	if fields == nil {
		fields = map[string]any{}
	}
	return &Reader{fields: fields}
}

// Has reports whether a field is present.
func (r *Reader) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Float64 reads a scalar field.
func (r *Reader) Float64(key string) (float64, error) {
	v, ok := r.fields[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	f, ok := asFloat64(v)
	if !ok {
		return 0, fmt.Errorf("field %q is %T, want float", key, v)
	}
	return f, nil
}

// Float64s reads a numeric slice field.
func (r *Reader) Float64s(key string) ([]float64, error) {
	v, ok := r.fields[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	switch vs := v.(type) {
	case []float64:
		return vs, nil
	case []any:
		out := make([]float64, len(vs))
		for i, e := range vs {
			f, ok := asFloat64(e)
			if !ok {
				return nil, fmt.Errorf("field %q element %d is %T, want float", key, i, e)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q is %T, want float slice", key, v)
	}
}

// Int reads an integer field.
func (r *Reader) Int(key string) (int, error) {
	v, ok := r.fields[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := asInt64(v)
	if !ok {
		return 0, fmt.Errorf("field %q is %T, want integer", key, v)
	}
	return int(n), nil
}

// Ints reads an integer slice field.
func (r *Reader) Ints(key string) ([]int, error) {
	v, ok := r.fields[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	switch vs := v.(type) {
	case []int64:
		out := make([]int, len(vs))
		for i, e := range vs {
			out[i] = int(e)
		}
		return out, nil
	case []any:
		out := make([]int, len(vs))
		for i, e := range vs {
			n, ok := asInt64(e)
			if !ok {
				return nil, fmt.Errorf("field %q element %d is %T, want integer", key, i, e)
			}
			out[i] = int(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q is %T, want integer slice", key, v)
	}
}

// String reads a string field.
func (r *Reader) String(key string) (string, error) {
	v, ok := r.fields[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, want string", key, v)
	}
	return s, nil
}

// Bool reads a boolean field.
func (r *Reader) Bool(key string) (bool, error) {
	v, ok := r.fields[key]
	if !ok {
		return false, fmt.Errorf("missing field %q", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q is %T, want bool", key, v)
	}
	return b, nil
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}
