package handles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ValueKind enumerates the scalar types a Value can hold.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

// Value is a pass-through scalar used for open-ended work item fields and
// for the prior field values captured by the operation history.
// The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue wraps an integer.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue wraps a timestamp.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// NullValue returns the null value, which is also the zero Value.
func NullValue() Value { return Value{} }

// Kind returns the scalar kind held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string and whether v holds one.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Int returns the integer and whether v holds one.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float widens integers so numeric fields compare uniformly.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Bool returns the bool and whether v holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Time returns the timestamp and whether v holds one.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// ValueOf converts a decoded scalar into a Value. Composite inputs
// (maps, slices, structs) are rejected.
func ValueOf(x any) (Value, bool) {
	switch t := x.(type) {
	case nil:
		return NullValue(), true
	case Value:
		return t, true
	case string:
		return StringValue(t), true
	case bool:
		return BoolValue(t), true
	case int:
		return IntValue(int64(t)), true
	case int32:
		return IntValue(int64(t)), true
	case int64:
		return IntValue(t), true
	case float32:
		return floatOrInt(float64(t)), true
	case float64:
		return floatOrInt(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), true
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, false
		}
		return FloatValue(f), true
	case time.Time:
		return TimeValue(t), true
	}
	return Value{}, false
}

func floatOrInt(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IntValue(int64(f))
	}
	return FloatValue(f)
}

// Interface returns the underlying scalar as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	}
	return nil
}

// String renders v for previews; null renders as "null".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	}
	return "null"
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	}
	return true
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts JSON scalars. Strings stay strings; timestamps are not
// sniffed out of them.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, ok := ValueOf(raw)
	if !ok {
		return fmt.Errorf("handles: value must be a scalar, got %s", data)
	}
	*v = val
	return nil
}

// UnmarshalYAML lets fixtures carry values; only scalars are accepted.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	val, ok := ValueOf(raw)
	if !ok {
		return fmt.Errorf("handles: value must be a scalar, got %T", raw)
	}
	*v = val
	return nil
}

func cloneFields(m map[string]Value) map[string]Value {
	if m == nil {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
