package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// KeywordAll is the only string accepted as a selector.
const KeywordAll = "all"

// Kind identifies which variant a Selector holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindAll
	KindIndices
	KindCriteria
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindIndices:
		return "indices"
	case KindCriteria:
		return "criteria"
	}
	return "invalid"
}

// Selector describes which subset of a handle's records to act on. The zero
// Selector is invalid.
type Selector struct {
	kind     Kind
	indices  []int
	criteria Criteria
}

// All selects every record in original order.
func All() Selector {
	return Selector{kind: KindAll}
}

// Indices selects records by position. Out-of-range positions are dropped at
// resolution time, not here.
func Indices(idx ...int) Selector {
	out := make([]int, len(idx))
	copy(out, idx)
	return Selector{kind: KindIndices, indices: out}
}

// Match selects records whose item context satisfies c.
func Match(c Criteria) Selector {
	return Selector{kind: KindCriteria, criteria: c.clone()}
}

// Invalid is the sentinel for anything that is not a recognized selector.
func Invalid() Selector {
	return Selector{}
}

// Kind returns which variant s is.
func (s Selector) Kind() Kind { return s.kind }

// Valid reports whether s is anything other than Invalid.
func (s Selector) Valid() bool { return s.kind != KindInvalid }

// IndexList returns a copy of the indices for KindIndices, nil otherwise.
func (s Selector) IndexList() []int {
	if s.kind != KindIndices {
		return nil
	}
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// Criteria returns the criteria for KindCriteria.
func (s Selector) Criteria() (Criteria, bool) {
	if s.kind != KindCriteria {
		return Criteria{}, false
	}
	return s.criteria.clone(), true
}

// String renders s for messages, for example "all" or "indices[0 2]".
func (s Selector) String() string {
	switch s.kind {
	case KindAll:
		return KeywordAll
	case KindIndices:
		return fmt.Sprintf("indices%v", s.indices)
	case KindCriteria:
		data, err := json.Marshal(s.criteria)
		if err != nil {
			return "criteria"
		}
		return "criteria" + string(data)
	}
	return "invalid"
}

// MarshalJSON renders the selector in the same shape Parse accepts.
func (s Selector) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindAll:
		return json.Marshal(KeywordAll)
	case KindIndices:
		return json.Marshal(s.indices)
	case KindCriteria:
		return json.Marshal(s.criteria)
	}
	return []byte("null"), nil
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	*s = Parse(data)
	return nil
}

// ParseString accepts either JSON or the bare word all, as tool arguments
// written by hand usually omit the quotes.
func ParseString(text string) Selector {
	trimmed := strings.TrimSpace(text)
	if trimmed == KeywordAll {
		return All()
	}
	return Parse([]byte(trimmed))
}

// Parse decodes a JSON selector: the string "all", an array of integers, or a
// criteria object. Any other shape, an object with unknown keys, a
// non-integral index, or an invalid title pattern yields Invalid. Parse never
// returns an error.
func Parse(data []byte) Selector {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Invalid()
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil || s != KeywordAll {
			return Invalid()
		}
		return All()
	case '[':
		var raw []any
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil || dec.More() {
			return Invalid()
		}
		return FromValue(raw)
	case '{':
		var c Criteria
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil || dec.More() {
			return Invalid()
		}
		if err := c.Validate(); err != nil {
			return Invalid()
		}
		return Selector{kind: KindCriteria, criteria: c}
	}
	return Invalid()
}

// FromValue normalizes an already-decoded value (for example a field of a
// larger JSON document decoded into any) into a Selector.
func FromValue(v any) Selector {
	switch t := v.(type) {
	case Selector:
		return t
	case string:
		if t == KeywordAll {
			return All()
		}
		return Invalid()
	case []int:
		return Indices(t...)
	case []any:
		idx := make([]int, 0, len(t))
		for _, el := range t {
			i, ok := anyToIndex(el)
			if !ok {
				return Invalid()
			}
			idx = append(idx, i)
		}
		return Selector{kind: KindIndices, indices: idx}
	case Criteria:
		if t.Validate() != nil {
			return Invalid()
		}
		return Match(t)
	case *Criteria:
		if t == nil {
			return Invalid()
		}
		return FromValue(*t)
	case map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return Invalid()
		}
		return Parse(data)
	case json.RawMessage:
		return Parse(t)
	}
	return Invalid()
}

func numberToIndex(n json.Number) (int, bool) {
	if i, err := n.Int64(); err == nil {
		return clampInt(i)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return floatToIndex(f)
}

func anyToIndex(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return clampInt(t)
	case float64:
		return floatToIndex(t)
	case json.Number:
		return numberToIndex(t)
	}
	return 0, false
}

func floatToIndex(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		// Far out of range of any handle; keep it as a droppable index.
		return -1, true
	}
	return int(f), true
}

func clampInt(i int64) (int, bool) {
	if i > math.MaxInt32 || i < math.MinInt32 {
		return -1, true
	}
	return int(i), true
}
