package selection

import (
	"github.com/entrhq/queryhandles/pkg/handles"
)

// Source looks up live records. *handles.Store satisfies it.
type Source interface {
	Get(handle string) (*handles.Record, bool)
}

// Engine resolves selectors against records from a Source. It holds no state
// of its own.
type Engine struct {
	src Source
}

// NewEngine creates an engine reading from src.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// All returns every identifier of handle in original order.
func (e *Engine) All(handle string) ([]int, bool) {
	rec, ok := e.src.Get(handle)
	if !ok {
		return nil, false
	}
	return ResolveAll(rec), true
}

// ByIndices returns the identifiers at idx, in idx order, skipping positions
// outside the record.
func (e *Engine) ByIndices(handle string, idx []int) ([]int, bool) {
	rec, ok := e.src.Get(handle)
	if !ok {
		return nil, false
	}
	return ResolveIndices(rec, idx), true
}

// ByCriteria returns the identifiers whose item context satisfies c. A valid
// handle with no matches yields an empty, non-nil slice.
func (e *Engine) ByCriteria(handle string, c Criteria) ([]int, bool) {
	return e.Resolve(handle, Match(c))
}

// Resolve dispatches on the selector variant. It reports false for a missing
// or expired handle and for an invalid selector.
func (e *Engine) Resolve(handle string, sel Selector) ([]int, bool) {
	if !sel.Valid() {
		return nil, false
	}
	rec, ok := e.src.Get(handle)
	if !ok {
		return nil, false
	}
	return Resolve(rec, sel)
}

// Preview returns up to limit matched item contexts (limit <= 0 means all)
// together with the total number matched.
func (e *Engine) Preview(handle string, sel Selector, limit int) ([]handles.ItemContext, int, bool) {
	if !sel.Valid() {
		return nil, 0, false
	}
	rec, ok := e.src.Get(handle)
	if !ok {
		return nil, 0, false
	}
	items, ok := SelectItems(rec, sel)
	if !ok {
		return nil, 0, false
	}
	total := len(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, total, true
}

// SelectableIndices returns the precomputed [0, n) index list.
func (e *Engine) SelectableIndices(handle string) ([]int, bool) {
	rec, ok := e.src.Get(handle)
	if !ok {
		return nil, false
	}
	return rec.Selection.SelectableIndices, true
}

// ItemContextAt returns the item context at index.
func (e *Engine) ItemContextAt(handle string, index int) (handles.ItemContext, bool) {
	rec, ok := e.src.Get(handle)
	if !ok || index < 0 || index >= len(rec.ItemContext) {
		return handles.ItemContext{}, false
	}
	return rec.ItemContext[index], true
}

// ResolveAll returns a copy of rec's identifiers.
func ResolveAll(rec *handles.Record) []int {
	out := make([]int, len(rec.RecordIDs))
	copy(out, rec.RecordIDs)
	return out
}

// ResolveIndices maps positions to identifiers, dropping out-of-range ones.
func ResolveIndices(rec *handles.Record, idx []int) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(rec.RecordIDs) {
			out = append(out, rec.RecordIDs[i])
		}
	}
	return out
}

// Resolve applies sel to rec. The result is always a subset of rec.RecordIDs.
func Resolve(rec *handles.Record, sel Selector) ([]int, bool) {
	switch sel.kind {
	case KindAll:
		return ResolveAll(rec), true
	case KindIndices:
		return ResolveIndices(rec, sel.indices), true
	case KindCriteria:
		items, ok := SelectItems(rec, sel)
		if !ok {
			return nil, false
		}
		out := make([]int, len(items))
		for i, item := range items {
			out[i] = rec.RecordIDs[item.Index]
		}
		return out, true
	}
	return nil, false
}

// SelectItems returns the item contexts sel picks from rec, in the order the
// selector implies.
func SelectItems(rec *handles.Record, sel Selector) ([]handles.ItemContext, bool) {
	switch sel.kind {
	case KindAll:
		out := make([]handles.ItemContext, len(rec.ItemContext))
		copy(out, rec.ItemContext)
		return out, true
	case KindIndices:
		out := make([]handles.ItemContext, 0, len(sel.indices))
		for _, i := range sel.indices {
			if i >= 0 && i < len(rec.ItemContext) {
				out = append(out, rec.ItemContext[i])
			}
		}
		return out, true
	case KindCriteria:
		m, err := sel.criteria.compile()
		if err != nil {
			return nil, false
		}
		out := make([]handles.ItemContext, 0)
		for _, item := range rec.ItemContext {
			if item.Index < 0 || item.Index >= len(rec.RecordIDs) {
				continue
			}
			if m.matches(item) {
				out = append(out, item)
			}
		}
		return out, true
	}
	return nil, false
}
