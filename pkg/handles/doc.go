// Package handles stores verified query results behind opaque, expiring handles.
//
// A handle is created once from the ordered record identifiers a query
// returned, plus optional per-item context (title, state, type, tags,
// staleness). Downstream operations refer to the handle instead of repeating
// identifiers, so an identifier can only be acted on if a real query produced it.
//
// Lifecycle:
//
//   - Put creates a record and a fresh handle; RecordIDs and ItemContext are
//     fixed for the record's life.
//   - Get and RecordIDs check the deadline on every call. An expired record is
//     evicted on detection and reported as absent.
//   - Refresh moves the deadline forward, never back, capped at MaxTTL from now.
//   - Delete, ClearAll and the background sweep remove records.
//
// Usage:
//
//	store := handles.New(handles.Config{DefaultTTL: time.Hour})
//	store.Start(ctx)
//	defer store.Stop()
//
//	h := store.Put(handles.StoreRequest{RecordIDs: []int{101, 102}, Query: "SELECT ..."})
//	ids, ok := store.RecordIDs(h)
package handles
