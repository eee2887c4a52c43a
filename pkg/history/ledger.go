// Package history keeps a per-handle log of bulk operations so the most
// recent one can be undone.
//
// Only the last entry is meant to be reverted: each entry carries the prior
// field values of the items it touched, and entries are not chained or
// diffed against each other.
package history

import (
	"sync"
	"time"

	"github.com/entrhq/queryhandles/pkg/handles"
)

// AffectedItem captures the values a record had before an operation changed it.
type AffectedItem struct {
	RecordID    int                      `json:"recordId"`
	PriorValues map[string]handles.Value `json:"priorValues"`
}

// Entry is one applied bulk operation.
type Entry struct {
	OperationType string         `json:"operationType"`
	Timestamp     time.Time      `json:"timestamp"`
	ItemsAffected []AffectedItem `json:"itemsAffected"`
}

func (e Entry) clone() Entry {
	out := e
	out.ItemsAffected = make([]AffectedItem, len(e.ItemsAffected))
	for i, item := range e.ItemsAffected {
		prior := make(map[string]handles.Value, len(item.PriorValues))
		for k, v := range item.PriorValues {
			prior[k] = v
		}
		out.ItemsAffected[i] = AffectedItem{RecordID: item.RecordID, PriorValues: prior}
	}
	return out
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// Ledger is an append-only log per handle. Safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string][]Entry
	now     func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[string][]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an entry for handle and returns a copy of it.
func (l *Ledger) Record(handle, operationType string, items []AffectedItem) Entry {
	entry := Entry{
		OperationType: operationType,
		Timestamp:     l.now(),
		ItemsAffected: items,
	}.clone()

	l.mu.Lock()
	l.entries[handle] = append(l.entries[handle], entry)
	l.mu.Unlock()

	return entry.clone()
}

// History returns the entries for handle, oldest first.
func (l *Ledger) History(handle string) ([]Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list, ok := l.entries[handle]
	if !ok {
		return nil, false
	}
	out := make([]Entry, len(list))
	for i, e := range list {
		out[i] = e.clone()
	}
	return out, true
}

// Last returns the most recent entry for handle, the undo candidate.
func (l *Ledger) Last(handle string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.entries[handle]
	if len(list) == 0 {
		return Entry{}, false
	}
	return list[len(list)-1].clone(), true
}

// PopLast removes the most recent entry. The handle's list is dropped once it
// is empty.
func (l *Ledger) PopLast(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.entries[handle]
	if len(list) == 0 {
		return false
	}
	list = list[:len(list)-1]
	if len(list) == 0 {
		delete(l.entries, handle)
	} else {
		l.entries[handle] = list
	}
	return true
}

// Len returns the number of entries recorded for handle.
func (l *Ledger) Len(handle string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries[handle])
}

// Clear drops all history for handle.
func (l *Ledger) Clear(handle string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, handle)
}

// ClearAll drops every handle's history.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string][]Entry)
}
