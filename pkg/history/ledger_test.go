package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/queryhandles/pkg/handles"
)

func TestRecordAndHistory(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	l := NewLedger(WithClock(func() time.Time { return now }))

	_, ok := l.History("qh_a")
	assert.False(t, ok, "no history before first record")

	items := []AffectedItem{{RecordID: 101, PriorValues: map[string]handles.Value{"System.State": handles.StringValue("Active")}}}
	entry := l.Record("qh_a", "bulk-update", items)
	assert.Equal(t, now, entry.Timestamp)

	// Caller mutation after recording does not leak in.
	items[0].PriorValues["System.State"] = handles.StringValue("Mutated")

	l.Record("qh_a", "bulk-assign", nil)

	hist, ok := l.History("qh_a")
	require.True(t, ok)
	require.Len(t, hist, 2)
	assert.Equal(t, "bulk-update", hist[0].OperationType)
	assert.Equal(t, "Active", hist[0].ItemsAffected[0].PriorValues["System.State"].String())
	assert.Equal(t, "bulk-assign", hist[1].OperationType)

	last, ok := l.Last("qh_a")
	require.True(t, ok)
	assert.Equal(t, "bulk-assign", last.OperationType)
}

func TestPopLast(t *testing.T) {
	l := NewLedger()

	assert.False(t, l.PopLast("qh_a"))

	l.Record("qh_a", "first", nil)
	l.Record("qh_a", "second", nil)
	require.Equal(t, 2, l.Len("qh_a"))

	require.True(t, l.PopLast("qh_a"))
	assert.Equal(t, 1, l.Len("qh_a"))
	last, _ := l.Last("qh_a")
	assert.Equal(t, "first", last.OperationType)

	require.True(t, l.PopLast("qh_a"))
	_, ok := l.History("qh_a")
	assert.False(t, ok, "empty history is removed entirely")
	assert.False(t, l.PopLast("qh_a"))
}

func TestClear(t *testing.T) {
	l := NewLedger()
	l.Record("qh_a", "op", nil)
	l.Record("qh_b", "op", nil)

	l.Clear("qh_a")
	_, ok := l.History("qh_a")
	assert.False(t, ok)
	_, ok = l.History("qh_b")
	assert.True(t, ok)

	l.ClearAll()
	_, ok = l.History("qh_b")
	assert.False(t, ok)
}

func TestHistoryReturnsCopies(t *testing.T) {
	l := NewLedger()
	l.Record("qh_a", "op", []AffectedItem{{RecordID: 1, PriorValues: map[string]handles.Value{"k": handles.IntValue(1)}}})

	hist, _ := l.History("qh_a")
	hist[0].ItemsAffected[0].PriorValues["k"] = handles.IntValue(2)
	hist[0].OperationType = "changed"

	again, _ := l.History("qh_a")
	assert.Equal(t, "op", again[0].OperationType)
	n, _ := again[0].ItemsAffected[0].PriorValues["k"].Int()
	assert.Equal(t, int64(1), n)
}
