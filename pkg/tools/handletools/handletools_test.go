package handletools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/queryhandles/pkg/config"
	"github.com/entrhq/queryhandles/pkg/handles"
	"github.com/entrhq/queryhandles/pkg/history"
	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

const missingHandle = "qh_ffffffffffffffffffffffffffffffff"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func intPtr(i int) *int { return &i }

func setup(t *testing.T) (*queryhandle.Service, *clock, string) {
	t.Helper()
	c := &clock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := queryhandle.New(config.DefaultHandlesConfig(), queryhandle.WithClock(c.Now))
	handle := svc.StoreQuery(handles.StoreRequest{
		RecordIDs: []int{101, 102, 103},
		Query:     "SELECT [System.Id] FROM WorkItems WHERE [System.State] <> 'Removed'",
		Metadata:  map[string]string{"project": "Web"},
		Context: map[int]handles.ItemDetails{
			101: {Title: "Fix Login Bug", State: "Active", Type: "Bug", DaysInactive: intPtr(3), Tags: []string{"critical"}},
			102: {Title: "Old spike", State: "Closed", Type: "Task", DaysInactive: intPtr(30)},
			103: {Title: "Copy tweaks", State: "Active", Type: "Task", Tags: []string{"minor"}},
		},
		Analysis: &handles.AnalysisMetadata{Analyzed: true, StalenessThresholdDays: 14, SuccessCount: 3},
	})
	return svc, c, handle
}

func args(kv ...string) []byte {
	var b strings.Builder
	b.WriteString("<arguments>")
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "<%s>%s</%s>", kv[i], kv[i+1], kv[i])
	}
	b.WriteString("</arguments>")
	return []byte(b.String())
}

func TestAllRegistersUniqueNames(t *testing.T) {
	svc, _, _ := setup(t)

	r := tools.NewRegistry()
	for _, tool := range All(svc, ReverterFunc(func(context.Context, int, map[string]handles.Value) error { return nil }), 5) {
		require.NoError(t, r.Register(tool))
		assert.NotEmpty(t, tool.Description())
		assert.Equal(t, "object", tool.Schema()["type"])
	}
	assert.Equal(t, []string{
		"delete_query_handle",
		"inspect_query_handle",
		"list_query_handles",
		"query_handle_history",
		"query_handle_stats",
		"refresh_query_handle",
		"select_from_query_handle",
		"undo_last_operation",
	}, r.Names())

	assert.Len(t, All(svc, nil, 5), 7, "undo needs a reverter")
}

func TestMissingHandleIsNotAnError(t *testing.T) {
	svc, _, _ := setup(t)
	reverter := ReverterFunc(func(context.Context, int, map[string]handles.Value) error { return nil })

	for _, tool := range []tools.Tool{
		NewInspectHandleTool(svc, 0),
		NewRefreshHandleTool(svc),
		NewDeleteHandleTool(svc),
		NewHistoryTool(svc),
		NewUndoTool(svc, reverter),
	} {
		t.Run(tool.Name(), func(t *testing.T) {
			out, meta, err := tool.Execute(context.Background(), args("handle", missingHandle))
			require.NoError(t, err)
			assert.Equal(t, NotFoundMessage(missingHandle), out)
			assert.Equal(t, false, meta["found"])
		})
	}

	out, _, err := NewSelectTool(svc, 0).Execute(context.Background(), args("handle", missingHandle, "selector", "all"))
	require.NoError(t, err)
	assert.Equal(t, NotFoundMessage(missingHandle), out)
}

func TestMissingHandleArgument(t *testing.T) {
	svc, _, _ := setup(t)
	_, _, err := NewInspectHandleTool(svc, 0).Execute(context.Background(), args())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter: handle")

	_, _, err = NewDeleteHandleTool(svc).Execute(context.Background(), []byte("not xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments")
}

func TestListHandlesTool(t *testing.T) {
	svc, c, handle := setup(t)
	for i := 0; i < 2; i++ {
		c.Advance(time.Second)
		svc.StoreQuery(handles.StoreRequest{RecordIDs: []int{i}})
	}

	tool := NewListHandlesTool(svc)
	out, meta, err := tool.Execute(context.Background(), args("page_size", "2"))
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 3 handle(s)")
	assert.Contains(t, out, "1. "+handle+" (3 items")
	assert.Contains(t, out, "offset 2")
	assert.Equal(t, true, meta["has_more"])
	assert.Equal(t, 2, meta["next_offset"])

	out, meta, err = tool.Execute(context.Background(), args("page_size", "2", "offset", "2"))
	require.NoError(t, err)
	assert.Contains(t, out, "3. qh_")
	assert.Equal(t, false, meta["has_more"])

	_, _, err = tool.Execute(context.Background(), args("offset", "-1"))
	assert.Error(t, err)

	svc.ClearAll()
	out, _, err = tool.Execute(context.Background(), args())
	require.NoError(t, err)
	assert.Equal(t, "No query handles found.", out)
}

func TestInspectHandleTool(t *testing.T) {
	svc, _, handle := setup(t)

	out, meta, err := NewInspectHandleTool(svc, 2).Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Contains(t, out, "Items: 3 (indices 0-2)")
	assert.Contains(t, out, "Tags: critical, minor")
	assert.Contains(t, out, "project: Web")
	assert.Contains(t, out, "threshold 14 days")
	assert.Contains(t, out, "[0] #101 Fix Login Bug (Active, Bug, 3d inactive) tags: critical")
	assert.Contains(t, out, "... and 1 more")
	assert.NotContains(t, out, "#103")
	assert.Equal(t, 3, meta["item_count"])

	out, _, err = NewInspectHandleTool(svc, 2).Execute(context.Background(), args("handle", handle, "preview_limit", "5"))
	require.NoError(t, err)
	assert.Contains(t, out, "#103 Copy tweaks")
}

func TestSelectTool(t *testing.T) {
	svc, _, handle := setup(t)
	tool := NewSelectTool(svc, 0)

	tests := []struct {
		name     string
		selector string
		want     []int
	}{
		{"criteria", `{"states":["Active"],"tags":["critical"]}`, []int{101}},
		{"indices", `[0,2]`, []int{101, 103}},
		{"quoted all", `"all"`, []int{101, 102, 103}},
		{"bare all", `all`, []int{101, 102, 103}},
		{"no match", `{"states":["Removed"]}`, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, meta, err := tool.Execute(context.Background(), args("handle", handle, "selector", tt.selector))
			require.NoError(t, err)
			assert.Equal(t, true, meta["valid_selector"])
			assert.Equal(t, tt.want, meta["record_ids"])
		})
	}

	out, _, err := tool.Execute(context.Background(), args("handle", handle, "selector", `[0,2]`))
	require.NoError(t, err)
	assert.Contains(t, out, "IDs: 101, 103")
	assert.Contains(t, out, "[2] #103 Copy tweaks")

	out, meta, err := tool.Execute(context.Background(), args("handle", handle, "selector", `{"bogus":1}`))
	require.NoError(t, err)
	assert.Contains(t, out, "is not valid")
	assert.Equal(t, false, meta["valid_selector"])

	_, _, err = tool.Execute(context.Background(), args("handle", handle))
	assert.Error(t, err)
}

func TestRefreshHandleTool(t *testing.T) {
	svc, c, handle := setup(t)
	tool := NewRefreshHandleTool(svc)

	c.Advance(20 * time.Hour)
	out, meta, err := tool.Execute(context.Background(), args("handle", handle, "extension", "10h"))
	require.NoError(t, err)
	want := c.Now().Add(10 * time.Hour).UTC().Format(time.RFC3339)
	assert.Equal(t, want, meta["expires_at"])
	assert.Contains(t, out, want)

	_, _, err = tool.Execute(context.Background(), args("handle", handle, "extension", "soon"))
	assert.Error(t, err)
	_, _, err = tool.Execute(context.Background(), args("handle", handle, "extension", "-1h"))
	assert.Error(t, err)

	c.Advance(11 * time.Hour)
	out, _, err = tool.Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Equal(t, NotFoundMessage(handle), out)
}

func TestDeleteHandleTool(t *testing.T) {
	svc, _, handle := setup(t)
	svc.RecordOperation(handle, "bulk-update", nil)

	out, meta, err := NewDeleteHandleTool(svc).Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Equal(t, "Handle "+handle+" deleted.", out)
	assert.Equal(t, 0, meta["total_handles"])

	_, ok := svc.OperationHistory(handle)
	assert.False(t, ok)
}

func TestStatsTool(t *testing.T) {
	svc, c, _ := setup(t)
	svc.StoreQuery(handles.StoreRequest{RecordIDs: []int{1}, TTL: time.Hour})
	c.Advance(2 * time.Hour)

	out, meta, err := NewStatsTool(svc).Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "2 handle(s): 1 active, 1 expired")
	assert.Equal(t, 1, meta["expired"])
}

func TestHistoryTool(t *testing.T) {
	svc, _, handle := setup(t)
	tool := NewHistoryTool(svc)

	out, _, err := tool.Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Equal(t, "No operations recorded for "+handle+".", out)

	svc.RecordOperation(handle, "bulk-update", []history.AffectedItem{
		{RecordID: 101, PriorValues: map[string]handles.Value{"System.State": handles.StringValue("Active")}},
	})
	svc.RecordOperation(handle, "bulk-assign", []history.AffectedItem{
		{RecordID: 101, PriorValues: map[string]handles.Value{"System.AssignedTo": handles.NullValue()}},
		{RecordID: 103, PriorValues: map[string]handles.Value{"System.AssignedTo": handles.StringValue("ana")}},
	})

	out, meta, err := tool.Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Contains(t, out, "1. bulk-update at 2026-06-01T08:00:00Z, 1 item(s), fields: System.State\n")
	assert.Contains(t, out, "2. bulk-assign at 2026-06-01T08:00:00Z, 2 item(s), fields: System.AssignedTo [undoable]")
	assert.Equal(t, 2, meta["operation_count"])
}

type recordingReverter struct {
	mu      sync.Mutex
	calls   []int
	failFor map[int]bool
}

func (r *recordingReverter) Revert(_ context.Context, recordID int, _ map[string]handles.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordID)
	if r.failFor[recordID] {
		return errors.New("permission denied")
	}
	return nil
}

func TestUndoTool(t *testing.T) {
	svc, _, handle := setup(t)
	reverter := &recordingReverter{failFor: map[int]bool{103: true}}
	tool := NewUndoTool(svc, reverter)

	out, meta, err := tool.Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Equal(t, "Nothing to undo for "+handle+".", out)
	assert.Equal(t, false, meta["undone"])

	svc.RecordOperation(handle, "bulk-update", []history.AffectedItem{{RecordID: 102}})
	svc.RecordOperation(handle, "bulk-assign", []history.AffectedItem{{RecordID: 101}, {RecordID: 103}})

	out, meta, err = tool.Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Contains(t, out, "incomplete: 1 of 2 item(s) reverted")
	assert.Contains(t, out, "#103: permission denied")
	assert.Equal(t, false, meta["undone"])
	assert.Equal(t, 2, len(mustHistory(t, svc, handle)), "failed undo keeps the entry")

	reverter.failFor = nil
	out, meta, err = tool.Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Equal(t, "Undid bulk-assign on "+handle+": 2 item(s) restored.", out)
	assert.Equal(t, true, meta["undone"])
	assert.NotContains(t, meta, "dry_run")

	hist := mustHistory(t, svc, handle)
	require.Len(t, hist, 1)
	assert.Equal(t, "bulk-update", hist[0].OperationType)
	assert.Equal(t, []int{101, 103, 101, 103}, reverter.calls)
}

type loggingReverter struct{ recordingReverter }

func (*loggingReverter) DryRun() bool { return true }

func TestUndoToolDryRun(t *testing.T) {
	svc, _, handle := setup(t)
	svc.RecordOperation(handle, "bulk-update", []history.AffectedItem{{RecordID: 101}, {RecordID: 102}})

	out, meta, err := NewUndoTool(svc, &loggingReverter{}).Execute(context.Background(), args("handle", handle))
	require.NoError(t, err)
	assert.Contains(t, out, "Logged prior values for 2 item(s) of bulk-update")
	assert.Contains(t, out, "nothing was written back")
	assert.NotContains(t, out, "restored")
	assert.Equal(t, true, meta["dry_run"])

	_, ok := svc.OperationHistory(handle)
	assert.False(t, ok)
}

func TestUndoToolCancelled(t *testing.T) {
	svc, _, handle := setup(t)
	svc.RecordOperation(handle, "bulk-update", []history.AffectedItem{{RecordID: 101}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reverter := &recordingReverter{}
	_, _, err := NewUndoTool(svc, reverter).Execute(ctx, args("handle", handle))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reverter.calls)
	assert.Len(t, mustHistory(t, svc, handle), 1)
}

func mustHistory(t *testing.T, svc *queryhandle.Service, handle string) []history.Entry {
	t.Helper()
	entries, ok := svc.OperationHistory(handle)
	require.True(t, ok)
	return entries
}
