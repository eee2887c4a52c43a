package handletools

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/queryhandles/pkg/handles"
	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

// Reverter writes prior field values back to a record. It is implemented by
// whatever client performed the original bulk mutation.
type Reverter interface {
	Revert(ctx context.Context, recordID int, priorValues map[string]handles.Value) error
}

// ReverterFunc adapts a function to Reverter.
type ReverterFunc func(ctx context.Context, recordID int, priorValues map[string]handles.Value) error

// Revert calls f.
func (f ReverterFunc) Revert(ctx context.Context, recordID int, priorValues map[string]handles.Value) error {
	return f(ctx, recordID, priorValues)
}

// DryRunner is implemented by reverters that only report the values they
// would write. The undo tool words its result accordingly.
type DryRunner interface {
	DryRun() bool
}

func isDryRun(r Reverter) bool {
	d, ok := r.(DryRunner)
	return ok && d.DryRun()
}

// UndoTool reverts the most recent operation on a handle.
type UndoTool struct {
	svc      *queryhandle.Service
	reverter Reverter
}

// NewUndoTool creates a new UndoTool.
func NewUndoTool(svc *queryhandle.Service, reverter Reverter) *UndoTool {
	return &UndoTool{
		svc:      svc,
		reverter: reverter,
	}
}

// Name returns the tool name.
func (t *UndoTool) Name() string {
	return "undo_last_operation"
}

// Description returns the tool description.
func (t *UndoTool) Description() string {
	return "Undo the most recent bulk operation applied through a query handle by restoring each item's prior field values. The operation stays in history if any item fails to revert, so the undo can be retried."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *UndoTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "Query handle whose last operation to undo",
				"example":     "qh_0123456789abcdef0123456789abcdef",
			},
		},
		[]string{"handle"},
	)
}

// Execute reverts the last operation.
func (t *UndoTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Handle  string   `xml:"handle"`
	}
	if err := parseArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	handle, err := requireHandle(input.Handle)
	if err != nil {
		return "", nil, err
	}

	if _, ok := t.svc.GetRecordIDs(handle); !ok {
		return notFound(handle)
	}

	entry, ok := t.svc.LastOperation(handle)
	if !ok {
		return fmt.Sprintf("Nothing to undo for %s.", handle), map[string]interface{}{
			"handle": handle,
			"found":  true,
			"undone": false,
		}, nil
	}

	var reverted []int
	var failures []string
	for _, item := range entry.ItemsAffected {
		if err := ctx.Err(); err != nil {
			return "", nil, fmt.Errorf("undo interrupted after %d of %d item(s): %w", len(reverted), len(entry.ItemsAffected), err)
		}
		if err := t.reverter.Revert(ctx, item.RecordID, item.PriorValues); err != nil {
			failures = append(failures, fmt.Sprintf("#%d: %v", item.RecordID, err))
			continue
		}
		reverted = append(reverted, item.RecordID)
	}

	metadata := map[string]interface{}{
		"handle":         handle,
		"found":          true,
		"operation_type": entry.OperationType,
		"reverted":       reverted,
		"failed_count":   len(failures),
	}

	if len(failures) > 0 {
		metadata["undone"] = false
		var message strings.Builder
		message.WriteString(fmt.Sprintf("Undo of %s on %s incomplete: %d of %d item(s) reverted.\n",
			entry.OperationType, handle, len(reverted), len(entry.ItemsAffected)))
		for _, f := range failures {
			message.WriteString(fmt.Sprintf("  %s\n", f))
		}
		message.WriteString("The operation remains in history; retry the undo once the failures are resolved.")
		return message.String(), metadata, nil
	}

	t.svc.RemoveLastOperation(handle)
	metadata["undone"] = true
	if isDryRun(t.reverter) {
		metadata["dry_run"] = true
		message := fmt.Sprintf("Logged prior values for %d item(s) of %s on %s; nothing was written back. The operation was removed from history.",
			len(reverted), entry.OperationType, handle)
		return message, metadata, nil
	}
	message := fmt.Sprintf("Undid %s on %s: %d item(s) restored.", entry.OperationType, handle, len(reverted))
	return message, metadata, nil
}
