package handletools

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

// HistoryTool lists the operations recorded against a handle.
type HistoryTool struct {
	svc *queryhandle.Service
}

// NewHistoryTool creates a new HistoryTool.
func NewHistoryTool(svc *queryhandle.Service) *HistoryTool {
	return &HistoryTool{svc: svc}
}

// Name returns the tool name.
func (t *HistoryTool) Name() string {
	return "query_handle_history"
}

// Description returns the tool description.
func (t *HistoryTool) Description() string {
	return "List bulk operations applied through a query handle, oldest first. Only the last one can be undone."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *HistoryTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "Query handle whose history to list",
				"example":     "qh_0123456789abcdef0123456789abcdef",
			},
		},
		[]string{"handle"},
	)
}

// Execute lists the history.
func (t *HistoryTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
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

	entries, _ := t.svc.OperationHistory(handle)

	var message strings.Builder
	if len(entries) == 0 {
		message.WriteString(fmt.Sprintf("No operations recorded for %s.", handle))
	} else {
		message.WriteString(fmt.Sprintf("%d operation(s) on %s:\n\n", len(entries), handle))
		for i, e := range entries {
			fields := make(map[string]struct{})
			for _, item := range e.ItemsAffected {
				for k := range item.PriorValues {
					fields[k] = struct{}{}
				}
			}
			names := make([]string, 0, len(fields))
			for k := range fields {
				names = append(names, k)
			}
			sort.Strings(names)

			message.WriteString(fmt.Sprintf("%d. %s at %s, %d item(s)", i+1, e.OperationType, formatTime(e.Timestamp), len(e.ItemsAffected)))
			if len(names) > 0 {
				message.WriteString(fmt.Sprintf(", fields: %s", strings.Join(names, ", ")))
			}
			if i == len(entries)-1 {
				message.WriteString(" [undoable]")
			}
			message.WriteString("\n")
		}
	}

	metadata := map[string]interface{}{
		"handle":          handle,
		"found":           true,
		"operation_count": len(entries),
	}
	return strings.TrimRight(message.String(), "\n"), metadata, nil
}
