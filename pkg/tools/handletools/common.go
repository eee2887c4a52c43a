package handletools

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/queryhandles/pkg/handles"
	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

const defaultPreviewLimit = 10

// All returns every handle tool bound to svc. reverter may be nil, in which
// case undo_last_operation is omitted.
func All(svc *queryhandle.Service, reverter Reverter, previewLimit int) []tools.Tool {
	list := []tools.Tool{
		NewListHandlesTool(svc),
		NewInspectHandleTool(svc, previewLimit),
		NewSelectTool(svc, previewLimit),
		NewRefreshHandleTool(svc),
		NewDeleteHandleTool(svc),
		NewStatsTool(svc),
		NewHistoryTool(svc),
	}
	if reverter != nil {
		list = append(list, NewUndoTool(svc, reverter))
	}
	return list
}

// NotFoundMessage is the answer for a missing or expired handle.
func NotFoundMessage(handle string) string {
	return fmt.Sprintf("Handle %s not found or expired. Run the query again to get a fresh handle.", handle)
}

func notFound(handle string) (string, map[string]interface{}, error) {
	return NotFoundMessage(handle), map[string]interface{}{
		"handle": handle,
		"found":  false,
	}, nil
}

func parseArgs(argsXML []byte, v interface{}) error {
	if err := tools.UnmarshalXMLWithFallback(argsXML, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requireHandle(handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", fmt.Errorf("missing required parameter: handle")
	}
	return handle, nil
}

func previewLimitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultPreviewLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func writeItem(b *strings.Builder, item handles.ItemContext) {
	fmt.Fprintf(b, "  [%d] #%d %s (%s", item.Index, item.ID, item.Title, item.State)
	if item.Type != "" {
		fmt.Fprintf(b, ", %s", item.Type)
	}
	if item.DaysInactive != nil {
		fmt.Fprintf(b, ", %dd inactive", *item.DaysInactive)
	}
	b.WriteString(")")
	if len(item.Tags) > 0 {
		fmt.Fprintf(b, " tags: %s", strings.Join(item.Tags, ", "))
	}
	b.WriteString("\n")
}
