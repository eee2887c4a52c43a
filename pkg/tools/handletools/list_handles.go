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

// ListHandlesTool pages through stored handles.
type ListHandlesTool struct {
	svc *queryhandle.Service
}

// NewListHandlesTool creates a new ListHandlesTool.
func NewListHandlesTool(svc *queryhandle.Service) *ListHandlesTool {
	return &ListHandlesTool{svc: svc}
}

// Name returns the tool name.
func (t *ListHandlesTool) Name() string {
	return "list_query_handles"
}

// Description returns the tool description.
func (t *ListHandlesTool) Description() string {
	return "List query handles oldest first, with item counts and expiration times. Supports paging with page_size and offset."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *ListHandlesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"include_expired": map[string]interface{}{
				"type":        "boolean",
				"description": "Include handles that have expired but not yet been cleaned up (default: false)",
			},
			"page_size": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of handles to return (default: 20, max: 100)",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "Number of handles to skip, taken from next_offset of the previous page",
			},
		},
		[]string{},
	)
}

// Execute lists handles.
func (t *ListHandlesTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName        xml.Name `xml:"arguments"`
		IncludeExpired bool     `xml:"include_expired"`
		PageSize       int      `xml:"page_size"`
		Offset         int      `xml:"offset"`
	}
	if err := parseArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	if input.PageSize < 0 || input.Offset < 0 {
		return "", nil, fmt.Errorf("page_size and offset cannot be negative")
	}

	page := t.svc.ListHandles(handles.ListOptions{
		IncludeExpired: input.IncludeExpired,
		PageSize:       input.PageSize,
		Offset:         input.Offset,
	})
	p := page.Pagination

	var message strings.Builder
	if len(page.Handles) == 0 {
		message.WriteString("No query handles found.")
	} else {
		message.WriteString(fmt.Sprintf("Showing %d of %d handle(s):\n\n", p.Returned, p.Total))
		for i, h := range page.Handles {
			message.WriteString(fmt.Sprintf("%d. %s (%d items, expires %s)", p.Offset+i+1, h.Handle, h.ItemCount, formatTime(h.ExpiresAt)))
			if h.Expired {
				message.WriteString(" [EXPIRED]")
			}
			message.WriteString("\n")
			if h.OriginalQuery != "" {
				message.WriteString(fmt.Sprintf("   %s\n", h.OriginalQuery))
			}
		}
		if p.HasMore {
			message.WriteString(fmt.Sprintf("\nMore handles available: call again with offset %d.", p.NextOffset))
		}
	}

	metadata := map[string]interface{}{
		"total":       p.Total,
		"returned":    p.Returned,
		"offset":      p.Offset,
		"page_size":   p.PageSize,
		"has_more":    p.HasMore,
		"next_offset": p.NextOffset,
	}

	return strings.TrimRight(message.String(), "\n"), metadata, nil
}
