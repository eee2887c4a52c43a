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

// InspectHandleTool shows what a handle holds.
type InspectHandleTool struct {
	svc          *queryhandle.Service
	previewLimit int
}

// NewInspectHandleTool creates a new InspectHandleTool. previewLimit <= 0
// uses the default of 10 items.
func NewInspectHandleTool(svc *queryhandle.Service, previewLimit int) *InspectHandleTool {
	return &InspectHandleTool{
		svc:          svc,
		previewLimit: previewLimitOrDefault(previewLimit),
	}
}

// Name returns the tool name.
func (t *InspectHandleTool) Name() string {
	return "inspect_query_handle"
}

// Description returns the tool description.
func (t *InspectHandleTool) Description() string {
	return "Inspect a query handle: original query, lifetime, available tags, analysis summary and a preview of its items with their selection indices."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *InspectHandleTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "Query handle to inspect",
				"example":     "qh_0123456789abcdef0123456789abcdef",
			},
			"preview_limit": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Number of items to preview (default: %d)", t.previewLimit),
			},
		},
		[]string{"handle"},
	)
}

// Execute describes a handle.
func (t *InspectHandleTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName      xml.Name `xml:"arguments"`
		Handle       string   `xml:"handle"`
		PreviewLimit int      `xml:"preview_limit"`
	}
	if err := parseArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	handle, err := requireHandle(input.Handle)
	if err != nil {
		return "", nil, err
	}
	limit := t.previewLimit
	if input.PreviewLimit > 0 {
		limit = input.PreviewLimit
	}

	rec, ok := t.svc.GetRecord(handle)
	if !ok {
		return notFound(handle)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("Handle %s\n", rec.Handle))
	if rec.OriginalQuery != "" {
		message.WriteString(fmt.Sprintf("Query: %s\n", rec.OriginalQuery))
	}
	if rec.Len() > 0 {
		message.WriteString(fmt.Sprintf("Items: %d (indices 0-%d)\n", rec.Len(), rec.Len()-1))
	} else {
		message.WriteString("Items: 0\n")
	}
	message.WriteString(fmt.Sprintf("Created: %s\n", formatTime(rec.CreatedAt)))
	message.WriteString(fmt.Sprintf("Expires: %s\n", formatTime(rec.ExpiresAt)))
	if len(rec.Selection.AvailableTags) > 0 {
		message.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(rec.Selection.AvailableTags, ", ")))
	}
	if len(rec.Metadata) > 0 {
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			message.WriteString(fmt.Sprintf("%s: %s\n", k, rec.Metadata[k]))
		}
	}
	if a := rec.Analysis; a != nil && a.Analyzed {
		message.WriteString(fmt.Sprintf("Staleness analysis: threshold %d days, %d succeeded, %d failed\n",
			a.StalenessThresholdDays, a.SuccessCount, a.FailureCount))
	}

	shown := rec.ItemContext
	if len(shown) > limit {
		shown = shown[:limit]
	}
	if len(shown) > 0 {
		message.WriteString("\n")
		for _, item := range shown {
			writeItem(&message, item)
		}
		if rest := rec.Len() - len(shown); rest > 0 {
			message.WriteString(fmt.Sprintf("  ... and %d more\n", rest))
		}
	}

	metadata := map[string]interface{}{
		"handle":     rec.Handle,
		"found":      true,
		"item_count": rec.Len(),
		"expires_at": formatTime(rec.ExpiresAt),
		"tags":       rec.Selection.AvailableTags,
	}

	return strings.TrimRight(message.String(), "\n"), metadata, nil
}
