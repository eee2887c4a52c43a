package handletools

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/selection"
	"github.com/entrhq/queryhandles/pkg/tools"
)

// SelectTool resolves a selector against a handle.
type SelectTool struct {
	svc          *queryhandle.Service
	previewLimit int
}

// NewSelectTool creates a new SelectTool. previewLimit <= 0 uses the default
// of 10 items.
func NewSelectTool(svc *queryhandle.Service, previewLimit int) *SelectTool {
	return &SelectTool{
		svc:          svc,
		previewLimit: previewLimitOrDefault(previewLimit),
	}
}

// Name returns the tool name.
func (t *SelectTool) Name() string {
	return "select_from_query_handle"
}

// Description returns the tool description.
func (t *SelectTool) Description() string {
	return `Select record IDs from a query handle. The selector is JSON: "all", an array of item indices such as [0,2,5], ` +
		`or a criteria object with any of states, types, titleContains, titleMatches, tags, daysInactiveMin, daysInactiveMax. ` +
		`Criteria fields combine with AND; values within one field combine with OR. Out-of-range indices are ignored.`
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *SelectTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "Query handle to select from",
				"example":     "qh_0123456789abcdef0123456789abcdef",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": `Selector as JSON: "all", [0,1], or {"states":["Active"],"daysInactiveMin":14}`,
				"example":     `{"states":["Active"]}`,
			},
		},
		[]string{"handle", "selector"},
	)
}

// Execute resolves the selector.
func (t *SelectTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName  xml.Name `xml:"arguments"`
		Handle   string   `xml:"handle"`
		Selector string   `xml:"selector"`
	}
	if err := parseArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	handle, err := requireHandle(input.Handle)
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(input.Selector) == "" {
		return "", nil, fmt.Errorf("missing required parameter: selector")
	}

	sel := selection.ParseString(input.Selector)
	if !sel.Valid() {
		// Still report a dead handle first so the caller knows to re-query.
		if _, ok := t.svc.GetRecordIDs(handle); !ok {
			return notFound(handle)
		}
		message := fmt.Sprintf("Selector %s is not valid. Use \"all\", an index array like [0,2], or a criteria object like {\"states\":[\"Active\"]}.", input.Selector)
		return message, map[string]interface{}{
			"handle":         handle,
			"found":          true,
			"valid_selector": false,
		}, nil
	}

	ids, ok := t.svc.ResolveSelector(handle, sel)
	if !ok {
		return notFound(handle)
	}
	items, total, ok := t.svc.Preview(handle, sel, t.previewLimit)
	if !ok {
		return notFound(handle)
	}

	var message strings.Builder
	if len(ids) == 0 {
		message.WriteString(fmt.Sprintf("No items in %s matched %s.", handle, sel))
	} else {
		message.WriteString(fmt.Sprintf("Selected %d item(s) from %s with %s:\n", len(ids), handle, sel))
		message.WriteString(fmt.Sprintf("IDs: %s\n\n", joinInts(ids)))
		for _, item := range items {
			writeItem(&message, item)
		}
		if rest := total - len(items); rest > 0 {
			message.WriteString(fmt.Sprintf("  ... and %d more\n", rest))
		}
	}

	metadata := map[string]interface{}{
		"handle":         handle,
		"found":          true,
		"valid_selector": true,
		"selector_kind":  sel.Kind().String(),
		"record_ids":     ids,
		"selected_count": len(ids),
	}

	return strings.TrimRight(message.String(), "\n"), metadata, nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
