package handletools

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

// DeleteHandleTool removes a handle.
type DeleteHandleTool struct {
	svc *queryhandle.Service
}

// NewDeleteHandleTool creates a new DeleteHandleTool.
func NewDeleteHandleTool(svc *queryhandle.Service) *DeleteHandleTool {
	return &DeleteHandleTool{svc: svc}
}

// Name returns the tool name.
func (t *DeleteHandleTool) Name() string {
	return "delete_query_handle"
}

// Description returns the tool description.
func (t *DeleteHandleTool) Description() string {
	return "Delete a query handle and its operation history. The handle can no longer be selected from or undone."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *DeleteHandleTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "Query handle to delete",
				"example":     "qh_0123456789abcdef0123456789abcdef",
			},
		},
		[]string{"handle"},
	)
}

// Execute deletes a handle.
func (t *DeleteHandleTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
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

	if !t.svc.Delete(handle) {
		return notFound(handle)
	}

	message := fmt.Sprintf("Handle %s deleted.", handle)
	metadata := map[string]interface{}{
		"handle":        handle,
		"found":         true,
		"total_handles": t.svc.Stats().Total,
	}
	return message, metadata, nil
}
