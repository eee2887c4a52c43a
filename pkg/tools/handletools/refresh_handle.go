package handletools

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

// RefreshHandleTool extends a handle's lifetime.
type RefreshHandleTool struct {
	svc *queryhandle.Service
}

// NewRefreshHandleTool creates a new RefreshHandleTool.
func NewRefreshHandleTool(svc *queryhandle.Service) *RefreshHandleTool {
	return &RefreshHandleTool{svc: svc}
}

// Name returns the tool name.
func (t *RefreshHandleTool) Name() string {
	return "refresh_query_handle"
}

// Description returns the tool description.
func (t *RefreshHandleTool) Description() string {
	return "Extend a query handle's expiration. The deadline only moves forward and is capped at the maximum handle lifetime. Expired handles cannot be refreshed."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *RefreshHandleTool) Schema() map[string]interface{} {
	cfg := t.svc.Config()
	return tools.BaseToolSchema(
		map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "Query handle to refresh",
				"example":     "qh_0123456789abcdef0123456789abcdef",
			},
			"extension": map[string]interface{}{
				"type":        "string",
				"description": fmt.Sprintf("Duration from now such as 2h or 90m (default: %s, max: %s)", cfg.DefaultTTL, cfg.MaxTTL),
			},
		},
		[]string{"handle"},
	)
}

// Execute refreshes a handle.
func (t *RefreshHandleTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName   xml.Name `xml:"arguments"`
		Handle    string   `xml:"handle"`
		Extension string   `xml:"extension"`
	}
	if err := parseArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	handle, err := requireHandle(input.Handle)
	if err != nil {
		return "", nil, err
	}

	var extension time.Duration
	if ext := strings.TrimSpace(input.Extension); ext != "" {
		extension, err = time.ParseDuration(ext)
		if err != nil {
			return "", nil, fmt.Errorf("invalid extension %q: %w", ext, err)
		}
		if extension <= 0 {
			return "", nil, fmt.Errorf("extension must be positive, got %s", extension)
		}
	}

	if !t.svc.Refresh(handle, extension) {
		return notFound(handle)
	}
	rec, ok := t.svc.GetRecord(handle)
	if !ok {
		return notFound(handle)
	}

	message := fmt.Sprintf("Handle %s now expires at %s.", handle, formatTime(rec.ExpiresAt))
	metadata := map[string]interface{}{
		"handle":     handle,
		"found":      true,
		"expires_at": formatTime(rec.ExpiresAt),
	}
	return message, metadata, nil
}
