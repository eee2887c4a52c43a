package handletools

import (
	"context"
	"fmt"

	"github.com/entrhq/queryhandles/pkg/queryhandle"
	"github.com/entrhq/queryhandles/pkg/tools"
)

// StatsTool reports how many handles are stored.
type StatsTool struct {
	svc *queryhandle.Service
}

// NewStatsTool creates a new StatsTool.
func NewStatsTool(svc *queryhandle.Service) *StatsTool {
	return &StatsTool{svc: svc}
}

// Name returns the tool name.
func (t *StatsTool) Name() string {
	return "query_handle_stats"
}

// Description returns the tool description.
func (t *StatsTool) Description() string {
	return "Count stored query handles, split into active and expired-but-not-yet-cleaned-up."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *StatsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, []string{})
}

// Execute reports handle counts. It takes no arguments.
func (t *StatsTool) Execute(_ context.Context, _ []byte) (string, map[string]interface{}, error) {
	st := t.svc.Stats()
	cfg := t.svc.Config()

	message := fmt.Sprintf("%d handle(s): %d active, %d expired. Default lifetime %s, maximum %s.",
		st.Total, st.Active, st.Expired, cfg.DefaultTTL, cfg.MaxTTL)
	metadata := map[string]interface{}{
		"total":   st.Total,
		"active":  st.Active,
		"expired": st.Expired,
	}
	return message, metadata, nil
}
