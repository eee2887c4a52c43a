// Package handletools exposes the query handle service as tools.
//
// Tool Overview:
//
// list_query_handles: Page through live handles (optionally including expired ones)
//
// inspect_query_handle: Show a handle's query, lifetime, tags and item preview
//
// select_from_query_handle: Resolve a selector ("all", an index array or a criteria object) to record IDs
//
// refresh_query_handle: Extend a handle's expiration
//
// delete_query_handle: Remove a handle and its operation history
//
// query_handle_stats: Count active and expired handles
//
// query_handle_history: List the bulk operations recorded against a handle
//
// undo_last_operation: Revert the most recent operation through a Reverter
//
// Usage Example:
//
//	svc := queryhandle.New(cfg.Handles)
//	registry := tools.NewRegistry()
//	for _, tool := range handletools.All(svc, reverter, 10) {
//		registry.Register(tool)
//	}
//
// A missing or expired handle is never an error: every tool answers with the
// same "not found or expired" message so the caller can recover by running a
// fresh query.
package handletools
