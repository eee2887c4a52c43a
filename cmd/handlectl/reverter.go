package main

import (
	"context"
	"sort"
	"strings"

	"github.com/entrhq/queryhandles/pkg/handles"
)

// logReverter stands in for a tracker client: it records what an undo would
// write back instead of calling a remote API.
type logReverter struct {
	log interface {
		Infof(format string, v ...interface{})
	}
}

// DryRun marks logReverter as writing nothing back.
func (logReverter) DryRun() bool { return true }

func (r logReverter) Revert(_ context.Context, recordID int, prior map[string]handles.Value) error {
	keys := make([]string, 0, len(prior))
	for k := range prior {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + prior[k].String()
	}
	r.log.Infof("revert #%d: %s", recordID, strings.Join(parts, ", "))
	return nil
}
