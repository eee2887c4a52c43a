package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/queryhandles/pkg/handles"
	"github.com/entrhq/queryhandles/pkg/history"
	"github.com/entrhq/queryhandles/pkg/queryhandle"
)

// seedFile is a fixture of query results to load into the service at startup.
// JSON is accepted too, since it is valid YAML.
type seedFile struct {
	Handles []seedHandle `yaml:"handles"`
}

type seedHandle struct {
	Query      string                    `yaml:"query"`
	TTL        time.Duration             `yaml:"ttl"`
	Metadata   map[string]string         `yaml:"metadata"`
	Items      []seedItem                `yaml:"items"`
	Analysis   *handles.AnalysisMetadata `yaml:"analysis"`
	Operations []seedOperation           `yaml:"operations"`
}

type seedItem struct {
	ID      int                 `yaml:"id"`
	Details handles.ItemDetails `yaml:",inline"`
}

type seedOperation struct {
	Type  string             `yaml:"type"`
	Items []seedAffectedItem `yaml:"items"`
}

type seedAffectedItem struct {
	RecordID int                      `yaml:"record_id"`
	Prior    map[string]handles.Value `yaml:"prior"`
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, h := range seed.Handles {
		if len(h.Items) == 0 {
			return nil, fmt.Errorf("seed handle %d has no items", i)
		}
		seen := make(map[int]bool, len(h.Items))
		for _, item := range h.Items {
			if seen[item.ID] {
				return nil, fmt.Errorf("seed handle %d lists record %d twice", i, item.ID)
			}
			seen[item.ID] = true
		}
	}
	return &seed, nil
}

// apply stores every seeded handle and replays its operations. It returns
// the created handles in file order, stopping at the first operation that
// could not be recorded.
func (s *seedFile) apply(svc *queryhandle.Service) ([]string, error) {
	created := make([]string, 0, len(s.Handles))
	for n, h := range s.Handles {
		req := handles.StoreRequest{
			RecordIDs: make([]int, len(h.Items)),
			Query:     h.Query,
			Metadata:  h.Metadata,
			TTL:       h.TTL,
			Context:   make(map[int]handles.ItemDetails, len(h.Items)),
			Analysis:  h.Analysis,
		}
		for i, item := range h.Items {
			req.RecordIDs[i] = item.ID
			req.Context[item.ID] = item.Details
		}
		handle := svc.StoreQuery(req)

		for _, op := range h.Operations {
			items := make([]history.AffectedItem, len(op.Items))
			for i, it := range op.Items {
				items[i] = history.AffectedItem{RecordID: it.RecordID, PriorValues: it.Prior}
			}
			if _, ok := svc.RecordOperation(handle, op.Type, items); !ok {
				return created, fmt.Errorf("seed handle %d: could not record %s on %s (handle expired)", n, op.Type, handle)
			}
		}
		created = append(created, handle)
	}
	return created, nil
}
