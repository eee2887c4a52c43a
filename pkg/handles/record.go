package handles

import (
	"fmt"
	"time"
)

// ItemContext is the denormalized per-record view used for selection and
// preview. Index is the position of ID in Record.RecordIDs.
type ItemContext struct {
	Index        int      `json:"index"`
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	State        string   `json:"state"`
	Type         string   `json:"type"`
	DaysInactive *int     `json:"daysInactive,omitempty"`
	LastChange   string   `json:"lastChange,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

func (c ItemContext) clone() ItemContext {
	if c.DaysInactive != nil {
		d := *c.DaysInactive
		c.DaysInactive = &d
	}
	c.Tags = cloneStrings(c.Tags)
	return c
}

// SelectionMetadata is derived once at store time.
type SelectionMetadata struct {
	TotalItems        int      `json:"totalItems"`
	SelectableIndices []int    `json:"selectableIndices"`
	AvailableTags     []string `json:"availableTags"`
}

// AnalysisMetadata describes a staleness analysis run by the query
// collaborator. It is never interpreted by the store.
type AnalysisMetadata struct {
	Analyzed               bool `json:"analyzed" yaml:"analyzed"`
	StalenessThresholdDays int  `json:"stalenessThresholdDays,omitempty" yaml:"staleness_threshold_days"`
	SuccessCount           int  `json:"successCount" yaml:"success_count"`
	FailureCount           int  `json:"failureCount" yaml:"failure_count"`
}

// Record is one stored query result set. Values returned from the Store are
// copies; mutating them does not affect stored state.
type Record struct {
	Handle          string                   `json:"handle"`
	RecordIDs       []int                    `json:"recordIds"`
	OriginalQuery   string                   `json:"originalQuery"`
	CreatedAt       time.Time                `json:"createdAt"`
	ExpiresAt       time.Time                `json:"expiresAt"`
	Metadata        map[string]string        `json:"metadata,omitempty"`
	ItemContext     []ItemContext            `json:"itemContext"`
	WorkItemContext map[int]map[string]Value `json:"workItemContext,omitempty"`
	Selection       SelectionMetadata        `json:"selectionMetadata"`
	Analysis        *AnalysisMetadata        `json:"analysisMetadata,omitempty"`
}

// Expired reports whether the record is past its deadline at now.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Len returns the number of record identifiers.
func (r *Record) Len() int {
	return len(r.RecordIDs)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	out.RecordIDs = cloneInts(r.RecordIDs)
	out.Metadata = cloneStringMap(r.Metadata)
	out.ItemContext = make([]ItemContext, len(r.ItemContext))
	for i, item := range r.ItemContext {
		out.ItemContext[i] = item.clone()
	}
	if r.WorkItemContext != nil {
		out.WorkItemContext = make(map[int]map[string]Value, len(r.WorkItemContext))
		for id, fields := range r.WorkItemContext {
			out.WorkItemContext[id] = cloneFields(fields)
		}
	}
	out.Selection = SelectionMetadata{
		TotalItems:        r.Selection.TotalItems,
		SelectableIndices: cloneInts(r.Selection.SelectableIndices),
		AvailableTags:     cloneStrings(r.Selection.AvailableTags),
	}
	if r.Analysis != nil {
		a := *r.Analysis
		out.Analysis = &a
	}
	return &out
}

// ItemDetails is the per-item context a query collaborator supplies at store
// time. Fields is kept for preview only and never matched by selection.
type ItemDetails struct {
	Title        string           `json:"title" yaml:"title"`
	State        string           `json:"state" yaml:"state"`
	Type         string           `json:"type" yaml:"type"`
	DaysInactive *int             `json:"daysInactive,omitempty" yaml:"days_inactive"`
	LastChange   string           `json:"lastChange,omitempty" yaml:"last_change"`
	Tags         []string         `json:"tags,omitempty" yaml:"tags"`
	Fields       map[string]Value `json:"fields,omitempty" yaml:"fields"`
}

// StoreRequest carries everything needed to create a handle.
type StoreRequest struct {
	RecordIDs []int
	Query     string
	Metadata  map[string]string
	// TTL <= 0 selects the store default; values above the store maximum are clamped.
	TTL      time.Duration
	Context  map[int]ItemDetails
	Analysis *AnalysisMetadata
}

// buildRecord derives item context and selection metadata from req.
func buildRecord(handle string, req StoreRequest, createdAt, expiresAt time.Time) *Record {
	rec := &Record{
		Handle:        handle,
		RecordIDs:     cloneInts(req.RecordIDs),
		OriginalQuery: req.Query,
		CreatedAt:     createdAt,
		ExpiresAt:     expiresAt,
		Metadata:      cloneStringMap(req.Metadata),
		ItemContext:   make([]ItemContext, len(req.RecordIDs)),
	}
	if rec.RecordIDs == nil {
		rec.RecordIDs = []int{}
	}

	indices := make([]int, len(req.RecordIDs))
	var tags []string
	seenTags := make(map[string]struct{})

	for i, id := range req.RecordIDs {
		indices[i] = i
		item := ItemContext{
			Index: i,
			ID:    id,
			Title: fmt.Sprintf("Work Item %d", id),
			State: "Unknown",
		}

		if details, ok := req.Context[id]; ok {
			if details.Title != "" {
				item.Title = details.Title
			}
			if details.State != "" {
				item.State = details.State
			}
			item.Type = details.Type
			item.LastChange = details.LastChange
			item.Tags = cloneStrings(details.Tags)
			if details.DaysInactive != nil {
				d := *details.DaysInactive
				item.DaysInactive = &d
			}
			if len(details.Fields) > 0 {
				if rec.WorkItemContext == nil {
					rec.WorkItemContext = make(map[int]map[string]Value)
				}
				rec.WorkItemContext[id] = cloneFields(details.Fields)
			}
		}

		for _, tag := range item.Tags {
			if _, dup := seenTags[tag]; dup {
				continue
			}
			seenTags[tag] = struct{}{}
			tags = append(tags, tag)
		}
		rec.ItemContext[i] = item
	}

	if tags == nil {
		tags = []string{}
	}
	rec.Selection = SelectionMetadata{
		TotalItems:        len(req.RecordIDs),
		SelectableIndices: indices,
		AvailableTags:     tags,
	}
	if req.Analysis != nil {
		a := *req.Analysis
		rec.Analysis = &a
	}
	return rec
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
