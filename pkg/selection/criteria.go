package selection

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/queryhandles/pkg/handles"
)

// Criteria filters items by their context. Fields combine with AND; the values
// inside one list combine with OR. Nil or empty fields are not constraints.
type Criteria struct {
	// States must equal an item's state exactly (case-sensitive).
	States []string `json:"states,omitempty"`
	// Types must equal an item's type exactly (case-sensitive).
	Types []string `json:"types,omitempty"`
	// TitleContains terms are matched case-insensitively as substrings.
	TitleContains []string `json:"titleContains,omitempty"`
	// TitleMatches are case-insensitive glob patterns over the whole title.
	TitleMatches []string `json:"titleMatches,omitempty"`
	// Tags patterns are matched case-insensitively as substrings of any tag.
	Tags []string `json:"tags,omitempty"`
	// DaysInactiveMin and DaysInactiveMax are inclusive. Items without a
	// daysInactive value never satisfy a bound that is set.
	DaysInactiveMin *int `json:"daysInactiveMin,omitempty"`
	DaysInactiveMax *int `json:"daysInactiveMax,omitempty"`
}

func (c Criteria) clone() Criteria {
	out := Criteria{
		States:        cloneStrings(c.States),
		Types:         cloneStrings(c.Types),
		TitleContains: cloneStrings(c.TitleContains),
		TitleMatches:  cloneStrings(c.TitleMatches),
		Tags:          cloneStrings(c.Tags),
	}
	if c.DaysInactiveMin != nil {
		v := *c.DaysInactiveMin
		out.DaysInactiveMin = &v
	}
	if c.DaysInactiveMax != nil {
		v := *c.DaysInactiveMax
		out.DaysInactiveMax = &v
	}
	return out
}

// Validate reports whether every title pattern compiles.
func (c Criteria) Validate() error {
	_, err := c.compile()
	return err
}

// IsEmpty reports whether no field constrains the match.
func (c Criteria) IsEmpty() bool {
	return len(c.States) == 0 && len(c.Types) == 0 && len(c.TitleContains) == 0 &&
		len(c.TitleMatches) == 0 && len(c.Tags) == 0 &&
		c.DaysInactiveMin == nil && c.DaysInactiveMax == nil
}

// matcher is Criteria with lookups prepared once per resolution.
type matcher struct {
	states     map[string]struct{}
	types      map[string]struct{}
	titleTerms []string
	titleGlobs []glob.Glob
	tagTerms   []string
	minDays    *int
	maxDays    *int
}

func (c Criteria) compile() (*matcher, error) {
	m := &matcher{
		states:     toSet(c.States),
		types:      toSet(c.Types),
		titleTerms: lowerAll(c.TitleContains),
		tagTerms:   lowerAll(c.Tags),
		minDays:    c.DaysInactiveMin,
		maxDays:    c.DaysInactiveMax,
	}
	for _, pattern := range c.TitleMatches {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid title pattern %q: %w", pattern, err)
		}
		m.titleGlobs = append(m.titleGlobs, g)
	}
	return m, nil
}

func (m *matcher) matches(item handles.ItemContext) bool {
	if m.states != nil {
		if _, ok := m.states[item.State]; !ok {
			return false
		}
	}
	if m.types != nil {
		if _, ok := m.types[item.Type]; !ok {
			return false
		}
	}

	if len(m.titleTerms) > 0 || len(m.titleGlobs) > 0 {
		title := strings.ToLower(item.Title)
		if len(m.titleTerms) > 0 && !containsAny(title, m.titleTerms) {
			return false
		}
		if len(m.titleGlobs) > 0 && !globAny(title, m.titleGlobs) {
			return false
		}
	}

	if len(m.tagTerms) > 0 {
		matched := false
		for _, tag := range item.Tags {
			if containsAny(strings.ToLower(tag), m.tagTerms) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if m.minDays != nil || m.maxDays != nil {
		if item.DaysInactive == nil {
			return false
		}
		days := *item.DaysInactive
		if m.minDays != nil && days < *m.minDays {
			return false
		}
		if m.maxDays != nil && days > *m.maxDays {
			return false
		}
	}
	return true
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func globAny(s string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func lowerAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
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
