package domain

import (
	"sort"
	"strings"
)

type ViewFilter string

const (
	ViewAll      ViewFilter = "all"
	ViewArchived ViewFilter = "archived"
)

// ParseViewFilter maps anything other than "archived" to ViewAll.
func ParseViewFilter(s string) ViewFilter {
	if ViewFilter(strings.ToLower(strings.TrimSpace(s))) == ViewArchived {
		return ViewArchived
	}
	return ViewAll
}

// Filter selects a subset of a user's notes. ViewAll means active notes,
// i.e. everything that is not archived.
type Filter struct {
	View  ViewFilter
	Query string
	Tags  []string
}

func (f Filter) Active() bool {
	return strings.TrimSpace(f.Query) != "" || len(f.Tags) > 0
}

// FilterNotes returns the notes matching f in their original order.
// A note must match the view, contain the query (case-insensitive) in its
// title, content or one of its tags, and carry at least one selected tag.
func FilterNotes(notes []Note, f Filter) []Note {
	archived := f.View == ViewArchived
	query := ""
	if strings.TrimSpace(f.Query) != "" {
		query = strings.ToLower(f.Query)
	}

	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if n.IsArchived != archived {
			continue
		}
		if query != "" && !n.matches(query) {
			continue
		}
		if len(f.Tags) > 0 && !n.hasAnyTag(f.Tags) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (n Note) matches(lowerQuery string) bool {
	if strings.Contains(strings.ToLower(n.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Content), lowerQuery) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

func (n Note) hasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if n.HasTag(tag) {
			return true
		}
	}
	return false
}

// AllTags collects the distinct tags of notes, sorted.
func AllTags(notes []Note) []string {
	seen := make(map[string]struct{})
	for _, n := range notes {
		for _, tag := range n.Tags {
			seen[tag] = struct{}{}
		}
	}
	return SortedTags(seen)
}

func SortedTags(set map[string]struct{}) []string {
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
