// Package viewstate keeps the per-user view of the notes workspace: which
// note is selected, the unsaved draft, whether the editor is open, and the
// filters that derive the visible note list.
package viewstate

import (
	"github.com/ViniZap4/tonote-server/domain"
)

type Draft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (d Draft) Input() domain.NoteInput {
	return domain.NoteInput{Title: d.Title, Content: d.Content, Tags: domain.NormalizeTags(d.Tags)}
}

func (d Draft) Patch() domain.NotePatch {
	title, content, tags := d.Title, d.Content, domain.NormalizeTags(d.Tags)
	return domain.NotePatch{Title: &title, Content: &content, Tags: &tags}
}

type State struct {
	SelectedNoteID string            `json:"selected_note_id,omitempty"`
	ViewFilter     domain.ViewFilter `json:"view_filter"`
	SearchQuery    string            `json:"search_query"`
	SelectedTags   []string          `json:"selected_tags"`
	SidebarOpen    bool              `json:"sidebar_open"`
	Draft          Draft             `json:"draft"`
	Editing        bool              `json:"editing"`
}

func New() *State {
	return &State{
		ViewFilter:   domain.ViewAll,
		SelectedTags: []string{},
		SidebarOpen:  true,
		Draft:        Draft{Tags: []string{}},
	}
}

// IsNew reports whether the editor is working on a note that has not been
// saved yet.
func (s *State) IsNew() bool {
	return s.SelectedNoteID == ""
}

func (s *State) Select(n domain.Note) {
	s.SelectedNoteID = n.ID
	s.LoadDraft(n.Title, n.Content, n.Tags)
	s.Editing = false
}

// BeginNew opens an empty editor.
func (s *State) BeginNew() {
	s.SelectedNoteID = ""
	s.ClearDraft()
	s.Editing = true
}

func (s *State) Edit() error {
	if s.SelectedNoteID == "" {
		return domain.ErrNoSelection
	}
	s.Editing = true
	return nil
}

// Cancel leaves the editor. A new note is discarded entirely; an existing
// note stays selected with its draft dropped.
func (s *State) Cancel() {
	if s.IsNew() {
		s.SelectedNoteID = ""
	}
	s.ClearDraft()
	s.Editing = false
}

// Saved records a successful create or update of the draft.
func (s *State) Saved(n domain.Note) {
	s.SelectedNoteID = n.ID
	s.LoadDraft(n.Title, n.Content, n.Tags)
	s.Editing = false
}

// Deselect clears the editor pane, as after archiving or deleting.
func (s *State) Deselect() {
	s.SelectedNoteID = ""
	s.ClearDraft()
	s.Editing = false
}

func (s *State) SetViewFilter(v domain.ViewFilter) {
	s.ViewFilter = v
}

func (s *State) SetSearchQuery(q string) {
	s.SearchQuery = q
}

func (s *State) ToggleTag(tag string) {
	for i, t := range s.SelectedTags {
		if t == tag {
			s.SelectedTags = append(s.SelectedTags[:i:i], s.SelectedTags[i+1:]...)
			return
		}
	}
	s.SelectedTags = append(s.SelectedTags, tag)
}

func (s *State) ClearTags() {
	s.SelectedTags = []string{}
}

func (s *State) ToggleSidebar() {
	s.SidebarOpen = !s.SidebarOpen
}

func (s *State) SetDraftTitle(title string) {
	s.Draft.Title = title
}

func (s *State) SetDraftContent(content string) {
	s.Draft.Content = content
}

// SetDraftTags keeps only the non-blank entries of the tag fields.
func (s *State) SetDraftTags(tags []string) {
	s.Draft.Tags = domain.NormalizeTags(tags)
}

func (s *State) LoadDraft(title, content string, tags []string) {
	s.Draft = Draft{Title: title, Content: content, Tags: append([]string{}, tags...)}
}

func (s *State) ClearDraft() {
	s.Draft = Draft{Tags: []string{}}
}

func (s *State) Filter() domain.Filter {
	return domain.Filter{View: s.ViewFilter, Query: s.SearchQuery, Tags: s.SelectedTags}
}

// Reconcile drops the selection when the selected note is gone or no longer
// belongs to the current view. It reports whether anything changed.
func (s *State) Reconcile(notes []domain.Note) bool {
	if s.SelectedNoteID == "" {
		return false
	}
	for _, n := range notes {
		if n.ID != s.SelectedNoteID {
			continue
		}
		if n.IsArchived == (s.ViewFilter == domain.ViewArchived) {
			return false
		}
		s.Deselect()
		return true
	}
	s.Deselect()
	return true
}

func (s *State) Visible(notes []domain.Note) []domain.Note {
	return domain.FilterNotes(notes, s.Filter())
}

// EmptyMessage is the placeholder shown when Visible returns nothing.
func (s *State) EmptyMessage() string {
	if s.Filter().Active() {
		return "No notes match your filters"
	}
	return "No notes yet. Create your first note!"
}

func (s *State) Clone() State {
	c := *s
	c.SelectedTags = append([]string{}, s.SelectedTags...)
	c.Draft.Tags = append([]string{}, s.Draft.Tags...)
	return c
}
