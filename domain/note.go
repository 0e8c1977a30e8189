package domain

import (
	"strings"
	"time"
)

type Note struct {
	ID         string    `json:"id" yaml:"id"`
	UserID     string    `json:"user_id" yaml:"-"`
	Title      string    `json:"title" yaml:"title"`
	Content    string    `json:"content" yaml:"-"`
	Tags       []string  `json:"tags" yaml:"tags"`
	IsArchived bool      `json:"is_archived" yaml:"archived"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// NoteInput is the form data submitted when creating a note.
type NoteInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// NotePatch carries a partial update. Nil fields are left untouched.
type NotePatch struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

func (in NoteInput) Validate() error {
	return ValidateTitle(in.Title)
}

func (p NotePatch) Validate() error {
	if p.Title != nil {
		return ValidateTitle(*p.Title)
	}
	return nil
}

// Apply writes the patch onto n. UpdatedAt is the caller's business.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = NormalizeTags(*p.Tags)
	}
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "Please enter a title"}
	}
	return nil
}

// NormalizeTags trims every tag and drops blanks and exact duplicates,
// keeping first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
