// Package filesystem converts notes to and from markdown files with a YAML
// frontmatter header, for export, backup and import.
package filesystem

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ViniZap4/tonote-server/content"
	"github.com/ViniZap4/tonote-server/domain"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// EncodeNote renders the frontmatter followed by the note's HTML body.
func EncodeNote(note domain.Note) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(note); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	buf.WriteString("---\n\n")
	buf.WriteString(note.Content)
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// DecodeNote parses a note file. Files without frontmatter are accepted:
// the first "# " heading becomes the title.
func DecodeNote(data []byte) (*domain.Note, error) {
	note := &domain.Note{}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	first, _, _ := bytes.Cut(trimmed, []byte("\n"))
	if string(bytes.TrimRight(first, "\r")) != delimiter {
		note.Title, note.Content = splitHeading(string(trimmed))
		note.Tags = []string{}
		return note, nil
	}

	front, body, ok := splitFrontmatter(trimmed)
	if !ok {
		return nil, fmt.Errorf("invalid frontmatter format")
	}

	if err := yaml.Unmarshal(front, note); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	note.Tags = domain.NormalizeTags(note.Tags)
	note.Content = string(bytes.TrimSpace(body))

	return note, nil
}

// splitFrontmatter returns the text between the opening "---" line and the
// next line that is exactly "---", and everything after that line.
func splitFrontmatter(data []byte) (front, body []byte, ok bool) {
	_, rest, found := bytes.Cut(data, []byte("\n"))
	if !found {
		return nil, nil, false
	}
	for offset := 0; offset <= len(rest); {
		line, next := rest[offset:], len(rest)
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line, next = line[:i], offset+i+1
		}
		if string(bytes.TrimRight(line, "\r")) == delimiter {
			return rest[:offset], rest[next:], true
		}
		if next == len(rest) {
			break
		}
		offset = next
	}
	return nil, nil, false
}

func splitHeading(body string) (title, rest string) {
	line, after, _ := strings.Cut(body, "\n")
	if strings.HasPrefix(line, "# ") {
		return strings.TrimSpace(strings.TrimPrefix(line, "# ")), strings.TrimSpace(after)
	}
	return "", strings.TrimSpace(body)
}

// ToInput turns a decoded file into note form data. HTML bodies are
// sanitized, anything else is treated as markdown.
func ToInput(note *domain.Note) (domain.NoteInput, error) {
	body := note.Content
	if strings.HasPrefix(strings.TrimSpace(body), "<") {
		body = content.Sanitize(body)
	} else {
		html, err := content.MarkdownToHTML([]byte(body))
		if err != nil {
			return domain.NoteInput{}, err
		}
		body = html
	}

	in := domain.NoteInput{Title: note.Title, Content: body, Tags: domain.NormalizeTags(note.Tags)}
	if err := in.Validate(); err != nil {
		return domain.NoteInput{}, err
	}
	return in, nil
}
