package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ViniZap4/tonote-server/domain"
)

// ArchiveDir is the sub-folder archived notes are exported into.
const ArchiveDir = "archive"

func ReadNote(path string) (*domain.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	note, err := DecodeNote(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return note, nil
}

// WriteNote writes note into dir as <id>.md and returns the path.
func WriteNote(dir string, note domain.Note) (string, error) {
	data, err := EncodeNote(note)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, note.ID+".md")
	return path, os.WriteFile(path, data, 0644)
}

// ExportAll writes active notes to dir and archived ones to dir/archive.
func ExportAll(dir string, notes []domain.Note) (int, error) {
	archive := filepath.Join(dir, ArchiveDir)
	if err := os.MkdirAll(archive, 0755); err != nil {
		return 0, err
	}

	written := 0
	for _, note := range notes {
		target := dir
		if note.IsArchived {
			target = archive
		}
		if _, err := WriteNote(target, note); err != nil {
			return written, fmt.Errorf("write note %s: %w", note.ID, err)
		}
		written++
	}
	return written, nil
}

// ListNotes reads every .md file in dir. Files in dir/archive come back
// with IsArchived set whatever their frontmatter says.
func ListNotes(dir string) ([]*domain.Note, error) {
	notes, err := listDir(dir)
	if err != nil {
		return nil, err
	}

	archived, err := listDir(filepath.Join(dir, ArchiveDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, note := range archived {
		note.IsArchived = true
	}
	return append(notes, archived...), nil
}

func listDir(dir string) ([]*domain.Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var notes []*domain.Note
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		note, err := ReadNote(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	return notes, nil
}
