package http

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/content"
	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/filesystem"
	"github.com/ViniZap4/tonote-server/ws"
)

type notesResponse struct {
	Notes []domain.Note `json:"notes"`
	Tags  []string      `json:"tags"`
}

// noteID reads the :id parameter. Anything that is not a UUID cannot name a
// note, so it is reported as not found.
func noteID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.ErrNotFound
	}
	return id, nil
}

// filterFromQuery reads ?view=&q=&tag=; tag may repeat.
func filterFromQuery(c *fiber.Ctx) domain.Filter {
	f := domain.Filter{
		View:  domain.ParseViewFilter(c.Query("view")),
		Query: c.Query("q"),
		Tags:  []string{},
	}
	for _, raw := range c.Context().QueryArgs().PeekMulti("tag") {
		if tag := strings.TrimSpace(string(raw)); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	return f
}

func (s *Server) listNotes(c *fiber.Ctx) error {
	notes, err := s.store.ListNotes(c.UserContext(), auth.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(notesResponse{
		Notes: domain.FilterNotes(notes, filterFromQuery(c)),
		Tags:  domain.AllTags(notes),
	})
}

func (s *Server) getNote(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	note, err := s.store.GetNote(c.UserContext(), auth.CurrentUser(c).ID, id)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) createNote(c *fiber.Ctx) error {
	var in domain.NoteInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	note, err := s.create(c.UserContext(), auth.CurrentUser(c).ID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

// create validates and sanitizes in, stores it and notifies listeners.
func (s *Server) create(ctx context.Context, userID string, in domain.NoteInput) (domain.Note, error) {
	if err := in.Validate(); err != nil {
		return domain.Note{}, err
	}
	in.Content = content.Sanitize(in.Content)

	note, err := s.store.CreateNote(ctx, userID, in)
	if err != nil {
		return domain.Note{}, err
	}
	s.hub.NoteChanged(userID, ws.NoteCreated, note)
	if len(note.Tags) > 0 {
		s.publishTags(ctx, userID)
	}
	return note, nil
}

func (s *Server) updateNote(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	var patch domain.NotePatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	note, err := s.update(c.UserContext(), auth.CurrentUser(c).ID, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) update(ctx context.Context, userID, id string, patch domain.NotePatch) (domain.Note, error) {
	if err := patch.Validate(); err != nil {
		return domain.Note{}, err
	}
	if patch.Content != nil {
		clean := content.Sanitize(*patch.Content)
		patch.Content = &clean
	}

	note, err := s.store.UpdateNote(ctx, userID, id, patch)
	if err != nil {
		return domain.Note{}, err
	}
	s.hub.NoteChanged(userID, ws.NoteUpdated, note)
	if patch.Tags != nil {
		s.publishTags(ctx, userID)
	}
	return note, nil
}

func (s *Server) deleteNote(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	if err := s.remove(c.UserContext(), auth.CurrentUser(c).ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) remove(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteNote(ctx, userID, id); err != nil {
		return err
	}
	s.hub.NoteDeleted(userID, id)
	s.publishTags(ctx, userID)
	return nil
}

func (s *Server) archiveNote(archived bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := noteID(c)
		if err != nil {
			return err
		}
		note, err := s.setArchived(c.UserContext(), auth.CurrentUser(c).ID, id, archived)
		if err != nil {
			return err
		}
		return c.JSON(note)
	}
}

func (s *Server) setArchived(ctx context.Context, userID, id string, archived bool) (domain.Note, error) {
	note, err := s.store.SetArchived(ctx, userID, id, archived)
	if err != nil {
		return domain.Note{}, err
	}
	s.hub.NoteChanged(userID, ws.ArchiveEvent(archived), note)
	return note, nil
}

func (s *Server) listTags(c *fiber.Ctx) error {
	tags, err := s.store.ListTags(c.UserContext(), auth.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (s *Server) publishTags(ctx context.Context, userID string) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("list tags for broadcast")
		return
	}
	s.hub.TagsChanged(userID, tags)
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func exportFilename(title string) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSpace(title), "-"), "-.")
	if name == "" {
		name = "note"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name + ".md"
}

func (s *Server) exportNote(c *fiber.Ctx) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	note, err := s.store.GetNote(c.UserContext(), auth.CurrentUser(c).ID, id)
	if err != nil {
		return err
	}
	data, err := filesystem.EncodeNote(note)
	if err != nil {
		return err
	}
	c.Attachment(exportFilename(note.Title))
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.Send(data)
}

// importNote accepts a note file either as the raw request body or as the
// "file" field of a multipart form.
func (s *Server) importNote(c *fiber.Ctx) error {
	data := c.Body()
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "missing file")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return err
		}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty note file")
	}

	decoded, err := filesystem.DecodeNote(data)
	if err != nil {
		return &domain.ValidationError{Field: "file", Message: err.Error()}
	}
	in, err := filesystem.ToInput(decoded)
	if err != nil {
		return err
	}
	note, err := s.create(c.UserContext(), auth.CurrentUser(c).ID, in)
	if err != nil {
		return err
	}
	if decoded.IsArchived {
		if note, err = s.setArchived(c.UserContext(), note.UserID, note.ID, true); err != nil {
			return err
		}
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}
