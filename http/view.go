package http

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/viewstate"
)

type viewResponse struct {
	State        viewstate.State `json:"state"`
	Notes        []domain.Note   `json:"notes"`
	Tags         []string        `json:"tags"`
	Selected     *domain.Note    `json:"selected,omitempty"`
	EmptyMessage string          `json:"empty_message,omitempty"`
}

// renderView applies fn to the caller's view state against the current
// notes, reconciles the selection and writes the resulting view.
func (s *Server) renderView(c *fiber.Ctx, fn func(st *viewstate.State, notes []domain.Note) error) error {
	userID := auth.CurrentUser(c).ID
	notes, err := s.store.ListNotes(c.UserContext(), userID)
	if err != nil {
		return err
	}

	st, err := s.views.Update(userID, func(st *viewstate.State) error {
		if fn != nil {
			if err := fn(st, notes); err != nil {
				return err
			}
		}
		st.Reconcile(notes)
		return nil
	})
	if err != nil {
		return err
	}

	resp := viewResponse{
		State: st,
		Notes: st.Visible(notes),
		Tags:  domain.AllTags(notes),
	}
	for i := range notes {
		if notes[i].ID == st.SelectedNoteID {
			resp.Selected = &notes[i]
			break
		}
	}
	if len(resp.Notes) == 0 {
		resp.EmptyMessage = st.EmptyMessage()
	}
	return c.JSON(resp)
}

func (s *Server) getView(c *fiber.Ctx) error {
	return s.renderView(c, nil)
}

func (s *Server) patchView(c *fiber.Ctx) error {
	var req struct {
		ViewFilter    *string `json:"view_filter"`
		SearchQuery   *string `json:"search_query"`
		SidebarOpen   *bool   `json:"sidebar_open"`
		ToggleSidebar bool    `json:"toggle_sidebar"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		if req.ViewFilter != nil {
			st.SetViewFilter(domain.ParseViewFilter(*req.ViewFilter))
		}
		if req.SearchQuery != nil {
			st.SetSearchQuery(*req.SearchQuery)
		}
		if req.SidebarOpen != nil && *req.SidebarOpen != st.SidebarOpen {
			st.ToggleSidebar()
		}
		if req.ToggleSidebar {
			st.ToggleSidebar()
		}
		return nil
	})
}

func (s *Server) toggleTag(c *fiber.Ctx) error {
	tag, err := url.PathUnescape(c.Params("tag"))
	if err != nil || strings.TrimSpace(tag) == "" {
		return &domain.ValidationError{Field: "tag", Message: "invalid tag"}
	}
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.ToggleTag(tag)
		return nil
	})
}

func (s *Server) clearTags(c *fiber.Ctx) error {
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.ClearTags()
		return nil
	})
}

// selectNote opens a note of the current view in read mode.
func (s *Server) selectNote(c *fiber.Ctx) error {
	id := c.Params("id")
	return s.renderView(c, func(st *viewstate.State, notes []domain.Note) error {
		for _, n := range notes {
			if n.ID == id && n.IsArchived == (st.ViewFilter == domain.ViewArchived) {
				st.Select(n)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (s *Server) newNote(c *fiber.Ctx) error {
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.BeginNew()
		return nil
	})
}

func (s *Server) editNote(c *fiber.Ctx) error {
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		return st.Edit()
	})
}

func (s *Server) cancelEdit(c *fiber.Ctx) error {
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.Cancel()
		return nil
	})
}

func (s *Server) updateDraft(c *fiber.Ctx) error {
	var req struct {
		Title   *string   `json:"title"`
		Content *string   `json:"content"`
		Tags    *[]string `json:"tags"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		if !st.Editing {
			return fiber.NewError(fiber.StatusConflict, "the editor is not open")
		}
		if req.Title != nil {
			st.SetDraftTitle(*req.Title)
		}
		if req.Content != nil {
			st.SetDraftContent(*req.Content)
		}
		if req.Tags != nil {
			st.SetDraftTags(*req.Tags)
		}
		return nil
	})
}

// saveDraft creates or updates the note being edited from the draft.
func (s *Server) saveDraft(c *fiber.Ctx) error {
	ctx, userID := c.UserContext(), auth.CurrentUser(c).ID
	snap := s.views.Get(userID)
	if !snap.Editing {
		return fiber.NewError(fiber.StatusConflict, "the editor is not open")
	}

	var (
		note domain.Note
		err  error
	)
	if snap.IsNew() {
		note, err = s.create(ctx, userID, snap.Draft.Input())
	} else {
		note, err = s.update(ctx, userID, snap.SelectedNoteID, snap.Draft.Patch())
	}
	if err != nil {
		return err
	}
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.Saved(note)
		return nil
	})
}

// archiveSelected flips the archive flag of the selected note and closes it.
func (s *Server) archiveSelected(c *fiber.Ctx) error {
	ctx, userID := c.UserContext(), auth.CurrentUser(c).ID
	snap := s.views.Get(userID)
	if snap.SelectedNoteID == "" {
		return domain.ErrNoSelection
	}
	note, err := s.store.GetNote(ctx, userID, snap.SelectedNoteID)
	if err != nil {
		return err
	}
	if _, err := s.setArchived(ctx, userID, note.ID, !note.IsArchived); err != nil {
		return err
	}
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.Deselect()
		return nil
	})
}

func (s *Server) deleteSelected(c *fiber.Ctx) error {
	ctx, userID := c.UserContext(), auth.CurrentUser(c).ID
	snap := s.views.Get(userID)
	if snap.SelectedNoteID == "" {
		return domain.ErrNoSelection
	}
	if err := s.remove(ctx, userID, snap.SelectedNoteID); err != nil {
		return err
	}
	return s.renderView(c, func(st *viewstate.State, _ []domain.Note) error {
		st.Deselect()
		return nil
	})
}
