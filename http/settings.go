package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/domain"
)

type settingsResponse struct {
	Email       string            `json:"email"`
	HasPassword bool              `json:"has_password"`
	ColorTheme  domain.ColorTheme `json:"color_theme"`
	FontTheme   domain.FontTheme  `json:"font_theme"`
}

func settingsFor(u domain.User) settingsResponse {
	return settingsResponse{
		Email:       u.Email,
		HasPassword: u.HasPassword(),
		ColorTheme:  u.ColorTheme,
		FontTheme:   u.FontTheme,
	}
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	return c.JSON(settingsFor(auth.CurrentUser(c)))
}

// updateSettings replaces the theme preferences. Omitted fields keep their
// current value.
func (s *Server) updateSettings(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	prefs := domain.Preferences{ColorTheme: user.ColorTheme, FontTheme: user.FontTheme}
	if err := parseBody(c, &prefs); err != nil {
		return err
	}
	if err := prefs.Validate(); err != nil {
		return err
	}
	updated, err := s.store.UpdatePreferences(c.UserContext(), user.ID, prefs)
	if err != nil {
		return err
	}
	return c.JSON(settingsFor(updated))
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user := auth.CurrentUser(c)
	sess, err := s.auth.ChangePassword(c.UserContext(), user, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusOK, user, sess)
}
