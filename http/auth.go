package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/domain"
)

const oauthStateCookie = "tonote_oauth_state"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User    domain.User    `json:"user"`
	Session domain.Session `json:"session"`
}

func (s *Server) setSessionCookie(c *fiber.Ctx, sess domain.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) signedIn(c *fiber.Ctx, status int, user domain.User, sess domain.Session) error {
	s.setSessionCookie(c, sess)
	return c.Status(status).JSON(sessionResponse{User: user, Session: sess})
}

func (s *Server) signUp(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, sess, err := s.auth.SignUp(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusCreated, user, sess)
}

func (s *Server) signIn(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, sess, err := s.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusOK, user, sess)
}

// signOut ends the calling session only. The view state is shared by all of
// the user's devices, so it is kept for the ones still signed in.
func (s *Server) signOut(c *fiber.Ctx) error {
	if err := s.auth.SignOut(c.UserContext(), auth.CurrentToken(c)); err != nil {
		return err
	}
	c.ClearCookie(auth.SessionCookie)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": auth.CurrentUser(c)})
}

func (s *Server) requestOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	challenge, err := s.auth.RequestOTP(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(challenge)
}

func (s *Server) verifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, sess, err := s.auth.VerifyOTP(c.UserContext(), req.Email, strings.TrimSpace(req.Code))
	if err != nil {
		return err
	}
	return s.signedIn(c, fiber.StatusOK, user, sess)
}

func (s *Server) forgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If an account exists for that email, a reset link is on its way.",
	})
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sess, err := s.auth.ResetPassword(c.UserContext(), req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		return err
	}
	user, err := s.auth.Authenticate(c.UserContext(), sess.Token)
	if err != nil {
		return err
	}
	// Every other device was signed out, so start the new session fresh.
	s.views.Drop(user.ID)
	return s.signedIn(c, fiber.StatusOK, user, sess)
}

func (s *Server) googleLogin(c *fiber.Ctx) error {
	url, state, err := s.auth.GoogleAuthURL()
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(url, fiber.StatusFound)
}

func (s *Server) googleCallback(c *fiber.Ctx) error {
	state := c.Cookies(oauthStateCookie)
	c.ClearCookie(oauthStateCookie)
	if state == "" || c.Query("state") != state {
		return domain.ErrUnauthorized
	}
	if c.Query("error") != "" || c.Query("code") == "" {
		return domain.ErrUnauthorized
	}

	_, sess, err := s.auth.SignInWithGoogle(c.UserContext(), c.Query("code"))
	if err != nil {
		return err
	}
	s.setSessionCookie(c, sess)
	return c.Redirect(s.opts.AppURL, fiber.StatusFound)
}
