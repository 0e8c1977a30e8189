package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/tonote-server/domain"
)

const (
	SessionCookie = "tonote_session"
	TokenHeader   = "X-ToNote-Token"

	userKey  = "auth.user"
	tokenKey = "auth.token"
)

// TokenFromRequest looks for a session token in the Authorization bearer,
// the X-ToNote-Token header, the session cookie, and for websocket upgrades
// the token query parameter, in that order.
func TokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token := c.Get(TokenHeader); token != "" {
		return token
	}
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	if strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket") {
		return c.Query("token")
	}
	return ""
}

// Middleware rejects requests without a valid session and stores the user
// for CurrentUser.
func (s *Service) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		user, err := s.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(userKey, user)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) domain.User {
	user, _ := c.Locals(userKey).(domain.User)
	return user
}

func CurrentToken(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenKey).(string)
	return token
}
