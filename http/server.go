// Package http serves the ToNote REST API and the live event socket.
package http

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/logging"
	"github.com/ViniZap4/tonote-server/viewstate"
	"github.com/ViniZap4/tonote-server/ws"
)

// Store is the note and settings persistence behind the API.
type Store interface {
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	GetNote(ctx context.Context, userID, id string) (domain.Note, error)
	CreateNote(ctx context.Context, userID string, in domain.NoteInput) (domain.Note, error)
	UpdateNote(ctx context.Context, userID, id string, p domain.NotePatch) (domain.Note, error)
	SetArchived(ctx context.Context, userID, id string, archived bool) (domain.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error
	ListTags(ctx context.Context, userID string) ([]string, error)

	UpdatePreferences(ctx context.Context, userID string, p domain.Preferences) (domain.User, error)
	Ping(ctx context.Context) error
}

type Options struct {
	// AllowOrigins is a comma separated CORS origin list, "*" for any.
	AllowOrigins string
	// AppURL is where Google sign-in sends the browser when it is done.
	AppURL string
	// SecureCookies marks the session cookie Secure; set behind TLS.
	SecureCookies bool
}

type Server struct {
	store       Store
	auth        *auth.Service
	hub         *ws.Hub
	views       *viewstate.Registry
	log         zerolog.Logger
	opts        Options
	requireAuth fiber.Handler
}

func NewServer(store Store, authSvc *auth.Service, hub *ws.Hub, log zerolog.Logger, opts Options) *Server {
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = "*"
	}
	return &Server{
		store:       store,
		auth:        authSvc,
		hub:         hub,
		views:       viewstate.NewRegistry(),
		log:         log.With().Str("component", "http").Logger(),
		opts:        opts,
		requireAuth: authSvc.Middleware(),
	}
}

// App builds the fiber application with every route mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "tonote",
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
		BodyLimit:             8 << 20,
		ReadTimeout:           30 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(logging.Middleware(s.log))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.opts.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + auth.TokenHeader,
		AllowCredentials: s.opts.AllowOrigins != "*",
	}))

	app.Get("/healthz", s.health)
	app.Get("/ws", s.requireAuth, s.upgrade, websocket.New(s.serveSocket))

	api := app.Group("/api")

	a := api.Group("/auth")
	a.Post("/signup", s.signUp)
	a.Post("/login", s.signIn)
	a.Post("/logout", s.requireAuth, s.signOut)
	a.Get("/me", s.requireAuth, s.me)
	a.Post("/otp", s.requestOTP)
	a.Post("/otp/resend", s.requestOTP)
	a.Post("/otp/verify", s.verifyOTP)
	a.Post("/password/forgot", s.forgotPassword)
	a.Post("/password/reset", s.resetPassword)
	a.Get("/google", s.googleLogin)
	a.Get("/google/callback", s.googleCallback)

	notes := api.Group("/notes", s.requireAuth)
	notes.Get("/", s.listNotes)
	notes.Post("/", s.createNote)
	notes.Post("/import", s.importNote)
	notes.Get("/:id", s.getNote)
	notes.Put("/:id", s.updateNote)
	notes.Delete("/:id", s.deleteNote)
	notes.Post("/:id/archive", s.archiveNote(true))
	notes.Post("/:id/unarchive", s.archiveNote(false))
	notes.Get("/:id/export", s.exportNote)

	api.Get("/tags", s.requireAuth, s.listTags)

	settings := api.Group("/settings", s.requireAuth)
	settings.Get("/", s.getSettings)
	settings.Put("/", s.updateSettings)
	settings.Put("/password", s.changePassword)

	view := api.Group("/view", s.requireAuth)
	view.Get("/", s.getView)
	view.Patch("/", s.patchView)
	view.Post("/tags/:tag", s.toggleTag)
	view.Delete("/tags", s.clearTags)
	view.Post("/select/:id", s.selectNote)
	view.Post("/new", s.newNote)
	view.Post("/edit", s.editNote)
	view.Post("/cancel", s.cancelEdit)
	view.Put("/draft", s.updateDraft)
	view.Post("/save", s.saveDraft)
	view.Post("/archive", s.archiveSelected)
	view.Delete("/note", s.deleteSelected)

	return app
}

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// parseBody decodes the JSON request body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}
