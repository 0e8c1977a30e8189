package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViniZap4/tonote-server/auth"
	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/mail"
	"github.com/ViniZap4/tonote-server/store/memory"
	"github.com/ViniZap4/tonote-server/viewstate"
	"github.com/ViniZap4/tonote-server/ws"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

func (o *outbox) lastBody() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return ""
	}
	return o.sent[len(o.sent)-1].Body
}

type testServer struct {
	app   *fiber.App
	store *memory.Store
	box   *outbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	box := &outbox{}
	cfg := auth.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	authSvc := auth.NewService(store, box, cfg, zerolog.Nop())

	hub := ws.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := NewServer(store, authSvc, hub, zerolog.Nop(), Options{AppURL: "http://localhost:3000"})
	return &testServer{app: srv.App(), store: store, box: box}
}

// call sends a JSON request and decodes a JSON response into out when given.
func (ts *testServer) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		// Start from zero so omitted fields do not keep earlier values.
		v := reflect.ValueOf(out).Elem()
		v.Set(reflect.Zero(v.Type()))
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	var resp sessionResponse
	status := ts.call(t, fiber.MethodPost, "/api/auth/signup", "", credentials{Email: email, Password: "correct horse"}, &resp)
	require.Equal(t, fiber.StatusCreated, status)
	require.NotEmpty(t, resp.Session.Token)
	return resp.Session.Token
}

func (ts *testServer) createNote(t *testing.T, token string, in domain.NoteInput) domain.Note {
	t.Helper()
	var note domain.Note
	require.Equal(t, fiber.StatusCreated, ts.call(t, fiber.MethodPost, "/api/notes", token, in, &note))
	return note
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/healthz", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")

	var errBody map[string]any
	status := ts.call(t, fiber.MethodPost, "/api/auth/signup", "", credentials{Email: "JANE@example.com", Password: "correct horse"}, &errBody)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, domain.ErrEmailTaken.Error(), errBody["error"])

	status = ts.call(t, fiber.MethodPost, "/api/auth/signup", "", credentials{Email: "sam@example.com", Password: "short"}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "password", errBody["field"])

	status = ts.call(t, fiber.MethodPost, "/api/auth/login", "", credentials{Email: "jane@example.com", Password: "nope nope"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	var me struct {
		User domain.User `json:"user"`
	}
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/auth/me", token, nil, &me))
	assert.Equal(t, "jane@example.com", me.User.Email)

	assert.Equal(t, fiber.StatusNoContent, ts.call(t, fiber.MethodPost, "/api/auth/logout", token, nil, nil))
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/api/auth/me", token, nil, nil))
}

func TestSignOutKeepsOtherDevicesView(t *testing.T) {
	ts := newTestServer(t)
	phone := ts.signUp(t, "jane@example.com")

	var laptop sessionResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/auth/login", "",
		credentials{Email: "jane@example.com", Password: "correct horse"}, &laptop))

	var view viewResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPatch, "/api/view", laptop.Session.Token, fiber.Map{"search_query": "plans"}, &view))

	require.Equal(t, fiber.StatusNoContent, ts.call(t, fiber.MethodPost, "/api/auth/logout", phone, nil, nil))

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/view", laptop.Session.Token, nil, &view))
	assert.Equal(t, "plans", view.State.SearchQuery)
}

func TestLoginSetsCookie(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "jane@example.com")

	req := httptest.NewRequest(fiber.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"jane@example.com","password":"correct horse"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookie {
			cookie = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	require.NotEmpty(t, cookie)

	req = httptest.NewRequest(fiber.MethodGet, "/api/settings", nil)
	req.Header.Set(fiber.HeaderCookie, auth.SessionCookie+"="+cookie)
	resp, err = ts.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func TestOTPEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var challenge auth.OTPChallenge
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/auth/otp", "", fiber.Map{"email": "otp@example.com"}, &challenge))
	assert.Equal(t, "ot***@example.com", challenge.MaskedEmail)
	assert.Equal(t, 60, challenge.RetryAfter)

	req := httptest.NewRequest(fiber.MethodPost, "/api/auth/otp/resend", strings.NewReader(`{"email":"otp@example.com"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	m := codePattern.FindStringSubmatch(ts.box.lastBody())
	require.Len(t, m, 2)

	assert.Equal(t, fiber.StatusBadRequest,
		ts.call(t, fiber.MethodPost, "/api/auth/otp/verify", "", fiber.Map{"email": "otp@example.com", "code": "abc"}, nil))

	var signedIn sessionResponse
	require.Equal(t, fiber.StatusOK,
		ts.call(t, fiber.MethodPost, "/api/auth/otp/verify", "", fiber.Map{"email": "otp@example.com", "code": m[1]}, &signedIn))
	assert.Equal(t, "otp@example.com", signedIn.User.Email)

	var settings settingsResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/settings", signedIn.Session.Token, nil, &settings))
	assert.False(t, settings.HasPassword)
}

func TestPasswordResetEndpoints(t *testing.T) {
	ts := newTestServer(t)
	old := ts.signUp(t, "jane@example.com")
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPatch, "/api/view", old, fiber.Map{"search_query": "plans"}, nil))

	assert.Equal(t, fiber.StatusAccepted,
		ts.call(t, fiber.MethodPost, "/api/auth/password/forgot", "", fiber.Map{"email": "ghost@example.com"}, nil))
	assert.Empty(t, ts.box.lastBody())

	assert.Equal(t, fiber.StatusAccepted,
		ts.call(t, fiber.MethodPost, "/api/auth/password/forgot", "", fiber.Map{"email": "jane@example.com"}, nil))
	m := regexp.MustCompile(`token=([A-Za-z0-9_-]+)`).FindStringSubmatch(ts.box.lastBody())
	require.Len(t, m, 2)

	reset := fiber.Map{"token": m[1], "password": "brand new pw", "confirm_password": "brand new pw"}
	var signedIn sessionResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/auth/password/reset", "", reset, &signedIn))
	assert.Equal(t, "jane@example.com", signedIn.User.Email)
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/api/view", old, nil, nil))

	var view viewResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/view", signedIn.Session.Token, nil, &view))
	assert.Empty(t, view.State.SearchQuery)

	assert.Equal(t, fiber.StatusBadRequest, ts.call(t, fiber.MethodPost, "/api/auth/password/reset", "", reset, nil))
}

func TestGoogleDisabled(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, fiber.StatusNotFound, ts.call(t, fiber.MethodGet, "/api/auth/google", "", nil, nil))
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/api/auth/google/callback?state=x&code=y", "", nil, nil))
}

func TestNotesRequireAuth(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/api/notes", "", nil, nil))
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/api/view", "bogus", nil, nil))
}

func TestNoteCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")

	var errBody map[string]any
	status := ts.call(t, fiber.MethodPost, "/api/notes", token, domain.NoteInput{Title: "  "}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Please enter a title", errBody["error"])

	note := ts.createNote(t, token, domain.NoteInput{
		Title:   "Groceries",
		Content: `<p>milk</p><script>alert(1)</script>`,
		Tags:    []string{" home ", "", "home", "errands"},
	})
	assert.Equal(t, []string{"home", "errands"}, note.Tags)
	assert.NotContains(t, note.Content, "<script>")
	assert.Contains(t, note.Content, "<p>milk</p>")

	var got domain.Note
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/notes/"+note.ID, token, nil, &got))
	assert.Equal(t, note.ID, got.ID)

	title := "Groceries for Sunday"
	var updated domain.Note
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPut, "/api/notes/"+note.ID, token, domain.NotePatch{Title: &title}, &updated))
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, note.Content, updated.Content)

	var archived domain.Note
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/notes/"+note.ID+"/archive", token, nil, &archived))
	assert.True(t, archived.IsArchived)

	var list notesResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/notes", token, nil, &list))
	assert.Empty(t, list.Notes)
	assert.Equal(t, []string{"errands", "home"}, list.Tags)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/notes?view=archived", token, nil, &list))
	require.Len(t, list.Notes, 1)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/notes/"+note.ID+"/unarchive", token, nil, &archived))
	assert.False(t, archived.IsArchived)

	assert.Equal(t, fiber.StatusNoContent, ts.call(t, fiber.MethodDelete, "/api/notes/"+note.ID, token, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, ts.call(t, fiber.MethodGet, "/api/notes/"+note.ID, token, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, ts.call(t, fiber.MethodGet, "/api/notes/not-a-uuid", token, nil, nil))
}

func TestNotesAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.signUp(t, "jane@example.com")
	sam := ts.signUp(t, "sam@example.com")

	note := ts.createNote(t, jane, domain.NoteInput{Title: "Private"})

	assert.Equal(t, fiber.StatusNotFound, ts.call(t, fiber.MethodGet, "/api/notes/"+note.ID, sam, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, ts.call(t, fiber.MethodDelete, "/api/notes/"+note.ID, sam, nil, nil))

	var list notesResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/notes", sam, nil, &list))
	assert.Empty(t, list.Notes)
}

func TestListNotesFilters(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")

	ts.createNote(t, token, domain.NoteInput{Title: "Work plan", Tags: []string{"work"}})
	ts.createNote(t, token, domain.NoteInput{Title: "Garden", Content: "<p>Plant tomatoes</p>", Tags: []string{"home"}})
	ts.createNote(t, token, domain.NoteInput{Title: "Books", Tags: []string{"reading", "home"}})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Books", "Garden", "Work plan"}},
		{"?q=TOMATO", []string{"Garden"}},
		{"?q=%20%20", []string{"Books", "Garden", "Work plan"}},
		{"?tag=home", []string{"Books", "Garden"}},
		{"?tag=work&tag=reading", []string{"Books", "Work plan"}},
		{"?q=plan&tag=home", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var list notesResponse
			require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/notes"+tt.query, token, nil, &list))
			var titles []string
			for _, n := range list.Notes {
				titles = append(titles, n.Title)
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}
}

func TestExportImport(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")
	note := ts.createNote(t, token, domain.NoteInput{Title: "Trip: Lisbon", Content: "<p>Pack light</p>", Tags: []string{"travel"}})

	req := httptest.NewRequest(fiber.MethodGet, "/api/notes/"+note.ID+"/export", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "Trip-Lisbon.md")
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "Trip: Lisbon")

	req = httptest.NewRequest(fiber.MethodPost, "/api/notes/import", strings.NewReader("# Ideas\n\n- **bold** plan\n"))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(fiber.HeaderContentType, "text/markdown")
	resp, err = ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var imported domain.Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&imported))
	assert.Equal(t, "Ideas", imported.Title)
	assert.Contains(t, imported.Content, "<strong>bold</strong>")

	req = httptest.NewRequest(fiber.MethodPost, "/api/notes/import", bytes.NewReader(exported))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err = ts.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&imported))
	assert.Equal(t, "Trip: Lisbon", imported.Title)
	assert.NotEqual(t, note.ID, imported.ID)
	assert.Equal(t, []string{"travel"}, imported.Tags)
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")

	var settings settingsResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/settings", token, nil, &settings))
	assert.Equal(t, domain.ColorLight, settings.ColorTheme)
	assert.Equal(t, domain.FontSans, settings.FontTheme)
	assert.True(t, settings.HasPassword)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPut, "/api/settings", token, fiber.Map{"color_theme": "dark"}, &settings))
	assert.Equal(t, domain.ColorDark, settings.ColorTheme)
	assert.Equal(t, domain.FontSans, settings.FontTheme)

	assert.Equal(t, fiber.StatusBadRequest, ts.call(t, fiber.MethodPut, "/api/settings", token, fiber.Map{"font_theme": "comic"}, nil))

	change := fiber.Map{"old_password": "wrong", "new_password": "battery staple", "confirm_password": "battery staple"}
	assert.Equal(t, fiber.StatusBadRequest, ts.call(t, fiber.MethodPut, "/api/settings/password", token, change, nil))

	change["old_password"] = "correct horse"
	var signedIn sessionResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPut, "/api/settings/password", token, change, &signedIn))
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/api/settings", token, nil, nil))
	assert.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/settings", signedIn.Session.Token, nil, nil))
}

func TestViewWorkflow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")

	var view viewResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/view", token, nil, &view))
	assert.True(t, view.State.SidebarOpen)
	assert.Equal(t, domain.ViewAll, view.State.ViewFilter)
	assert.Equal(t, "No notes yet. Create your first note!", view.EmptyMessage)

	assert.Equal(t, fiber.StatusConflict, ts.call(t, fiber.MethodPost, "/api/view/edit", token, nil, nil))
	assert.Equal(t, fiber.StatusConflict, ts.call(t, fiber.MethodPost, "/api/view/save", token, nil, nil))

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/new", token, nil, &view))
	assert.True(t, view.State.Editing)
	assert.Empty(t, view.State.SelectedNoteID)

	draft := fiber.Map{"title": "Draft title", "content": "<p>body</p>", "tags": []string{"a", " ", "b"}}
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPut, "/api/view/draft", token, draft, &view))
	assert.Equal(t, []string{"a", "b"}, view.State.Draft.Tags)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/save", token, nil, &view))
	assert.False(t, view.State.Editing)
	require.NotNil(t, view.Selected)
	assert.Equal(t, "Draft title", view.Selected.Title)
	assert.Equal(t, view.Selected.ID, view.State.SelectedNoteID)
	id := view.State.SelectedNoteID

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/edit", token, nil, &view))
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPut, "/api/view/draft", token, fiber.Map{"title": "Renamed"}, &view))
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/cancel", token, nil, &view))
	assert.Equal(t, id, view.State.SelectedNoteID, "cancel keeps an existing note selected")
	assert.Equal(t, "Draft title", view.Selected.Title)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPatch, "/api/view", token, fiber.Map{"search_query": "zzz"}, &view))
	assert.Empty(t, view.Notes)
	assert.Equal(t, "No notes match your filters", view.EmptyMessage)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPatch, "/api/view", token, fiber.Map{"search_query": "", "toggle_sidebar": true}, &view))
	assert.False(t, view.State.SidebarOpen)
	assert.Len(t, view.Notes, 1)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/tags/a", token, nil, &view))
	assert.Equal(t, []string{"a"}, view.State.SelectedTags)
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodDelete, "/api/view/tags", token, nil, &view))
	assert.Empty(t, view.State.SelectedTags)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/archive", token, nil, &view))
	assert.Empty(t, view.State.SelectedNoteID)
	assert.Empty(t, view.Notes)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPatch, "/api/view", token, fiber.Map{"view_filter": "archived"}, &view))
	require.Len(t, view.Notes, 1)
	assert.True(t, view.Notes[0].IsArchived)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/select/"+id, token, nil, &view))
	assert.Equal(t, id, view.State.SelectedNoteID)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodDelete, "/api/view/note", token, nil, &view))
	assert.Empty(t, view.State.SelectedNoteID)
	assert.Empty(t, view.Notes)
}

func TestViewReconcilesExternalChanges(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")
	note := ts.createNote(t, token, domain.NoteInput{Title: "Shared"})

	var view viewResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/select/"+note.ID, token, nil, &view))
	require.Equal(t, note.ID, view.State.SelectedNoteID)

	// Archived from another tab.
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/notes/"+note.ID+"/archive", token, nil, nil))

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodGet, "/api/view", token, nil, &view))
	assert.Empty(t, view.State.SelectedNoteID)
	assert.Equal(t, viewstate.Draft{Tags: []string{}}, view.State.Draft)
	assert.Nil(t, view.Selected)

	assert.Equal(t, fiber.StatusNotFound, ts.call(t, fiber.MethodPost, "/api/view/select/"+note.ID, token, nil, nil))
}

func TestViewToggleEncodedTag(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")
	ts.createNote(t, token, domain.NoteInput{Title: "Pipeline", Tags: []string{"Dev Ops"}})
	ts.createNote(t, token, domain.NoteInput{Title: "Lunch", Tags: []string{"café"}})
	ts.createNote(t, token, domain.NoteInput{Title: "Other", Tags: []string{"misc"}})

	var view viewResponse
	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/tags/Dev%20Ops", token, nil, &view))
	assert.Equal(t, []string{"Dev Ops"}, view.State.SelectedTags)
	require.Len(t, view.Notes, 1)
	assert.Equal(t, "Pipeline", view.Notes[0].Title)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/tags/caf%C3%A9", token, nil, &view))
	assert.Equal(t, []string{"Dev Ops", "café"}, view.State.SelectedTags)
	assert.Len(t, view.Notes, 2)

	require.Equal(t, fiber.StatusOK, ts.call(t, fiber.MethodPost, "/api/view/tags/Dev%20Ops", token, nil, &view))
	assert.Equal(t, []string{"café"}, view.State.SelectedTags)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.ValidationError{Field: "title", Message: "x"}, fiber.StatusBadRequest},
		{&domain.CooldownError{}, fiber.StatusTooManyRequests},
		{domain.ErrNotFound, fiber.StatusNotFound},
		{domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{domain.ErrEmailTaken, fiber.StatusConflict},
		{domain.ErrOTPExpired, fiber.StatusBadRequest},
		{domain.ErrNoSelection, fiber.StatusConflict},
		{fiber.ErrUpgradeRequired, fiber.StatusUpgradeRequired},
		{io.ErrUnexpectedEOF, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, body := errorResponse(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
		assert.NotEmpty(t, body["error"])
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "jane@example.com")
	assert.Equal(t, fiber.StatusUnauthorized, ts.call(t, fiber.MethodGet, "/ws", "", nil, nil))
	assert.Equal(t, fiber.StatusUpgradeRequired, ts.call(t, fiber.MethodGet, "/ws", token, nil, nil))
}
