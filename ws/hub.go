// Package ws fans note changes out to a user's open websocket connections.
package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/tonote-server/domain"
)

const (
	NoteCreated    = "note_created"
	NoteUpdated    = "note_updated"
	NoteArchived   = "note_archived"
	NoteUnarchived = "note_unarchived"
	NoteDeleted    = "note_deleted"
	TagsChanged    = "tags_changed"
)

// ArchiveEvent names the event for a note whose archive flag was set to archived.
func ArchiveEvent(archived bool) string {
	if archived {
		return NoteArchived
	}
	return NoteUnarchived
}

type Message struct {
	Type   string       `json:"type"`
	Note   *domain.Note `json:"note,omitempty"`
	NoteID string       `json:"note_id,omitempty"`
	Tags   []string     `json:"tags,omitempty"`
}

const (
	defaultWriteTimeout = 10 * time.Second
	clientQueueSize     = 32
)

// Conn is the part of a websocket connection the hub uses.
// *websocket.Conn from gofiber/contrib satisfies it.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	userID string
	conn   Conn
	send   chan Message
}

type envelope struct {
	userID string
	msg    Message
}

type Hub struct {
	clients      map[Conn]*client
	broadcast    chan envelope
	register     chan *client
	unregister   chan Conn
	done         chan struct{}
	writeTimeout time.Duration
	log          zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:      make(map[Conn]*client),
		broadcast:    make(chan envelope, 256),
		register:     make(chan *client),
		unregister:   make(chan Conn),
		done:         make(chan struct{}),
		writeTimeout: defaultWriteTimeout,
		log:          log.With().Str("component", "ws").Logger(),
	}
}

// WithWriteTimeout bounds how long a single write to a client may take
// before the client is dropped. Call before Run.
func (h *Hub) WithWriteTimeout(d time.Duration) *Hub {
	h.writeTimeout = d
	return h
}

// Run owns the client set until ctx is cancelled, then closes every
// connection. Register, Unregister and Broadcast become no-ops afterwards.
// Each client is written to by its own goroutine, so a slow peer only ever
// fills its own queue; a full queue drops that client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		for conn := range h.clients {
			h.remove(conn)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c.conn] = c
			go h.write(c)

		case conn := <-h.unregister:
			h.remove(conn)

		case env := <-h.broadcast:
			for conn, c := range h.clients {
				if c.userID != env.userID {
					continue
				}
				select {
				case c.send <- env.msg:
				default:
					h.log.Debug().Str("user_id", c.userID).Msg("client queue full, dropping client")
					h.remove(conn)
				}
			}
		}
	}
}

func (h *Hub) remove(conn Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
		conn.Close()
	}
}

// write drains the client's queue until Run closes it.
func (h *Hub) write(c *client) {
	for msg := range c.send {
		err := c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err == nil {
			err = c.conn.WriteJSON(msg)
		}
		if err != nil {
			h.log.Debug().Err(err).Str("user_id", c.userID).Msg("write failed, dropping client")
			c.conn.Close()
			h.Unregister(c.conn)
			for range c.send {
			}
			return
		}
	}
}

// Broadcast queues msg for every connection of userID.
func (h *Hub) Broadcast(userID string, msg Message) {
	select {
	case h.broadcast <- envelope{userID: userID, msg: msg}:
	case <-h.done:
	}
}

func (h *Hub) NoteChanged(userID, typ string, note domain.Note) {
	h.Broadcast(userID, Message{Type: typ, Note: &note, NoteID: note.ID})
}

func (h *Hub) NoteDeleted(userID, id string) {
	h.Broadcast(userID, Message{Type: NoteDeleted, NoteID: id})
}

func (h *Hub) TagsChanged(userID string, tags []string) {
	h.Broadcast(userID, Message{Type: TagsChanged, Tags: tags})
}

func (h *Hub) Register(userID string, conn Conn) {
	select {
	case h.register <- &client{userID: userID, conn: conn, send: make(chan Message, clientQueueSize)}:
	case <-h.done:
		conn.Close()
	}
}

func (h *Hub) Unregister(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Serve registers conn for userID and reads from it until the peer goes
// away. Clients only send keepalives; their content is ignored.
func (h *Hub) Serve(userID string, conn Conn) {
	h.Register(userID, conn)
	defer h.Unregister(conn)

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if typ, _ := msg["type"].(string); typ != "" {
			h.log.Debug().Str("user_id", userID).Str("type", typ).Msg("client message")
		}
	}
}
