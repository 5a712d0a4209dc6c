package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"web2view/bridge"
)

const (
	// DefaultAddr binds the inspector to a random loopback port.
	DefaultAddr = "127.0.0.1:0"

	historySize  = 256
	clientBuffer = 64
	writeWait    = 5 * time.Second
)

// Entry is one recorded bridge event.
type Entry struct {
	ID      string    `json:"id"`
	Session string    `json:"session"`
	Time    time.Time `json:"time"`
	bridge.Event
}

// Server records bridge traffic and streams it over WebSocket to a small
// page served on loopback. Recording is always on; the HTTP side runs only
// while the inspector is open.
type Server struct {
	addr    string
	session string
	logger  *slog.Logger

	mu      sync.Mutex
	history []Entry
	clients map[*client]struct{}
	srv     *http.Server
	url     string

	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan Entry
}

// New creates a stopped inspector that will listen on addr when started.
func New(addr string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		session: uuid.NewString(),
		logger:  logger.With("component", "inspector"),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// NewSession starts a new window session; later entries carry its id.
func (s *Server) NewSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = uuid.NewString()
	return s.session
}

// Observe records e and fans it out to connected clients. Slow clients miss
// events rather than block the bridge.
func (s *Server) Observe(e bridge.Event) {
	s.mu.Lock()
	entry := Entry{
		ID:      uuid.NewString(),
		Session: s.session,
		Time:    time.Now().UTC(),
		Event:   e,
	}
	s.history = append(s.history, entry)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	for c := range s.clients {
		select {
		case c.send <- entry:
		default:
		}
	}
	s.mu.Unlock()
}

// History returns a copy of the recorded entries, oldest first.
func (s *Server) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.history...)
}

// Running reports whether the HTTP side is up.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.srv != nil
}

// URL returns the page address while running.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Start begins serving and returns the page URL. Starting a running
// inspector returns the existing URL.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return s.url, nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("inspector listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.srv = srv
	s.url = "http://" + ln.Addr().String() + "/"

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("inspector server stopped", "error", err)
		}
	}()

	s.logger.Info("inspector listening", "url", s.url)
	return s.url, nil
}

// Stop shuts the HTTP side down and disconnects all clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.url = ""
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	for c := range clients {
		close(c.send)
		c.conn.Close()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("inspector shutdown: %w", err)
	}
	s.logger.Info("inspector stopped")
	return nil
}

// Toggle starts a stopped inspector or stops a running one. It returns the
// page URL when the inspector is now running, or "" when it stopped.
func (s *Server) Toggle(ctx context.Context) (string, error) {
	if s.Running() {
		return "", s.Stop(ctx)
	}
	return s.Start()
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(pageHTML))
}

// handleWS upgrades the connection, replays history and then streams live
// entries. The default upgrader rejects cross-origin pages.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan Entry, clientBuffer)}

	s.mu.Lock()
	if s.srv == nil {
		s.mu.Unlock()
		conn.Close()
		return
	}
	backlog := append([]Entry(nil), s.history...)
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.readLoop(c)
	s.writeLoop(c, backlog)
}

// readLoop drains control frames and drops the client when it goes away.
func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client, backlog []Entry) {
	defer s.drop(c)
	for _, e := range backlog {
		if err := s.write(c, e); err != nil {
			return
		}
	}
	for e := range c.send {
		if err := s.write(c, e); err != nil {
			return
		}
	}
}

func (s *Server) write(c *client, e Entry) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(e)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		close(c.send)
	}
	c.conn.Close()
}
