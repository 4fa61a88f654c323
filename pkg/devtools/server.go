// Package devtools serves a live inspector for a glint engine: a JSON
// snapshot of the dependency graph and a websocket stream of engine
// events (writes, recomputes, observer runs, flushes).
//
// The server attaches to the engine as a hook; a slow or disconnected
// inspector client never blocks the engine.
package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/glint-dev/glint/pkg/glint"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Server is the inspector HTTP server for one engine.
type Server struct {
	eng    *glint.Engine
	hub    *hub
	logger *slog.Logger
	addr   string

	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// ServerOption configures the inspector server.
type ServerOption func(*Server)

// WithLogger sets the server logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAddr sets the listen address for Start. Defaults to
// "localhost:6360".
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// NewServer creates an inspector for the engine and attaches its event
// hook. Must be called from the engine goroutine, before the engine gets
// busy.
func NewServer(eng *glint.Engine, opts ...ServerOption) *Server {
	s := &Server{
		eng:  eng,
		hub:  newHub(),
		addr: "localhost:6360",
		upgrader: websocket.Upgrader{
			// The inspector is a local development tool.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	eng.AttachHook(&hook{hub: s.hub})
	return s
}

// Handler returns the inspector's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/graph", s.handleGraph)
	r.Get("/api/events", s.handleEvents)

	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on the given listener until Shutdown. It returns
// http.ErrServerClosed after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.logger.Info("devtools listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleGraph serves the current dependency graph snapshot.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.eng.Snapshot()); err != nil {
		s.logger.Error("snapshot encode failed", "error", err)
	}
}

// handleEvents upgrades to a websocket and streams engine events until
// the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.hub.subscribe()
	defer cancel()

	// Reader goroutine: the client sends nothing we care about, but the
	// read loop notices disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					s.logger.Error("read error", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Error("event write failed", "error", err)
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
