// Package inspector exposes a read-only HTTP and websocket view of a world.
package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/observability/log"
	"github.com/zeusync/ownership/internal/core/registry"
	"github.com/zeusync/ownership/internal/core/world"
)

const (
	DefaultPushInterval = time.Second
	shutdownTimeout     = 5 * time.Second
	writeTimeout        = 5 * time.Second
)

// Querier runs a function on the world loop and waits for it.
type Querier interface {
	Query(ctx context.Context, fn world.Command) error
}

// Snapshot is the document served by every endpoint.
type Snapshot struct {
	Session  string             `json:"session,omitempty"`
	Frame    uint64             `json:"frame"`
	Elapsed  time.Duration      `json:"elapsed"`
	Stats    registry.Stats     `json:"stats"`
	Entities []world.EntityInfo `json:"entities"`
}

type Server struct {
	world        Querier
	log          log.Log
	pushInterval time.Duration
	mux          *http.ServeMux
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*websocket.Conn
}

func New(w Querier, logger log.Log, pushInterval time.Duration) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	if pushInterval <= 0 {
		pushInterval = DefaultPushInterval
	}
	s := &Server{
		world:        w,
		log:          logger.Named("inspector"),
		pushInterval: pushInterval,
		mux:          http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*websocket.Conn),
	}
	s.mux.HandleFunc("GET /entities", s.handleEntities)
	s.mux.HandleFunc("GET /entities/{id}", s.handleEntity)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Sessions returns the number of connected websocket clients.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. It returns nil after a shutdown caused by ctx.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("inspector listening", log.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.closeSessions()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("inspector stopped")
	return nil
}

// query runs fn on the world loop and returns its result. The result travels
// over a channel because a cancelled Query may leave fn queued behind it.
func query[R any](ctx context.Context, q Querier, fn func(w *world.World) R) (R, error) {
	result := make(chan R, 1)
	err := q.Query(ctx, func(w *world.World) {
		result <- fn(w)
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return <-result, nil
}

func (s *Server) snapshot(ctx context.Context) (Snapshot, error) {
	return query(ctx, s.world, func(w *world.World) Snapshot {
		return Snapshot{
			Frame:    w.Frame(),
			Elapsed:  w.Elapsed(),
			Stats:    w.Stats(),
			Entities: w.Describe(),
		}
	})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.log.Warn("snapshot failed", log.Error(err))
		http.Error(w, "world unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	id, err := identity.Parse(r.PathValue("id"))
	if err != nil || id.IsZero() {
		http.Error(w, "invalid identity", http.StatusBadRequest)
		return
	}

	info, err := query(r.Context(), s.world, func(wd *world.World) *world.EntityInfo {
		for _, e := range wd.Describe() {
			if e.ID == id {
				return &e
			}
		}
		return nil
	})
	if err != nil {
		http.Error(w, "world unavailable", http.StatusServiceUnavailable)
		return
	}
	if info == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	session := uuid.NewString()
	s.mu.Lock()
	s.sessions[session] = conn
	s.mu.Unlock()
	logger := s.log.With(log.String("session", session))
	logger.Debug("session opened", log.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.mu.Lock()
		delete(s.sessions, session)
		s.mu.Unlock()
		_ = conn.Close()
		logger.Debug("session closed")
	}()

	// The feed is one-way; reading only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		if err := s.push(ctx, conn, session); err != nil {
			logger.Debug("push failed", log.Error(err))
			return
		}
		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn, session string) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	snap.Session = session
	if err = conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conn := range s.sessions {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(s.sessions, id)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
