package searchapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// ShutdownGracePeriod bounds how long Registry.Stop waits for in-flight
// requests to drain before giving up, mirroring the teacher's
// daemon.Config.ShutdownGracePeriod.
const ShutdownGracePeriod = 10 * time.Second

// Registry holds one running HTTP server per project, keyed by project
// id, per spec.md §5: "running HTTP server instances ... registered in
// a process-scoped map keyed by project id." Grounded on the shape of
// the teacher's daemon.Server (accept loop + WaitGroup + Close),
// adapted from a single Unix-socket listener per process to many
// net/http servers managed under one map.
type Registry struct {
	mu      sync.Mutex
	servers map[string]*runningServer
}

type runningServer struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{servers: make(map[string]*runningServer)}
}

// Start binds addr and begins serving h for projectID. It returns an
// error if projectID already has a running server or the listener
// cannot be opened.
func (r *Registry) Start(projectID, addr string, h *HTTPHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[projectID]; exists {
		return fmt.Errorf("search api: server already running for project %q", projectID)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("search api: failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: h}
	rs := &runningServer{srv: srv, listener: listener, done: make(chan struct{})}
	r.servers[projectID] = rs

	go func() {
		defer close(rs.done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("search API server stopped unexpectedly",
				slog.String("project_id", projectID), slog.String("error", err.Error()))
		}
	}()

	slog.Info("search API server listening",
		slog.String("project_id", projectID), slog.String("addr", listener.Addr().String()))
	return nil
}

// Addr reports the bound address for projectID's running server, if any.
func (r *Registry) Addr(projectID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.servers[projectID]
	if !ok {
		return "", false
	}
	return rs.listener.Addr().String(), true
}

// Stop drains active requests for projectID's server (bounded by
// ShutdownGracePeriod) then closes its listener, per spec.md §5. It is
// a no-op if projectID has no running server.
func (r *Registry) Stop(ctx context.Context, projectID string) error {
	r.mu.Lock()
	rs, ok := r.servers[projectID]
	if ok {
		delete(r.servers, projectID)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownGracePeriod)
	defer cancel()

	err := rs.srv.Shutdown(shutdownCtx)
	<-rs.done
	if err != nil {
		return fmt.Errorf("search api: shutdown of project %q did not drain cleanly: %w", projectID, err)
	}
	return nil
}

// StopAll stops every running server, used on process shutdown.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	ids := make([]string, 0, len(r.servers))
	for id := range r.servers {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := r.Stop(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Running reports whether projectID currently has a server registered.
func (r *Registry) Running(projectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.servers[projectID]
	return ok
}
