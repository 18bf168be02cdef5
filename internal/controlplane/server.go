// Package controlplane exposes the engine's control channel and
// state-sync stream over HTTP, SSE, and a websocket duplex (spec §4.11,
// component C11). It is the only place in this module that knows about
// gin/gorilla/jwt; everything it does ultimately turns into a send on an
// engine.ControlMessage channel or a read from a *engine.StateSync.
package controlplane

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

// Server wires the control/state-sync channels to HTTP.
type Server struct {
	control   chan<- engine.ControlMessage
	state     *engine.StateSync
	jwtSecret []byte
	log       *slog.Logger

	engine *gin.Engine
	http   *http.Server
}

// New builds a Server. jwtSecret may be empty, in which case bearer-auth
// middleware is skipped entirely (spec.md has no requirement that auth
// be mandatory; an empty secret is treated as "auth disabled").
func New(addr string, control chan<- engine.ControlMessage, state *engine.StateSync, jwtSecret string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), slogMiddleware(log))

	s := &Server{
		control:   control,
		state:     state,
		jwtSecret: []byte(jwtSecret),
		log:       log,
		engine:    r,
	}
	s.registerRoutes(r)
	s.http = &http.Server{Addr: addr, Handler: r}
	return s
}

// ListenAndServe runs the HTTP server until it errors or is shut down.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// ServeHTTP lets a Server be driven directly (httptest.NewRecorder,
// or mounted under another http.Handler) without opening a socket.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestIDMiddleware stamps every request with a correlation id, used
// for log lines and echoed back as a response header so a caller can
// cite it in a bug report.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

func slogMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// send submits msg on the control channel and blocks for its reply,
// honoring ctx's deadline per spec §4.9 ("a metadata query carries a
// caller-chosen timeout on the reply receive").
func send[T any](ctx context.Context, control chan<- engine.ControlMessage, msg engine.ControlMessage, replyCh chan engine.Reply) (T, error) {
	var zero T
	select {
	case control <- msg:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case r := <-replyCh:
		if r.Err != nil {
			return zero, r.Err
		}
		if r.Value == nil {
			return zero, nil
		}
		v, ok := r.Value.(T)
		if !ok {
			return zero, nil
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
