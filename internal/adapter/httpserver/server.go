// Package httpserver exposes the lead agent over HTTP: the chat endpoint,
// health and readiness probes, and the middleware shared by all routes.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/internal/usecase"
)

// maxChatBodyBytes bounds the request body read by the chat endpoint.
const maxChatBodyBytes = 1 << 20

// ChatReplier answers a sanitized conversation.
type ChatReplier interface {
	Reply(ctx context.Context, conv []domain.ChatMessage) (usecase.ChatResult, error)
}

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg     config.Config
	Chat    ChatReplier
	Limiter domain.Limiter
	Checks  []ReadinessCheck
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, chat ChatReplier, limiter domain.Limiter, checks ...ReadinessCheck) *Server {
	return &Server{Cfg: cfg, Chat: chat, Limiter: limiter, Checks: checks}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler runs every configured check with a short deadline.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(s.Checks))
		ok := true
		for _, c := range s.Checks {
			if err := c.Check(ctx); err != nil {
				ok = false
				checks = append(checks, check{Name: c.Name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: c.Name, OK: true})
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
