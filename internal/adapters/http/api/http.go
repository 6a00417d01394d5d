// Package api exposes the live game over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/types"
	"github.com/okian/bullseye/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface keeps the
// handler layer loosely coupled to the controller.
type Dependencies interface {
	// Status returns the live session view.
	Status() types.SessionStatus
	// Result returns the final result, or an error until the game is done.
	Result() (model.GameResult, error)
	// Abort asks the running game to end.
	Abort()
}

// Server wires HTTP routes for the status API.
type Server struct {
	healthHandler  *HealthHandler
	sessionHandler *SessionHandler
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		sessionHandler: NewSessionHandler(deps),
		logger:         logger.Named("api"),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	get := []string{http.MethodGet, http.MethodHead}
	mux.HandleFunc("/healthz", route(s.logger, "healthz", s.healthHandler.HandleHealth, get...))
	mux.HandleFunc("/session", route(s.logger, "session", s.sessionHandler.HandleSession, get...))
	mux.HandleFunc("/session/abort", route(s.logger, "abort", s.sessionHandler.HandleAbort, http.MethodPost))
	mux.HandleFunc("/result", route(s.logger, "result", s.sessionHandler.HandleResult, get...))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
