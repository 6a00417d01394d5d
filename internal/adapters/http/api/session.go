package api

import (
	"net/http"

	"github.com/okian/bullseye/internal/adapters/export"
)

// SessionHandler serves the live session and the final result.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleSession handles GET /session requests.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Status())
}

// HandleResult handles GET /result requests. The body uses the same shape
// as the exported payload.
func (h *SessionHandler) HandleResult(w http.ResponseWriter, _ *http.Request) {
	res, err := h.deps.Result()
	if err != nil {
		writeError(w, http.StatusNotFound, "not_finished", err)
		return
	}
	writeJSON(w, http.StatusOK, export.NewPayload(res))
}

// HandleAbort handles POST /session/abort requests.
func (h *SessionHandler) HandleAbort(w http.ResponseWriter, _ *http.Request) {
	h.deps.Abort()
	writeJSON(w, http.StatusAccepted, h.deps.Status())
}
