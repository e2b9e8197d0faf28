package http

import (
	"net/http"
	"time"

	"github.com/obinna-o/go_marketgate/internal/session"
)

type SessionHandler struct {
	sessions *session.Manager
	timeout  time.Duration
}

func NewSessionHandler(sessions *session.Manager, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		timeout:  timeout,
	}
}

// Ensure hands back the caller's session id, minting one on first contact.
// Repeat calls with the same client id return the same session id.
func (h *SessionHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, h.timeout)
	defer cancel()

	clientID := getClientID(r.Context())
	if clientID == "" {
		respondError(w, http.StatusBadRequest, "client_required", "missing X-Client-ID header")
		return
	}

	sessionID, err := h.sessions.Ensure(ctx, clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}
