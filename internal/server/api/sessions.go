package api

import (
	"net/http"

	"github.com/ayusman/gesturedrop/internal/clipsync"
)

// SessionHandler lists the devices that have synced recently.
type SessionHandler struct {
	sync *clipsync.Service
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc *clipsync.Service) *SessionHandler {
	return &SessionHandler{sync: svc}
}

type listSessionsResponse struct {
	Version  uint64             `json:"version"`
	Sessions []clipsync.Session `json:"sessions"`
}

// List handles GET /api/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.sync.Sessions().List()
	if sessions == nil {
		sessions = []clipsync.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{
		Version:  h.sync.Current().Version,
		Sessions: sessions,
	})
}
