package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/gesturedrop/internal/store"
)

// DefaultEventLimit is the page size when the request names none.
const DefaultEventLimit = 50

// EventHandler serves the gesture event log.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler with the given store.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

type eventResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Pose        string `json:"pose"`
	Direction   string `json:"direction,omitempty"`
	CommittedAt string `json:"committed_at"`
	HandledAt   string `json:"handled_at,omitempty"`
	Outcome     string `json:"outcome"`
	Version     uint64 `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
}

func toEventResponse(e *store.Event) eventResponse {
	resp := eventResponse{
		ID:          e.ID,
		Label:       e.Label,
		Pose:        e.Pose,
		Direction:   e.Direction,
		CommittedAt: e.CommittedAt.Format(time.RFC3339Nano),
		Outcome:     e.Outcome,
		Version:     e.Version,
		Detail:      e.Detail,
	}
	if !e.HandledAt.IsZero() {
		resp.HandledAt = e.HandledAt.Format(time.RFC3339Nano)
	}
	return resp
}

// List handles GET /api/events?limit=N, newest first.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.store.Events().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	total, err := h.store.Events().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	resp := listEventsResponse{Events: make([]eventResponse, 0, len(events)), Total: total}
	for _, e := range events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
