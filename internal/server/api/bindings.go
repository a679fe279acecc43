package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/ayusman/gesturedrop/internal/app"
	"github.com/ayusman/gesturedrop/internal/gesture"
)

// Controller is the part of the application the binding and detection
// endpoints drive.
type Controller interface {
	Bindings() map[gesture.Pose]gesture.Label
	SetBinding(pose gesture.Pose, label string) error
	ResetBinding(pose gesture.Pose) error
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// BindingHandler serves pose to label bindings and the detection toggle.
type BindingHandler struct {
	ctl Controller
}

// NewBindingHandler creates a BindingHandler.
func NewBindingHandler(ctl Controller) *BindingHandler {
	return &BindingHandler{ctl: ctl}
}

type bindingResponse struct {
	Pose    string `json:"pose"`
	Label   string `json:"label"`
	Default string `json:"default"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
	Labels   []gesture.Label   `json:"labels"`
}

type setBindingRequest struct {
	Label string `json:"label"`
}

type detectionState struct {
	Enabled bool `json:"enabled"`
}

// List handles GET /api/bindings.
func (h *BindingHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.list())
}

func (h *BindingHandler) list() listBindingsResponse {
	current := h.ctl.Bindings()
	resp := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(current)),
		Labels:   append([]gesture.Label{gesture.LabelNone}, gesture.Labels...),
	}
	for pose, label := range current {
		resp.Bindings = append(resp.Bindings, bindingResponse{
			Pose:    string(pose),
			Label:   string(label),
			Default: string(gesture.DefaultBindings[pose]),
		})
	}
	sort.Slice(resp.Bindings, func(i, j int) bool {
		return resp.Bindings[i].Pose < resp.Bindings[j].Pose
	})
	return resp
}

// Set handles PUT /api/bindings/{pose}.
func (h *BindingHandler) Set(w http.ResponseWriter, r *http.Request) {
	pose := gesture.Pose(mux.Vars(r)["pose"])

	var req setBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.ctl.SetBinding(pose, req.Label); err != nil {
		writeBindingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bindingResponse{
		Pose:    string(pose),
		Label:   string(h.ctl.Bindings()[pose]),
		Default: string(gesture.DefaultBindings[pose]),
	})
}

// Reset handles DELETE /api/bindings/{pose}.
func (h *BindingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	pose := gesture.Pose(mux.Vars(r)["pose"])

	if err := h.ctl.ResetBinding(pose); err != nil {
		writeBindingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Detection handles GET /api/detection.
func (h *BindingHandler) Detection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, detectionState{Enabled: h.ctl.IsEnabled()})
}

// SetDetection handles PUT /api/detection.
func (h *BindingHandler) SetDetection(w http.ResponseWriter, r *http.Request) {
	var req detectionState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	h.ctl.SetEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, detectionState{Enabled: h.ctl.IsEnabled()})
}

func writeBindingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnknownPose):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrUnknownLabel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
	}
}
