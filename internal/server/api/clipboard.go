package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/clipsync"
)

// ClipboardHandler serves pull, push and raw reads of the shared clipboard.
type ClipboardHandler struct {
	sync       *clipsync.Service
	maxPayload int
}

// NewClipboardHandler creates a handler over the sync service. maxPayload
// bounds request bodies; it should match the clipboard store's limit.
func NewClipboardHandler(svc *clipsync.Service, maxPayload int) *ClipboardHandler {
	if maxPayload <= 0 {
		maxPayload = clipboard.DefaultMaxPayloadBytes
	}
	return &ClipboardHandler{sync: svc, maxPayload: maxPayload}
}

type pullResponse struct {
	Changed   bool           `json:"changed" cbor:"changed"`
	Version   uint64         `json:"version" cbor:"version"`
	Kind      clipboard.Kind `json:"kind,omitempty" cbor:"kind,omitempty"`
	Payload   string         `json:"payload,omitempty" cbor:"payload,omitempty"`
	Origin    string         `json:"origin,omitempty" cbor:"origin,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty" cbor:"created_at,omitempty"`
	Digest    string         `json:"digest,omitempty" cbor:"digest,omitempty"`
}

type pushRequest struct {
	Device  string         `json:"device" cbor:"device"`
	Version uint64         `json:"version" cbor:"version"`
	Kind    clipboard.Kind `json:"kind" cbor:"kind"`
	Payload string         `json:"payload" cbor:"payload"`
	Text    *string        `json:"text,omitempty" cbor:"text,omitempty"`
}

type pushResponse struct {
	Version uint64 `json:"version" cbor:"version"`
	ID      string `json:"id" cbor:"id"`
	Digest  string `json:"digest" cbor:"digest"`
}

type conflictResponse struct {
	Error          string `json:"error" cbor:"error"`
	CurrentVersion uint64 `json:"current_version" cbor:"current_version"`
}

// Pull handles GET /api/clipboard.
func (h *ClipboardHandler) Pull(w http.ResponseWriter, r *http.Request) {
	device := deviceID(w, r, "")

	var since *uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid since version")
			return
		}
		since = &v
	}

	res, err := h.sync.Pull(device, since)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	if !res.Changed {
		write(w, r, http.StatusOK, pullResponse{Version: res.Version})
		return
	}

	etag := `"` + res.Entry.Digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	created := res.Entry.CreatedAt
	write(w, r, http.StatusOK, pullResponse{
		Changed:   true,
		Version:   res.Entry.Version,
		Kind:      res.Entry.Kind,
		Payload:   res.Entry.Payload,
		Origin:    res.Entry.Origin,
		CreatedAt: &created,
		Digest:    res.Entry.Digest,
	})
}

// Push handles POST /api/clipboard. It accepts JSON, CBOR or a multipart
// form with an image file.
func (h *ClipboardHandler) Push(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit())

	req, err := h.decodePush(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || errors.Is(err, clipboard.ErrTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry := clipboard.Entry{Kind: req.Kind, Payload: req.Payload, Version: req.Version}
	if req.Text != nil {
		entry = clipboard.NewText(*req.Text)
		entry.Version = req.Version
	}

	device := deviceID(w, r, req.Device)
	accepted, err := h.sync.Push(device, entry)
	if err != nil {
		var stale *clipsync.StaleError
		switch {
		case errors.As(err, &stale):
			write(w, r, http.StatusConflict, conflictResponse{
				Error:          "stale write",
				CurrentVersion: stale.Current,
			})
		case errors.Is(err, clipboard.ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, clipboard.ErrInvalidEntry):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Clipboard push from %s failed: %v", device, err)
			writeError(w, http.StatusInternalServerError, "Failed to store clipboard entry")
		}
		return
	}

	write(w, r, http.StatusCreated, pushResponse{
		Version: accepted.Version,
		ID:      accepted.ID,
		Digest:  accepted.Digest,
	})
}

// Raw handles GET /api/clipboard/raw and returns the decoded payload.
func (h *ClipboardHandler) Raw(w http.ResponseWriter, r *http.Request) {
	entry := h.sync.Current()
	if entry.IsEmpty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data, err := entry.Bytes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode clipboard entry")
		return
	}

	contentType := "text/plain; charset=utf-8"
	if entry.Kind == clipboard.KindImage {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", `"`+entry.Digest+`"`)
	w.Header().Set("X-Clipboard-Version", strconv.FormatUint(entry.Version, 10))
	w.Write(data)
}

func (h *ClipboardHandler) decodePush(r *http.Request) (pushRequest, error) {
	var req pushRequest

	switch mediaType(r) {
	case "multipart/form-data":
		return h.decodeUpload(r)
	case contentTypeCBOR:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return req, err
		}
		if err := cborDec.Unmarshal(body, &req); err != nil {
			return req, fmt.Errorf("invalid CBOR body: %w", err)
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return req, err
			}
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return req, nil
}

func (h *ClipboardHandler) decodeUpload(r *http.Request) (pushRequest, error) {
	var req pushRequest

	if err := r.ParseMultipartForm(int64(h.maxPayload)); err != nil {
		return req, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return req, fmt.Errorf("missing image file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(h.maxPayload)+1))
	if err != nil {
		return req, err
	}
	// The limit applies to the stored base64 form.
	if n := base64.StdEncoding.EncodedLen(len(data)); n > h.maxPayload {
		return req, fmt.Errorf("%w: %d encoded bytes, limit %d", clipboard.ErrTooLarge, n, h.maxPayload)
	}

	img := clipboard.NewImage(data)
	req.Kind = img.Kind
	req.Payload = img.Payload
	req.Device = r.FormValue("device")
	if v := r.FormValue("version"); v != "" {
		req.Version, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid version: %w", err)
		}
	}
	return req, nil
}

// bodyLimit allows for base64 growth and the JSON envelope.
func (h *ClipboardHandler) bodyLimit() int64 {
	return int64(h.maxPayload)*4/3 + 64<<10
}

// deviceID picks the device id from the body, the query or the header.
// Requests without one get a fresh id, echoed back in X-Device-ID.
func deviceID(w http.ResponseWriter, r *http.Request, fromBody string) string {
	id := strings.TrimSpace(fromBody)
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("device"))
	}
	if id == "" {
		id = strings.TrimSpace(r.Header.Get(headerDeviceID))
	}
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(headerDeviceID, id)
	return id
}
