// Package api provides the HTTP handlers for clipboard sync, device
// sessions, the gesture event log and gesture bindings.
package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"

	// headerDeviceID carries the device id when the query has none, and
	// returns a generated one to devices that did not send any.
	headerDeviceID = "X-Device-ID"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if cborEnc, err = opts.EncMode(); err != nil {
		panic("api: CBOR encoder initialization failed: " + err.Error())
	}
	if cborDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("api: CBOR decoder initialization failed: " + err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error" cbor:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// wantsCBOR reports whether the client asked for a CBOR response.
func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == contentTypeCBOR {
			return true
		}
	}
	return false
}

// write encodes data as CBOR or JSON depending on the Accept header.
func write(w http.ResponseWriter, r *http.Request, status int, data any) {
	if !wantsCBOR(r) {
		writeJSON(w, status, data)
		return
	}

	body, err := cborEnc.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
	w.Header().Set("Content-Type", contentTypeCBOR)
	w.WriteHeader(status)
	w.Write(body)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
