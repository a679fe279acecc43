package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturedrop/internal/clipsync"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers connect from other devices on the LAN
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ClipboardSocket pushes a notification to connected viewers whenever a new
// clipboard entry is accepted. Viewers then pull the entry itself.
type ClipboardSocket struct {
	sync *clipsync.Service
}

// NewClipboardSocket creates a ClipboardSocket over the sync service.
func NewClipboardSocket(svc *clipsync.Service) *ClipboardSocket {
	return &ClipboardSocket{sync: svc}
}

type clipboardNotice struct {
	Version uint64 `json:"version"`
	Kind    string `json:"kind,omitempty"`
	Origin  string `json:"origin,omitempty"`
	Digest  string `json:"digest,omitempty"`
}

// ServeHTTP upgrades the request and streams notices until the client
// disconnects or the clipboard store closes.
func (h *ClipboardSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.sync.Watch()
	defer cancel()

	// The read loop only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cur := h.sync.Current()
	if err := h.send(conn, clipboardNotice{Version: cur.Version, Kind: string(cur.Kind), Origin: cur.Origin, Digest: cur.Digest}); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case e, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.send(conn, clipboardNotice{Version: e.Version, Kind: string(e.Kind), Origin: e.Origin, Digest: e.Digest}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *ClipboardSocket) send(conn *websocket.Conn, n clipboardNotice) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(n)
}
