// Package server provides the HTTP server for GestureDrop: clipboard sync
// for remote devices, the viewer's static files and the control API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"

	"github.com/ayusman/gesturedrop/internal/capture"
	"github.com/ayusman/gesturedrop/internal/clipsync"
	"github.com/ayusman/gesturedrop/internal/server/api"
	"github.com/ayusman/gesturedrop/internal/store"
)

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir  string
	Sync       *clipsync.Service
	Store      *store.Store
	Controller api.Controller
	Preview    *capture.Preview
	MaxPayload int
}

// Server is the GestureDrop HTTP server.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/ip", s.handleIP).Methods(http.MethodGet)

	if s.config.Sync != nil {
		clip := api.NewClipboardHandler(s.config.Sync, s.config.MaxPayload)
		r.Handle("/api/clipboard", gzhttp.GzipHandler(http.HandlerFunc(clip.Pull))).Methods(http.MethodGet)
		r.HandleFunc("/api/clipboard", clip.Push).Methods(http.MethodPost)
		r.HandleFunc("/api/clipboard/raw", clip.Raw).Methods(http.MethodGet)
		r.Handle("/api/clipboard/ws", NewClipboardSocket(s.config.Sync)).Methods(http.MethodGet)

		sessions := api.NewSessionHandler(s.config.Sync)
		r.HandleFunc("/api/sessions", sessions.List).Methods(http.MethodGet)
	}

	if s.config.Store != nil {
		events := api.NewEventHandler(s.config.Store)
		r.HandleFunc("/api/events", events.List).Methods(http.MethodGet)
	}

	if s.config.Controller != nil {
		bindings := api.NewBindingHandler(s.config.Controller)
		r.HandleFunc("/api/bindings", bindings.List).Methods(http.MethodGet)
		r.HandleFunc("/api/bindings/{pose}", bindings.Set).Methods(http.MethodPut)
		r.HandleFunc("/api/bindings/{pose}", bindings.Reset).Methods(http.MethodDelete)
		r.HandleFunc("/api/detection", bindings.Detection).Methods(http.MethodGet)
		r.HandleFunc("/api/detection", bindings.SetDetection).Methods(http.MethodPut)
	}

	if s.config.Preview != nil {
		r.Handle("/api/stream", NewStreamHandler(s.config.Preview)).Methods(http.MethodGet)
	}

	if s.config.StaticDir != "" {
		r.PathPrefix("/").
			Handler(http.FileServer(http.Dir(s.config.StaticDir))).
			Methods(http.MethodGet, http.MethodHead)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleIP reports the LAN address phones should use to reach this host.
func (s *Server) handleIP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"ip": LocalIP()})
}

// LocalIP returns the address of the interface that routes outward, or the
// first non-loopback IPv4 address, or 127.0.0.1.
func LocalIP() string {
	// UDP dial sends nothing; it only selects a route.
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsLoopback() {
			return addr.IP.String()
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// Long-lived streams end when ctx does.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
