package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/gesturedrop/internal/app"
	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/clipsync"
	"github.com/ayusman/gesturedrop/internal/config"
	"github.com/ayusman/gesturedrop/internal/osctl"
	"github.com/ayusman/gesturedrop/internal/server"
	"github.com/ayusman/gesturedrop/internal/store"
	"github.com/ayusman/gesturedrop/internal/tray"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("GestureDrop failed: %v", err)
	}
}

func run(cfg config.Config) error {
	fmt.Println("GestureDrop - gesture control and clipboard sync")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	clip := clipboard.NewStore(clipboard.WithMaxPayloadBytes(cfg.MaxPayload))
	defer clip.Close()
	svc := clipsync.NewService(clip, clipsync.NewSessions(cfg.SessionTTL))

	osBackend, err := osctl.New(cfg.OSBackend, osctl.Options{
		PluginDir:     cfg.PluginDir,
		PluginTimeout: cfg.PluginTimeout,
	})
	if err != nil {
		return fmt.Errorf("initialize %s OS backend: %w", cfg.OSBackend, err)
	}

	a, err := app.New(app.Config{
		Settings:  cfg,
		Store:     st,
		Clipboard: clip,
		Sync:      svc,
		OS:        osBackend,
	})
	if err != nil {
		return err
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	preview := a.Preview()
	if preview != nil {
		preview.SetFooter("Server: " + viewerURL(cfg.Addr))
	}

	srv := server.New(server.Config{
		StaticDir:  staticDir,
		Sync:       svc,
		Store:      st,
		Controller: a,
		Preview:    preview,
		MaxPayload: cfg.MaxPayload,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx, cfg.Addr) })

	fmt.Printf("Viewer: %s\n", viewerURL(cfg.Addr))
	if preview != nil {
		fmt.Printf("Camera preview: %sapi/stream\n", viewerURL(cfg.Addr))
	}

	if !cfg.Tray {
		return g.Wait()
	}

	t := tray.New(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	a.OnEnabledChange(t.SetEnabled)
	t.OnOpenViewer(func() { openBrowser(viewerURL(cfg.Addr)) })
	t.OnQuit(stop)
	a.OnResult(t.SetLastResult)

	g.Go(func() error {
		updates, cancel := clip.Subscribe()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-updates:
				if !ok {
					return nil
				}
				t.SetClipboardVersion(e.Version)
			}
		}
	})
	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// The tray owns the main goroutine until quit.
	t.Run()
	stop()
	return g.Wait()
}

func viewerURL(addr string) string {
	host, port := "localhost", strings.TrimPrefix(addr, ":")
	if i := strings.LastIndex(addr, ":"); i > 0 {
		host, port = addr[:i], addr[i+1:]
	}
	if host == "" || host == "0.0.0.0" {
		host = server.LocalIP()
	}
	return fmt.Sprintf("http://%s:%s/", host, port)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the viewer files in common locations: "web",
// "../web", "../../web" and <dataDir>/web.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
