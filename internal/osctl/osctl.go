package osctl

import (
	"fmt"
	"log"
	"time"

	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/plugin"
)

// Backend names accepted by New.
const (
	BackendRobot  = "robot"
	BackendPlugin = "plugin"
	BackendNone   = "none"
)

// Options configures New.
type Options struct {
	PluginDir     string
	PluginTimeout time.Duration
}

// New returns the OS implementation for backend. BackendNone returns nil,
// which the dispatcher treats as "skip OS actions".
func New(backend string, opts Options) (dispatch.OS, error) {
	switch backend {
	case BackendRobot, "":
		return NewRobot(), nil

	case BackendPlugin:
		mgr := plugin.NewManager(opts.PluginDir)
		if err := mgr.Discover(); err != nil {
			return nil, fmt.Errorf("discover plugins: %w", err)
		}
		plugins := mgr.List()
		if len(plugins) == 0 {
			log.Printf("No OS plugins found in %s", opts.PluginDir)
		}
		for _, p := range plugins {
			log.Printf("Loaded plugin %s %s (%v)", p.Manifest.Name, p.Manifest.Version, p.Manifest.Actions)
		}
		return NewPlugins(mgr, plugin.NewExecutor(opts.PluginTimeout)), nil

	case BackendNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown OS backend %q", backend)
}
