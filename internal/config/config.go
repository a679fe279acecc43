// Package config loads GestureDrop settings from the environment and the
// command line.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// Config holds every runtime setting. Environment variables provide the
// defaults; flags override them.
type Config struct {
	Addr      string `env:"GESTUREDROP_ADDR"       envDefault:":5000"`
	DataDir   string `env:"GESTUREDROP_DATA_DIR"`
	StaticDir string `env:"GESTUREDROP_STATIC_DIR"`

	CameraID     int     `env:"GESTUREDROP_CAMERA_ID"     envDefault:"0"`
	MotionThresh float64 `env:"GESTUREDROP_MOTION_THRESH" envDefault:"1.0"`
	Sense        bool    `env:"GESTUREDROP_SENSE"         envDefault:"true"`

	CommitFrames  int           `env:"GESTUREDROP_COMMIT_FRAMES"   envDefault:"3"`
	Cooldown      time.Duration `env:"GESTUREDROP_COOLDOWN"        envDefault:"1s"`
	MinVisible    int           `env:"GESTUREDROP_MIN_VISIBLE"     envDefault:"15"`
	MinVisibility float64       `env:"GESTUREDROP_MIN_VISIBILITY"  envDefault:"0.5"`
	MinHandScore  float64       `env:"GESTUREDROP_MIN_HAND_SCORE"  envDefault:"0.5"`
	PinchRatio    float64       `env:"GESTUREDROP_PINCH_RATIO"     envDefault:"0.25"`

	SessionTTL    time.Duration `env:"GESTUREDROP_SESSION_TTL"     envDefault:"10m"`
	SweepInterval time.Duration `env:"GESTUREDROP_SWEEP_INTERVAL"  envDefault:"1m"`
	MaxPayload    int           `env:"GESTUREDROP_MAX_PAYLOAD"     envDefault:"10485760"`

	QueueSize     int           `env:"GESTUREDROP_QUEUE_SIZE"      envDefault:"16"`
	OSBackend     string        `env:"GESTUREDROP_OS_BACKEND"      envDefault:"robot"`
	PluginDir     string        `env:"GESTUREDROP_PLUGIN_DIR"`
	PluginTimeout time.Duration `env:"GESTUREDROP_PLUGIN_TIMEOUT"  envDefault:"5s"`
	ScreenshotDir string        `env:"GESTUREDROP_SCREENSHOT_DIR"`
	SendShortcuts bool          `env:"GESTUREDROP_SEND_SHORTCUTS"  envDefault:"true"`
	KeepEvents    int           `env:"GESTUREDROP_KEEP_EVENTS"     envDefault:"1000"`

	DeviceName string `env:"GESTUREDROP_DEVICE_NAME"`
	Tray       bool   `env:"GESTUREDROP_TRAY"        envDefault:"true"`
}

// Load parses the environment, then args, then fills path defaults and
// validates the result.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("gesturedrop", pflag.ContinueOnError)
	cfg, err := Parse(fs, args)
	if err != nil {
		return Config{}, err
	}
	cfg.fillPaths()
	cfg.Validate()
	return cfg, nil
}

// Parse reads the environment into a Config and binds flags on fs, using
// the environment values as flag defaults.
func Parse(fs *pflag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the database and screenshots (default ~/.gesturedrop)")
	fs.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "directory with the viewer web app")

	fs.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device id")
	fs.Float64Var(&cfg.MotionThresh, "motion-thresh", cfg.MotionThresh, "percent of changed pixels that counts as motion")
	fs.BoolVar(&cfg.Sense, "sense", cfg.Sense, "run the camera sensing loop")

	fs.IntVar(&cfg.CommitFrames, "commit-frames", cfg.CommitFrames, "consecutive frames a gesture must hold")
	fs.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "quiet period after a gesture")
	fs.IntVar(&cfg.MinVisible, "min-visible", cfg.MinVisible, "landmarks that must be tracked to classify a frame")
	fs.Float64Var(&cfg.MinVisibility, "min-visibility", cfg.MinVisibility, "visibility at which a landmark counts as tracked")
	fs.Float64Var(&cfg.MinHandScore, "min-hand-score", cfg.MinHandScore, "minimum detector hand score")
	fs.Float64Var(&cfg.PinchRatio, "pinch-ratio", cfg.PinchRatio, "thumb-index distance, in palm widths, that counts as a pinch")

	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "drop device sessions idle this long")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often idle sessions are swept")
	fs.IntVar(&cfg.MaxPayload, "max-payload", cfg.MaxPayload, "largest clipboard payload in bytes, measured after base64 encoding for images")

	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "pending gesture actions before new ones are dropped")
	fs.StringVar(&cfg.OSBackend, "os", cfg.OSBackend, "OS backend: robot, plugin or none")
	fs.StringVar(&cfg.PluginDir, "plugin-dir", cfg.PluginDir, "directory with OS plugins (default <data-dir>/plugins)")
	fs.DurationVar(&cfg.PluginTimeout, "plugin-timeout", cfg.PluginTimeout, "timeout for one plugin call")
	fs.StringVar(&cfg.ScreenshotDir, "screenshot-dir", cfg.ScreenshotDir, "also save screenshots here (default <data-dir>/screenshots)")
	fs.BoolVar(&cfg.SendShortcuts, "shortcuts", cfg.SendShortcuts, "send copy/paste key chords around clipboard access")
	fs.IntVar(&cfg.KeepEvents, "keep-events", cfg.KeepEvents, "gesture events kept in the log (0 keeps all)")

	fs.StringVar(&cfg.DeviceName, "device", cfg.DeviceName, "origin name for locally produced clipboard entries (default hostname)")
	fs.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show the system tray icon")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillPaths() {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".gesturedrop")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = filepath.Join(c.DataDir, "screenshots")
	}
	if c.DeviceName == "" {
		if host, err := os.Hostname(); err == nil {
			c.DeviceName = host
		} else {
			c.DeviceName = "local"
		}
	}
}

// DBPath returns the sqlite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "gesturedrop.db")
}

// Validate clamps out-of-range values back to their defaults.
func (c *Config) Validate() {
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.MotionThresh <= 0 {
		c.MotionThresh = 1.0
	}
	if c.CommitFrames < 1 {
		log.Printf("commit frames %d out of range, using 3", c.CommitFrames)
		c.CommitFrames = 3
	}
	if c.Cooldown < 0 {
		c.Cooldown = time.Second
	}
	if c.MinVisible < 0 || c.MinVisible > 21 {
		log.Printf("min visible %d out of range, using 15", c.MinVisible)
		c.MinVisible = 15
	}
	if c.MinVisibility < 0 || c.MinVisibility > 1 {
		c.MinVisibility = 0.5
	}
	if c.MinHandScore < 0 || c.MinHandScore > 1 {
		c.MinHandScore = 0.5
	}
	if c.PinchRatio <= 0 {
		c.PinchRatio = 0.25
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 10 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.MaxPayload <= 0 {
		c.MaxPayload = 10 << 20
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
	switch c.OSBackend {
	case "robot", "plugin", "none":
	default:
		log.Printf("unknown OS backend %q, using robot", c.OSBackend)
		c.OSBackend = "robot"
	}
	if c.PluginTimeout <= 0 {
		c.PluginTimeout = 5 * time.Second
	}
	if c.KeepEvents < 0 {
		c.KeepEvents = 1000
	}
}
