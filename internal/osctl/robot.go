// Package osctl implements dispatch.OS against the local desktop.
package osctl

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/go-vgo/robotgo"
	"gocv.io/x/gocv"
	"golang.design/x/clipboard"

	"github.com/ayusman/gesturedrop/internal/dispatch"
)

// scrollStep is the number of wheel notches per scroll gesture.
const scrollStep = 10

// ErrClipboardUnavailable is returned when the OS clipboard could not be
// initialized (no display, missing X11 libraries).
var ErrClipboardUnavailable = errors.New("os clipboard unavailable")

// Robot drives the desktop in-process: robotgo for input and screen capture,
// golang.design/x/clipboard for the clipboard.
type Robot struct {
	mu       sync.Mutex
	modifier string
	clipErr  error
}

// NewRobot creates a Robot backend. A clipboard initialization failure is
// kept and reported by clipboard operations only, so scrolling still works.
func NewRobot() *Robot {
	r := &Robot{modifier: "ctrl"}
	if runtime.GOOS == "darwin" {
		r.modifier = "cmd"
	}
	if err := clipboard.Init(); err != nil {
		r.clipErr = fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return r
}

func (r *Robot) Scroll(ctx context.Context, dir dispatch.ScrollDirection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	robotgo.ScrollDir(scrollStep, string(dir))
	return nil
}

func (r *Robot) SwitchTab(ctx context.Context, dir dispatch.TabDirection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir == dispatch.TabPrevious {
		return robotgo.KeyTap("tab", "ctrl", "shift")
	}
	return robotgo.KeyTap("tab", "ctrl")
}

func (r *Robot) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	img, err := robotgo.CaptureImg()
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return encodePNG(img)
}

// encodePNG converts a captured image to PNG through gocv.
func encodePNG(img image.Image) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert screenshot: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func (r *Robot) ReadText(ctx context.Context) (string, error) {
	if r.clipErr != nil {
		return "", r.clipErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (r *Robot) WriteText(ctx context.Context, text string) error {
	if r.clipErr != nil {
		return r.clipErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (r *Robot) WriteImage(ctx context.Context, png []byte) error {
	if r.clipErr != nil {
		return r.clipErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (r *Robot) Shortcut(ctx context.Context, s dispatch.Shortcut) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var key string
	switch s {
	case dispatch.ShortcutCopy:
		key = "c"
	case dispatch.ShortcutPaste:
		key = "v"
	default:
		return fmt.Errorf("unknown shortcut %q", s)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return robotgo.KeyTap(key, r.modifier)
}
