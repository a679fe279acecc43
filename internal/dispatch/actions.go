package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/gesturedrop/internal/clipboard"
	"github.com/ayusman/gesturedrop/internal/gesture"
)

var errNoOS = errors.New("no OS backend configured")

func (d *Dispatcher) scroll(ctx context.Context, dir ScrollDirection) Result {
	if d.os == nil {
		return Result{Outcome: OutcomeSkipped, Err: errNoOS}
	}
	if err := d.os.Scroll(ctx, dir); err != nil {
		return failed(fmt.Errorf("scroll %s: %w", dir, err))
	}
	return Result{Outcome: OutcomeOK, Detail: string(dir)}
}

func (d *Dispatcher) switchTab(ctx context.Context, pointing gesture.Direction) Result {
	if d.os == nil {
		return Result{Outcome: OutcomeSkipped, Err: errNoOS}
	}
	dir := TabNext
	if pointing == gesture.DirectionLeft {
		dir = TabPrevious
	}
	if err := d.os.SwitchTab(ctx, dir); err != nil {
		return failed(fmt.Errorf("switch tab %s: %w", dir, err))
	}
	return Result{Outcome: OutcomeOK, Detail: string(dir)}
}

func (d *Dispatcher) screenshot(ctx context.Context) Result {
	if d.os == nil {
		return Result{Outcome: OutcomeSkipped, Err: errNoOS}
	}
	png, err := d.os.Screenshot(ctx)
	if err != nil {
		return failed(fmt.Errorf("screenshot: %w", err))
	}
	if len(png) == 0 {
		return failed(errors.New("screenshot: empty image"))
	}

	var detail string
	if d.screenshotDir != "" {
		path, err := d.saveScreenshot(png)
		if err != nil {
			// The shared entry is still worth writing.
			detail = err.Error()
		} else {
			detail = path
		}
	}

	res := d.write(clipboard.NewImage(png))
	if res.Detail == "" {
		res.Detail = detail
	}
	return res
}

func (d *Dispatcher) saveScreenshot(png []byte) (string, error) {
	if err := os.MkdirAll(d.screenshotDir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	name := fmt.Sprintf("screenshot_%s.png", d.now().Format("20060102_150405.000"))
	path := filepath.Join(d.screenshotDir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return path, nil
}

func (d *Dispatcher) copy(ctx context.Context) Result {
	if d.os == nil {
		return Result{Outcome: OutcomeSkipped, Err: errNoOS}
	}
	if d.shortcuts {
		if err := d.os.Shortcut(ctx, ShortcutCopy); err != nil {
			return failed(fmt.Errorf("copy shortcut: %w", err))
		}
		if err := sleep(ctx, d.copyDelay); err != nil {
			return failed(err)
		}
	}

	text, err := d.os.ReadText(ctx)
	if err != nil {
		return failed(fmt.Errorf("read clipboard: %w", err))
	}
	if text == "" {
		return Result{Outcome: OutcomeSkipped, Detail: "clipboard empty"}
	}
	return d.write(clipboard.NewText(text))
}

func (d *Dispatcher) paste(ctx context.Context) Result {
	current := d.clip.Read()
	if current.IsEmpty() {
		return Result{Outcome: OutcomeSkipped, Detail: "nothing shared"}
	}
	if d.os == nil {
		return Result{Outcome: OutcomeSkipped, Err: errNoOS}
	}

	switch current.Kind {
	case clipboard.KindImage:
		data, err := current.Bytes()
		if err != nil {
			return failed(fmt.Errorf("decode shared image: %w", err))
		}
		if err := d.os.WriteImage(ctx, data); err != nil {
			return failed(fmt.Errorf("write image to clipboard: %w", err))
		}
	default:
		if err := d.os.WriteText(ctx, current.Payload); err != nil {
			return failed(fmt.Errorf("write text to clipboard: %w", err))
		}
	}

	if d.shortcuts {
		if err := d.os.Shortcut(ctx, ShortcutPaste); err != nil {
			return failed(fmt.Errorf("paste shortcut: %w", err))
		}
	}
	return Result{Outcome: OutcomeOK, Version: current.Version, Detail: string(current.Kind)}
}

// write submits a locally produced entry at the next version.
func (d *Dispatcher) write(e clipboard.Entry) Result {
	e.Origin = d.device
	e.Version = d.clip.Version() + 1

	accepted, err := d.clip.Write(e)
	switch {
	case errors.Is(err, clipboard.ErrStaleWrite):
		return Result{Outcome: OutcomeStale, Err: err}
	case err != nil:
		return failed(fmt.Errorf("write clipboard: %w", err))
	}
	return Result{Outcome: OutcomeOK, Version: accepted.Version}
}

func failed(err error) Result {
	return Result{Outcome: OutcomeError, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func versionSuffix(v uint64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf(" (clipboard v%d)", v)
}
