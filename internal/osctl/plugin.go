package osctl

import (
	"context"
	"fmt"

	"github.com/ayusman/gesturedrop/internal/dispatch"
	"github.com/ayusman/gesturedrop/internal/plugin"
)

// Plugins routes each OS primitive to the discovered plugin that declares
// the matching action.
type Plugins struct {
	manager  *plugin.Manager
	executor *plugin.Executor
}

// NewPlugins creates a plugin-backed OS. The manager should already have
// run Discover.
func NewPlugins(manager *plugin.Manager, executor *plugin.Executor) *Plugins {
	return &Plugins{manager: manager, executor: executor}
}

func (p *Plugins) call(ctx context.Context, action string, params, out any) error {
	plug, err := p.manager.ForAction(action)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if ev, ok := dispatch.EventFromContext(ctx); ok {
		ctx = plugin.WithGesture(ctx, string(ev.Label))
	}
	return p.executor.Call(ctx, plug, action, params, out)
}

func (p *Plugins) Scroll(ctx context.Context, dir dispatch.ScrollDirection) error {
	return p.call(ctx, plugin.ActionScroll, plugin.DirectionParams{Direction: string(dir)}, nil)
}

func (p *Plugins) SwitchTab(ctx context.Context, dir dispatch.TabDirection) error {
	return p.call(ctx, plugin.ActionSwitchTab, plugin.DirectionParams{Direction: string(dir)}, nil)
}

func (p *Plugins) Screenshot(ctx context.Context) ([]byte, error) {
	var img plugin.ImageData
	if err := p.call(ctx, plugin.ActionScreenshot, nil, &img); err != nil {
		return nil, err
	}
	return img.PNG, nil
}

func (p *Plugins) ReadText(ctx context.Context) (string, error) {
	var data plugin.ClipboardData
	if err := p.call(ctx, plugin.ActionClipboardRead, nil, &data); err != nil {
		return "", err
	}
	return data.Text, nil
}

func (p *Plugins) WriteText(ctx context.Context, text string) error {
	return p.call(ctx, plugin.ActionClipboardWrite, plugin.ClipboardData{Text: text}, nil)
}

func (p *Plugins) WriteImage(ctx context.Context, png []byte) error {
	return p.call(ctx, plugin.ActionClipboardWrite, plugin.ClipboardData{Image: png}, nil)
}

func (p *Plugins) Shortcut(ctx context.Context, s dispatch.Shortcut) error {
	return p.call(ctx, plugin.ActionShortcut, plugin.ShortcutParams{Name: string(s)}, nil)
}
