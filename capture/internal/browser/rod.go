package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodConfig configures the Rod-backed engine.
type RodConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Stealth applies the stealth evasions to every new page. Polymarket
	// serves a degraded shell to obvious automation, so this defaults on.
	Stealth bool

	// NavigationTimeout bounds Navigate. Default: 30s.
	NavigationTimeout time.Duration

	Logger *slog.Logger
}

func (c *RodConfig) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type rodEngine struct {
	cfg     RodConfig
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// LaunchRod starts (or connects to) Chrome and returns the engine handle.
// ctx is the engine's lifetime, not any request's: the session cache passes
// its own context here and cancels it when the cache closes.
func LaunchRod(ctx context.Context, cfg RodConfig) (Engine, error) {
	cfg.defaults()
	log := cfg.Logger

	var wsURL string
	var lnch *launcher.Launcher

	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		lnch = l
		log.Info("browser: launched local chrome", "url", wsURL)
	}

	// The browser is bound to its lifetime context, never to a request's;
	// per-call operations are ctx-bound on the page instead.
	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &rodEngine{cfg: cfg, browser: b, lnch: lnch}, nil
}

func (e *rodEngine) NewPage(ctx context.Context) (Page, error) {
	var page *rod.Page
	var err error

	if e.cfg.Stealth {
		page, err = stealth.Page(e.browser)
	} else {
		page, err = e.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	return &rodPage{page: page, cfg: e.cfg}, nil
}

func (e *rodEngine) Close() error {
	if e.browser != nil {
		e.browser.Close()
	}
	if e.lnch != nil {
		e.lnch.Cleanup()
	}
	return nil
}

type rodPage struct {
	page *rod.Page
	cfg  RodConfig
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := p.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}

	// The load event can lag on chart-heavy pages; readiness is verified by
	// the orchestrator's selector waits, so a timeout here is not fatal.
	if err := p.page.Context(navCtx).WaitLoad(); err != nil {
		p.cfg.Logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

func (p *rodPage) WaitSelector(ctx context.Context, selector string) error {
	if _, err := p.page.Context(ctx).Element(selector); err != nil {
		return fmt.Errorf("browser: wait selector %q: %w", selector, err)
	}
	return nil
}

func (p *rodPage) Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("browser: eval: %w", err)
	}
	raw, err := json.Marshal(res.Value)
	if err != nil {
		return nil, fmt.Errorf("browser: eval result: %w", err)
	}
	return raw, nil
}

func (p *rodPage) Poll(ctx context.Context, js string, args ...any) error {
	if err := p.page.Context(ctx).Wait(rod.Eval(js, args...)); err != nil {
		return fmt.Errorf("browser: poll: %w", err)
	}
	return nil
}

func (p *rodPage) Click(ctx context.Context, js string, args ...any) error {
	el, err := p.page.Context(ctx).ElementByJS(rod.Eval(js, args...))
	if err != nil {
		return fmt.Errorf("browser: locate for click: %w", err)
	}
	if err := el.ScrollIntoView(); err != nil {
		p.cfg.Logger.Warn("browser: scroll into view failed", "error", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}

func (p *rodPage) SetViewport(ctx context.Context, vp Viewport) error {
	scale := vp.Scale
	if scale <= 0 {
		scale = 1
	}
	err := p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: scale,
		Mobile:            false,
	})
	if err != nil {
		return fmt.Errorf("browser: set viewport: %w", err)
	}
	return nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	bin, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return bin, nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: html: %w", err)
	}
	return html, nil
}

func (p *rodPage) Close() error {
	if p.page != nil {
		return p.page.Close()
	}
	return nil
}
