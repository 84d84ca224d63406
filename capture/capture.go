// Package capture turns a live Polymarket market or event page into a
// fixed-aspect-ratio share image. It orchestrates Chrome headless as a
// disposable component: resolve the canonical target, navigate, classify the
// page layout, run the ordered DOM-transformation passes, fit the content
// stack to the export canvas, and screenshot.
//
// Parallelism exists only across requests, each bound to its own page inside
// the shared browser and gated by the admission controller. Within one
// request everything is strictly sequential.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/admission"
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/browser"
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/config"
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/layout"
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/pagemode"
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/rules"
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/target"
	"github.com/parkermclaren/polymarket-screenshotter/idgen"
	"github.com/parkermclaren/polymarket-screenshotter/kit"
	"github.com/parkermclaren/polymarket-screenshotter/observability"
)

// productionSessionVersion pins the browser session key outside development.
// Development keys on the rule-set content hash instead, so a script edit
// hot-swaps the session without a process restart.
const productionSessionVersion = "production"

// Service is the capture orchestrator. Create one per process.
type Service struct {
	cfg    *config.Config
	log    *slog.Logger
	adm    *admission.Controller
	cache  *browser.SessionCache
	events *observability.EventLogger
	newID  idgen.Generator
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEventLogger attaches the SQLite capture audit log.
func WithEventLogger(l *observability.EventLogger) Option {
	return func(s *Service) { s.events = l }
}

// WithEngineFactory replaces the Rod engine factory; tests inject scripted
// engines through this.
func WithEngineFactory(f browser.Factory) Option {
	return func(s *Service) { s.cache = browser.NewSessionCache(f, s.log) }
}

// WithIDGenerator replaces the request ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Service) { s.newID = gen }
}

// New creates a Service from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cfg:   cfg,
		log:   logger,
		adm:   admission.NewController(cfg.Capture.MaxConcurrent),
		newID: idgen.Prefixed("cap_", idgen.Default),
		now:   time.Now,
	}
	s.cache = browser.NewSessionCache(func(ctx context.Context) (browser.Engine, error) {
		return browser.LaunchRod(ctx, browser.RodConfig{
			RemoteURL:         cfg.Browser.Remote,
			Stealth:           cfg.Browser.Stealth == nil || *cfg.Browser.Stealth,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			Logger:            logger,
		})
	}, logger)

	for _, o := range opts {
		o(s)
	}
	return s
}

// Close tears down the cached browser session.
func (s *Service) Close() error {
	return s.cache.Close()
}

// sessionVersion returns the session cache key for this rule set.
func (s *Service) sessionVersion() string {
	if s.cfg.Capture.Development {
		return rules.Fingerprint()
	}
	return productionSessionVersion
}

// Capture runs one request to completion. Terminal failures come back as a
// tagged Result, never as a panic; Err is nil exactly when Success is true.
func (s *Service) Capture(ctx context.Context, req Request) Result {
	start := s.now()
	// Transports that already stamped a request id on the context (the MCP
	// layer does) keep it; otherwise one is minted here.
	reqID := kit.GetRequestID(ctx)
	if reqID == "" {
		reqID = s.newID()
	}
	log := s.log.With("request_id", reqID, "transport", kit.GetTransport(ctx))

	if err := req.normalize(); err != nil {
		return s.fail(ctx, log, req, start, reqID, "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	tgt, err := target.Resolve(req.SourceURL)
	if err != nil {
		return s.fail(ctx, log, req, start, reqID, "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	slot, err := s.adm.Acquire(ctx)
	if err != nil {
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, "", fmt.Errorf("capture: admission: %w", err))
	}
	defer slot.Release()

	session, err := s.cache.Get(ctx, s.sessionVersion())
	if err != nil {
		if errors.Is(err, browser.ErrCacheClosed) {
			err = fmt.Errorf("%w: %v", ErrEngineUninitialized, err)
		}
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, "", err)
	}

	page, err := session.Engine.NewPage(ctx)
	if err != nil {
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, "", &CaptureError{Stage: "new page", Err: err})
	}
	defer page.Close()

	width := s.cfg.Capture.WidthPx
	scale := s.cfg.Capture.Scale
	canvasH := req.canvasHeight(width)

	if err := page.SetViewport(ctx, browser.Viewport{Width: width, Height: canvasH, Scale: scale}); err != nil {
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, "", &CaptureError{Stage: "viewport", Err: err})
	}

	if err := page.Navigate(ctx, tgt.NavigationURL); err != nil {
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, "", &NavigationError{URL: tgt.NavigationURL, Err: err})
	}

	s.awaitReadiness(ctx, log, page)

	decision := s.resolveMode(ctx, log, page, tgt)
	log.Info("capture: page mode resolved",
		"mode", decision.Mode.String(), "slug", tgt.EventSlug,
		"degraded", decision.Degraded, "ambiguous", decision.Ambiguous)

	env := &rules.Env{
		Page:          page,
		Log:           log,
		TimeRange:     req.TimeRange,
		Watermark:     req.Watermark,
		InvestmentUSD: req.Payout.InvestmentUSD,
		DebugLayout:   req.DebugLayout,
		OutcomeLabel:  decision.OutcomeLabel,
		OutcomeIndex:  decision.OutcomeIndex,
	}

	for _, r := range rules.Base() {
		r.Apply(ctx, env)
	}
	switch decision.Mode {
	case pagemode.NestedOutcome:
		rules.OutcomeFilter().Apply(ctx, env)
	case pagemode.MultiOutcomeEvent:
		rules.EventCTA().Apply(ctx, env)
	}

	// Geometry snapshot after the structural passes; it is stale the moment
	// any further mutation runs, so fit planning happens immediately.
	snap, err := layout.Probe(ctx, page)
	if err != nil {
		log.Warn("capture: geometry probe degraded", "error", err)
	}
	plan := layout.Fit(snap, layout.FitOptions{
		Nested:           decision.Mode == pagemode.NestedOutcome,
		MultiOutcome:     decision.Mode == pagemode.MultiOutcomeEvent,
		CTAHeightPx:      rules.TradeCTAHeightPx,
		ViewportHeightPx: canvasH,
	})
	if err := plan.Apply(ctx, page, width, scale); err != nil {
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, decision.Mode.String(), &CaptureError{Stage: "fit", Err: err})
	}

	// The time-range click re-renders the chart and drops inline styles; the
	// affected passes are idempotent, so re-applying is safe.
	if env.TimeRangeChanged {
		rules.AxisRestyle().Apply(ctx, env)
		rules.WatermarkInjection().Apply(ctx, env)
	}

	if req.DebugLayout {
		if err := layout.DrawDebugOutlines(ctx, page, snap); err != nil {
			log.Warn("capture: debug outlines degraded", "error", err)
		}
	}

	if _, err := page.Eval(ctx, `() => window.scrollTo(0, 0)`); err != nil {
		log.Warn("capture: scroll reset degraded", "error", err)
	}

	img, err := page.Screenshot(ctx)
	if err != nil {
		return s.fail(ctx, log, req, start, reqID, tgt.EventSlug, decision.Mode.String(), &CaptureError{Stage: "screenshot", Err: err})
	}

	title := s.extractTitle(ctx, log, page)
	fileName := fmt.Sprintf("polymarket-%s-%d.png", tgt.EventSlug, s.now().UnixMilli())

	s.audit(ctx, observability.CaptureEvent{
		RequestID: reqID,
		SourceURL: req.SourceURL,
		EventSlug: tgt.EventSlug,
		PageMode:  decision.Mode.String(),
		Aspect:    string(req.Aspect),
		TimeRange: req.TimeRange,
		Watermark: req.Watermark,
		Success:   true,
		Duration:  s.now().Sub(start),
		ImageSize: len(img),
	})
	log.Info("capture: done",
		"slug", tgt.EventSlug, "bytes", len(img), "file", fileName,
		"duration", s.now().Sub(start))

	return Result{
		ImageBytes:  img,
		FileName:    fileName,
		MarketTitle: title,
		SourceURL:   req.SourceURL,
		Success:     true,
	}
}

// awaitReadiness waits for the structural signals independently, each
// bounded. A missing signal degrades the capture, it does not fail it: the
// pipeline is tuned to one site and prefers reduced fidelity over an error.
func (s *Service) awaitReadiness(ctx context.Context, log *slog.Logger, page browser.Page) {
	selectors := map[string]string{
		"title": "h1",
		"chart": "svg",
		"buy":   "button",
	}
	for name, sel := range selectors {
		waitCtx, cancel := context.WithTimeout(ctx, s.cfg.Capture.ReadinessTimeout)
		if err := page.WaitSelector(waitCtx, sel); err != nil {
			log.Warn("capture: readiness signal missing", "signal", name, "error", err)
		}
		cancel()
	}

	// Fonts repaint text metrics; capturing before they settle shifts the
	// fitted layout. Bounded, degrades on expiry.
	fontCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := page.Eval(fontCtx, `() => document.fonts.ready.then(() => true)`); err != nil {
		log.Warn("capture: font settle degraded", "error", err)
	}
}

// resolveMode classifies the page from observed structure, falling back to
// the event-level layout when a requested nested outcome cannot be matched.
func (s *Service) resolveMode(ctx context.Context, log *slog.Logger, page browser.Page, tgt target.Target) pagemode.Decision {
	obs, err := pagemode.Observe(ctx, page)
	if err != nil {
		log.Warn("capture: structure probe degraded, assuming single market", "error", err)
		return pagemode.Decision{Mode: pagemode.SingleMarket}
	}

	d := pagemode.Decide(obs, tgt.NestedOutcomeSlug)
	if d.Degraded {
		log.Warn("capture: nested outcome not found in legend, degrading to event mode",
			"nested_slug", tgt.NestedOutcomeSlug)
	}
	if d.Ambiguous {
		log.Warn("capture: nested outcome slug matched several legend entries, keeping first",
			"nested_slug", tgt.NestedOutcomeSlug, "kept", d.OutcomeLabel)
	}
	return d
}

func (s *Service) fail(ctx context.Context, log *slog.Logger, req Request, start time.Time, reqID, slug, mode string, err error) Result {
	log.Error("capture: failed", "url", req.SourceURL, "error", err)
	s.audit(ctx, observability.CaptureEvent{
		RequestID: reqID,
		SourceURL: req.SourceURL,
		EventSlug: slug,
		PageMode:  mode,
		Aspect:    string(req.Aspect),
		TimeRange: req.TimeRange,
		Watermark: req.Watermark,
		Success:   false,
		Error:     err.Error(),
		Duration:  s.now().Sub(start),
	})
	return Result{SourceURL: req.SourceURL, Success: false, Err: err}
}

func (s *Service) audit(ctx context.Context, ev observability.CaptureEvent) {
	if s.events == nil {
		return
	}
	s.events.LogCapture(ctx, ev)
}
