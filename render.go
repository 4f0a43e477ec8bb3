package themepdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-themepdf/internal/logging"
	"github.com/alnah/go-themepdf/internal/process"
)

// Render defaults.
const (
	DefaultRenderTimeout = 60 * time.Second
	DefaultNetworkIdle   = 500 * time.Millisecond

	// teardownTimeout bounds each browser shutdown step.
	teardownTimeout = 5 * time.Second
)

// pdfMagic prefixes every PDF file.
var pdfMagic = []byte("%PDF-")

// renderInstance is one browser scoped to one job.
type renderInstance interface {
	PrintPDF(ctx context.Context, doc string, geom PageGeometry, idle time.Duration) ([]byte, error)
	Close() error
}

// launchConfig carries browser launch settings.
type launchConfig struct {
	bin       string
	noSandbox bool
}

// launchFunc starts a fresh browser for a single job.
type launchFunc func(ctx context.Context, cfg launchConfig) (renderInstance, error)

// Renderer turns Snapshots into A4 PDFs. Every call to Render launches its own
// headless browser and tears it down before returning, whatever the outcome.
// A Renderer holds no per-job state and is safe for concurrent use.
type Renderer struct {
	timeout    time.Duration
	idle       time.Duration
	geometry   PageGeometry
	browserBin string
	noSandbox  bool
	logger     *log.Logger
	limiter    *JobLimiter
	launch     launchFunc
}

// RenderOption configures a Renderer.
type RenderOption func(*Renderer)

// WithRenderTimeout sets the per-job budget covering launch, load and print.
// Panics if d <= 0.
func WithRenderTimeout(d time.Duration) RenderOption {
	if d <= 0 {
		panic(fmt.Sprintf("%v: %v", ErrInvalidTimeout, d))
	}
	return func(r *Renderer) {
		r.timeout = d
	}
}

// WithNetworkIdle sets the quiet window waited for before printing.
// Zero skips the network-idle wait.
func WithNetworkIdle(d time.Duration) RenderOption {
	return func(r *Renderer) {
		if d >= 0 {
			r.idle = d
		}
	}
}

// WithBrowserBin uses a pre-installed browser instead of rod's managed one.
func WithBrowserBin(path string) RenderOption {
	return func(r *Renderer) {
		r.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox (containers, CI).
func WithNoSandbox(v bool) RenderOption {
	return func(r *Renderer) {
		r.noSandbox = v
	}
}

// WithLogger sets the render logger.
func WithLogger(l *log.Logger) RenderOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithJobLimiter gates jobs through l. A nil limiter leaves jobs unbounded.
func WithJobLimiter(l *JobLimiter) RenderOption {
	return func(r *Renderer) {
		r.limiter = l
	}
}

// withLauncher replaces the browser launcher (tests).
func withLauncher(fn launchFunc) RenderOption {
	return func(r *Renderer) {
		r.launch = fn
	}
}

// NewRenderer creates a Renderer with A4 geometry and default timeouts.
func NewRenderer(opts ...RenderOption) *Renderer {
	r := &Renderer{
		timeout:  DefaultRenderTimeout,
		idle:     DefaultNetworkIdle,
		geometry: DefaultPageGeometry(),
		logger:   logging.Discard(),
		launch:   launchRod,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Pre-installed browser (Docker/containerized environments)
	if r.browserBin == "" {
		r.browserBin = os.Getenv("ROD_BROWSER_BIN")
	}
	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		r.noSandbox = true
	}
	return r
}

// Geometry returns the viewport and paper settings used for every job.
func (r *Renderer) Geometry() PageGeometry {
	return r.geometry
}

// Timeout returns the per-job budget.
func (r *Renderer) Timeout() time.Duration {
	return r.timeout
}

// Render assembles snap into a document, prints it in a fresh browser and
// returns the PDF bytes. The browser is closed on every exit path.
func (r *Renderer) Render(ctx context.Context, snap Snapshot) (pdf []byte, err error) {
	if snap.HTML == "" {
		return nil, ErrMissingHTML
	}

	timer := logging.Start(r.logger)
	defer func() {
		if rec := recover(); rec != nil {
			pdf, err = nil, fmt.Errorf("%w: panic during render: %v", ErrPDFGeneration, rec)
		}
		if err != nil {
			r.logger.Error("render failed", "err", err, "elapsed", timer.Elapsed())
			return
		}
		timer.Done("render complete", "bytes", len(pdf))
	}()

	// The budget covers the wait for a slot.
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.limiter != nil {
		release, err := r.limiter.Acquire(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s: waiting for a render slot", ErrRenderTimeout, r.timeout)
			}
			return nil, fmt.Errorf("%w: waiting for a render slot: %v", ErrPDFGeneration, err)
		}
		defer release()
	}

	doc := AssembleDocument(snap)

	inst, err := r.launch(ctx, launchConfig{bin: r.browserBin, noSandbox: r.noSandbox})
	if err != nil {
		return nil, r.classify(ctx, err)
	}
	defer func() {
		if cerr := inst.Close(); cerr != nil {
			r.logger.Warn("browser teardown", "err", cerr)
		}
	}()

	pdf, err = inst.PrintPDF(ctx, doc, r.geometry, r.idle)
	if err != nil {
		return nil, r.classify(ctx, err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, fmt.Errorf("%w: output does not start with %s", ErrInvalidPDF, pdfMagic)
	}
	return pdf, nil
}

// classify maps a job deadline to ErrRenderTimeout and leaves other errors intact.
func (r *Renderer) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrRenderTimeout, r.timeout, err)
	}
	return err
}

// Compile-time interface check.
var _ renderInstance = (*rodInstance)(nil)

// rodInstance is a launched Chrome process and its CDP connection.
type rodInstance struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	once     sync.Once
	closeErr error
}

// launchRod starts Chrome via rod's launcher and connects to it.
// Rod downloads Chromium on first run if no browser is found.
func launchRod(ctx context.Context, cfg launchConfig) (renderInstance, error) {
	l := launcher.New().Headless(true).Context(ctx)
	if cfg.bin != "" {
		l = l.Bin(cfg.bin)
	}
	if cfg.noSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		// Cleanup waits for process exit, which never comes on a failed launch.
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		inst := &rodInstance{launcher: l}
		_ = inst.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	return &rodInstance{launcher: l, browser: browser}, nil
}

// PrintPDF loads doc into a blank page sized to geom, waits for the network to
// settle and the load event, then prints with backgrounds and zero margins.
func (i *rodInstance) PrintPDF(ctx context.Context, doc string, geom PageGeometry, idle time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := i.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             geom.ViewportWidth,
		Height:            geom.ViewportHeight,
		DeviceScaleFactor: geom.DeviceScaleFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}

	var waitIdle func()
	if idle > 0 {
		waitIdle = page.WaitRequestIdle(idle, nil, nil, nil)
	}
	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if waitIdle != nil {
		waitIdle()
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// Check context after page load
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(geom.PaperWidth),
		PaperHeight:     floatPtr(geom.PaperHeight),
		MarginTop:       floatPtr(geom.Margin),
		MarginBottom:    floatPtr(geom.Margin),
		MarginLeft:      floatPtr(geom.Margin),
		MarginRight:     floatPtr(geom.Margin),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// Close terminates the browser and all its helper processes, then removes the
// profile directory. Safe to call more than once.
func (i *rodInstance) Close() error {
	i.once.Do(func() {
		var pid int
		if i.launcher != nil {
			pid = i.launcher.PID()
		}

		// Graceful close first, on a fresh context since the job's may be done.
		if i.browser != nil {
			i.closeErr = i.browser.Context(context.Background()).Timeout(teardownTimeout).Close()
		}

		if i.launcher == nil {
			return
		}
		if pid > 0 {
			process.KillProcessGroup(pid)
		}
		i.launcher.Kill()

		// Cleanup blocks until the process exits and removes the user-data dir.
		done := make(chan struct{})
		go func() {
			i.launcher.Cleanup()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(teardownTimeout):
		}
	})
	return i.closeErr
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
