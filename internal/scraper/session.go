package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Manager creates browser sessions. Each batch owns exactly one session for
// its whole lifetime; sessions are never shared or pooled.
type Manager struct {
	options *Options
}

// NewManager creates a session manager with the given options.
func NewManager(options *Options) *Manager {
	if options == nil {
		options = DefaultOptions()
	}
	return &Manager{options: options}
}

// Session is a single live headless browser handle. It must be closed
// exactly once via Close; closing an already-dead session is harmless.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// Open starts a new browser and verifies it responds. A failure here is
// fatal for the whole batch: no records can be produced without a session.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, m.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Verify Chrome actually started before handing the session out.
	probeCtx, probeCancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer probeCancel()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	return &Session{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
	}, nil
}

// Close tears the browser down. Errors during teardown are swallowed;
// a session that already died is not a failure to close.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
}

// Alive reports whether the browser context is still usable.
func (s *Session) Alive() bool {
	return s.ctx.Err() == nil
}

// Context returns the browser context for running chromedp tasks.
func (s *Session) Context() context.Context {
	return s.ctx
}

// allocatorOptions builds Chrome allocator options from the configuration.
func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.UserAgent(m.options.UserAgent),
		chromedp.WindowSize(int(m.options.ViewportWidth), int(m.options.ViewportHeight)),
		chromedp.NoSandbox, // needed in containerized environments
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}

	if m.options.Headless {
		opts = append(opts, chromedp.Headless)
	}

	// The lookup site is plain HTML; skipping images speeds navigation up.
	opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))

	return opts
}

// ValidateChromeAvailable checks whether a Chrome/Chromium binary can be
// launched at all. Called at server startup so a missing browser shows up
// in the logs before the first lookup request fails.
func ValidateChromeAvailable() error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	testCtx, testCancel := context.WithTimeout(ctx, 10*time.Second)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("Chrome/Chromium not available or not working: %w", err)
	}

	return nil
}
