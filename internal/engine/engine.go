// File: internal/engine/engine.go
// Package engine drives the Brave browser over CDP. One Engine wraps
// one lazily launched browser process; every tool call gets its own
// tab that is closed when the call finishes.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Tamas54/bravectl/internal/config"
	"github.com/Tamas54/bravectl/internal/extract"
	"github.com/Tamas54/bravectl/internal/session"
)

// Engine owns the browser process and executes every automation
// operation. The browser is not launched until the first operation
// needs it; concurrent first calls share a single launch.
type Engine struct {
	cfg       *config.Config
	logger    *zap.Logger
	sessions  *session.Store
	extractor *extract.Extractor

	mu            sync.Mutex
	started       bool
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	launchGroup singleflight.Group
	launch      func(ctx context.Context) error

	rngMu sync.Mutex
	rng   *rand.Rand

	// crawlFetch is what the crawl frontier calls per URL. Tests swap
	// it for a fake so crawling needs no browser.
	crawlFetch func(ctx context.Context, url string) (*ScrapeResult, error)
}

// New builds an Engine. The browser is not launched here.
func New(cfg *config.Config, store *session.Store, logger *zap.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		logger:    logger.Named("engine"),
		sessions:  store,
		extractor: extract.New(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.launch = e.doLaunch
	e.crawlFetch = func(ctx context.Context, url string) (*ScrapeResult, error) {
		return e.Scrape(ctx, url, ScrapeOptions{IncludeLinks: true})
	}
	return e
}

// EnsureStarted launches the browser if it is not already running.
// Concurrent callers during a cold start are collapsed into exactly
// one launch; losers wait for the winner's outcome.
func (e *Engine) EnsureStarted(ctx context.Context) error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if started {
		return nil
	}

	_, err, _ := e.launchGroup.Do("launch", func() (any, error) {
		e.mu.Lock()
		if e.started {
			e.mu.Unlock()
			return nil, nil
		}
		e.mu.Unlock()
		return nil, e.launch(ctx)
	})
	return err
}

func (e *Engine) doLaunch(ctx context.Context) error {
	execPath := e.cfg.Browser.ExecutablePath
	if execPath == "" {
		detected, err := DetectBravePath()
		if err != nil {
			return err
		}
		execPath = detected
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", e.cfg.Browser.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-features", "site-per-process"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	// The browser outlives the call that happened to launch it, so
	// its contexts hang off Background rather than the caller's ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			e.logger.Debug(fmt.Sprintf(format, args...))
		}))

	// Connect now so launch failures surface here, not on the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("launch browser at %s: %w", execPath, err)
	}

	e.mu.Lock()
	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel
	e.started = true
	e.mu.Unlock()

	e.logger.Info("Browser launched",
		zap.String("path", execPath),
		zap.Bool("headless", e.cfg.Browser.Headless))
	return nil
}

// Shutdown closes the browser process. Safe to call when the browser
// never started.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		e.browserCancel()
		e.allocCancel()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	e.started = false
	e.logger.Info("Browser closed")
	return nil
}

// bravePaths lists well-known install locations per platform.
var bravePaths = map[string][]string{
	"windows": {
		`C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`,
		`C:\Program Files (x86)\BraveSoftware\Brave-Browser\Application\brave.exe`,
	},
	"darwin": {
		"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
	},
	"linux": {
		"/usr/bin/brave-browser",
		"/usr/bin/brave",
		"/snap/bin/brave",
	},
}

// DetectBravePath probes the platform's usual Brave install locations
// and returns the first executable that exists.
func DetectBravePath() (string, error) {
	paths, ok := bravePaths[runtime.GOOS]
	if !ok {
		paths = bravePaths["linux"]
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrBrowserNotFound
}

func (e *Engine) randFloat() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) randIntn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// humanDelay sleeps a random duration between min and max. It is a
// no-op when humanized input is disabled.
func (e *Engine) humanDelay(ctx context.Context, min, max time.Duration) error {
	if !e.cfg.Browser.Humanoid.Enabled {
		return nil
	}
	d := min + time.Duration(e.randFloat()*float64(max-min))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
