// File: internal/engine/page.go
package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/humanoid"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is one browser tab scoped to a single tool call. Pages are
// never shared between calls; Close discards the tab and everything
// in it.
type Page struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	engine *Engine
	sim    *humanoid.Humanoid
}

// newPage opens a fresh tab, applies the default user agent and
// viewport, and wires a humanoid simulator to it. The tab is torn
// down if callerCtx is cancelled before Close.
func (e *Engine) newPage(callerCtx context.Context) (*Page, error) {
	if err := e.EnsureStarted(callerCtx); err != nil {
		return nil, err
	}

	e.mu.Lock()
	browserCtx := e.browserCtx
	e.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	pageID := uuid.New().String()
	p := &Page{
		id:     pageID,
		ctx:    tabCtx,
		cancel: tabCancel,
		logger: e.logger.Named("page").With(zap.String("page_id", pageID[:8])),
		engine: e,
	}

	// Propagate caller cancellation into the tab. The tab context
	// descends from the browser, not the caller, so this bridge is
	// what ties the two lifetimes together.
	go func() {
		select {
		case <-callerCtx.Done():
			tabCancel()
		case <-tabCtx.Done():
		}
	}()

	ua := e.cfg.Browser.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	if err := p.Run(callerCtx,
		emulation.SetUserAgentOverride(ua),
		chromedp.EmulateViewport(int64(e.cfg.Browser.ViewportWidth), int64(e.cfg.Browser.ViewportHeight)),
	); err != nil {
		tabCancel()
		return nil, fmt.Errorf("prepare page: %w", err)
	}

	p.sim = humanoid.New(e.cfg.Browser.Humanoid, &cdpExecutor{page: p}, p.logger, rand.New(rand.NewSource(time.Now().UnixNano())))
	return p, nil
}

// Close discards the tab.
func (p *Page) Close() {
	p.cancel()
}

// Run executes chromedp actions on this tab, honoring callerCtx
// cancellation.
func (p *Page) Run(callerCtx context.Context, actions ...chromedp.Action) error {
	if err := callerCtx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.ctx, actions...)
}

// Navigate loads url and waits for the load to settle. The simulated
// cursor resets to the viewport origin: a navigation replaces the
// document, so any previously tracked position is meaningless.
func (p *Page) Navigate(callerCtx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(callerCtx, timeout)
	defer cancel()
	if err := p.Run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if p.sim != nil {
		p.sim.SetPosition(humanoid.Point{})
	}
	return nil
}

// Location returns the page's current URL after redirects.
func (p *Page) Location(callerCtx context.Context) (string, error) {
	var loc string
	if err := p.Run(callerCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

// HTML returns the full serialized document.
func (p *Page) HTML(callerCtx context.Context) (string, error) {
	var html string
	if err := p.Run(callerCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// Screenshot captures the viewport (or the whole page) as a
// data:image/png;base64 URI.
func (p *Page) Screenshot(callerCtx context.Context, fullPage bool) (string, error) {
	var buf []byte
	var action chromedp.Action
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}
	if err := p.Run(callerCtx, action); err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf), nil
}

// Evaluate runs script in the page and decodes its result into out.
// Pass nil when the result does not matter.
func (p *Page) Evaluate(callerCtx context.Context, script string, out any) error {
	opts := func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}
	var action chromedp.Action
	if out == nil {
		action = chromedp.Evaluate(script, nil, opts)
	} else {
		action = chromedp.Evaluate(script, out, opts)
	}
	if err := p.Run(callerCtx, action); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// WaitVisible waits until selector is visible, up to timeout.
func (p *Page) WaitVisible(callerCtx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(callerCtx, timeout)
	defer cancel()
	return p.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Click dispatches a plain (non-simulated) click on selector.
func (p *Page) Click(callerCtx context.Context, selector string) error {
	return p.Run(callerCtx, chromedp.Click(selector, chromedp.ByQuery))
}

// TypeText feeds keystrokes through the input simulator. The target
// element must already hold focus.
func (p *Page) TypeText(callerCtx context.Context, text string) error {
	return p.sim.TypeText(callerCtx, text)
}

// Cookies reads every cookie visible to the browser.
func (p *Page) Cookies(callerCtx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := p.Run(callerCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return cookies, nil
}

// SetCookies restores previously saved cookies into this tab.
func (p *Page) SetCookies(callerCtx context.Context, cookies []*network.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
		})
	}
	err := p.Run(callerCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("restore cookies: %w", err)
	}
	return nil
}

// SetUserAgent overrides the tab's user agent.
func (p *Page) SetUserAgent(callerCtx context.Context, ua string) error {
	return p.Run(callerCtx, emulation.SetUserAgentOverride(ua))
}

// UserAgent reports the user agent the page is presenting.
func (p *Page) UserAgent(callerCtx context.Context) (string, error) {
	var ua string
	if err := p.Evaluate(callerCtx, "navigator.userAgent", &ua); err != nil {
		return "", err
	}
	return ua, nil
}

// Reload reloads the current document and waits for it to settle. The
// simulated cursor resets to the origin, same as after a navigation.
func (p *Page) Reload(callerCtx context.Context) error {
	err := p.Run(callerCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.Reload().Do(ctx)
	}), chromedp.WaitReady("body"))
	if err != nil {
		return err
	}
	if p.sim != nil {
		p.sim.SetPosition(humanoid.Point{})
	}
	return nil
}

// SendShortcut presses key with an optional Ctrl modifier, as a
// keydown/keyup pair.
func (p *Page) SendShortcut(callerCtx context.Context, key string, ctrl bool) error {
	var mods input.Modifier
	if ctrl {
		mods = input.ModifierCtrl
	}
	keyDown := input.DispatchKeyEvent(input.KeyDown).WithModifiers(mods).WithKey(key)
	keyUp := input.DispatchKeyEvent(input.KeyUp).WithModifiers(mods).WithKey(key)
	return p.Run(callerCtx, keyDown, keyUp)
}

func viewportAction(width, height int) chromedp.Action {
	return chromedp.EmulateViewport(int64(width), int64(height))
}

// cdpExecutor adapts a Page to the humanoid.Executor interface so the
// simulator stays free of CDP types.
type cdpExecutor struct {
	page *Page
}

var _ humanoid.Executor = (*cdpExecutor)(nil)

func (e *cdpExecutor) DispatchMouseEvent(ctx context.Context, ev humanoid.MouseEvent) error {
	p := input.DispatchMouseEvent(input.MouseType(ev.Type), ev.X, ev.Y).
		WithButton(input.MouseButton(ev.Button)).
		WithButtons(ev.Buttons).
		WithClickCount(int64(ev.ClickCount))
	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.page.Run(opCtx, p)
}

func (e *cdpExecutor) SendKeys(ctx context.Context, keys string) error {
	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.page.Run(opCtx, chromedp.KeyEvent(keys))
}

func (e *cdpExecutor) Sleep(ctx context.Context, d time.Duration) error {
	return e.page.Run(ctx, chromedp.Sleep(d))
}
