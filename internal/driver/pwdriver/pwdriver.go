// Package pwdriver implements the driver interfaces on playwright-go.
//
// Playwright calls are not context-aware, so every method checks ctx before
// calling into Playwright and bounds the call with the page default timeout.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/playwright-community/playwright-go"
)

// Options configure Launch.
type Options struct {
	// Browser is chrome, firefox or edge.
	Browser  string
	Headless bool
	// RemoteURL connects to a running Playwright server (ws://) or a Chrome
	// DevTools endpoint (http://) instead of launching a browser.
	RemoteURL         string
	ViewportWidth     int
	ViewportHeight    int
	UserAgent         string
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
}

// Browser is a Playwright page session. It implements driver.Browser and
// driver.WindowManager.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	mu      sync.Mutex
	page    playwright.Page
	handles map[playwright.Page]string
	nextID  int
}

var (
	_ driver.Browser       = (*Browser)(nil)
	_ driver.WindowManager = (*Browser)(nil)
)

// Launch starts Playwright and opens one page in a fresh browser context.
func Launch(opts Options) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.DriverFault, "start playwright", err)
	}

	b, err := launchBrowser(pw, opts)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, errs.Wrap(errs.DriverFault, "create browser context", err)
	}
	if opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(float64(opts.ActionTimeout.Milliseconds()))
	}
	if opts.NavigationTimeout > 0 {
		bctx.SetDefaultNavigationTimeout(float64(opts.NavigationTimeout.Milliseconds()))
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		_ = pw.Stop()
		return nil, errs.Wrap(errs.DriverFault, "open page", err)
	}

	d := &Browser{
		pw:      pw,
		browser: b,
		context: bctx,
		page:    page,
		handles: map[playwright.Page]string{},
	}
	d.handleFor(page)
	return d, nil
}

func launchBrowser(pw *playwright.Playwright, opts Options) (playwright.Browser, error) {
	var bt playwright.BrowserType
	var channel *string
	switch strings.ToLower(opts.Browser) {
	case "", "chrome":
		bt = pw.Chromium
	case "edge":
		bt = pw.Chromium
		channel = playwright.String("msedge")
	case "firefox":
		bt = pw.Firefox
	default:
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("unsupported browser %q", opts.Browser))
	}

	switch {
	case strings.HasPrefix(opts.RemoteURL, "ws://"), strings.HasPrefix(opts.RemoteURL, "wss://"):
		b, err := bt.Connect(opts.RemoteURL)
		if err != nil {
			return nil, errs.Wrap(errs.DriverFault, "connect to remote browser", err)
		}
		return b, nil
	case opts.RemoteURL != "":
		b, err := bt.ConnectOverCDP(opts.RemoteURL)
		if err != nil {
			return nil, errs.Wrap(errs.DriverFault, "connect over cdp", err)
		}
		return b, nil
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Channel:  channel,
	}
	if bt == pw.Chromium {
		launch.Args = []string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage"}
	}
	b, err := bt.Launch(launch)
	if err != nil {
		return nil, errs.Wrap(errs.DriverFault, "launch "+opts.Browser, err)
	}
	return b, nil
}

func (d *Browser) current() (playwright.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.page == nil {
		return nil, errs.New(errs.DriverFault, "no current window")
	}
	return d.page, nil
}

func (d *Browser) handleFor(p playwright.Page) string {
	if h, ok := d.handles[p]; ok {
		return h
	}
	d.nextID++
	h := fmt.Sprintf("page-%d", d.nextID)
	d.handles[p] = h
	return h
}

// Page exposes the underlying Playwright page for diagnostics.
func (d *Browser) Page() playwright.Page {
	p, _ := d.current()
	return p
}

// Find implements driver.Driver.
func (d *Browser) Find(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := d.current()
	if err != nil {
		return nil, err
	}
	handles, err := page.QuerySelectorAll(Selector(loc))
	if err != nil {
		return nil, mapErr("find "+loc.String(), err)
	}
	return wrap(page, handles), nil
}

func wrap(page playwright.Page, handles []playwright.ElementHandle) []driver.Element {
	out := make([]driver.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &Element{page: page, handle: h})
	}
	return out
}

// CurrentURL implements driver.Driver.
func (d *Browser) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	page, err := d.current()
	if err != nil {
		return "", err
	}
	if page.IsClosed() {
		return "", errs.New(errs.DriverFault, "page closed")
	}
	return page.URL(), nil
}

// Evaluate implements driver.Driver.
func (d *Browser) Evaluate(ctx context.Context, script string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := d.current()
	if err != nil {
		return nil, err
	}
	v, err := page.Evaluate(script)
	if err != nil {
		return nil, mapErr("evaluate", err)
	}
	return v, nil
}

// Navigate loads url and waits for DOMContentLoaded.
func (d *Browser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, err := d.current()
	if err != nil {
		return err
	}
	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return mapErr("navigate to "+url, err)
}

// Title implements driver.Browser.
func (d *Browser) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	page, err := d.current()
	if err != nil {
		return "", err
	}
	t, err := page.Title()
	return t, mapErr("title", err)
}

// PageSource implements driver.Browser.
func (d *Browser) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	page, err := d.current()
	if err != nil {
		return "", err
	}
	html, err := page.Content()
	return html, mapErr("page source", err)
}

// Screenshot captures the viewport as PNG.
func (d *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := d.current()
	if err != nil {
		return nil, err
	}
	png, err := page.Screenshot()
	return png, mapErr("screenshot", err)
}

// Reload implements driver.Browser.
func (d *Browser) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, err := d.current()
	if err != nil {
		return err
	}
	_, err = page.Reload(playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded})
	return mapErr("reload", err)
}

// Back implements driver.Browser.
func (d *Browser) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, err := d.current()
	if err != nil {
		return err
	}
	_, err = page.GoBack()
	return mapErr("back", err)
}

// Forward implements driver.Browser.
func (d *Browser) Forward(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	page, err := d.current()
	if err != nil {
		return err
	}
	_, err = page.GoForward()
	return mapErr("forward", err)
}

// Close tears down the context, the browser and the Playwright driver.
func (d *Browser) Close() error {
	var errList []error
	if d.context != nil {
		errList = append(errList, d.context.Close())
	}
	if d.browser != nil {
		errList = append(errList, d.browser.Close())
	}
	if d.pw != nil {
		errList = append(errList, d.pw.Stop())
	}
	return errors.Join(errList...)
}

// WindowHandles lists the context's open pages in creation order.
func (d *Browser) WindowHandles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages := d.context.Pages()
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if !p.IsClosed() {
			out = append(out, d.handleFor(p))
		}
	}
	return out, nil
}

// CurrentWindow implements driver.WindowManager.
func (d *Browser) CurrentWindow(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.page == nil {
		return "", errs.New(errs.DriverFault, "no current window")
	}
	return d.handleFor(d.page), nil
}

// SwitchToWindow makes the page with handle current and brings it to front.
func (d *Browser) SwitchToWindow(ctx context.Context, handle string) error {
	if _, err := d.WindowHandles(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	var target playwright.Page
	for p, h := range d.handles {
		if h == handle && !p.IsClosed() {
			target = p
		}
	}
	if target == nil {
		d.mu.Unlock()
		return errs.New(errs.NotFound, fmt.Sprintf("no window %q", handle))
	}
	d.page = target
	d.mu.Unlock()
	return mapErr("switch window", target.BringToFront())
}

// CloseWindow closes the current page. Callers switch to another window
// afterwards.
func (d *Browser) CloseWindow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	page := d.page
	d.page = nil
	if page != nil {
		delete(d.handles, page)
	}
	d.mu.Unlock()
	if page == nil {
		return nil
	}
	return mapErr("close window", page.Close())
}

// mapErr classifies Playwright errors. Detached handles are stale; a closed
// target or anything unrecognized is a driver fault.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) {
		return errs.Wrap(errs.DriverFault, op, err)
	}
	msg := err.Error()
	for _, marker := range []string{
		"not attached to the DOM",
		"Element is not attached",
		"JSHandle is disposed",
		"Execution context was destroyed",
		"Cannot find context with specified id",
	} {
		if strings.Contains(msg, marker) {
			return errs.Wrap(errs.StaleElement, op, err)
		}
	}
	return errs.Wrap(errs.DriverFault, op, err)
}
