// Package cdpdriver implements the driver interfaces directly on the Chrome
// DevTools protocol through chromedp. It only drives Chromium-based browsers
// and has a single tab, so it does not implement driver.WindowManager.
package cdpdriver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
)

// Options configure Launch.
type Options struct {
	Headless bool
	// RemoteURL attaches to a running Chrome DevTools websocket instead of
	// starting a local browser.
	RemoteURL      string
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	// ActionTimeout bounds a single protocol round trip when the caller's
	// context has no deadline of its own.
	ActionTimeout time.Duration
}

// Browser is one chromedp tab.
type Browser struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

var _ driver.Browser = (*Browser)(nil)

// Launch starts (or attaches to) Chrome and opens a tab.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		allocOpts = append(allocOpts,
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-background-timer-throttling", true),
			chromedp.Flag("disable-renderer-backgrounding", true),
		)
		if !opts.Headless {
			allocOpts = append(allocOpts, chromedp.Flag("headless", false))
		}
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
		if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
			allocOpts = append(allocOpts, chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	}

	tab, cancelTab := chromedp.NewContext(allocCtx)
	b := &Browser{tab: tab, cancelTab: cancelTab, cancelAlloc: cancelAlloc, timeout: opts.ActionTimeout}
	if b.timeout <= 0 {
		b.timeout = 30 * time.Second
	}

	// The first Run starts the browser.
	start := []chromedp.Action{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		start = append(start, chromedp.EmulateViewport(int64(opts.ViewportWidth), int64(opts.ViewportHeight)))
	}
	if err := b.run(ctx, start...); err != nil {
		_ = b.Close()
		return nil, errs.Wrap(errs.DriverFault, "start chrome", err)
	}
	return b, nil
}

// run executes actions on the tab, canceled when ctx is done or after the
// action timeout.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(b.tab, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Find implements driver.Driver.
func (b *Browser) Find(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	var out []driver.Element
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exp, err := runtime.Evaluate(findScript(loc, "document")).WithObjectGroup(findGroup).Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exp
		}
		out, err = b.collect(ctx, obj)
		return err
	}))
	if err != nil {
		return nil, mapErr("find "+loc.String(), err)
	}
	return out, nil
}

// findGroup is the object group holding every handle Find returns. The
// group is released when the page navigates.
const findGroup = "tradeui-find"

// releaseFinds drops the handles of the page being left. A failure only
// means the handles go with their document.
var releaseFinds = chromedp.ActionFunc(func(ctx context.Context) error {
	_ = runtime.ReleaseObjectGroup(findGroup).Do(ctx)
	return nil
})

// collect turns a remote array of nodes into elements and releases the
// array itself.
func (b *Browser) collect(ctx context.Context, arr *runtime.RemoteObject) ([]driver.Element, error) {
	if arr == nil || arr.ObjectID == "" {
		return nil, nil
	}
	defer func() { _ = runtime.ReleaseObject(arr.ObjectID).Do(ctx) }()
	props, _, _, exp, err := runtime.GetProperties(arr.ObjectID).WithOwnProperties(true).Do(ctx)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		return nil, exp
	}
	out := make([]driver.Element, 0, len(props))
	for _, p := range props {
		if p.Value == nil || p.Value.ObjectID == "" || p.Value.Subtype != "node" {
			continue
		}
		out = append(out, &Element{b: b, id: p.Value.ObjectID})
	}
	return out, nil
}

// findScript builds an expression evaluating to an array of the nodes
// matching loc below root.
func findScript(loc driver.Locator, root string) string {
	if css, ok := loc.CSSSelector(); ok {
		return fmt.Sprintf(`Array.from(%s.querySelectorAll(%s))`, root, jsString(css))
	}
	return fmt.Sprintf(`(() => {
	const r = document.evaluate(%s, %s, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
	return out;
})()`, jsString(loc.XPathExpr()), root)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// CurrentURL implements driver.Driver.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := b.run(ctx, chromedp.Location(&u))
	return u, mapErr("current url", err)
}

// Evaluate implements driver.Driver.
func (b *Browser) Evaluate(ctx context.Context, script string) (any, error) {
	var v any
	if err := b.run(ctx, chromedp.Evaluate(script, &v)); err != nil {
		return nil, mapErr("evaluate", err)
	}
	return v, nil
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	return mapErr("navigate to "+url, b.run(ctx, releaseFinds, chromedp.Navigate(url)))
}

func (b *Browser) Title(ctx context.Context) (string, error) {
	var t string
	err := b.run(ctx, chromedp.Title(&t))
	return t, mapErr("title", err)
}

func (b *Browser) PageSource(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, chromedp.Evaluate(`document.documentElement.outerHTML`, &html))
	return html, mapErr("page source", err)
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var png []byte
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		png, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	return png, mapErr("screenshot", err)
}

func (b *Browser) Reload(ctx context.Context) error {
	return mapErr("reload", b.run(ctx, releaseFinds, chromedp.Reload()))
}

func (b *Browser) Back(ctx context.Context) error {
	return mapErr("back", b.run(ctx, releaseFinds, chromedp.NavigateBack()))
}

func (b *Browser) Forward(ctx context.Context) error {
	return mapErr("forward", b.run(ctx, releaseFinds, chromedp.NavigateForward()))
}

// Close closes the tab and stops the browser.
func (b *Browser) Close() error {
	if b.cancelTab != nil {
		b.cancelTab()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
	return nil
}

const staleMarker = "stale element reference"

// mapErr classifies DevTools errors. Object handles invalidated by
// navigation or node removal are stale; everything else is a driver fault.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var coder errs.Coder
	if errors.As(err, &coder) {
		return err
	}
	msg := err.Error()
	for _, marker := range []string{
		staleMarker,
		"Could not find object with given id",
		"Cannot find context with specified id",
		"No node with given id",
		"Could not find node with given id",
		"Execution context was destroyed",
	} {
		if strings.Contains(msg, marker) {
			return errs.Wrap(errs.StaleElement, op, err)
		}
	}
	return errs.Wrap(errs.DriverFault, op, err)
}
