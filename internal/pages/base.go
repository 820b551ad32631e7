// Package pages holds page objects for the MultiBank trade platform and its
// marketing site. Every page action waits through the wait layer, is paced
// by the session's slow-mode pacer and logs what it did.
package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/logutil"
	"github.com/kuitang/tradeui-e2e/internal/obs"
	"github.com/kuitang/tradeui-e2e/internal/ratelimit"
	"github.com/kuitang/tradeui-e2e/internal/wait"
)

// Base implements the actions shared by all pages.
type Base struct {
	b     driver.Browser
	wait  *wait.Waiter
	pacer *ratelimit.Pacer
	log   obs.Logger
}

// NewBase binds page actions to a browser. A nil pacer disables slow mode.
func NewBase(b driver.Browser, w *wait.Waiter, pacer *ratelimit.Pacer, log obs.Logger) *Base {
	if log == nil {
		log = obs.Discard()
	}
	return &Base{b: b, wait: w, pacer: pacer, log: log}
}

// Wait exposes the page's waiter for ad hoc conditions.
func (p *Base) Wait() *wait.Waiter { return p.wait }

// Browser exposes the underlying browser.
func (p *Base) Browser() driver.Browser { return p.b }

func (p *Base) pace(ctx context.Context) error {
	return p.pacer.Wait(ctx)
}

// fail logs a failed action and annotates err with it. The error code of
// err is preserved.
func (p *Base) fail(action string, loc driver.Locator, err error) error {
	p.log.Error(action+" failed", "locator", loc.String(), "error", err)
	return fmt.Errorf("%s %s: %w", action, loc, err)
}

func verificationFailed(format string, args ...any) error {
	return errs.New(errs.VerificationFailed, fmt.Sprintf(format, args...))
}

// =============================================================================
// Page state
// =============================================================================

func (p *Base) Title(ctx context.Context) (string, error) {
	t, err := p.b.Title(ctx)
	if err != nil {
		return "", err
	}
	p.log.Debug("page title", "title", t)
	return t, nil
}

func (p *Base) URL(ctx context.Context) (string, error) {
	u, err := p.b.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	p.log.Debug("current url", "url", u)
	return u, nil
}

func (p *Base) PageSource(ctx context.Context) (string, error) {
	return p.b.PageSource(ctx)
}

func (p *Base) Screenshot(ctx context.Context) ([]byte, error) {
	png, err := p.b.Screenshot(ctx)
	if err != nil {
		p.log.Error("screenshot failed", "error", err)
		return nil, err
	}
	return png, nil
}

// =============================================================================
// Navigation
// =============================================================================

// Navigate loads url and waits for the document to finish loading.
func (p *Base) Navigate(ctx context.Context, url string) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	p.log.Info("navigating", "url", logutil.RedactURL(url))
	if err := p.b.Navigate(ctx, url); err != nil {
		p.log.Error("navigation failed", "url", logutil.RedactURL(url), "error", err)
		return err
	}
	return p.wait.ForPageLoad(ctx)
}

func (p *Base) Refresh(ctx context.Context) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	if err := p.b.Reload(ctx); err != nil {
		return err
	}
	if err := p.wait.ForPageLoad(ctx); err != nil {
		return err
	}
	p.log.Info("page refreshed")
	return nil
}

func (p *Base) Back(ctx context.Context) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	if err := p.b.Back(ctx); err != nil {
		return err
	}
	p.log.Info("navigated back")
	return nil
}

func (p *Base) Forward(ctx context.Context) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	if err := p.b.Forward(ctx); err != nil {
		return err
	}
	p.log.Info("navigated forward")
	return nil
}

// WaitForURLToContain waits (default timeout) until the URL contains sub.
func (p *Base) WaitForURLToContain(ctx context.Context, sub string, opts ...wait.CallOption) (string, error) {
	return p.wait.ForURLContains(ctx, sub, opts...)
}

// WaitForURLChange waits until the URL differs from original.
func (p *Base) WaitForURLChange(ctx context.Context, original string, opts ...wait.CallOption) (string, error) {
	return p.wait.ForURLChanges(ctx, original, opts...)
}

// =============================================================================
// Element actions
// =============================================================================

// Click waits for loc to be clickable and clicks it.
func (p *Base) Click(ctx context.Context, loc driver.Locator) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	el, err := p.wait.ForElementClickable(ctx, loc)
	if err != nil {
		return p.fail("click", loc, err)
	}
	if err := el.Click(ctx); err != nil {
		return p.fail("click", loc, err)
	}
	p.log.Info("clicked", "locator", loc.String())
	return nil
}

// ClickViaScript clicks loc from page script, bypassing overlays that would
// intercept a real click.
func (p *Base) ClickViaScript(ctx context.Context, loc driver.Locator) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	el, err := p.wait.ForElementVisible(ctx, loc)
	if err != nil {
		return p.fail("script click", loc, err)
	}
	if err := el.ClickViaScript(ctx); err != nil {
		return p.fail("script click", loc, err)
	}
	p.log.Info("clicked via script", "locator", loc.String())
	return nil
}

// InputText types text into loc, clearing it first when clearFirst is set.
func (p *Base) InputText(ctx context.Context, loc driver.Locator, text string, clearFirst bool) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	el, err := p.wait.ForElementVisible(ctx, loc)
	if err != nil {
		return p.fail("input text", loc, err)
	}
	if clearFirst {
		if err := el.Clear(ctx); err != nil {
			return p.fail("clear", loc, err)
		}
	}
	if err := el.Type(ctx, text); err != nil {
		return p.fail("input text", loc, err)
	}
	p.log.Info("entered text", "locator", loc.String(), "chars", len(text))
	return nil
}

func (p *Base) Hover(ctx context.Context, loc driver.Locator) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	el, err := p.wait.ForElementVisible(ctx, loc)
	if err != nil {
		return p.fail("hover", loc, err)
	}
	if err := el.Hover(ctx); err != nil {
		return p.fail("hover", loc, err)
	}
	p.log.Info("hovered", "locator", loc.String())
	return nil
}

// =============================================================================
// Element reads
// =============================================================================

// ElementText returns the visible text of loc once it is visible.
func (p *Base) ElementText(ctx context.Context, loc driver.Locator) (string, error) {
	el, err := p.wait.ForElementVisible(ctx, loc)
	if err != nil {
		return "", p.fail("get text", loc, err)
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", p.fail("get text", loc, err)
	}
	p.log.Debug("element text", "locator", loc.String(), "text", text)
	return text, nil
}

// ElementAttribute returns the attribute value of loc and whether the
// attribute is set.
func (p *Base) ElementAttribute(ctx context.Context, loc driver.Locator, name string) (string, bool, error) {
	el, err := p.wait.ForElementVisible(ctx, loc)
	if err != nil {
		return "", false, p.fail("get attribute "+name, loc, err)
	}
	v, ok, err := el.Attribute(ctx, name)
	if err != nil {
		return "", false, p.fail("get attribute "+name, loc, err)
	}
	p.log.Debug("element attribute", "locator", loc.String(), "name", name, "value", v, "present", ok)
	return v, ok, nil
}

// IsElementVisible reports whether loc becomes visible within the short
// timeout.
func (p *Base) IsElementVisible(ctx context.Context, loc driver.Locator, opts ...wait.CallOption) (bool, error) {
	return p.wait.ElementIsDisplayed(ctx, loc, opts...)
}

// IsElementPresent reports whether loc appears within the short timeout.
func (p *Base) IsElementPresent(ctx context.Context, loc driver.Locator, opts ...wait.CallOption) (bool, error) {
	return p.wait.ElementExists(ctx, loc, opts...)
}

// Elements waits until every match of loc is visible and returns them.
func (p *Base) Elements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	els, err := p.wait.ForElementsVisible(ctx, loc)
	if err != nil {
		return nil, p.fail("get elements", loc, err)
	}
	p.log.Info("found elements", "locator", loc.String(), "count", len(els))
	return els, nil
}

// ElementsCount counts the current matches of loc without waiting.
func (p *Base) ElementsCount(ctx context.Context, loc driver.Locator) (int, error) {
	els, err := p.b.Find(ctx, loc)
	if err != nil {
		return 0, p.fail("count elements", loc, err)
	}
	p.log.Info("element count", "locator", loc.String(), "count", len(els))
	return len(els), nil
}

// =============================================================================
// Scrolling
// =============================================================================

func (p *Base) ScrollToElement(ctx context.Context, loc driver.Locator) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	el, err := p.wait.ForElementVisible(ctx, loc)
	if err != nil {
		return p.fail("scroll to", loc, err)
	}
	if err := el.ScrollIntoView(ctx); err != nil {
		return p.fail("scroll to", loc, err)
	}
	p.log.Info("scrolled to element", "locator", loc.String())
	return nil
}

func (p *Base) ScrollDown(ctx context.Context, pixels int) error {
	return p.script(ctx, fmt.Sprintf("window.scrollBy(0, %d);", pixels), "scrolled down", "pixels", pixels)
}

func (p *Base) ScrollToBottom(ctx context.Context) error {
	return p.script(ctx, "window.scrollTo(0, document.body.scrollHeight);", "scrolled to bottom")
}

func (p *Base) ScrollToTop(ctx context.Context) error {
	return p.script(ctx, "window.scrollTo(0, 0);", "scrolled to top")
}

func (p *Base) script(ctx context.Context, js, done string, args ...any) error {
	if err := p.pace(ctx); err != nil {
		return err
	}
	if _, err := p.b.Evaluate(ctx, js); err != nil {
		p.log.Error("script failed", "script", js, "error", err)
		return err
	}
	p.log.Debug(done, args...)
	return nil
}

// =============================================================================
// Windows
// =============================================================================

func (p *Base) windows() (driver.WindowManager, error) {
	wm, ok := p.b.(driver.WindowManager)
	if !ok {
		return nil, errs.New(errs.Unsupported, "browser driver does not manage windows")
	}
	return wm, nil
}

// CurrentWindow returns the current window handle, or "" when the driver
// has a single tab.
func (p *Base) CurrentWindow(ctx context.Context) (string, error) {
	wm, err := p.windows()
	if err != nil {
		return "", nil
	}
	return wm.CurrentWindow(ctx)
}

// SwitchToNewWindow switches to the most recently opened window and returns
// the handle that was current before.
func (p *Base) SwitchToNewWindow(ctx context.Context) (string, error) {
	wm, err := p.windows()
	if err != nil {
		return "", err
	}
	original, err := wm.CurrentWindow(ctx)
	if err != nil {
		return "", err
	}
	handles, err := wm.WindowHandles(ctx)
	if err != nil {
		return "", err
	}
	if len(handles) == 0 {
		return "", errs.New(errs.NotFound, "no open windows")
	}
	if err := wm.SwitchToWindow(ctx, handles[len(handles)-1]); err != nil {
		return "", err
	}
	p.log.Info("switched to new window", "from", original, "to", handles[len(handles)-1])
	return original, nil
}

func (p *Base) SwitchToWindow(ctx context.Context, handle string) error {
	wm, err := p.windows()
	if err != nil {
		return err
	}
	if err := wm.SwitchToWindow(ctx, handle); err != nil {
		return err
	}
	p.log.Info("switched to window", "handle", handle)
	return nil
}

func (p *Base) CloseCurrentWindow(ctx context.Context) error {
	wm, err := p.windows()
	if err != nil {
		return err
	}
	if err := wm.CloseWindow(ctx); err != nil {
		return err
	}
	p.log.Info("closed current window")
	return nil
}

// =============================================================================
// Verification
// =============================================================================

// VerifyElementText checks that the text of loc contains expected.
func (p *Base) VerifyElementText(ctx context.Context, loc driver.Locator, expected string) error {
	actual, err := p.ElementText(ctx, loc)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		return verificationFailed("expected %q in %q", expected, actual)
	}
	p.log.Info("text verified", "locator", loc.String(), "expected", expected)
	return nil
}

func (p *Base) VerifyElementVisible(ctx context.Context, loc driver.Locator) error {
	ok, err := p.IsElementVisible(ctx, loc)
	if err != nil {
		return err
	}
	if !ok {
		return verificationFailed("element not visible: %s", loc)
	}
	p.log.Info("element visibility verified", "locator", loc.String())
	return nil
}

func (p *Base) VerifyElementPresent(ctx context.Context, loc driver.Locator) error {
	ok, err := p.IsElementPresent(ctx, loc)
	if err != nil {
		return err
	}
	if !ok {
		return verificationFailed("element not present: %s", loc)
	}
	p.log.Info("element presence verified", "locator", loc.String())
	return nil
}
