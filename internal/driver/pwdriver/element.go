package pwdriver

import (
	"context"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/playwright-community/playwright-go"
)

// Selector converts a locator to a Playwright selector. Strategies with a
// CSS form use the css engine; the rest go through xpath.
func Selector(loc driver.Locator) string {
	if css, ok := loc.CSSSelector(); ok {
		return "css=" + css
	}
	return "xpath=" + loc.XPathExpr()
}

const (
	attributeScript = `(el, name) => el.hasAttribute(name) ? { present: true, value: el.getAttribute(name) } : { present: false, value: "" }`

	// Elements outside the viewport cannot be hit-tested and are assumed
	// reachable once scrolled to.
	hitTestScript = `el => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const x = r.left + r.width / 2, y = r.top + r.height / 2;
		if (x < 0 || y < 0 || x > window.innerWidth || y > window.innerHeight) return true;
		const hit = document.elementFromPoint(x, y);
		return hit === el || el.contains(hit);
	}`
)

const focusEndScript = `el => {
	el.focus();
	if (typeof el.value === "string" && el.setSelectionRange) {
		try { const n = el.value.length; el.setSelectionRange(n, n); } catch (e) {}
	}
}`

// Element wraps a Playwright element handle.
type Element struct {
	page   playwright.Page
	handle playwright.ElementHandle
}

var (
	_ driver.Element    = (*Element)(nil)
	_ driver.Hittable   = (*Element)(nil)
	_ driver.Releasable = (*Element)(nil)
)

// Release disposes of the handle.
func (e *Element) Release(ctx context.Context) error {
	return mapErr("release", e.handle.Dispose())
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.handle.IsVisible()
	return v, mapErr("is displayed", err)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := e.handle.IsEnabled()
	return v, mapErr("is enabled", err)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := e.handle.InnerText()
	return t, mapErr("text", err)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	raw, err := e.handle.Evaluate(attributeScript, name)
	if err != nil {
		return "", false, mapErr("attribute "+name, err)
	}
	m, _ := raw.(map[string]any)
	present, _ := m["present"].(bool)
	value, _ := m["value"].(string)
	return value, present, nil
}

func (e *Element) ReceivesPointer(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	raw, err := e.handle.Evaluate(hitTestScript)
	if err != nil {
		return false, mapErr("hit test", err)
	}
	hit, _ := raw.(bool)
	return hit, nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr("click", e.handle.Click())
}

func (e *Element) ClickViaScript(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.handle.Evaluate(`el => el.click()`)
	return mapErr("script click", err)
}

func (e *Element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr("clear", e.handle.Fill(""))
}

// Type appends text at the end of the current value, like typing into a
// focused field.
func (e *Element) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.handle.Evaluate(focusEndScript); err != nil {
		return mapErr("focus", err)
	}
	return mapErr("type", e.page.Keyboard().InsertText(text))
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr("scroll into view", e.handle.ScrollIntoViewIfNeeded())
}

func (e *Element) Hover(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr("hover", e.handle.Hover())
}

func (e *Element) Find(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := e.handle.QuerySelectorAll(Selector(loc))
	if err != nil {
		return nil, mapErr("find "+loc.String(), err)
	}
	return wrap(e.page, handles), nil
}
