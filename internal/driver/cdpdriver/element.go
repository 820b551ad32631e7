package cdpdriver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
)

// Every element script starts with this guard so that removed nodes fail
// the same way object ids invalidated by navigation do.
const guard = `if (!this.isConnected) throw new Error("` + staleMarker + `");`

const (
	visibleScript = `function() {` + guard + `
	const s = window.getComputedStyle(this);
	if (s.visibility === "hidden" || s.display === "none") return false;
	const r = this.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}`

	enabledScript = `function() {` + guard + ` return !this.disabled && !this.closest("fieldset[disabled]"); }`

	textScript = `function() {` + guard + ` return this.innerText || ""; }`

	hitTestScript = `function() {` + guard + `
	const r = this.getBoundingClientRect();
	if (r.width === 0 || r.height === 0) return false;
	const x = r.left + r.width / 2, y = r.top + r.height / 2;
	if (x < 0 || y < 0 || x > window.innerWidth || y > window.innerHeight) return true;
	const hit = document.elementFromPoint(x, y);
	return hit === this || this.contains(hit);
}`

	// centerScript scrolls the element into view and reports its center,
	// or null when nothing at that point belongs to it.
	centerScript = `function() {` + guard + `
	this.scrollIntoView({block: "center", inline: "center"});
	const r = this.getBoundingClientRect();
	if (r.width === 0 || r.height === 0) return null;
	const x = r.left + r.width / 2, y = r.top + r.height / 2;
	const hit = document.elementFromPoint(x, y);
	if (hit !== this && !this.contains(hit)) return null;
	return {x: x, y: y};
}`

	scriptClickScript = `function() {` + guard + ` this.click(); }`

	clearScript = `function() {` + guard + `
	this.focus();
	this.value = "";
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

	focusEndScript = `function() {` + guard + `
	this.focus();
	if (typeof this.value === "string" && this.setSelectionRange) {
		try { const n = this.value.length; this.setSelectionRange(n, n); } catch (e) {}
	}
}`

	scrollScript = `function() {` + guard + ` this.scrollIntoView({block: "center", inline: "center"}); }`
)

// Element is a remote DOM node held by its runtime object id.
type Element struct {
	b  *Browser
	id runtime.RemoteObjectID
}

var (
	_ driver.Element    = (*Element)(nil)
	_ driver.Hittable   = (*Element)(nil)
	_ driver.Releasable = (*Element)(nil)
)

// Release frees the remote object backing the element.
func (e *Element) Release(ctx context.Context) error {
	err := e.b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return runtime.ReleaseObject(e.id).Do(ctx)
	}))
	return mapErr("release", err)
}

// call runs fn with this bound to the element and decodes its JSON result
// into out when out is non-nil.
func (e *Element) call(ctx context.Context, op, fn string, out any) error {
	err := e.b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exp, err := runtime.CallFunctionOn(fn).
			WithObjectID(e.id).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exp
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
	return mapErr(op, err)
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	var v bool
	err := e.call(ctx, "is displayed", visibleScript, &v)
	return v, err
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	var v bool
	err := e.call(ctx, "is enabled", enabledScript, &v)
	return v, err
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var s string
	err := e.call(ctx, "text", textScript, &s)
	return s, err
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	fn := fmt.Sprintf(`function() {`+guard+`
	const name = %s;
	return this.hasAttribute(name) ? {present: true, value: this.getAttribute(name)} : {present: false, value: ""};
}`, jsString(name))
	var res struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	if err := e.call(ctx, "attribute "+name, fn, &res); err != nil {
		return "", false, err
	}
	return res.Value, res.Present, nil
}

func (e *Element) ReceivesPointer(ctx context.Context) (bool, error) {
	var hit bool
	err := e.call(ctx, "hit test", hitTestScript, &hit)
	return hit, err
}

// Click dispatches a real mouse press and release at the element center.
// Hidden or covered elements are not interactable.
func (e *Element) Click(ctx context.Context) error {
	var pt *struct{ X, Y float64 }
	if err := e.call(ctx, "click", centerScript, &pt); err != nil {
		return err
	}
	if pt == nil {
		return errs.New(errs.DriverFault, "click: element not interactable")
	}
	err := e.b.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MousePressed, pt.X, pt.Y).
				WithButton(input.Left).WithClickCount(1).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseReleased, pt.X, pt.Y).
				WithButton(input.Left).WithClickCount(1).Do(ctx)
		}),
	)
	return mapErr("click", err)
}

func (e *Element) ClickViaScript(ctx context.Context) error {
	return e.call(ctx, "script click", scriptClickScript, nil)
}

func (e *Element) Clear(ctx context.Context) error {
	return e.call(ctx, "clear", clearScript, nil)
}

// Type appends text at the end of the current value.
func (e *Element) Type(ctx context.Context, text string) error {
	if err := e.call(ctx, "focus", focusEndScript, nil); err != nil {
		return err
	}
	err := e.b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(text).Do(ctx)
	}))
	return mapErr("type", err)
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	return e.call(ctx, "scroll into view", scrollScript, nil)
}

func (e *Element) Hover(ctx context.Context) error {
	var pt *struct{ X, Y float64 }
	if err := e.call(ctx, "hover", centerScript, &pt); err != nil {
		return err
	}
	if pt == nil {
		return errs.New(errs.DriverFault, "hover: element not interactable")
	}
	err := e.b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y).Do(ctx)
	}))
	return mapErr("hover", err)
}

// Find searches below the element.
func (e *Element) Find(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	fn := fmt.Sprintf(`function() {`+guard+` return %s; }`, findScript(loc, "this"))
	var out []driver.Element
	err := e.b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		arr, exp, err := runtime.CallFunctionOn(fn).WithObjectID(e.id).WithObjectGroup(findGroup).Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exp
		}
		out, err = e.b.collect(ctx, arr)
		return err
	}))
	if err != nil {
		return nil, mapErr("find "+loc.String(), err)
	}
	return out, nil
}
