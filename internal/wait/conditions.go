package wait

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
)

type condition[T any] struct {
	desc  string
	check func(ctx context.Context, d driver.Driver) (T, bool, error)
}

func (c condition[T]) Describe() string { return c.desc }

func (c condition[T]) Check(ctx context.Context, d driver.Driver) (T, bool, error) {
	return c.check(ctx, d)
}

// Func adapts fn into a Condition. It is the escape hatch for predicates the
// built-in conditions do not cover.
func Func[T any](desc string, fn func(ctx context.Context, d driver.Driver) (T, bool, error)) Condition[T] {
	return condition[T]{desc: desc, check: fn}
}

func find(ctx context.Context, d driver.Driver, loc driver.Locator) ([]driver.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid locator", err)
	}
	return d.Find(ctx, loc)
}

// first returns the first match of loc and releases the others.
func first(ctx context.Context, d driver.Driver, loc driver.Locator) (driver.Element, error) {
	els, err := find(ctx, d, loc)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	driver.Release(ctx, els[1:]...)
	return els[0], nil
}

// drop releases el when a check does not hand it back to the caller.
func drop(ctx context.Context, el driver.Element) {
	if el != nil {
		driver.Release(context.WithoutCancel(ctx), el)
	}
}

// Present holds once loc matches at least one element.
func Present(loc driver.Locator) Condition[driver.Element] {
	return Func("element present: "+loc.String(), func(ctx context.Context, d driver.Driver) (driver.Element, bool, error) {
		el, err := first(ctx, d, loc)
		return el, el != nil, err
	})
}

// Visible holds once the first match of loc is displayed.
func Visible(loc driver.Locator) Condition[driver.Element] {
	return Func("element visible: "+loc.String(), func(ctx context.Context, d driver.Driver) (driver.Element, bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil || el == nil {
			return nil, false, err
		}
		shown, err := el.IsDisplayed(ctx)
		if err != nil || !shown {
			drop(ctx, el)
			return nil, false, err
		}
		return el, true, nil
	})
}

// AllPresent holds once loc matches at least one element and yields every match.
func AllPresent(loc driver.Locator) Condition[[]driver.Element] {
	return Func("elements present: "+loc.String(), func(ctx context.Context, d driver.Driver) ([]driver.Element, bool, error) {
		els, err := find(ctx, d, loc)
		if err != nil || len(els) == 0 {
			return nil, false, err
		}
		return els, true, nil
	})
}

// AllVisible holds once loc matches at least one element and every match is
// displayed.
func AllVisible(loc driver.Locator) Condition[[]driver.Element] {
	return Func("elements visible: "+loc.String(), func(ctx context.Context, d driver.Driver) ([]driver.Element, bool, error) {
		els, err := find(ctx, d, loc)
		if err != nil || len(els) == 0 {
			return nil, false, err
		}
		for _, el := range els {
			shown, err := el.IsDisplayed(ctx)
			if err != nil || !shown {
				driver.Release(context.WithoutCancel(ctx), els...)
				return nil, false, err
			}
		}
		return els, true, nil
	})
}

// Invisible holds once loc matches nothing or its first match is hidden or
// detached.
func Invisible(loc driver.Locator) Condition[bool] {
	return Func("element invisible: "+loc.String(), func(ctx context.Context, d driver.Driver) (bool, bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil {
			if errs.Is(err, errs.NotFound) || errs.Is(err, errs.StaleElement) {
				return true, true, nil
			}
			return false, false, err
		}
		if el == nil {
			return true, true, nil
		}
		defer drop(ctx, el)
		shown, err := el.IsDisplayed(ctx)
		if errs.Is(err, errs.StaleElement) {
			return true, true, nil
		}
		if err != nil {
			return false, false, err
		}
		return !shown, !shown, nil
	})
}

// Clickable holds once the first match of loc is displayed, enabled and,
// when the backend can tell, not covered by another element.
func Clickable(loc driver.Locator) Condition[driver.Element] {
	return Func("element clickable: "+loc.String(), func(ctx context.Context, d driver.Driver) (driver.Element, bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil || el == nil {
			return nil, false, err
		}
		ok, err := clickable(ctx, el)
		if !ok {
			drop(ctx, el)
			return nil, false, err
		}
		return el, true, nil
	})
}

func clickable(ctx context.Context, el driver.Element) (bool, error) {
	shown, err := el.IsDisplayed(ctx)
	if err != nil || !shown {
		return false, err
	}
	enabled, err := el.IsEnabled(ctx)
	if err != nil || !enabled {
		return false, err
	}
	if h, ok := el.(driver.Hittable); ok {
		hit, err := h.ReceivesPointer(ctx)
		if err != nil {
			return false, err
		}
		if !hit {
			return false, errs.New(errs.NotYetSatisfied, "element is obstructed")
		}
	}
	return true, nil
}

// TextContains holds once the first match of loc has text containing want.
func TextContains(loc driver.Locator, want string) Condition[driver.Element] {
	desc := fmt.Sprintf("text %q in element: %s", want, loc)
	return Func(desc, func(ctx context.Context, d driver.Driver) (driver.Element, bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil || el == nil {
			return nil, false, err
		}
		text, err := el.Text(ctx)
		if err != nil || !strings.Contains(text, want) {
			drop(ctx, el)
			return nil, false, err
		}
		return el, true, nil
	})
}

// URLContains holds once the current URL contains sub and yields the URL.
func URLContains(sub string) Condition[string] {
	return Func(fmt.Sprintf("url contains %q", sub), func(ctx context.Context, d driver.Driver) (string, bool, error) {
		u, err := d.CurrentURL(ctx)
		if err != nil {
			return "", false, err
		}
		return u, strings.Contains(u, sub), nil
	})
}

// URLChanged holds once the current URL differs from prev and yields the new URL.
func URLChanged(prev string) Condition[string] {
	return Func(fmt.Sprintf("url changes from %q", prev), func(ctx context.Context, d driver.Driver) (string, bool, error) {
		u, err := d.CurrentURL(ctx)
		if err != nil {
			return "", false, err
		}
		return u, u != prev, nil
	})
}

// AttributeEquals holds once the first match of loc has attribute name set
// to want. An absent attribute never matches.
func AttributeEquals(loc driver.Locator, name, want string) Condition[driver.Element] {
	desc := fmt.Sprintf("%s=%q on element: %s", name, want, loc)
	return Func(desc, func(ctx context.Context, d driver.Driver) (driver.Element, bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil || el == nil {
			return nil, false, err
		}
		got, present, err := el.Attribute(ctx, name)
		if err != nil || !present || got != want {
			drop(ctx, el)
			return nil, false, err
		}
		return el, true, nil
	})
}

// ScriptTrue holds once script evaluates to boolean true.
func ScriptTrue(desc, script string) Condition[bool] {
	return Func(desc, func(ctx context.Context, d driver.Driver) (bool, bool, error) {
		v, err := d.Evaluate(ctx, script)
		if err != nil {
			return false, false, err
		}
		b, _ := v.(bool)
		return b, b, nil
	})
}

// DocumentReady holds once document.readyState is "complete".
func DocumentReady() Condition[bool] {
	return ScriptTrue("document ready", `document.readyState === "complete"`)
}

// JQueryIdle holds once the page has no jQuery requests in flight. Pages
// without jQuery count as idle.
func JQueryIdle() Condition[bool] {
	return ScriptTrue("jquery idle", `typeof window.jQuery === "undefined" || window.jQuery.active === 0`)
}
