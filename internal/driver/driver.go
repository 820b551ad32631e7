// Package driver defines the browser capability the wait layer and page
// objects depend on. Backends live in subpackages: pwdriver (Playwright),
// cdpdriver (Chrome DevTools Protocol) and fakedriver (scripted, for tests).
//
// Errors returned by backends carry internal/errs codes: not_found and
// stale_element for nodes that are missing or detached, driver_fault for a
// broken session, unsupported for capabilities a backend lacks.
package driver

import "context"

// Driver is the minimal capability the wait layer polls against.
type Driver interface {
	// Find returns every element matching loc. No match is an empty slice,
	// never an error.
	Find(ctx context.Context, loc Locator) ([]Element, error)
	CurrentURL(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript expression in the page and returns its
	// JSON-decoded value.
	Evaluate(ctx context.Context, script string) (any, error)
}

// Element is a non-owning handle to a live DOM node. It becomes stale when
// the node is detached; methods then fail with code stale_element.
type Element interface {
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)

	Click(ctx context.Context) error
	// ClickViaScript dispatches element.click() from JavaScript, bypassing
	// pointer hit-testing.
	ClickViaScript(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	ScrollIntoView(ctx context.Context) error
	Hover(ctx context.Context) error
	// Find searches the element's subtree.
	Find(ctx context.Context, loc Locator) ([]Element, error)
}

// Hittable is implemented by elements that can tell whether they would
// receive a pointer event at their center point.
type Hittable interface {
	ReceivesPointer(ctx context.Context) (bool, error)
}

// Releasable is implemented by elements that pin a handle in the browser
// until released. A released element must not be used again.
type Releasable interface {
	Release(ctx context.Context) error
}

// Release frees every releasable element in els. Errors are dropped; a
// handle that cannot be released is reclaimed with its document.
func Release(ctx context.Context, els ...Element) {
	for _, el := range els {
		if r, ok := el.(Releasable); ok {
			_ = r.Release(ctx)
		}
	}
}

// Browser is a full page session.
type Browser interface {
	Driver

	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Reload(ctx context.Context) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Close() error
}

// WindowManager is implemented by backends that track multiple tabs.
type WindowManager interface {
	WindowHandles(ctx context.Context) ([]string, error)
	CurrentWindow(ctx context.Context) (string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	CloseWindow(ctx context.Context) error
}
