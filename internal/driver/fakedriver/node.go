package fakedriver

import (
	"context"
	"html"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
)

// Node is an element in a fake page. Build nodes with El and the With*
// methods, then attach them with Page.Add or Node.Append. Setters are safe
// to call from At callbacks and from tests while polling is in progress.
type Node struct {
	page     *Page
	parent   *Node
	children []*Node
	attached bool

	tag        string
	attrs      map[string]string
	text       string
	hidden     bool
	disabled   bool
	obstructed bool
	selectors  []string

	value   string
	clicks  int
	hovers  int
	scrolls int

	releases int

	// OnClick runs after a successful click with the page unlocked.
	OnClick func(p *Page)
	// OnHover runs after a hover with the page unlocked.
	OnHover func(p *Page)
}

// El returns a detached, visible, enabled node.
func El(tag string) *Node {
	return &Node{tag: strings.ToLower(tag), attrs: map[string]string{}}
}

func (n *Node) WithID(id string) *Node { n.attrs["id"] = id; return n }

func (n *Node) WithClass(classes ...string) *Node {
	n.attrs["class"] = strings.TrimSpace(n.attrs["class"] + " " + strings.Join(classes, " "))
	return n
}

func (n *Node) WithAttr(name, value string) *Node { n.attrs[name] = value; return n }
func (n *Node) WithText(text string) *Node        { n.text = text; return n }
func (n *Node) Hidden() *Node                     { n.hidden = true; return n }
func (n *Node) Disabled() *Node                   { n.disabled = true; return n }
func (n *Node) Obstructed() *Node                 { n.obstructed = true; return n }

// Matching makes the node match the given raw CSS selectors and XPath
// expressions verbatim. The fake does not parse either language.
func (n *Node) Matching(selectors ...string) *Node {
	n.selectors = append(n.selectors, selectors...)
	return n
}

// Append attaches children under n.
func (n *Node) Append(children ...*Node) *Node {
	n.lock()
	defer n.unlock()
	for _, c := range children {
		c.parent = n
		if n.attached {
			c.attach(n.page, n)
		}
		n.children = append(n.children, c)
	}
	return n
}

func (n *Node) lock() {
	if n.page != nil {
		n.page.mu.Lock()
	}
}

func (n *Node) unlock() {
	if n.page != nil {
		n.page.mu.Unlock()
	}
}

func (n *Node) attach(p *Page, parent *Node) {
	n.page = p
	n.parent = parent
	n.attached = true
	for _, c := range n.children {
		c.attach(p, n)
	}
}

func (n *Node) detach() {
	n.attached = false
	for _, c := range n.children {
		c.detach()
	}
}

// SetHidden toggles display.
func (n *Node) SetHidden(hidden bool) { n.lock(); n.hidden = hidden; n.unlock() }

// SetDisabled toggles the disabled state.
func (n *Node) SetDisabled(disabled bool) { n.lock(); n.disabled = disabled; n.unlock() }

// SetObstructed toggles whether another element covers this one.
func (n *Node) SetObstructed(obstructed bool) { n.lock(); n.obstructed = obstructed; n.unlock() }

// SetText replaces the node's text.
func (n *Node) SetText(text string) { n.lock(); n.text = text; n.unlock() }

// SetAttr sets an attribute.
func (n *Node) SetAttr(name, value string) { n.lock(); n.attrs[name] = value; n.unlock() }

// RemoveAttr deletes an attribute.
func (n *Node) RemoveAttr(name string) { n.lock(); delete(n.attrs, name); n.unlock() }

// Clicks returns how many times the node was clicked.
func (n *Node) Clicks() int { n.lock(); defer n.unlock(); return n.clicks }

// Hovers returns how many times the node was hovered.
func (n *Node) Hovers() int { n.lock(); defer n.unlock(); return n.hovers }

// Scrolls returns how many times the node was scrolled into view.
func (n *Node) Scrolls() int { n.lock(); defer n.unlock(); return n.scrolls }

// Value returns text typed into the node.
func (n *Node) Value() string { n.lock(); defer n.unlock(); return n.value }

// Releases returns how many handles to the node have been released.
func (n *Node) Releases() int { n.lock(); defer n.unlock(); return n.releases }

func (n *Node) classes() []string {
	return strings.Fields(n.attrs["class"])
}

// displayedLocked reports display state including hidden ancestors.
func (n *Node) displayedLocked() bool {
	for c := n; c != nil; c = c.parent {
		if c.hidden {
			return false
		}
	}
	return true
}

func (n *Node) textLocked() string {
	if !n.displayedLocked() {
		return ""
	}
	parts := []string{}
	if n.text != "" {
		parts = append(parts, n.text)
	}
	for _, c := range n.children {
		if t := c.textLocked(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (n *Node) matches(loc driver.Locator) bool {
	switch loc.By {
	case driver.ByID:
		return n.attrs["id"] == loc.Value
	case driver.ByName:
		return n.attrs["name"] == loc.Value
	case driver.ByTagName:
		return n.tag == strings.ToLower(loc.Value)
	case driver.ByClassName:
		want := strings.Fields(loc.Value)
		have := n.classes()
		for _, w := range want {
			if !slices.Contains(have, w) {
				return false
			}
		}
		return len(want) > 0
	case driver.ByLinkText:
		return n.tag == "a" && strings.TrimSpace(n.text) == strings.TrimSpace(loc.Value)
	case driver.ByPartialLinkText:
		return n.tag == "a" && strings.Contains(n.text, loc.Value)
	default:
		if slices.Contains(n.selectors, loc.Value) {
			return true
		}
		if sel, ok := loc.CSSSelector(); ok && loc.By == driver.ByCSS {
			return n.matchesSimpleCSS(sel)
		}
		return false
	}
}

// matchesSimpleCSS understands a single compound selector such as
// "a.btn#go": an optional tag, then #id and .class parts.
func (n *Node) matchesSimpleCSS(sel string) bool {
	if strings.ContainsAny(sel, " >+~[:,*") || sel == "" {
		return false
	}
	tag := sel
	if i := strings.IndexAny(sel, ".#"); i >= 0 {
		tag = sel[:i]
	} else {
		return n.tag == strings.ToLower(sel)
	}
	if tag != "" && n.tag != strings.ToLower(tag) {
		return false
	}
	rest := sel[len(tag):]
	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, ".#")
		if end < 0 {
			end = len(rest)
		}
		part := rest[:end]
		rest = rest[end:]
		switch kind {
		case '#':
			if n.attrs["id"] != part {
				return false
			}
		case '.':
			if !slices.Contains(n.classes(), part) {
				return false
			}
		}
	}
	return true
}

func (n *Node) render(b *strings.Builder) {
	b.WriteString("<" + n.tag)
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + `="` + html.EscapeString(n.attrs[k]) + `"`)
	}
	b.WriteString(">" + html.EscapeString(n.text))
	for _, c := range n.children {
		c.render(b)
	}
	b.WriteString("</" + n.tag + ">")
}

// element is the driver.Element handle for a Node.
type element struct {
	n        *Node
	released atomic.Bool
}

var (
	_ driver.Element    = (*element)(nil)
	_ driver.Hittable   = (*element)(nil)
	_ driver.Releasable = (*element)(nil)
)

// NodeOf returns the node behind a handle produced by this package.
func NodeOf(el driver.Element) (*Node, bool) {
	e, ok := el.(*element)
	if !ok {
		return nil, false
	}
	return e.n, true
}

var (
	errStale            = errs.New(errs.StaleElement, "element is not attached to the page")
	errUsedAfterRelease = errs.New(errs.Internal, "element handle used after release")
)

// access observes the page and runs fn under the page lock if the node is
// still attached.
func (e *element) access(ctx context.Context, fn func(n *Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.released.Load() {
		return errUsedAfterRelease
	}
	p := e.n.page
	if err := p.observe(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !e.n.attached {
		return errStale
	}
	return fn(e.n)
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	var shown bool
	err := e.access(ctx, func(n *Node) error { shown = n.displayedLocked(); return nil })
	return shown, err
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := e.access(ctx, func(n *Node) error { enabled = !n.disabled; return nil })
	return enabled, err
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.access(ctx, func(n *Node) error { text = n.textLocked(); return nil })
	return text, err
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value   string
		present bool
	)
	err := e.access(ctx, func(n *Node) error {
		if name == "value" && n.value != "" {
			value, present = n.value, true
			return nil
		}
		value, present = n.attrs[name]
		return nil
	})
	return value, present, err
}

func (e *element) ReceivesPointer(ctx context.Context) (bool, error) {
	var hit bool
	err := e.access(ctx, func(n *Node) error { hit = !n.obstructed; return nil })
	return hit, err
}

func (e *element) click(ctx context.Context, viaScript bool) error {
	err := e.access(ctx, func(n *Node) error {
		if !viaScript && (!n.displayedLocked() || n.obstructed) {
			return errs.New(errs.DriverFault, "element not interactable")
		}
		n.clicks++
		return nil
	})
	if err != nil {
		return err
	}
	if hook := e.n.OnClick; hook != nil {
		hook(e.n.page)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error { return e.click(ctx, false) }

func (e *element) ClickViaScript(ctx context.Context) error { return e.click(ctx, true) }

func (e *element) Clear(ctx context.Context) error {
	return e.access(ctx, func(n *Node) error { n.value = ""; return nil })
}

func (e *element) Type(ctx context.Context, text string) error {
	return e.access(ctx, func(n *Node) error {
		if n.disabled {
			return errs.New(errs.DriverFault, "element is disabled")
		}
		n.value += text
		return nil
	})
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	return e.access(ctx, func(n *Node) error { n.scrolls++; return nil })
}

func (e *element) Hover(ctx context.Context) error {
	err := e.access(ctx, func(n *Node) error { n.hovers++; return nil })
	if err != nil {
		return err
	}
	if hook := e.n.OnHover; hook != nil {
		hook(e.n.page)
	}
	return nil
}

func (e *element) Find(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	var out []driver.Element
	err := e.access(ctx, func(n *Node) error {
		out = collect(n.children, loc)
		return nil
	})
	return out, err
}

// Release marks the handle spent. Later calls through it fail.
func (e *element) Release(ctx context.Context) error {
	if e.released.Swap(true) {
		return nil
	}
	e.n.lock()
	e.n.releases++
	e.n.unlock()
	return nil
}
