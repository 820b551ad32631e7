// Package fakedriver is an in-memory, scripted page for testing the wait
// layer and page objects without a browser. Mutations scheduled with At are
// applied lazily whenever the page is observed, against the injected clock,
// so a FakeClock drives the page's timeline deterministically.
package fakedriver

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
)

// Clock is the time source the page's schedule is measured against.
type Clock interface {
	Now() time.Time
}

type event struct {
	at  time.Duration
	seq int
	fn  func(*Page)
}

// Page is a scripted browser page. It implements driver.Browser and
// driver.WindowManager.
type Page struct {
	mu    sync.Mutex
	clock Clock
	start time.Time

	url        string
	title      string
	readyState string
	history    []string
	histPos    int
	nodes      []*Node
	events     []event
	seq        int

	scripts   map[string]any
	evaluated []string
	fault     error
	finds     int
	closed    bool

	windows []string
	current string

	// OnNavigate, when set, runs after every navigation with the page
	// unlocked, so it may rebuild the DOM for the new URL.
	OnNavigate func(p *Page, url string)
}

var (
	_ driver.Browser       = (*Page)(nil)
	_ driver.WindowManager = (*Page)(nil)
)

// New returns an empty, fully loaded page at about:blank.
func New(clock Clock) *Page {
	return &Page{
		clock:      clock,
		start:      clock.Now(),
		url:        "about:blank",
		readyState: "complete",
		history:    []string{"about:blank"},
		scripts:    map[string]any{},
		windows:    []string{"main"},
		current:    "main",
	}
}

// At schedules fn to run once the clock is at least offset past the page's
// creation. Events run in offset order, ties in scheduling order.
func (p *Page) At(offset time.Duration, fn func(*Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.events = append(p.events, event{at: offset, seq: p.seq, fn: fn})
	sort.SliceStable(p.events, func(i, j int) bool {
		if p.events[i].at != p.events[j].at {
			return p.events[i].at < p.events[j].at
		}
		return p.events[i].seq < p.events[j].seq
	})
}

// tick applies due events. Each event runs with the page unlocked.
func (p *Page) tick() {
	for {
		p.mu.Lock()
		if len(p.events) == 0 || p.clock.Now().Sub(p.start) < p.events[0].at {
			p.mu.Unlock()
			return
		}
		ev := p.events[0]
		p.events = p.events[1:]
		p.mu.Unlock()
		ev.fn(p)
	}
}

// Add attaches nodes at the document root.
func (p *Page) Add(nodes ...*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range nodes {
		n.attach(p, nil)
		p.nodes = append(p.nodes, n)
	}
}

// Remove detaches n and its subtree. Handles to them become stale.
func (p *Page) Remove(n *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(n)
}

func (p *Page) removeLocked(n *Node) {
	if n.parent != nil {
		n.parent.children = without(n.parent.children, n)
	} else {
		p.nodes = without(p.nodes, n)
	}
	n.detach()
}

// Clear detaches every node.
func (p *Page) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		n.detach()
	}
	p.nodes = nil
}

func without(list []*Node, n *Node) []*Node {
	out := list[:0:0]
	for _, c := range list {
		if c != n {
			out = append(out, c)
		}
	}
	return out
}

// SetURL changes the current URL without a navigation event, as a
// client-side router would.
func (p *Page) SetURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = u
}

// SetTitle sets the document title.
func (p *Page) SetTitle(t string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = t
}

// SetReadyState sets document.readyState.
func (p *Page) SetReadyState(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readyState = s
}

// SetScript fixes the result Evaluate returns for script.
func (p *Page) SetScript(script string, result any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[script] = result
}

// Fail makes every subsequent driver call return err until Fail(nil).
func (p *Page) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fault = err
}

// FindCalls returns how many times Find has been called on the page.
func (p *Page) FindCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finds
}

// Evaluated returns every script passed to Evaluate, in order.
func (p *Page) Evaluated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evaluated...)
}

// OpenWindow registers a new window handle, as a target=_blank link would.
func (p *Page) OpenWindow(handle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windows = append(p.windows, handle)
}

func (p *Page) observe() error {
	p.tick()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkLocked()
}

func (p *Page) checkLocked() error {
	if p.closed {
		return errs.New(errs.DriverFault, "page closed")
	}
	return p.fault
}

// Find implements driver.Driver.
func (p *Page) Find(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.observe(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finds++
	return collect(p.nodes, loc), nil
}

func collect(nodes []*Node, loc driver.Locator) []driver.Element {
	var out []driver.Element
	var walk func([]*Node)
	walk = func(list []*Node) {
		for _, n := range list {
			if n.matches(loc) {
				out = append(out, &element{n: n})
			}
			walk(n.children)
		}
	}
	walk(nodes)
	return out
}

// CurrentURL implements driver.Driver.
func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := p.observe(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// Evaluate implements driver.Driver. Scripts set with SetScript return their
// fixed result; readyState checks report the page's ready state; anything
// else evaluates to nil.
func (p *Page) Evaluate(ctx context.Context, script string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.observe(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluated = append(p.evaluated, script)
	if v, ok := p.scripts[script]; ok {
		return v, nil
	}
	if strings.Contains(script, "document.readyState") {
		return p.readyState == "complete", nil
	}
	return nil, nil
}

// Navigate implements driver.Browser.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.observe(); err != nil {
		return err
	}
	p.mu.Lock()
	p.history = append(p.history[:p.histPos+1], url)
	p.histPos = len(p.history) - 1
	p.url = url
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

// Title implements driver.Browser.
func (p *Page) Title(ctx context.Context) (string, error) {
	if err := p.observe(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

// PageSource renders the attached DOM as HTML.
func (p *Page) PageSource(ctx context.Context) (string, error) {
	if err := p.observe(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var b strings.Builder
	b.WriteString("<html><head><title>" + html.EscapeString(p.title) + "</title></head><body>")
	for _, n := range p.nodes {
		n.render(&b)
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

// Screenshot returns a placeholder image.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.observe(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return []byte("\x89PNG fake " + p.url), nil
}

// Reload re-runs OnNavigate for the current URL.
func (p *Page) Reload(ctx context.Context) error {
	if err := p.observe(); err != nil {
		return err
	}
	p.mu.Lock()
	url, hook := p.url, p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

// Back implements driver.Browser.
func (p *Page) Back(ctx context.Context) error { return p.moveHistory(-1) }

// Forward implements driver.Browser.
func (p *Page) Forward(ctx context.Context) error { return p.moveHistory(1) }

func (p *Page) moveHistory(delta int) error {
	if err := p.observe(); err != nil {
		return err
	}
	p.mu.Lock()
	pos := p.histPos + delta
	if pos < 0 || pos >= len(p.history) {
		p.mu.Unlock()
		return nil
	}
	p.histPos = pos
	p.url = p.history[pos]
	url, hook := p.url, p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

// Close implements driver.Browser.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// WindowHandles implements driver.WindowManager.
func (p *Page) WindowHandles(ctx context.Context) ([]string, error) {
	if err := p.observe(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.windows...), nil
}

// CurrentWindow implements driver.WindowManager.
func (p *Page) CurrentWindow(ctx context.Context) (string, error) {
	if err := p.observe(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

// SwitchToWindow implements driver.WindowManager.
func (p *Page) SwitchToWindow(ctx context.Context, handle string) error {
	if err := p.observe(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.windows {
		if w == handle {
			p.current = handle
			return nil
		}
	}
	return errs.New(errs.NotFound, fmt.Sprintf("no window %q", handle))
}

// CloseWindow implements driver.WindowManager.
func (p *Page) CloseWindow(ctx context.Context) error {
	if err := p.observe(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.windows[:0:0]
	for _, w := range p.windows {
		if w != p.current {
			kept = append(kept, w)
		}
	}
	p.windows = kept
	p.current = ""
	return nil
}
