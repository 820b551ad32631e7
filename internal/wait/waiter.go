package wait

import (
	"context"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/obs"
)

// Waiter binds conditions to a driver with default timeouts. A Waiter holds
// no per-call state and belongs to one browser session.
type Waiter struct {
	d   driver.Driver
	log obs.Logger

	timeout  time.Duration
	short    time.Duration
	long     time.Duration
	interval time.Duration
	ignore   []errs.Code
	clock    Clock
}

// WaiterOption configures a Waiter.
type WaiterOption func(*Waiter)

// WithTimeouts overrides the default, short and long timeouts. Zero values
// keep the current setting.
func WithTimeouts(def, short, long time.Duration) WaiterOption {
	return func(w *Waiter) {
		if def > 0 {
			w.timeout = def
		}
		if short > 0 {
			w.short = short
		}
		if long > 0 {
			w.long = long
		}
	}
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) WaiterOption {
	return func(w *Waiter) { w.clock = c }
}

// WithIgnored replaces the error codes treated as "keep polling".
func WithIgnored(codes ...errs.Code) WaiterOption {
	return func(w *Waiter) { w.ignore = append([]errs.Code{}, codes...) }
}

// NewWaiter returns a Waiter polling d and logging to log.
func NewWaiter(d driver.Driver, log obs.Logger, opts ...WaiterOption) *Waiter {
	if log == nil {
		log = obs.Discard()
	}
	w := &Waiter{
		d:        d,
		log:      log,
		timeout:  DefaultTimeout,
		short:    ShortTimeout,
		long:     LongTimeout,
		interval: DefaultInterval,
		clock:    RealClock{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Waiter) DefaultTimeout() time.Duration { return w.timeout }
func (w *Waiter) ShortTimeout() time.Duration   { return w.short }
func (w *Waiter) LongTimeout() time.Duration    { return w.long }

// CallOption adjusts a single wait.
type CallOption func(*Options)

// Timeout sets the timeout for one call. Zero keeps the waiter's timeout
// for the operation.
func Timeout(d time.Duration) CallOption {
	return func(o *Options) {
		if d != 0 {
			o.Timeout = d
		}
	}
}

// Interval sets the polling interval for one call. Zero or negative keeps
// the waiter's interval.
func Interval(d time.Duration) CallOption {
	return func(o *Options) {
		if d > 0 {
			o.Interval = d
		}
	}
}

// Ignoring replaces the ignored error codes for one call.
func Ignoring(codes ...errs.Code) CallOption {
	return func(o *Options) { o.Ignore = append([]errs.Code{}, codes...) }
}

func (w *Waiter) options(def time.Duration, opts []CallOption) Options {
	o := Options{
		Timeout:  def,
		Interval: w.interval,
		Ignore:   w.ignore,
		Clock:    w.clock,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Until polls cond with the waiter's defaults. It logs the start and outcome
// of the wait; timeouts are logged at error level.
func Until[T any](ctx context.Context, w *Waiter, cond Condition[T], opts ...CallOption) (T, error) {
	return until(ctx, w, cond, w.timeout, opts)
}

func until[T any](ctx context.Context, w *Waiter, cond Condition[T], def time.Duration, opts []CallOption) (T, error) {
	o := w.options(def, opts)
	desc := cond.Describe()
	w.log.Debug("waiting", "condition", desc, "timeout", o.Timeout.String())

	v, err := Poll(ctx, w.d, cond, o)
	switch {
	case err == nil:
		w.log.Debug("condition met", "condition", desc)
	case IsTimeout(err):
		w.log.Error("wait timed out", "condition", desc, "timeout", o.Timeout.String(), "error", err.Error())
	default:
		w.log.Error("wait failed", "condition", desc, "code", string(errs.CodeOf(err)), "error", err.Error())
	}
	return v, err
}

// query runs cond and reports a timeout as false. Any other failure, such
// as a driver fault or cancellation, is returned with its code.
func query[T any](ctx context.Context, w *Waiter, cond Condition[T], opts []CallOption) (bool, error) {
	o := w.options(w.short, opts)
	_, err := Poll(ctx, w.d, cond, o)
	switch {
	case err == nil:
		return true, nil
	case IsTimeout(err):
		w.log.Debug("query false", "condition", cond.Describe(), "timeout", o.Timeout.String())
		return false, nil
	}
	w.log.Error("query failed", "condition", cond.Describe(), "code", string(errs.CodeOf(err)), "error", err.Error())
	return false, err
}

// ForElementPresent waits until loc matches an element.
func (w *Waiter) ForElementPresent(ctx context.Context, loc driver.Locator, opts ...CallOption) (driver.Element, error) {
	return until(ctx, w, Present(loc), w.timeout, opts)
}

// ForElementVisible waits until the first match of loc is displayed.
func (w *Waiter) ForElementVisible(ctx context.Context, loc driver.Locator, opts ...CallOption) (driver.Element, error) {
	return until(ctx, w, Visible(loc), w.timeout, opts)
}

// ForElementsPresent waits until loc matches at least one element.
func (w *Waiter) ForElementsPresent(ctx context.Context, loc driver.Locator, opts ...CallOption) ([]driver.Element, error) {
	return until(ctx, w, AllPresent(loc), w.timeout, opts)
}

// ForElementsVisible waits until loc matches and every match is displayed.
func (w *Waiter) ForElementsVisible(ctx context.Context, loc driver.Locator, opts ...CallOption) ([]driver.Element, error) {
	return until(ctx, w, AllVisible(loc), w.timeout, opts)
}

// ForElementInvisible waits until loc matches nothing or its match is hidden.
func (w *Waiter) ForElementInvisible(ctx context.Context, loc driver.Locator, opts ...CallOption) error {
	_, err := until(ctx, w, Invisible(loc), w.timeout, opts)
	return err
}

// ForElementClickable waits until the first match of loc can take a click.
// The element is resolved afresh on every call.
func (w *Waiter) ForElementClickable(ctx context.Context, loc driver.Locator, opts ...CallOption) (driver.Element, error) {
	return until(ctx, w, Clickable(loc), w.timeout, opts)
}

// ForTextInElement waits until the first match of loc contains text.
func (w *Waiter) ForTextInElement(ctx context.Context, loc driver.Locator, text string, opts ...CallOption) (driver.Element, error) {
	return until(ctx, w, TextContains(loc, text), w.timeout, opts)
}

// ForURLContains waits until the current URL contains sub.
func (w *Waiter) ForURLContains(ctx context.Context, sub string, opts ...CallOption) (string, error) {
	return until(ctx, w, URLContains(sub), w.timeout, opts)
}

// ForURLChanges waits until the current URL differs from original.
func (w *Waiter) ForURLChanges(ctx context.Context, original string, opts ...CallOption) (string, error) {
	u, err := until(ctx, w, URLChanged(original), w.timeout, opts)
	if err == nil {
		w.log.Debug("url changed", "from", original, "to", u)
	}
	return u, err
}

// ForElementAttribute waits until the first match of loc has name=value.
func (w *Waiter) ForElementAttribute(ctx context.Context, loc driver.Locator, name, value string, opts ...CallOption) (driver.Element, error) {
	return until(ctx, w, AttributeEquals(loc, name, value), w.timeout, opts)
}

// ForPageLoad waits for document.readyState to reach "complete".
func (w *Waiter) ForPageLoad(ctx context.Context, opts ...CallOption) error {
	_, err := until(ctx, w, DocumentReady(), w.timeout, opts)
	return err
}

// ForAjaxComplete waits until no jQuery requests are in flight.
func (w *Waiter) ForAjaxComplete(ctx context.Context, opts ...CallOption) error {
	_, err := until(ctx, w, JQueryIdle(), w.timeout, opts)
	return err
}

// ElementExists reports whether loc matches an element within the short
// timeout. A timeout is not an error; driver faults are.
func (w *Waiter) ElementExists(ctx context.Context, loc driver.Locator, opts ...CallOption) (bool, error) {
	return query(ctx, w, Present(loc), opts)
}

// ElementIsDisplayed reports whether the first match of loc becomes visible
// within the short timeout.
func (w *Waiter) ElementIsDisplayed(ctx context.Context, loc driver.Locator, opts ...CallOption) (bool, error) {
	return query(ctx, w, Visible(loc), opts)
}

// ElementIsClickable reports whether the first match of loc becomes
// clickable within the short timeout.
func (w *Waiter) ElementIsClickable(ctx context.Context, loc driver.Locator, opts ...CallOption) (bool, error) {
	return query(ctx, w, Clickable(loc), opts)
}
