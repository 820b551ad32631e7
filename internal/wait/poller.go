// Package wait synchronizes tests with asynchronously rendered pages.
//
// A Condition is evaluated against the live page by Poll until it holds or
// the timeout elapses. Waiter binds the standard conditions to named
// operations with default timeouts: ForX operations return *TimeoutError on
// expiry, while the ElementX queries report false instead.
package wait

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
)

const (
	DefaultTimeout  = 10 * time.Second
	ShortTimeout    = 5 * time.Second
	LongTimeout     = 20 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// Condition is a re-evaluable predicate over page state. Check reports
// ok=false with a nil error when the condition does not hold yet. Errors are
// reserved for problems with the driver or the page.
type Condition[T any] interface {
	Describe() string
	Check(ctx context.Context, d driver.Driver) (value T, ok bool, err error)
}

// Options control a single Poll.
type Options struct {
	// Timeout bounds the poll. Zero means DefaultTimeout.
	Timeout time.Duration
	// Interval spaces evaluations. Zero means DefaultInterval.
	Interval time.Duration
	// Ignore lists error codes that mean "keep polling". Nil means the
	// codes errs.Retryable accepts. not_yet_satisfied is always ignored.
	Ignore []errs.Code
	// Clock defaults to RealClock.
	Clock Clock
}

func (o Options) withDefaults() (Options, error) {
	if o.Timeout < 0 {
		return o, errs.New(errs.InvalidArgument, fmt.Sprintf("negative timeout %s", o.Timeout))
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = RealClock{}
	}
	return o, nil
}

func (o Options) ignores(code errs.Code) bool {
	if o.Ignore == nil {
		return errs.Retryable(code)
	}
	return code == errs.NotYetSatisfied || slices.Contains(o.Ignore, code)
}

// TimeoutError reports a condition that never held within its timeout.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	Polls     int
	// LastErr is the last ignored error seen while polling, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s (%d polls in %s)",
		e.Timeout, e.Condition, e.Polls, e.Elapsed.Round(time.Millisecond))
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// ErrorCode implements errs.Coder.
func (e *TimeoutError) ErrorCode() errs.Code { return errs.Timeout }

// IsTimeout reports whether err is, or wraps, a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Poll evaluates cond immediately and then once per interval until it holds,
// the timeout elapses, a non-ignored error occurs, or ctx is done. It never
// starts a goroutine; all polling happens on the caller's stack.
func Poll[T any](ctx context.Context, d driver.Driver, cond Condition[T], opts Options) (T, error) {
	var zero T
	opts, err := opts.withDefaults()
	if err != nil {
		return zero, err
	}

	clock := opts.Clock
	start := clock.Now()
	polls := 0
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return zero, canceled(cond, err)
		}

		value, ok, err := cond.Check(ctx, d)
		polls++
		switch {
		case err != nil && ctx.Err() != nil:
			return zero, canceled(cond, ctx.Err())
		case err != nil && !opts.ignores(errs.CodeOf(err)):
			return zero, fault(cond, err)
		case err != nil:
			lastErr = err
		case ok:
			return value, nil
		}

		elapsed := clock.Now().Sub(start)
		if elapsed >= opts.Timeout {
			return zero, &TimeoutError{
				Condition: cond.Describe(),
				Timeout:   opts.Timeout,
				Elapsed:   elapsed,
				Polls:     polls,
				LastErr:   lastErr,
			}
		}

		// The last sleep is clipped so the final evaluation lands on the deadline.
		sleep := min(opts.Interval, opts.Timeout-elapsed)
		if err := clock.Sleep(ctx, sleep); err != nil {
			return zero, canceled(cond, err)
		}
	}
}

func canceled(cond interface{ Describe() string }, cause error) error {
	return errs.Wrap(errs.Canceled, "wait for "+cond.Describe()+" canceled", cause)
}

// fault keeps a code the error already carries and classifies uncoded
// errors as driver faults.
func fault(cond interface{ Describe() string }, cause error) error {
	code := errs.DriverFault
	var coded errs.Coder
	if errors.As(cause, &coded) {
		code = coded.ErrorCode()
	}
	return errs.Wrap(code, "wait for "+cond.Describe(), cause)
}
