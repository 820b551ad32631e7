// Package session provisions one browser for a test run and bundles it with
// the wait layer, action pacing, artifact storage and a correlated logger.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/tradeui-e2e/internal/artifacts"
	"github.com/kuitang/tradeui-e2e/internal/config"
	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/driver/cdpdriver"
	"github.com/kuitang/tradeui-e2e/internal/driver/pwdriver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/logutil"
	"github.com/kuitang/tradeui-e2e/internal/obs"
	"github.com/kuitang/tradeui-e2e/internal/pages"
	"github.com/kuitang/tradeui-e2e/internal/ratelimit"
	"github.com/kuitang/tradeui-e2e/internal/wait"
)

const maxLoggedProblemChars = 500

// Session is a live browser plus everything page objects need to drive it.
type Session struct {
	RunID   string
	Config  *config.Config
	Browser driver.Browser
	Wait    *wait.Waiter
	Pacer   *ratelimit.Pacer
	Store   artifacts.Store
	Log     *slog.Logger

	now       func() time.Time
	started   time.Time
	closeOnce sync.Once
	closeErr  error
}

// Option adjusts a Session built by New.
type Option func(*Session)

// WithWaiterOptions passes extra options to the session's Waiter, e.g. a
// fake clock.
func WithWaiterOptions(opts ...wait.WaiterOption) Option {
	return func(s *Session) {
		s.Wait = newWaiter(s.Browser, s.Config, s.Log, opts...)
	}
}

// WithNow replaces the wall clock used for artifact keys and durations.
func WithNow(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
		s.started = now()
	}
}

// Open launches the configured browser, connects the artifact store and
// returns a ready session. The caller must Close it.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = obs.Discard()
	}
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b, err := Launch(ctx, cfg)
	if err != nil {
		log.Error("browser launch failed", "driver", cfg.Driver, "browser", cfg.Browser, "error", err)
		return nil, err
	}
	return New(b, cfg, store, log), nil
}

// New wraps an already-running browser.
func New(b driver.Browser, cfg *config.Config, store artifacts.Store, log *slog.Logger, opts ...Option) *Session {
	if log == nil {
		log = obs.Discard()
	}
	runID := uuid.NewString()
	log = obs.With(log, obs.Correlation{RunID: runID, Browser: cfg.Browser})
	s := &Session{
		RunID:   runID,
		Config:  cfg,
		Browser: b,
		Pacer:   ratelimit.NewPacer(cfg.Slow),
		Store:   store,
		Log:     log,
		now:     time.Now,
		started: time.Now(),
	}
	s.Wait = newWaiter(b, cfg, log)
	for _, opt := range opts {
		opt(s)
	}
	s.Log.Info("session started",
		"driver", cfg.Driver,
		"headless", cfg.Headless,
		"remote", cfg.RemoteURL != "",
		"slow_ms", s.Pacer.Gap().Milliseconds(),
		"base_url", cfg.BaseURL,
	)
	return s
}

func newWaiter(b driver.Driver, cfg *config.Config, log obs.Logger, opts ...wait.WaiterOption) *wait.Waiter {
	base := []wait.WaiterOption{
		wait.WithTimeouts(cfg.DefaultTimeout, cfg.ShortTimeout, cfg.LongTimeout),
		wait.WithInterval(cfg.PollInterval),
	}
	return wait.NewWaiter(b, log, append(base, opts...)...)
}

// Launch starts the browser named by cfg on the configured backend.
func Launch(ctx context.Context, cfg *config.Config) (driver.Browser, error) {
	switch cfg.Driver {
	case config.DriverPlaywright, "":
		b, err := pwdriver.Launch(pwdriver.Options{
			Browser:           cfg.Browser,
			Headless:          cfg.Headless,
			RemoteURL:         cfg.RemoteURL,
			ViewportWidth:     cfg.ViewportWidth,
			ViewportHeight:    cfg.ViewportHeight,
			UserAgent:         cfg.UserAgent,
			ActionTimeout:     cfg.DefaultTimeout,
			NavigationTimeout: cfg.NavigationTimeout,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.DriverChromedp:
		if cfg.Browser == config.BrowserFirefox {
			return nil, errs.New(errs.Unsupported, "chromedp cannot drive firefox")
		}
		b, err := cdpdriver.Launch(ctx, cdpdriver.Options{
			Headless:       cfg.Headless,
			RemoteURL:      cfg.RemoteURL,
			ViewportWidth:  cfg.ViewportWidth,
			ViewportHeight: cfg.ViewportHeight,
			UserAgent:      cfg.UserAgent,
			ActionTimeout:  cfg.NavigationTimeout,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown driver %q", cfg.Driver))
	}
}

// NewStore returns the S3 store for configured runs and a local directory
// store under ScreenshotDir otherwise.
func NewStore(ctx context.Context, cfg *config.Config) (artifacts.Store, error) {
	if cfg.NoS3 {
		return artifacts.NewDirStore(cfg.ScreenshotDir), nil
	}
	store, err := artifacts.NewS3Store(ctx, artifacts.S3Config{
		Endpoint:        cfg.AWSEndpointS3,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		BucketName:      cfg.ArtifactsBucket,
		UsePathStyle:    cfg.AWSEndpointS3 != "",
	})
	if err != nil {
		return nil, errs.Wrap(errs.DriverFault, "connect artifact store", err)
	}
	return store, nil
}

// ForTest returns a logger tagged with the test name.
func (s *Session) ForTest(test string) *slog.Logger {
	return obs.With(s.Log, obs.Correlation{Test: test})
}

// Pages returns the shared page plumbing for test, logging under its name.
func (s *Session) Pages(test string) *pages.Base {
	return pages.NewBase(s.Browser, s.Wait, s.Pacer, s.ForTest(test))
}

// CaptureFailure saves a screenshot and the page source for test under the
// run's artifact prefix and returns where they went. Capture problems are
// logged and returned but never replace the test's own failure.
func (s *Session) CaptureFailure(ctx context.Context, test, name string) ([]string, error) {
	log := s.ForTest(test)
	at := s.now()
	var saved []string
	var problems []string

	if png, err := s.Browser.Screenshot(ctx); err != nil {
		problems = append(problems, "screenshot: "+err.Error())
	} else if loc, err := s.Store.Put(ctx, artifacts.Key(s.RunID, test, name, ".png", at), png, "image/png"); err != nil {
		problems = append(problems, "store screenshot: "+err.Error())
	} else {
		saved = append(saved, loc)
	}

	if html, err := s.Browser.PageSource(ctx); err != nil {
		problems = append(problems, "page source: "+err.Error())
	} else if loc, err := s.Store.Put(ctx, artifacts.Key(s.RunID, test, name, ".html", at), []byte(html), "text/html; charset=utf-8"); err != nil {
		problems = append(problems, "store page source: "+err.Error())
	} else {
		saved = append(saved, loc)
	}

	for _, loc := range saved {
		log.Info("failure artifact saved", "location", loc)
	}
	if len(problems) > 0 {
		log.Warn("failure capture incomplete", "problems", logutil.TruncateForLog(strings.Join(problems, "; "), maxLoggedProblemChars))
		return saved, errs.New(errs.DriverFault, "capture failure: "+strings.Join(problems, "; "))
	}
	return saved, nil
}

// Close shuts the browser down once and logs the session duration.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Browser.Close()
		dur := s.now().Sub(s.started)
		if s.closeErr != nil {
			s.Log.Error("session close failed", "error", s.closeErr, "dur_ms", dur.Milliseconds())
			return
		}
		s.Log.Info("session stopped", "dur_ms", dur.Milliseconds())
	})
	return s.closeErr
}
