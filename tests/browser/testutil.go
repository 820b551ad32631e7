// Package browser runs the page-object suite in a real browser.
//
// By default the suite drives a local fixture site that mirrors the trade
// platform's markup. Set TRADEUI_LIVE=1 to run against TRADEUI_BASE_URL and
// TRADEUI_MARKETING_URL instead. Suite flags pass through `go test`:
//
//	go test ./tests/browser -args --driver=chromedp --slow=0.5
package browser

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/artifacts"
	"github.com/kuitang/tradeui-e2e/internal/config"
	"github.com/kuitang/tradeui-e2e/internal/obs"
	"github.com/kuitang/tradeui-e2e/internal/session"
)

const (
	browserTestBucketName = "tradeui-browser-artifacts"

	// Fixture pages settle within a second; keep every wait well under
	// this ceiling so a hung page fails fast.
	browserMaxTimeout = 5 * time.Second
)

var suiteFlags = config.BindFlags(flag.CommandLine)

//go:embed testdata/site
var siteFiles embed.FS

var (
	siteOnce   sync.Once
	siteServer *httptest.Server
)

// BrowserTestEnv is one test's live browser session plus the target URLs.
type BrowserTestEnv struct {
	Session      *session.Session
	BaseURL      string
	MarketingURL string
	Live         bool
}

// liveMode reports whether the suite targets the real site.
func liveMode() bool {
	v := strings.TrimSpace(os.Getenv("TRADEUI_LIVE"))
	return v == "1" || strings.EqualFold(v, "true")
}

// SetupBrowserTestEnv launches a browser for t. The test is skipped in
// -short mode and when no browser can be launched. A failing test gets a
// screenshot and page source saved before the browser closes.
func SetupBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}

	cfg, store := suiteConfig(t)
	level, err := obs.ParseLevel(cfg.LogLevel)
	if err != nil {
		t.Fatalf("log level: %v", err)
	}
	logger := obs.New(t.Output(), level)

	b, err := session.Launch(context.Background(), cfg)
	if err != nil {
		t.Skip("Could not launch browser:", err)
	}
	sess := session.New(b, cfg, store, logger)

	t.Cleanup(func() {
		if t.Failed() {
			ctx, cancel := context.WithTimeout(context.Background(), browserMaxTimeout)
			saved, err := sess.CaptureFailure(ctx, t.Name(), "failure")
			cancel()
			if err != nil {
				t.Logf("failure capture incomplete: %v", err)
			}
			for _, loc := range saved {
				t.Logf("saved %s", loc)
			}
		}
		if err := sess.Close(); err != nil {
			t.Logf("close session: %v", err)
		}
	})

	return &BrowserTestEnv{
		Session:      sess,
		BaseURL:      cfg.BaseURL,
		MarketingURL: cfg.MarketingURL,
		Live:         liveMode(),
	}
}

// suiteConfig resolves the configuration for one test. Fixture runs point
// both targets at the local site, run headless with short waits and store
// artifacts in an in-memory S3.
func suiteConfig(t *testing.T) (*config.Config, artifacts.Store) {
	t.Helper()

	if liveMode() {
		cfg, err := config.LoadConfig(*suiteFlags)
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		store, err := session.NewStore(context.Background(), cfg)
		if err != nil {
			t.Fatalf("artifact store: %v", err)
		}
		return cfg, store
	}

	f := *suiteFlags
	f.NoS3 = true
	f.Headless = true
	cfg, err := config.LoadConfig(f)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	site := fixtureSite(t)
	cfg.BaseURL = site.URL
	cfg.MarketingURL = site.URL
	cfg.DefaultTimeout = browserMaxTimeout
	cfg.ShortTimeout = 2 * time.Second
	cfg.LongTimeout = browserMaxTimeout
	cfg.PollInterval = 100 * time.Millisecond
	cfg.NavigationTimeout = browserMaxTimeout
	return cfg, artifacts.TestS3Store(t, browserTestBucketName)
}

// =============================================================================
// Fixture site
// =============================================================================

func fixtureSite(t *testing.T) *httptest.Server {
	t.Helper()
	siteOnce.Do(func() {
		root, err := fs.Sub(siteFiles, "testdata/site")
		if err != nil {
			panic(fmt.Sprintf("fixture site files: %v", err))
		}
		level, err := obs.ParseLevel(os.Getenv("TRADEUI_LOG_LEVEL"))
		if err != nil {
			level = slog.LevelInfo
		}
		siteServer = httptest.NewServer(obs.AccessLog(obs.New(os.Stderr, level), siteMux(root)))
	})
	return siteServer
}

func siteMux(root fs.FS) *http.ServeMux {
	mux := http.NewServeMux()
	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, root, name)
		}
	}
	mux.HandleFunc("GET /{$}", page("index.html"))
	mux.HandleFunc("GET /markets", page("markets.html"))
	mux.HandleFunc("GET /about", page("about.html"))
	mux.HandleFunc("GET /about/why-multibank", page("why-multibank.html"))
	mux.HandleFunc("GET /wait", page("wait.html"))
	mux.HandleFunc("GET /site.css", page("site.css"))

	// Store badges open here in a new tab.
	mux.HandleFunc("GET /out/{target...}", func(w http.ResponseWriter, r *http.Request) {
		obs.From(r.Context()).Info("store link followed", "target", r.PathValue("target"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!DOCTYPE html><title>%s</title><h1>Leaving MultiBank</h1>", html.EscapeString(r.PathValue("target")))
	})
	return mux
}

func closeFixtureSite() {
	if siteServer != nil {
		siteServer.Close()
	}
}

// =============================================================================
// Helpers
// =============================================================================

// testContext returns a context bounded well past any single wait so a
// wedged driver cannot hang the run.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 4*browserMaxTimeout)
	t.Cleanup(cancel)
	return ctx
}

// requireFixture skips checks that depend on fixture-only pages or content.
func (env *BrowserTestEnv) requireFixture(t *testing.T) {
	t.Helper()
	if env.Live {
		t.Skip("fixture-only check")
	}
}
