package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/artifacts"
	"github.com/kuitang/tradeui-e2e/internal/config"
	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/driver/fakedriver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/obs"
	"github.com/kuitang/tradeui-e2e/internal/wait"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Driver:            config.DriverPlaywright,
		Browser:           config.BrowserChrome,
		Headless:          true,
		Slow:              250 * time.Millisecond,
		BaseURL:           "https://trade.multibank.io",
		DefaultTimeout:    4 * time.Second,
		ShortTimeout:      2 * time.Second,
		LongTimeout:       8 * time.Second,
		PollInterval:      200 * time.Millisecond,
		NavigationTimeout: 30 * time.Second,
		NoS3:              true,
	}
}

func newTestSession(t *testing.T, store artifacts.Store) (*Session, *fakedriver.Page, *wait.FakeClock, *bytes.Buffer) {
	t.Helper()
	clock := wait.NewFakeClock(epoch)
	page := fakedriver.New(clock)
	var buf bytes.Buffer
	s := New(page, testConfig(), store, obs.New(&buf, slog.LevelDebug),
		WithWaiterOptions(wait.WithClock(clock)),
		WithNow(clock.Now),
	)
	return s, page, clock, &buf
}

func TestNew_WiresConfig(t *testing.T) {
	t.Parallel()
	s, _, _, buf := newTestSession(t, artifacts.NewDirStore(t.TempDir()))

	require.Len(t, s.RunID, 36)
	require.Equal(t, 4*time.Second, s.Wait.DefaultTimeout())
	require.Equal(t, 2*time.Second, s.Wait.ShortTimeout())
	require.Equal(t, 8*time.Second, s.Wait.LongTimeout())
	require.Equal(t, 250*time.Millisecond, s.Pacer.Gap())

	out := buf.String()
	require.Contains(t, out, `"msg":"session started"`)
	require.Contains(t, out, `"run_id":"`+s.RunID+`"`)
	require.Contains(t, out, `"browser":"chrome"`)
}

func TestNew_DistinctRunIDs(t *testing.T) {
	t.Parallel()
	a, _, _, _ := newTestSession(t, artifacts.NewDirStore(t.TempDir()))
	b, _, _, _ := newTestSession(t, artifacts.NewDirStore(t.TempDir()))
	require.NotEqual(t, a.RunID, b.RunID)
}

func TestSession_WaiterUsesConfiguredTimeout(t *testing.T) {
	t.Parallel()
	s, _, clock, _ := newTestSession(t, artifacts.NewDirStore(t.TempDir()))

	_, err := s.Wait.ForElementPresent(context.Background(), driver.ID("never"))
	require.True(t, wait.IsTimeout(err), "got %v", err)
	require.Equal(t, 4*time.Second, clock.Now().Sub(epoch))
}

func TestCaptureFailure_DirStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := artifacts.NewDirStore(dir)
	s, page, _, _ := newTestSession(t, store)
	page.SetURL("https://trade.multibank.io/markets")
	page.Add(fakedriver.El("h1").WithText("Markets"))

	saved, err := s.CaptureFailure(context.Background(), "TestTrading/pairs", "failure")
	require.NoError(t, err)
	require.Len(t, saved, 2)

	keys, err := store.List(context.Background(), "runs/"+s.RunID)
	require.NoError(t, err)
	require.Equal(t, []string{
		"runs/" + s.RunID + "/TestTrading_pairs/failure_20260304_050607.html",
		"runs/" + s.RunID + "/TestTrading_pairs/failure_20260304_050607.png",
	}, keys)

	png, err := store.Get(context.Background(), keys[1])
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	html, err := store.Get(context.Background(), keys[0])
	require.NoError(t, err)
	require.Contains(t, string(html), "Markets")
}

func TestCaptureFailure_S3Store(t *testing.T) {
	t.Parallel()
	store := artifacts.TestS3Store(t, "tradeui-artifacts")
	s, _, _, buf := newTestSession(t, store)

	saved, err := s.CaptureFailure(context.Background(), "TestHome", "menu")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, loc := range saved {
		require.True(t, strings.HasPrefix(loc, "s3://tradeui-artifacts/runs/"+s.RunID+"/TestHome/"), loc)
	}
	require.Contains(t, buf.String(), `"test":"TestHome"`)
}

func TestCaptureFailure_BrowserGone(t *testing.T) {
	t.Parallel()
	s, page, _, buf := newTestSession(t, artifacts.NewDirStore(t.TempDir()))
	page.Fail(errs.New(errs.DriverFault, "session deleted"))

	saved, err := s.CaptureFailure(context.Background(), "TestX", "failure")
	require.Empty(t, saved)
	require.Equal(t, errs.DriverFault, errs.CodeOf(err))
	require.Contains(t, buf.String(), "failure capture incomplete")
}

type failingStore struct{ artifacts.Store }

func (failingStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket gone")
}

func TestCaptureFailure_StoreError(t *testing.T) {
	t.Parallel()
	s, _, _, _ := newTestSession(t, failingStore{})
	_, err := s.CaptureFailure(context.Background(), "TestX", "failure")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bucket gone")
}

func TestClose_Once(t *testing.T) {
	t.Parallel()
	s, page, clock, buf := newTestSession(t, artifacts.NewDirStore(t.TempDir()))
	clock.Advance(1500 * time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, 1, strings.Count(buf.String(), "session stopped"))
	require.Contains(t, buf.String(), `"dur_ms":1500`)

	_, err := page.CurrentURL(context.Background())
	require.Equal(t, errs.DriverFault, errs.CodeOf(err))
}

func TestLaunch_RejectsBadCombinations(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Driver = config.DriverChromedp
	cfg.Browser = config.BrowserFirefox
	_, err := Launch(context.Background(), cfg)
	require.Equal(t, errs.Unsupported, errs.CodeOf(err))

	cfg.Driver = "selenium"
	_, err = Launch(context.Background(), cfg)
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestNewStore_NoS3UsesScreenshotDir(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.ScreenshotDir = t.TempDir()
	store, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := store.(*artifacts.DirStore)
	require.True(t, ok)
}

func TestPages_LogsUnderTestName(t *testing.T) {
	t.Parallel()
	s, page, _, buf := newTestSession(t, artifacts.NewDirStore(t.TempDir()))
	page.Add(fakedriver.El("h1").WithID("title").WithText("Markets"))

	base := s.Pages("TestMarkets")
	require.NoError(t, base.VerifyElementPresent(context.Background(), driver.ID("title")))

	out := buf.String()
	require.Contains(t, out, `"msg":"element presence verified"`)
	require.Contains(t, out, `"test":"TestMarkets"`)
	require.Contains(t, out, `"run_id":"`+s.RunID+`"`)
}
