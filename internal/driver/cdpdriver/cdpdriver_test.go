package cdpdriver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestFindScript(t *testing.T) {
	t.Parallel()
	css := findScript(driver.ClassName("pair-name"), "document")
	if css != `Array.from(document.querySelectorAll(".pair-name"))` {
		t.Errorf("css script = %s", css)
	}
	xp := findScript(driver.LinkText(`Say "hi"`), "this")
	if !strings.Contains(xp, "document.evaluate(") || !strings.Contains(xp, ", this, null") {
		t.Errorf("xpath script = %s", xp)
	}
	if !strings.Contains(xp, `normalize-space(.)='Say \"hi\"'`) {
		t.Errorf("xpath literal not JS-quoted: %s", xp)
	}
}

func TestMapErr(t *testing.T) {
	t.Parallel()
	require.NoError(t, mapErr("op", nil))
	require.Equal(t, errs.StaleElement, errs.CodeOf(mapErr("text", errors.New("exception: Error: stale element reference"))))
	require.Equal(t, errs.StaleElement, errs.CodeOf(mapErr("text", errors.New("Could not find object with given id (-32000)"))))
	require.Equal(t, errs.DriverFault, errs.CodeOf(mapErr("navigate", errors.New("websocket: close 1006"))))
	require.ErrorIs(t, mapErr("run", context.Canceled), context.Canceled)

	coded := errs.New(errs.InvalidArgument, "bad")
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(mapErr("find", coded)))
}

func TestBrowser_Chromedp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!doctype html><html><head><title>cdp fixture</title></head><body>
<ul id="list"><li class="item">one</li><li class="item">two</li></ul>
<div id="gone">bye</div>
<input id="field" value="x">
<button id="btn" onclick="document.title='clicked'">Go</button>
</body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := Launch(ctx, Options{Headless: true, ViewportWidth: 1280, ViewportHeight: 800, ActionTimeout: 5 * time.Second})
	if err != nil {
		t.Skipf("chrome not available: %v", err)
	}
	defer b.Close()

	require.NoError(t, b.Navigate(ctx, srv.URL))
	title, err := b.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "cdp fixture", title)

	lists, err := b.Find(ctx, driver.ID("list"))
	require.NoError(t, err)
	require.Len(t, lists, 1)
	items, err := lists[0].Find(ctx, driver.ClassName("item"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	text, err := items[1].Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "two", text)

	driver.Release(ctx, items[0])
	_, err = items[0].Text(ctx)
	require.Error(t, err, "released handle should be unusable")
	text, err = items[1].Text(ctx)
	require.NoError(t, err)
	require.Equal(t, "two", text)

	gone, err := b.Find(ctx, driver.ID("gone"))
	require.NoError(t, err)
	require.Len(t, gone, 1)
	_, err = b.Evaluate(ctx, `document.getElementById("gone").remove()`)
	require.NoError(t, err)
	_, err = gone[0].Text(ctx)
	require.Equal(t, errs.StaleElement, errs.CodeOf(err))

	field, err := b.Find(ctx, driver.ID("field"))
	require.NoError(t, err)
	require.NoError(t, field[0].Type(ctx, "yz"))
	v, err := b.Evaluate(ctx, `document.getElementById("field").value`)
	require.NoError(t, err)
	require.Equal(t, "xyz", v)

	btn, err := b.Find(ctx, driver.XPath("//button[@id='btn']"))
	require.NoError(t, err)
	require.Len(t, btn, 1)
	require.NoError(t, btn[0].Click(ctx))
	title, err = b.Title(ctx)
	require.NoError(t, err)
	require.Equal(t, "clicked", title)
}
