package browser

import (
	"strings"
	"testing"

	"github.com/kuitang/tradeui-e2e/internal/pages"
	"github.com/stretchr/testify/require"
)

func TestNavigation_MenuAndItems(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyNavigationMenuVisible(ctx))
	require.NoError(t, home.VerifyNavigationItemsExist(ctx))
}

func TestNavigation_Title(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	title, err := home.Title(ctx)
	require.NoError(t, err)
	require.Contains(t, strings.ToLower(title), "multibank")
}

func TestNavigation_MarketsLinkChangesURL(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	base := env.Session.Pages(t.Name())
	home := pages.NewHomePage(base, env.BaseURL)

	require.NoError(t, home.Load(ctx))
	original, err := home.URL(ctx)
	require.NoError(t, err)

	require.NoError(t, home.ClickMarketsLink(ctx))
	now, err := home.WaitForURLChange(ctx, original)
	require.NoError(t, err)
	require.Contains(t, now, "/markets")

	require.NoError(t, pages.NewTradingPage(base, env.BaseURL).VerifyPageLoaded(ctx))
}

func TestNavigation_AboutDropdownToWhyMultibank(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	base := env.Session.Pages(t.Name())
	home := pages.NewHomePage(base, env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.ClickAboutLink(ctx, pages.AboutWhyMultibank))
	_, err := home.WaitForURLToContain(ctx, "why-multibank")
	require.NoError(t, err)

	why := pages.NewWhyMultibankPage(base, env.MarketingURL)
	require.NoError(t, why.VerifyPageLoaded(ctx))
}

func TestNavigation_AboutPageLinksToWhyMultibank(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	base := env.Session.Pages(t.Name())
	about := pages.NewAboutPage(base, env.BaseURL)

	require.NoError(t, about.Load(ctx))
	require.NoError(t, about.VerifyWhyMultibankLinkExists(ctx))
	require.NoError(t, about.ClickWhyMultibankLink(ctx))
	_, err := about.WaitForURLToContain(ctx, "why-multibank")
	require.NoError(t, err)
}

func TestNavigation_BackAndForward(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	base := env.Session.Pages(t.Name())

	require.NoError(t, pages.NewHomePage(base, env.BaseURL).Load(ctx))
	trading := pages.NewTradingPage(base, env.BaseURL)
	require.NoError(t, trading.Load(ctx))

	require.NoError(t, base.Back(ctx))
	url, err := base.WaitForURLChange(ctx, trading.PageURL)
	require.NoError(t, err)
	require.Equal(t, env.BaseURL+"/", url)

	require.NoError(t, base.Forward(ctx))
	_, err = base.WaitForURLToContain(ctx, "/markets")
	require.NoError(t, err)
}
