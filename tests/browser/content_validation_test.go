package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/pages"
	"github.com/kuitang/tradeui-e2e/internal/wait"
	"github.com/stretchr/testify/require"
)

func TestContent_MarketingBanners(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyMarketingBannersVisible(ctx))
	n, err := home.MarketingBannersCount(ctx)
	require.NoError(t, err)
	require.Positive(t, n)
}

func TestContent_DownloadSection(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyDownloadSectionVisible(ctx))
	require.NoError(t, home.VerifyAppStoreLinkExists(ctx))
	require.NoError(t, home.VerifyGooglePlayLinkExists(ctx))
}

func TestContent_StoreLinksOpenNewWindow(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	base := env.Session.Pages(t.Name())
	home := pages.NewHomePage(base, env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyDownloadSectionVisible(ctx))

	for _, click := range []func(context.Context) (string, error){
		home.ClickAppStoreLink,
		home.ClickGooglePlayLink,
	} {
		original, err := click(ctx)
		require.NoError(t, err)
		if original == "" {
			t.Skip("driver does not manage windows")
		}

		_, err = wait.Until(ctx, base.Wait(), windowCount(2))
		require.NoError(t, err)
		from, err := base.SwitchToNewWindow(ctx)
		require.NoError(t, err)
		require.Equal(t, original, from)
		_, err = base.WaitForURLToContain(ctx, "/out/")
		require.NoError(t, err)

		require.NoError(t, base.CloseCurrentWindow(ctx))
		require.NoError(t, base.SwitchToWindow(ctx, original))
		url, err := base.URL(ctx)
		require.NoError(t, err)
		require.Equal(t, home.PageURL, url)
	}
}

func windowCount(n int) wait.Condition[int] {
	return wait.Func("window count", func(ctx context.Context, d driver.Driver) (int, bool, error) {
		wm, ok := d.(driver.WindowManager)
		if !ok {
			return 0, false, errs.New(errs.Unsupported, "driver does not manage windows")
		}
		handles, err := wm.WindowHandles(ctx)
		if err != nil {
			return 0, false, err
		}
		return len(handles), len(handles) >= n, nil
	})
}

func TestContent_Footer(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyFooterExists(ctx))
	n, err := home.FooterLinksCount(ctx)
	require.NoError(t, err)
	require.Positive(t, n)
}

func TestContent_AboutPage(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	about := pages.NewAboutPage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, about.Load(ctx))
	require.NoError(t, about.VerifyHeaderPresent(ctx))
	require.NoError(t, about.VerifyContentVisible(ctx))
	require.NoError(t, about.VerifyCompanyDescriptionPresent(ctx))
	require.NoError(t, about.VerifyMissionStatementPresent(ctx))
	require.NoError(t, about.VerifyVisionStatementPresent(ctx))

	header, err := about.HeaderText(ctx)
	require.NoError(t, err)
	require.Equal(t, "About MultiBank Group", header)
	mission, err := about.MissionStatement(ctx)
	require.NoError(t, err)
	require.Contains(t, mission, "mission")
}

func TestContent_WhyMultibankRenders(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	why := pages.NewWhyMultibankPage(env.Session.Pages(t.Name()), env.MarketingURL)

	require.NoError(t, why.Load(ctx))
	require.NoError(t, why.ScrollThroughContent(ctx))
	require.NoError(t, why.VerifyFeatureSectionStructure(ctx))
	require.NoError(t, why.VerifyAllComponentsRender(ctx))
	require.NoError(t, why.VerifyBenefitsListHasItems(ctx))
	require.NoError(t, why.VerifyBenefitsItemsHaveText(ctx))
}

func TestContent_MissingElementIsVerificationFailure(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	base := env.Session.Pages(t.Name())

	require.NoError(t, base.Navigate(ctx, env.BaseURL+"/about"))
	err := base.VerifyElementPresent(ctx, driver.ID("does-not-exist"))
	require.Error(t, err)
	require.Equal(t, errs.VerificationFailed, errs.CodeOf(err))

	err = base.VerifyElementText(ctx, pages.About.Header, "Not the header")
	require.Equal(t, errs.VerificationFailed, errs.CodeOf(err))
	var coded errs.Coder
	require.True(t, errors.As(err, &coded))
}
