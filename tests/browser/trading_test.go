package browser

import (
	"testing"

	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/pages"
	"github.com/stretchr/testify/require"
)

func TestTrading_SectionAndPairs(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyTradingSectionVisible(ctx))

	// Prices stream in after the shell; the spinner goes once they land.
	require.NoError(t, home.Wait().ForElementInvisible(ctx, pages.Common.Spinner))
	require.NoError(t, home.VerifyTradingPairsDisplayed(ctx))
	require.NoError(t, home.VerifyTradingPairStructure(ctx))
}

func TestTrading_CategoryFilters(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	ctx := testContext(t)
	home := pages.NewHomePage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, home.Load(ctx))
	require.NoError(t, home.VerifyCategoryFiltersExist(ctx))
}

func TestTrading_MarketsPage(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	trading := pages.NewTradingPage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, trading.Load(ctx))
	require.NoError(t, trading.VerifySpotSectionVisible(ctx))
	require.NoError(t, trading.VerifyPairsListPresent(ctx))
	require.NoError(t, trading.VerifyPairStructure(ctx))
	require.NoError(t, trading.VerifyCategoryTabsExist(ctx))

	symbols, err := trading.PairSymbols(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"}, symbols)
	n, err := trading.PairCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestTrading_SelectCategory(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	trading := pages.NewTradingPage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, trading.Load(ctx))
	want := map[pages.Category]string{
		pages.Forex:  "EUR/USD",
		pages.Metals: "XAU/USD",
		pages.Stocks: "AAPL",
		pages.Crypto: "BTC/USDT",
	}
	for _, c := range []pages.Category{pages.Forex, pages.Metals, pages.Stocks, pages.Crypto} {
		require.NoError(t, trading.SelectCategory(ctx, c), "category %s", c)
		symbols, err := trading.PairSymbols(ctx)
		require.NoError(t, err)
		require.Contains(t, symbols, want[c], "category %s", c)
	}
}

func TestTrading_UnknownCategory(t *testing.T) {
	env := SetupBrowserTestEnv(t)
	env.requireFixture(t)
	ctx := testContext(t)
	trading := pages.NewTradingPage(env.Session.Pages(t.Name()), env.BaseURL)

	require.NoError(t, trading.Load(ctx))
	err := trading.SelectCategory(ctx, pages.Category("bonds"))
	require.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}
