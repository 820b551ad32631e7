package pages

import (
	"context"
	"fmt"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/urlutil"
)

// AboutOption picks an entry from the About dropdown in the header.
type AboutOption int

const (
	AboutMenuOnly AboutOption = iota
	AboutAwards
	AboutWhyMultibank
)

// pairsChecked is how many trading pairs the structure check inspects.
const pairsChecked = 3

// HomePage is the trade platform landing page.
type HomePage struct {
	*Base
	PageURL string
}

// NewHomePage returns the landing page under baseURL.
func NewHomePage(base *Base, baseURL string) *HomePage {
	return &HomePage{Base: base, PageURL: urlutil.BuildAbsolute(baseURL, "/")}
}

// Load opens the page and checks it rendered.
func (h *HomePage) Load(ctx context.Context) error {
	if err := h.Navigate(ctx, h.PageURL); err != nil {
		return err
	}
	return h.VerifyPageLoaded(ctx)
}

func (h *HomePage) VerifyPageLoaded(ctx context.Context) error {
	if err := h.VerifyElementPresent(ctx, Home.NavMenu); err != nil {
		return err
	}
	h.log.Info("home page loaded")
	return nil
}

// =============================================================================
// Navigation
// =============================================================================

func (h *HomePage) VerifyNavigationMenuVisible(ctx context.Context) error {
	return h.VerifyElementVisible(ctx, Home.NavMenu)
}

// NavigationItems are the header entries every visitor sees.
func NavigationItems() []driver.Locator {
	return []driver.Locator{
		Home.NavDashboard,
		Home.NavMarkets,
		Home.NavTrading,
		Home.NavFeatures,
		Home.NavAbout,
		Home.NavSupport,
	}
}

func (h *HomePage) VerifyNavigationItemsExist(ctx context.Context) error {
	for _, item := range NavigationItems() {
		if err := h.VerifyElementPresent(ctx, item); err != nil {
			return err
		}
	}
	h.log.Info("navigation items verified")
	return nil
}

func (h *HomePage) ClickTradingLink(ctx context.Context) error {
	return h.Click(ctx, Home.NavTrading)
}

func (h *HomePage) ClickMarketsLink(ctx context.Context) error {
	return h.Click(ctx, Home.NavMarkets)
}

func (h *HomePage) ClickSupportLink(ctx context.Context) error {
	return h.Click(ctx, Home.NavSupport)
}

// ClickAboutLink opens the About dropdown and, unless option is
// AboutMenuOnly, clicks the chosen entry.
func (h *HomePage) ClickAboutLink(ctx context.Context, option AboutOption) error {
	if err := h.Click(ctx, Home.NavAbout); err != nil {
		return err
	}
	switch option {
	case AboutAwards:
		return h.Click(ctx, Home.NavAwards)
	case AboutWhyMultibank:
		return h.Click(ctx, Home.NavWhyMultibank)
	}
	return nil
}

// =============================================================================
// Trading section
// =============================================================================

func (h *HomePage) VerifyTradingSectionVisible(ctx context.Context) error {
	return h.VerifyElementVisible(ctx, Home.TradingSection)
}

func (h *HomePage) TradingPairsCount(ctx context.Context) (int, error) {
	return h.ElementsCount(ctx, Home.TradingPairs)
}

func (h *HomePage) VerifyTradingPairsDisplayed(ctx context.Context) error {
	n, err := h.TradingPairsCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return verificationFailed("no trading pairs found")
	}
	return nil
}

// VerifyTradingPairStructure checks that the first few pairs each show a
// name, a price and a change percentage.
func (h *HomePage) VerifyTradingPairStructure(ctx context.Context) error {
	pairs, err := h.Elements(ctx, Home.TradingPairs)
	if err != nil {
		return err
	}
	for i, pair := range pairs[:min(pairsChecked, len(pairs))] {
		for _, part := range []struct {
			name string
			loc  driver.Locator
		}{
			{"name", Home.TradingPairName},
			{"price", Home.TradingPairPrice},
			{"change", Home.TradingPairChange},
		} {
			if err := childHasText(ctx, pair, part.loc, fmt.Sprintf("trading pair %d %s", i, part.name)); err != nil {
				return err
			}
		}
	}
	h.log.Info("trading pair structure verified", "checked", min(pairsChecked, len(pairs)))
	return nil
}

func (h *HomePage) VerifyCategoryFiltersExist(ctx context.Context) error {
	n, err := h.ElementsCount(ctx, Home.CategoryFilters)
	if err != nil {
		return err
	}
	if n == 0 {
		return verificationFailed("no category filters found")
	}
	return nil
}

// =============================================================================
// Banners, downloads and footer
// =============================================================================

// VerifyMarketingBannersVisible scrolls to the bottom, where the banner
// carousel lives, and checks the current slide is shown.
func (h *HomePage) VerifyMarketingBannersVisible(ctx context.Context) error {
	if err := h.ScrollToBottom(ctx); err != nil {
		return err
	}
	return h.VerifyElementVisible(ctx, Home.MarketingBanner)
}

func (h *HomePage) MarketingBannersCount(ctx context.Context) (int, error) {
	return h.ElementsCount(ctx, Home.MarketingBanner)
}

func (h *HomePage) VerifyDownloadSectionVisible(ctx context.Context) error {
	if err := h.ScrollToElement(ctx, Home.DownloadSection); err != nil {
		return err
	}
	return h.VerifyElementVisible(ctx, Home.DownloadSection)
}

func (h *HomePage) VerifyAppStoreLinkExists(ctx context.Context) error {
	return h.VerifyElementPresent(ctx, Home.AppStoreLink)
}

func (h *HomePage) VerifyGooglePlayLinkExists(ctx context.Context) error {
	return h.VerifyElementPresent(ctx, Home.GooglePlayLink)
}

// ClickAppStoreLink clicks the App Store badge and returns the window that
// was current before, so callers can return to it.
func (h *HomePage) ClickAppStoreLink(ctx context.Context) (string, error) {
	return h.clickStoreLink(ctx, Home.AppStoreLink)
}

// ClickGooglePlayLink is ClickAppStoreLink for the Google Play badge.
func (h *HomePage) ClickGooglePlayLink(ctx context.Context) (string, error) {
	return h.clickStoreLink(ctx, Home.GooglePlayLink)
}

func (h *HomePage) clickStoreLink(ctx context.Context, loc driver.Locator) (string, error) {
	original, err := h.CurrentWindow(ctx)
	if err != nil {
		return "", err
	}
	if err := h.Click(ctx, loc); err != nil {
		return "", err
	}
	return original, nil
}

func (h *HomePage) VerifyFooterExists(ctx context.Context) error {
	if err := h.ScrollToBottom(ctx); err != nil {
		return err
	}
	return h.VerifyElementPresent(ctx, Home.Footer)
}

func (h *HomePage) FooterLinksCount(ctx context.Context) (int, error) {
	return h.ElementsCount(ctx, Home.FooterLinks)
}

// childHasText checks that el has a descendant matching loc with non-empty
// text.
func childHasText(ctx context.Context, el driver.Element, loc driver.Locator, what string) error {
	children, err := el.Find(ctx, loc)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if len(children) == 0 {
		return verificationFailed("%s missing", what)
	}
	text, err := children[0].Text(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if text == "" {
		return verificationFailed("%s is empty", what)
	}
	return nil
}
