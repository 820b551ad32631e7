package pages

import (
	"context"
	"fmt"

	"github.com/kuitang/tradeui-e2e/internal/driver"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/urlutil"
)

// Category is a trading pair category tab.
type Category string

const (
	Crypto Category = "crypto"
	Forex  Category = "forex"
	Metals Category = "metals"
	Stocks Category = "stocks"
)

// Categories lists the tabs in display order.
func Categories() []Category {
	return []Category{Crypto, Forex, Metals, Stocks}
}

func (c Category) tab() (driver.Locator, error) {
	switch c {
	case Crypto:
		return Trading.CryptoTab, nil
	case Forex:
		return Trading.ForexTab, nil
	case Metals:
		return Trading.MetalsTab, nil
	case Stocks:
		return Trading.StocksTab, nil
	}
	return driver.Locator{}, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown category %q", string(c)))
}

// TradingPage is the spot trading markets page.
type TradingPage struct {
	*Base
	PageURL string
}

func NewTradingPage(base *Base, baseURL string) *TradingPage {
	return &TradingPage{Base: base, PageURL: urlutil.BuildAbsolute(baseURL, "/markets")}
}

func (t *TradingPage) Load(ctx context.Context) error {
	if err := t.Navigate(ctx, t.PageURL); err != nil {
		return err
	}
	return t.VerifyPageLoaded(ctx)
}

func (t *TradingPage) VerifyPageLoaded(ctx context.Context) error {
	if err := t.VerifyElementPresent(ctx, Trading.SpotSection); err != nil {
		return err
	}
	t.log.Info("trading page loaded")
	return nil
}

func (t *TradingPage) VerifySpotSectionVisible(ctx context.Context) error {
	return t.VerifyElementVisible(ctx, Trading.SpotSection)
}

func (t *TradingPage) VerifyPairsListPresent(ctx context.Context) error {
	return t.VerifyElementPresent(ctx, Trading.PairsList)
}

func (t *TradingPage) PairCount(ctx context.Context) (int, error) {
	return t.ElementsCount(ctx, Trading.PairItem)
}

// PairSymbols returns the symbol of every visible pair.
func (t *TradingPage) PairSymbols(ctx context.Context) ([]string, error) {
	items, err := t.Elements(ctx, Trading.PairItem)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(items))
	for i, item := range items {
		els, err := item.Find(ctx, Trading.PairSymbol)
		if err != nil {
			return nil, fmt.Errorf("pair %d symbol: %w", i, err)
		}
		if len(els) == 0 {
			return nil, verificationFailed("pair %d has no symbol", i)
		}
		s, err := els[0].Text(ctx)
		if err != nil {
			return nil, fmt.Errorf("pair %d symbol: %w", i, err)
		}
		symbols = append(symbols, s)
	}
	return symbols, nil
}

// VerifyPairStructure checks that the first few pairs show a symbol, a
// volume and a price chart.
func (t *TradingPage) VerifyPairStructure(ctx context.Context) error {
	items, err := t.Elements(ctx, Trading.PairItem)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return verificationFailed("no pairs listed")
	}
	for i, item := range items[:min(pairsChecked, len(items))] {
		if err := childHasText(ctx, item, Trading.PairSymbol, fmt.Sprintf("pair %d symbol", i)); err != nil {
			return err
		}
		if err := childHasText(ctx, item, Trading.PairVolume, fmt.Sprintf("pair %d volume", i)); err != nil {
			return err
		}
		charts, err := item.Find(ctx, Trading.PriceChart)
		if err != nil {
			return fmt.Errorf("pair %d chart: %w", i, err)
		}
		if len(charts) == 0 {
			return verificationFailed("pair %d has no price chart", i)
		}
	}
	t.log.Info("pair structure verified")
	return nil
}

func (t *TradingPage) VerifyCategoryTabsExist(ctx context.Context) error {
	n, err := t.ElementsCount(ctx, Trading.CategoryTab)
	if err != nil {
		return err
	}
	if n == 0 {
		return verificationFailed("no category tabs found")
	}
	return nil
}

// SelectCategory clicks the tab for c and waits for it to become the
// selected tab.
func (t *TradingPage) SelectCategory(ctx context.Context, c Category) error {
	tab, err := c.tab()
	if err != nil {
		return err
	}
	if err := t.Click(ctx, tab); err != nil {
		return err
	}
	if _, err := t.wait.ForElementAttribute(ctx, tab, "aria-selected", "true"); err != nil {
		return t.fail("select category "+string(c), tab, err)
	}
	t.log.Info("category selected", "category", string(c))
	return nil
}
