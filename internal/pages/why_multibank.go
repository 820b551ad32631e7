package pages

import (
	"context"
	"fmt"

	"github.com/kuitang/tradeui-e2e/internal/urlutil"
)

// scrollStep is how far ScrollThroughContent moves per step, in pixels.
const scrollStep = 500

// WhyMultibankPage is the marketing site's why-multibank page.
type WhyMultibankPage struct {
	*Base
	PageURL string
}

// NewWhyMultibankPage returns the page under the marketing site root.
func NewWhyMultibankPage(base *Base, marketingURL string) *WhyMultibankPage {
	return &WhyMultibankPage{Base: base, PageURL: urlutil.BuildAbsolute(marketingURL, "/about/why-multibank")}
}

func (w *WhyMultibankPage) Load(ctx context.Context) error {
	if err := w.Navigate(ctx, w.PageURL); err != nil {
		return err
	}
	return w.VerifyPageLoaded(ctx)
}

func (w *WhyMultibankPage) VerifyPageLoaded(ctx context.Context) error {
	if err := w.VerifyElementPresent(ctx, WhyMultibank.Header); err != nil {
		return err
	}
	w.log.Info("why-multibank page loaded")
	return nil
}

func (w *WhyMultibankPage) VerifyHeaderPresent(ctx context.Context) error {
	return w.VerifyElementPresent(ctx, WhyMultibank.Header)
}

func (w *WhyMultibankPage) VerifyMainContentVisible(ctx context.Context) error {
	return w.VerifyElementVisible(ctx, WhyMultibank.MainContent)
}

func (w *WhyMultibankPage) HeaderText(ctx context.Context) (string, error) {
	return w.ElementText(ctx, WhyMultibank.Header)
}

func (w *WhyMultibankPage) FeatureSectionsCount(ctx context.Context) (int, error) {
	return w.ElementsCount(ctx, WhyMultibank.FeatureSections)
}

func (w *WhyMultibankPage) VerifyFeatureSectionsExist(ctx context.Context) error {
	n, err := w.FeatureSectionsCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return verificationFailed("no feature sections found")
	}
	return nil
}

// VerifyFeatureSectionStructure checks that the first few feature sections
// each carry a non-empty title and description.
func (w *WhyMultibankPage) VerifyFeatureSectionStructure(ctx context.Context) error {
	sections, err := w.Elements(ctx, WhyMultibank.FeatureSections)
	if err != nil {
		return err
	}
	for i, section := range sections[:min(pairsChecked, len(sections))] {
		if err := childHasText(ctx, section, WhyMultibank.FeatureTitle, fmt.Sprintf("feature section %d title", i)); err != nil {
			return err
		}
		if err := childHasText(ctx, section, WhyMultibank.FeatureDescription, fmt.Sprintf("feature section %d description", i)); err != nil {
			return err
		}
	}
	w.log.Info("feature section structure verified")
	return nil
}

func (w *WhyMultibankPage) BenefitsItemsCount(ctx context.Context) (int, error) {
	return w.ElementsCount(ctx, WhyMultibank.BenefitsItems)
}

func (w *WhyMultibankPage) VerifyBenefitsListPresent(ctx context.Context) error {
	return w.VerifyElementPresent(ctx, WhyMultibank.BenefitsList)
}

func (w *WhyMultibankPage) VerifyBenefitsListHasItems(ctx context.Context) error {
	n, err := w.BenefitsItemsCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return verificationFailed("benefits list is empty")
	}
	return nil
}

func (w *WhyMultibankPage) VerifyBenefitsItemsHaveText(ctx context.Context) error {
	items, err := w.Elements(ctx, WhyMultibank.BenefitsItems)
	if err != nil {
		return err
	}
	for i, item := range items {
		text, err := item.Text(ctx)
		if err != nil {
			return fmt.Errorf("benefit item %d: %w", i, err)
		}
		if text == "" {
			return verificationFailed("benefit item %d is empty", i)
		}
	}
	return nil
}

func (w *WhyMultibankPage) VerifyCTAButtonPresent(ctx context.Context) error {
	return w.VerifyElementPresent(ctx, WhyMultibank.CallToAction)
}

func (w *WhyMultibankPage) ClickCTAButton(ctx context.Context) error {
	return w.Click(ctx, WhyMultibank.CallToAction)
}

// ScrollThroughContent scrolls down in two steps and then to the bottom so
// lazily rendered sections get a chance to load.
func (w *WhyMultibankPage) ScrollThroughContent(ctx context.Context) error {
	for range 2 {
		if err := w.ScrollDown(ctx, scrollStep); err != nil {
			return err
		}
	}
	return w.ScrollToBottom(ctx)
}

// VerifyAllComponentsRender runs every structural check on the page.
func (w *WhyMultibankPage) VerifyAllComponentsRender(ctx context.Context) error {
	for _, check := range []func(context.Context) error{
		w.VerifyHeaderPresent,
		w.VerifyMainContentVisible,
		w.VerifyFeatureSectionsExist,
		w.VerifyBenefitsListPresent,
		w.VerifyCTAButtonPresent,
	} {
		if err := check(ctx); err != nil {
			return err
		}
	}
	w.log.Info("all why-multibank components verified")
	return nil
}
