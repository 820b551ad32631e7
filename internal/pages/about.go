package pages

import (
	"context"

	"github.com/kuitang/tradeui-e2e/internal/urlutil"
)

// AboutPage is the trade platform's about-us page.
type AboutPage struct {
	*Base
	PageURL string
}

func NewAboutPage(base *Base, baseURL string) *AboutPage {
	return &AboutPage{Base: base, PageURL: urlutil.BuildAbsolute(baseURL, "/about")}
}

func (a *AboutPage) Load(ctx context.Context) error {
	if err := a.Navigate(ctx, a.PageURL); err != nil {
		return err
	}
	return a.VerifyPageLoaded(ctx)
}

func (a *AboutPage) VerifyPageLoaded(ctx context.Context) error {
	if err := a.VerifyElementPresent(ctx, About.Header); err != nil {
		return err
	}
	a.log.Info("about page loaded")
	return nil
}

func (a *AboutPage) VerifyHeaderPresent(ctx context.Context) error {
	return a.VerifyElementPresent(ctx, About.Header)
}

func (a *AboutPage) VerifyContentVisible(ctx context.Context) error {
	return a.VerifyElementVisible(ctx, About.Content)
}

func (a *AboutPage) HeaderText(ctx context.Context) (string, error) {
	return a.ElementText(ctx, About.Header)
}

func (a *AboutPage) VerifyWhyMultibankLinkExists(ctx context.Context) error {
	return a.VerifyElementPresent(ctx, About.WhyMultibankLink)
}

func (a *AboutPage) ClickWhyMultibankLink(ctx context.Context) error {
	return a.Click(ctx, About.WhyMultibankLink)
}

func (a *AboutPage) VerifyCompanyDescriptionPresent(ctx context.Context) error {
	return a.VerifyElementPresent(ctx, About.CompanyDescription)
}

func (a *AboutPage) VerifyMissionStatementPresent(ctx context.Context) error {
	return a.VerifyElementPresent(ctx, About.Mission)
}

func (a *AboutPage) VerifyVisionStatementPresent(ctx context.Context) error {
	return a.VerifyElementPresent(ctx, About.Vision)
}

func (a *AboutPage) CompanyDescription(ctx context.Context) (string, error) {
	return a.ElementText(ctx, About.CompanyDescription)
}

func (a *AboutPage) MissionStatement(ctx context.Context) (string, error) {
	return a.ElementText(ctx, About.Mission)
}

func (a *AboutPage) VisionStatement(ctx context.Context) (string, error) {
	return a.ElementText(ctx, About.Vision)
}
