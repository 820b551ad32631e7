package pages

import "github.com/kuitang/tradeui-e2e/internal/driver"

// Home holds the trade platform landing page locators.
var Home = struct {
	NavMenu         driver.Locator
	NavDashboard    driver.Locator
	NavMarkets      driver.Locator
	NavTrading      driver.Locator
	NavFeatures     driver.Locator
	NavAbout        driver.Locator
	NavAwards       driver.Locator
	NavWhyMultibank driver.Locator
	NavSupport      driver.Locator

	TradingSection    driver.Locator
	TradingPairs      driver.Locator
	TradingPairName   driver.Locator
	TradingPairPrice  driver.Locator
	TradingPairChange driver.Locator
	CategoryFilters   driver.Locator

	MarketingBanner driver.Locator
	BannerContainer driver.Locator

	DownloadSection driver.Locator
	AppStoreLink    driver.Locator
	GooglePlayLink  driver.Locator
	DownloadButton  driver.Locator

	Footer      driver.Locator
	FooterLinks driver.Locator
}{
	NavMenu:         driver.XPath("//div[contains(@class,'style_menu-container')]"),
	NavDashboard:    driver.LinkText("Dashboard"),
	NavMarkets:      driver.LinkText("Markets"),
	NavTrading:      driver.XPath("//*[@id='trade-header-option-open-button']"),
	NavFeatures:     driver.XPath("//*[@id='features-header-option-open-button']"),
	NavAbout:        driver.XPath("//*[@id='about-header-option-open-button']"),
	NavAwards:       driver.XPath("//div[contains(text(),'Awards')]"),
	NavWhyMultibank: driver.XPath("//div[contains(text(),'Multibank?')]"),
	NavSupport:      driver.XPath("//*[@id='support-header-option-open-button']"),

	TradingSection:    driver.ID("trading-section"),
	TradingPairs:      driver.ClassName("trading-pair"),
	TradingPairName:   driver.ClassName("pair-name"),
	TradingPairPrice:  driver.ClassName("pair-price"),
	TradingPairChange: driver.ClassName("pair-change"),
	CategoryFilters:   driver.ClassName("category-filter"),

	MarketingBanner: driver.CSS(".slick-slide.slick-current img.style_image__kiucM"),
	BannerContainer: driver.ID("banner-container"),

	DownloadSection: driver.XPath("//div[contains(@class,'style_app-download-container')]"),
	AppStoreLink:    driver.XPath("//a[contains(@href,'apps.apple')]"),
	GooglePlayLink:  driver.XPath("//a[contains(@href,'play.google')]"),
	DownloadButton:  driver.ClassName("download-button"),

	Footer:      driver.TagName("footer"),
	FooterLinks: driver.XPath("//footer//a"),
}

// Trading holds the spot trading page locators.
var Trading = struct {
	SpotSection driver.Locator
	PairsList   driver.Locator
	PairItem    driver.Locator
	PairSymbol  driver.Locator
	PairVolume  driver.Locator
	PriceChart  driver.Locator

	CategoryTab driver.Locator
	CryptoTab   driver.Locator
	ForexTab    driver.Locator
	MetalsTab   driver.Locator
	StocksTab   driver.Locator
}{
	SpotSection: driver.ID("spot-trading"),
	PairsList:   driver.ClassName("pairs-list"),
	PairItem:    driver.ClassName("pair-item"),
	PairSymbol:  driver.ClassName("pair-symbol"),
	PairVolume:  driver.ClassName("pair-volume"),
	PriceChart:  driver.ClassName("price-chart"),

	CategoryTab: driver.ClassName("category-tab"),
	CryptoTab:   driver.XPath("//button[@data-category='crypto']"),
	ForexTab:    driver.XPath("//button[@data-category='forex']"),
	MetalsTab:   driver.XPath("//button[@data-category='metals']"),
	StocksTab:   driver.XPath("//button[@data-category='stocks']"),
}

// About holds the about-us page locators.
var About = struct {
	Header             driver.Locator
	Content            driver.Locator
	WhyMultibankLink   driver.Locator
	CompanyDescription driver.Locator
	Mission            driver.Locator
	Vision             driver.Locator
}{
	Header:             driver.TagName("h1"),
	Content:            driver.ID("about-content"),
	WhyMultibankLink:   driver.XPath("//a[contains(@href,'why-multibank')]"),
	CompanyDescription: driver.ClassName("company-description"),
	Mission:            driver.ClassName("mission"),
	Vision:             driver.ClassName("vision"),
}

// WhyMultibank holds the marketing site's why-multibank page locators.
var WhyMultibank = struct {
	Header             driver.Locator
	MainContent        driver.Locator
	FeatureSections    driver.Locator
	FeatureTitle       driver.Locator
	FeatureDescription driver.Locator
	BenefitsList       driver.Locator
	BenefitsItems      driver.Locator
	CallToAction       driver.Locator
}{
	Header:             driver.TagName("h1"),
	MainContent:        driver.ID("main-content"),
	FeatureSections:    driver.ClassName("feature-section"),
	FeatureTitle:       driver.ClassName("feature-title"),
	FeatureDescription: driver.ClassName("feature-description"),
	BenefitsList:       driver.ClassName("benefits-list"),
	BenefitsItems:      driver.XPath("//ul[@class='benefits-list']/li"),
	CallToAction:       driver.ClassName("cta-button"),
}

// Common holds locators shared across pages.
var Common = struct {
	Spinner        driver.Locator
	ErrorMessage   driver.Locator
	SuccessMessage driver.Locator
	ModalOverlay   driver.Locator
	PageTitle      driver.Locator
}{
	Spinner:        driver.ClassName("spinner"),
	ErrorMessage:   driver.ClassName("error-message"),
	SuccessMessage: driver.ClassName("success-message"),
	ModalOverlay:   driver.ClassName("modal-overlay"),
	PageTitle:      driver.TagName("h1"),
}
