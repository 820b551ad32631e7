// Package config provides configuration for the trading UI test suite.
// It loads settings from CLI flags and environment variables, validates them,
// and provides the defaults the suite was written against.
//
// CLI flags pick the browser and run mode (--driver, --browser, --headless,
// --slow, --remote, --no-s3). Environment variables provide target URLs,
// timeouts and artifact storage credentials.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"

	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserEdge    = "edge"

	defaultRegion    = "auto"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds all suite configuration.
type Config struct {
	// Browser selection
	Driver    string // playwright or chromedp
	Browser   string // chrome, firefox or edge
	Headless  bool
	Slow      time.Duration // pause between page actions; 0 disables
	RemoteURL string        // connect to an existing browser instead of launching one

	// Targets
	BaseURL      string // trade platform root
	MarketingURL string // marketing site root (why-multibank)

	// Wait layer
	DefaultTimeout    time.Duration
	ShortTimeout      time.Duration
	LongTimeout       time.Duration
	PollInterval      time.Duration
	NavigationTimeout time.Duration

	// Browser context
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string

	// Output
	LogDir        string
	LogLevel      string
	ScreenshotDir string

	// Artifact storage (uses AWS_ env vars; --no-s3 keeps artifacts on disk)
	NoS3               bool
	AWSEndpointS3      string // AWS_ENDPOINT_URL_S3
	AWSRegion          string // AWS_REGION
	AWSAccessKeyID     string // AWS_ACCESS_KEY_ID
	AWSSecretAccessKey string // AWS_SECRET_ACCESS_KEY
	ArtifactsBucket    string // ARTIFACTS_BUCKET
}

// Flags are the CLI-controlled settings. Their defaults come from the
// environment so `go test ./tests/browser -args --browser=firefox` and
// TRADEUI_BROWSER=firefox behave the same.
type Flags struct {
	Driver   string
	Browser  string
	Headless bool
	Slow     float64 // seconds
	Remote   string
	NoS3     bool
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// BindFlags registers the suite flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Driver, "driver", getEnvOrDefault("TRADEUI_DRIVER", DriverPlaywright), "Browser automation backend: playwright or chromedp")
	fs.StringVar(&f.Browser, "browser", getEnvOrDefault("TRADEUI_BROWSER", BrowserChrome), "Browser to run: chrome, firefox or edge")
	fs.BoolVar(&f.Headless, "headless", parseBoolOrDefault("TRADEUI_HEADLESS", false), "Run the browser without a window")
	fs.Float64Var(&f.Slow, "slow", parseFloat64OrDefault("TRADEUI_SLOW", 0), "Seconds to pause between page actions")
	fs.StringVar(&f.Remote, "remote", getEnvOrDefault("TRADEUI_REMOTE_URL", ""), "Connect to a remote browser endpoint instead of launching")
	fs.BoolVar(&f.NoS3, "no-s3", parseBoolOrDefault("TRADEUI_NO_S3", false), "Keep failure artifacts on local disk")
	return f
}

// ParseFlags registers and parses the suite flags on the default flag set.
func ParseFlags() Flags {
	f := BindFlags(flag.CommandLine)
	flag.Parse()
	return *f
}

// LoadConfig loads configuration from environment variables and CLI flag values.
func LoadConfig(f Flags) (*Config, error) {
	cfg := &Config{}

	// CLI flag values
	cfg.Driver = strings.ToLower(strings.TrimSpace(f.Driver))
	cfg.Browser = strings.ToLower(strings.TrimSpace(f.Browser))
	cfg.Headless = f.Headless
	cfg.Slow = time.Duration(f.Slow * float64(time.Second))
	cfg.RemoteURL = strings.TrimSpace(f.Remote)
	cfg.NoS3 = f.NoS3

	// Targets
	cfg.BaseURL = strings.TrimRight(getEnvOrDefault("TRADEUI_BASE_URL", "https://trade.multibank.io"), "/")
	cfg.MarketingURL = strings.TrimRight(getEnvOrDefault("TRADEUI_MARKETING_URL", "https://multibank.io"), "/")

	// Wait layer
	cfg.DefaultTimeout = parseDurationOrDefault("TRADEUI_DEFAULT_TIMEOUT", 10*time.Second)
	cfg.ShortTimeout = parseDurationOrDefault("TRADEUI_SHORT_TIMEOUT", 5*time.Second)
	cfg.LongTimeout = parseDurationOrDefault("TRADEUI_LONG_TIMEOUT", 20*time.Second)
	cfg.PollInterval = parseDurationOrDefault("TRADEUI_POLL_INTERVAL", 500*time.Millisecond)
	cfg.NavigationTimeout = parseDurationOrDefault("TRADEUI_NAVIGATION_TIMEOUT", 30*time.Second)

	// Browser context
	width, height, err := parseViewport(getEnvOrDefault("TRADEUI_VIEWPORT", "1920x1080"))
	if err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}
	cfg.ViewportWidth = width
	cfg.ViewportHeight = height
	cfg.UserAgent = getEnvOrDefault("TRADEUI_USER_AGENT", defaultUserAgent)

	// Output
	cfg.LogDir = getEnvOrDefault("TRADEUI_LOG_DIR", "logs")
	cfg.LogLevel = getEnvOrDefault("TRADEUI_LOG_LEVEL", "info")
	cfg.ScreenshotDir = getEnvOrDefault("TRADEUI_SCREENSHOT_DIR", "screenshots")

	// Artifact storage
	cfg.AWSEndpointS3 = getEnvOrDefault("AWS_ENDPOINT_URL_S3", "")
	cfg.AWSRegion = getEnvOrDefault("AWS_REGION", defaultRegion)
	cfg.AWSAccessKeyID = getEnvOrDefault("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretAccessKey = getEnvOrDefault("AWS_SECRET_ACCESS_KEY", "")
	cfg.ArtifactsBucket = getEnvOrDefault("ARTIFACTS_BUCKET", "")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []string

	switch c.Driver {
	case DriverPlaywright:
	case DriverChromedp:
		if c.Browser == BrowserFirefox {
			errs = append(errs, "chromedp driver supports chrome and edge only (use --driver=playwright for firefox)")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown driver %q (want playwright or chromedp)", c.Driver))
	}

	switch c.Browser {
	case BrowserChrome, BrowserFirefox, BrowserEdge:
	default:
		errs = append(errs, fmt.Sprintf("unknown browser %q (want chrome, firefox or edge)", c.Browser))
	}

	if c.Slow < 0 {
		errs = append(errs, "--slow must not be negative")
	}

	if c.BaseURL == "" {
		errs = append(errs, "TRADEUI_BASE_URL must not be empty")
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"TRADEUI_DEFAULT_TIMEOUT", c.DefaultTimeout},
		{"TRADEUI_SHORT_TIMEOUT", c.ShortTimeout},
		{"TRADEUI_LONG_TIMEOUT", c.LongTimeout},
		{"TRADEUI_POLL_INTERVAL", c.PollInterval},
		{"TRADEUI_NAVIGATION_TIMEOUT", c.NavigationTimeout},
	} {
		if d.value <= 0 {
			errs = append(errs, d.name+" must be positive")
		}
	}
	if c.PollInterval > 0 && c.DefaultTimeout > 0 && c.PollInterval >= c.DefaultTimeout {
		errs = append(errs, "TRADEUI_POLL_INTERVAL must be shorter than TRADEUI_DEFAULT_TIMEOUT")
	}

	// Artifact storage: require AWS credentials unless --no-s3
	if !c.NoS3 {
		if c.AWSEndpointS3 == "" {
			errs = append(errs, "AWS_ENDPOINT_URL_S3 is required (set env var or use --no-s3)")
		}
		if c.ArtifactsBucket == "" {
			errs = append(errs, "ARTIFACTS_BUCKET is required (set env var or use --no-s3)")
		}
		if c.AWSAccessKeyID == "" {
			errs = append(errs, "AWS_ACCESS_KEY_ID is required (set env var or use --no-s3)")
		}
		if c.AWSSecretAccessKey == "" {
			errs = append(errs, "AWS_SECRET_ACCESS_KEY is required (set env var or use --no-s3)")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "tradeui suite starting...")
	fmt.Fprintf(os.Stderr, "  Driver:   %s (%s, headless=%t)\n", c.Driver, c.Browser, c.Headless)
	if c.RemoteURL != "" {
		fmt.Fprintf(os.Stderr, "  Remote:   %s\n", c.RemoteURL)
	}
	if c.Slow > 0 {
		fmt.Fprintf(os.Stderr, "  Slow:     %s between actions\n", c.Slow)
	}
	fmt.Fprintf(os.Stderr, "  Target:   %s\n", c.BaseURL)
	fmt.Fprintf(os.Stderr, "  Timeouts: default=%s short=%s long=%s poll=%s\n",
		c.DefaultTimeout, c.ShortTimeout, c.LongTimeout, c.PollInterval)
	if c.NoS3 {
		fmt.Fprintf(os.Stderr, "  Storage:  local disk (%s)\n", c.ScreenshotDir)
	} else {
		fmt.Fprintf(os.Stderr, "  Storage:  S3 (endpoint: %s, bucket: %s)\n", c.AWSEndpointS3, c.ArtifactsBucket)
	}
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseViewport(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return 0, 0, fmt.Errorf("TRADEUI_VIEWPORT must look like 1920x1080, got %q", value)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("TRADEUI_VIEWPORT must look like 1920x1080, got %q", value)
	}
	return width, height, nil
}

// MustLoadConfig loads configuration and panics if validation fails.
func MustLoadConfig(f Flags) *Config {
	cfg, err := LoadConfig(f)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
