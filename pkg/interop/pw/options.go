package pw

import (
	"io"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/browser/emulation"
)

// Options configures the playwright bridge.
type Options struct {
	// Install downloads the driver and Chromium before the first launch.
	Install bool
	// ExecPath overrides the Chromium build playwright would otherwise use.
	ExecPath        string
	Headless        bool
	IgnoreTLSErrors bool
	UserAgent       string
	// Persona, when set, shapes the browser context. UserAgent still wins over
	// Persona.UserAgent.
	Persona *schemas.Persona
	Args    []string
	// LaunchTimeout bounds installing, starting the driver and launching the browser.
	LaunchTimeout time.Duration
	// Verbose forwards driver installation output to stderr.
	Verbose bool
}

const (
	installTimeout       = 5 * time.Minute
	defaultLaunchTimeout = 60 * time.Second
)

// defaultArgs keep Chromium stable inside containers.
var defaultArgs = []string{
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

func (o Options) runOptions() *playwright.RunOptions {
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  o.Verbose,
	}
	if !o.Verbose {
		opts.Stdout = io.Discard
		opts.Stderr = io.Discard
	}
	return opts
}

func (o Options) launchTimeout() time.Duration {
	if o.LaunchTimeout > 0 {
		return o.LaunchTimeout
	}
	return defaultLaunchTimeout
}

// launchOptions merges the container defaults with the user's switches. Duplicates are
// harmless for Chromium switches.
func (o Options) launchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.Headless),
		Args:     append(append([]string(nil), defaultArgs...), o.Args...),
		Timeout:  playwright.Float(float64(o.launchTimeout().Milliseconds())),
	}
	if o.ExecPath != "" {
		opts.ExecutablePath = playwright.String(o.ExecPath)
	}
	return opts
}

func (o Options) contextOptions() playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(o.IgnoreTLSErrors),
	}
	if p := o.Persona; p != nil {
		if p.UserAgent != "" {
			opts.UserAgent = playwright.String(p.UserAgent)
		}
		if len(p.Languages) > 0 {
			opts.Locale = playwright.String(p.Languages[0])
			opts.ExtraHttpHeaders = map[string]string{"Accept-Language": emulation.AcceptLanguage(p.Languages)}
		}
		if p.Width > 0 && p.Height > 0 {
			opts.Viewport = &playwright.Size{Width: int(p.Width), Height: int(p.Height)}
		}
		if p.DevicePixelRatio > 0 {
			opts.DeviceScaleFactor = playwright.Float(p.DevicePixelRatio)
		}
	}
	if o.UserAgent != "" {
		opts.UserAgent = playwright.String(o.UserAgent)
	}
	return opts
}
