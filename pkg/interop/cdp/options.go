package cdp

import (
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/webbind/api/schemas"
)

// Options configures how the CDP bridge reaches a browser.
type Options struct {
	// RemoteURL attaches to an already running browser's DevTools websocket instead of
	// launching one.
	RemoteURL string
	// ExecPath overrides the browser binary chromedp would otherwise look up.
	ExecPath        string
	UserDataDir     string
	Headless        bool
	IgnoreTLSErrors bool
	UserAgent       string
	// Persona, when set, is applied to the tab before the surface is installed.
	Persona *schemas.Persona
	// Args are extra command line switches, "--name=value" or "--name".
	Args []string
	// StartupTimeout bounds launching the browser and installing the surface.
	StartupTimeout time.Duration
	// ShutdownTimeout bounds the graceful browser shutdown in Close.
	ShutdownTimeout time.Duration
}

const (
	defaultStartupTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// flags returns the command line switches derived from o, on top of chromedp's
// defaults. A switch set to false is omitted by chromedp.
func (o Options) flags() map[string]interface{} {
	flags := map[string]interface{}{
		"headless":                  o.Headless,
		"ignore-certificate-errors": o.IgnoreTLSErrors,
		"enable-automation":         false,
		"disable-extensions":        true,
		"disable-gpu":               o.Headless,
	}

	for _, arg := range o.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags[name] = parts[1]
		} else {
			flags[name] = true
		}
	}

	// Containers on Linux need these to start at all.
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
	}
	return flags
}

// AllocatorOptions assembles the exec allocator options for launching a browser.
func (o Options) AllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range o.flags() {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.UserDataDir))
	}
	return opts
}

func (o Options) startupTimeout() time.Duration {
	if o.StartupTimeout > 0 {
		return o.StartupTimeout
	}
	return defaultStartupTimeout
}

func (o Options) shutdownTimeout() time.Duration {
	if o.ShutdownTimeout > 0 {
		return o.ShutdownTimeout
	}
	return defaultShutdownTimeout
}
