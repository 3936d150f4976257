package cdp

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Flags(t *testing.T) {
	opts := Options{
		Headless:        true,
		IgnoreTLSErrors: true,
		Args:            []string{"--window-size=800,600", "--mute-audio", "--", "lang=de"},
	}
	flags := opts.flags()

	assert.Equal(t, true, flags["headless"])
	assert.Equal(t, true, flags["ignore-certificate-errors"])
	assert.Equal(t, false, flags["enable-automation"], "automation switch is turned off")
	assert.Equal(t, true, flags["disable-gpu"])
	assert.Equal(t, "800,600", flags["window-size"])
	assert.Equal(t, true, flags["mute-audio"])
	assert.Equal(t, "de", flags["lang"])
	assert.NotContains(t, flags, "")

	if runtime.GOOS == "linux" {
		assert.Equal(t, true, flags["no-sandbox"])
		assert.Equal(t, true, flags["disable-dev-shm-usage"])
	}
}

func TestOptions_HeadedKeepsGPU(t *testing.T) {
	flags := Options{Headless: false}.flags()
	assert.Equal(t, false, flags["headless"])
	assert.Equal(t, false, flags["disable-gpu"])
}

func TestOptions_AllocatorOptions(t *testing.T) {
	base := Options{}.AllocatorOptions()
	assert.Len(t, base, len(chromedp.DefaultExecAllocatorOptions)+len(Options{}.flags()))

	full := Options{UserAgent: "webbind-test", ExecPath: "/usr/bin/chromium", UserDataDir: t.TempDir()}.AllocatorOptions()
	assert.Len(t, full, len(base)+3)
}

func TestOptions_Timeouts(t *testing.T) {
	assert.Equal(t, defaultStartupTimeout, Options{}.startupTimeout())
	assert.Equal(t, defaultShutdownTimeout, Options{}.shutdownTimeout())
	assert.Equal(t, time.Second, Options{StartupTimeout: time.Second}.startupTimeout())
	assert.Equal(t, 2*time.Second, Options{ShutdownTimeout: 2 * time.Second}.shutdownTimeout())
}

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "target"

	t.Run("InheritsValuesFromPrimary", func(t *testing.T) {
		primary := context.WithValue(context.Background(), key, "tab")
		combined, cancel := combineContext(primary, context.Background())
		defer cancel()

		assert.Equal(t, "tab", combined.Value(key))
		assert.NoError(t, combined.Err())
	})

	t.Run("CancelledByPrimary", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		combined, cancel := combineContext(primary, context.Background())
		defer cancel()

		cancelPrimary()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("CancelledBySecondary", func(t *testing.T) {
		secondary, cancelSecondary := context.WithCancel(context.Background())
		combined, cancel := combineContext(context.Background(), secondary)
		defer cancel()

		cancelSecondary()
		assert.Eventually(t, func() bool { return combined.Err() != nil }, time.Second, 5*time.Millisecond)
	})

	t.Run("CancelDoesNotTouchParents", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		defer cancelPrimary()
		secondary, cancelSecondary := context.WithCancel(context.Background())
		defer cancelSecondary()

		combined, cancel := combineContext(primary, secondary)
		cancel()
		require.Error(t, combined.Err())
		assert.NoError(t, primary.Err())
		assert.NoError(t, secondary.Err())
	})
}
