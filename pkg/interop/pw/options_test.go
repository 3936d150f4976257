package pw

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

func TestOptions_LaunchOptions(t *testing.T) {
	opts := Options{Headless: true, Args: []string{"--mute-audio"}, ExecPath: "/opt/chromium/chrome"}
	launch := opts.launchOptions()

	require.NotNil(t, launch.Headless)
	assert.True(t, *launch.Headless)
	assert.Equal(t, []string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage", "--mute-audio"}, launch.Args)
	require.NotNil(t, launch.Timeout)
	assert.Equal(t, float64(defaultLaunchTimeout.Milliseconds()), *launch.Timeout)
	require.NotNil(t, launch.ExecutablePath)
	assert.Equal(t, "/opt/chromium/chrome", *launch.ExecutablePath)

	// The shared default slice must not be aliased.
	_ = Options{Args: []string{"--a"}}.launchOptions()
	assert.Len(t, defaultArgs, 3)
}

func TestOptions_ContextOptions(t *testing.T) {
	plain := Options{}.contextOptions()
	assert.Nil(t, plain.UserAgent)
	require.NotNil(t, plain.IgnoreHttpsErrors)
	assert.False(t, *plain.IgnoreHttpsErrors)

	custom := Options{UserAgent: "webbind-test", IgnoreTLSErrors: true}.contextOptions()
	require.NotNil(t, custom.UserAgent)
	assert.Equal(t, "webbind-test", *custom.UserAgent)
	assert.True(t, *custom.IgnoreHttpsErrors)

	persona := schemas.DefaultPersona
	shaped := Options{Persona: &persona}.contextOptions()
	require.NotNil(t, shaped.UserAgent)
	assert.Equal(t, persona.UserAgent, *shaped.UserAgent)
	require.NotNil(t, shaped.Locale)
	assert.Equal(t, "en-US", *shaped.Locale)
	assert.Equal(t, "en-US,en;q=0.9", shaped.ExtraHttpHeaders["Accept-Language"])
	require.NotNil(t, shaped.Viewport)
	assert.Equal(t, 1024, shaped.Viewport.Width)
	assert.Equal(t, 768, shaped.Viewport.Height)

	overridden := Options{Persona: &persona, UserAgent: "explicit"}.contextOptions()
	assert.Equal(t, "explicit", *overridden.UserAgent)
}

func TestOptions_RunOptions(t *testing.T) {
	quiet := Options{}.runOptions()
	assert.Equal(t, []string{"chromium"}, quiet.Browsers)
	assert.Equal(t, io.Discard, quiet.Stdout)
	assert.Equal(t, io.Discard, quiet.Stderr)

	verbose := Options{Verbose: true}.runOptions()
	assert.True(t, verbose.Verbose)
	assert.Nil(t, verbose.Stdout)
}

func TestOptions_LaunchTimeout(t *testing.T) {
	assert.Equal(t, defaultLaunchTimeout, Options{}.launchTimeout())
	assert.Equal(t, 3*time.Second, Options{LaunchTimeout: 3 * time.Second}.launchTimeout())
}

func TestAwait(t *testing.T) {
	t.Run("ReturnsResult", func(t *testing.T) {
		boom := errors.New("boom")
		assert.NoError(t, await(context.Background(), func() error { return nil }))
		assert.ErrorIs(t, await(context.Background(), func() error { return boom }), boom)
	})

	t.Run("ReturnsEarlyOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		release := make(chan struct{})
		defer close(release)

		err := await(ctx, func() error {
			<-release
			return nil
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBridge_ClosedBeforeStart(t *testing.T) {
	b := &Bridge{callbacks: interop.NewCallbackTable(nil), logger: zap.NewNop()}
	require.NoError(t, b.Close(context.Background()))
	require.NoError(t, b.Close(context.Background()))

	_, err := b.Invoke(context.Background(), "DocumentAPI.getTitle")
	assert.ErrorIs(t, err, interop.ErrClosed)
	assert.ErrorIs(t, b.Navigate(context.Background(), "about:blank"), interop.ErrClosed)

	released := false
	err = b.keep(func() { t.Fatal("closed bridge adopted a resource") }, func() { released = true })
	assert.ErrorIs(t, err, interop.ErrClosed)
	assert.True(t, released)
}
