package cdp

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webbind/pkg/interop"
)

// findBrowser returns a Chromium binary on PATH or skips the test.
func findBrowser(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chromium binary found on PATH")
	return ""
}

func TestBridge_Integration(t *testing.T) {
	execPath := findBrowser(t)
	logger := zaptest.NewLogger(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b, err := Launch(ctx, logger, Options{ExecPath: execPath, Headless: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	assert.Equal(t, interop.ModeCDP, b.Mode())
	require.NoError(t, b.Navigate(ctx, "about:blank"))

	t.Run("InvokeRoundTrip", func(t *testing.T) {
		require.NoError(t, interop.CallVoid(ctx, b, "DocumentAPI.setTitle", "bound"))
		title, err := interop.Call[string](ctx, b, "DocumentAPI.getTitle")
		require.NoError(t, err)
		assert.Equal(t, "bound", title)
	})

	t.Run("ScriptErrorKeepsName", func(t *testing.T) {
		_, err := b.Invoke(ctx, "DocumentAPI.createElement", "1bad")
		require.Error(t, err)
		assert.True(t, interop.IsScriptError(err, "InvalidCharacterError"), "got %v", err)
	})

	t.Run("CallbacksReachGo", func(t *testing.T) {
		got := make(chan json.RawMessage, 1)
		ref := b.Callbacks().Register(interop.CallbackFunc(func(method string, args []json.RawMessage) {
			if method == "OnEvent" && len(args) == 2 {
				got <- args[1]
			}
		}))
		require.NoError(t, interop.CallVoid(ctx, b, "EventsAPI.addEventListener", ref, "window", "resize", "event"))
		require.NoError(t, b.Eval(ctx, `window.dispatchEvent(new Event("resize"))`, nil))

		select {
		case payload := <-got:
			assert.Contains(t, string(payload), `"type":"resize"`)
		case <-time.After(5 * time.Second):
			t.Fatal("callback was not delivered")
		}
	})

	t.Run("CloseRejectsCalls", func(t *testing.T) {
		require.NoError(t, b.Close(ctx))
		require.NoError(t, b.Close(ctx), "Close is idempotent")
		_, err := b.Invoke(ctx, "DocumentAPI.getTitle")
		assert.ErrorIs(t, err, interop.ErrClosed)
	})
}
