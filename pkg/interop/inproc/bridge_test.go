package inproc_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/browser/jsbind"
	"github.com/xkilldash9x/webbind/pkg/events"
	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/interop/inproc"
)

const testPage = `<!DOCTYPE html>
<html><head><title>Fixture</title></head>
<body><main id="main"><button id="go">Go</button></main></body></html>`

func newBridge(t *testing.T) *inproc.Bridge {
	t.Helper()
	b, err := inproc.New(zaptest.NewLogger(t), inproc.Options{URL: "https://example.test/"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	require.NoError(t, b.LoadHTML(context.Background(), "https://example.test/index.html", testPage))
	return b
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a callback")
	}
	var zero T
	return zero
}

func TestBridge_Mode(t *testing.T) {
	b := newBridge(t)
	assert.Equal(t, interop.ModeInProcess, b.Mode())
	assert.NotNil(t, b.Callbacks())
}

func TestInvoke_HistoryStateRoundTrip(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	require.NoError(t, interop.CallVoid(ctx, b, "HistoryAPI.pushState", map[string]int{"x": 1}, "title", "/a"))

	state, err := interop.Call[map[string]int](ctx, b, "HistoryAPI.getState")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 1}, state)

	path, err := interop.Call[string](ctx, b, "LocationAPI.getPathname")
	require.NoError(t, err)
	assert.Equal(t, "/a", path)

	length, err := interop.Call[int](ctx, b, "HistoryAPI.getLength")
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	entries, err := b.HistoryEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://example.test/a", entries[1].URL)
}

func TestInvoke_ScriptErrorsKeepTheirName(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	err := interop.CallVoid(ctx, b, "HistoryAPI.pushState", nil, "", "https://elsewhere.test/")
	require.Error(t, err)
	assert.True(t, interop.IsScriptError(err, "SecurityError"), "got %v", err)

	_, err = interop.Call[interop.HandleRef](ctx, b, "DocumentAPI.createElement", "1bad")
	assert.True(t, interop.IsScriptError(err, "InvalidCharacterError"), "got %v", err)
}

func TestInvoke_UnknownIdentifier(t *testing.T) {
	b := newBridge(t)

	_, err := b.Invoke(context.Background(), "DocumentAPI.noSuchThing")
	var se *interop.ScriptError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "The function 'DocumentAPI.noSuchThing' is not defined", se.Message)

	_, err = b.Invoke(context.Background(), "Nope")
	assert.True(t, interop.IsScriptError(err, ""))
}

func TestCallOptional_AbsentAndPresent(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	_, ok, err := interop.CallOptional[interop.HandleRef](ctx, b, "DocumentAPI.getElementById", "missing-id")
	require.NoError(t, err)
	assert.False(t, ok)

	ref, ok, err := interop.CallOptional[interop.HandleRef](ctx, b, "DocumentAPI.getElementById", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ref.Valid())

	attr, ok, err := interop.CallOptional[string](ctx, b, "ElementAPI.getAttribute", ref, "data-missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, attr)
}

func TestInvoke_HandlesKeepIdentity(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	first, _, err := interop.CallOptional[interop.HandleRef](ctx, b, "DocumentAPI.getElementById", "main")
	require.NoError(t, err)
	second, _, err := interop.CallOptional[interop.HandleRef](ctx, b, "DocumentAPI.querySelector", "#main")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	released, err := interop.Call[bool](ctx, b, "InteropAPI.release", first)
	require.NoError(t, err)
	assert.True(t, released)

	_, err = interop.Call[string](ctx, b, "ElementAPI.getId", first)
	assert.True(t, interop.IsScriptError(err, "HandleReleasedError"), "got %v", err)
}

func TestInvoke_DocumentDirRoundTrip(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	require.NoError(t, interop.CallVoid(ctx, b, "DocumentAPI.setDir", "rtl"))
	dir, err := interop.Call[string](ctx, b, "DocumentAPI.getDir")
	require.NoError(t, err)
	assert.Equal(t, "rtl", dir)

	title, err := interop.Call[string](ctx, b, "DocumentAPI.getTitle")
	require.NoError(t, err)
	assert.Equal(t, "Fixture", title)
}

func TestEvents_SharedNativeListener(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()
	reg := events.NewRegistry(b, events.TargetDocument, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = reg.Close(context.Background()) })

	firstCh := make(chan schemas.MouseEventArgs, 4)
	secondCh := make(chan schemas.MouseEventArgs, 4)
	first, err := reg.Subscribe(ctx, "click", schemas.KindMouse, events.On(func(e schemas.MouseEventArgs) { firstCh <- e }))
	require.NoError(t, err)
	second, err := reg.Subscribe(ctx, "click", schemas.KindMouse, events.On(func(e schemas.MouseEventArgs) { secondCh <- e }))
	require.NoError(t, err)

	n, err := b.ListenerCount(ctx, "document", "click")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "two subscribers share one native listener")

	_, err = b.Eval(ctx, `document.getElementById("go").click()`)
	require.NoError(t, err)

	for _, ch := range []chan schemas.MouseEventArgs{firstCh, secondCh} {
		e := waitFor(t, ch)
		assert.Equal(t, "click", e.Type)
		assert.True(t, e.Bubbles)
		assert.False(t, e.IsTrusted)
	}

	require.NoError(t, reg.Unsubscribe(ctx, "click", first))
	n, err = b.ListenerCount(ctx, "document", "click")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, reg.Unsubscribe(ctx, "click", second))
	n, err = b.ListenerCount(ctx, "document", "click")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEvents_WindowHostControls(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()
	reg := events.NewRegistry(b, events.TargetWindow, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = reg.Close(context.Background()) })

	got := make(chan string, 4)
	record := events.On(func(e schemas.EventArgs) { got <- e.Type })
	for _, name := range []string{"offline", "resize"} {
		_, err := reg.Subscribe(ctx, name, schemas.KindEvent, record)
		require.NoError(t, err)
	}

	require.NoError(t, b.SetOnline(ctx, false))
	assert.Equal(t, "offline", waitFor(t, got))

	require.NoError(t, b.Resize(ctx, 800, 600))
	assert.Equal(t, "resize", waitFor(t, got))

	width, err := interop.Call[int64](ctx, b, "WindowAPI.getInnerWidth")
	require.NoError(t, err)
	assert.Equal(t, int64(800), width)

	online, err := interop.Call[bool](ctx, b, "NavigatorAPI.getOnLine")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestPermissions_ChangeEvent(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	type statusRecord struct {
		Handle interop.HandleRef       `json:"handle"`
		Name   string                  `json:"name"`
		State  schemas.PermissionState `json:"state"`
	}
	status, err := interop.Call[statusRecord](ctx, b, "PermissionsAPI.query", "geolocation")
	require.NoError(t, err)
	assert.Equal(t, "geolocation", status.Name)
	assert.Equal(t, schemas.PermissionPrompt, status.State)

	reg := events.NewRegistry(b, status.Handle, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = reg.Close(context.Background()) })
	changed := make(chan string, 1)
	_, err = reg.Subscribe(ctx, "change", schemas.KindEvent, events.On(func(e schemas.EventArgs) { changed <- e.Type }))
	require.NoError(t, err)

	require.NoError(t, b.SetPermission(ctx, "geolocation", schemas.PermissionGranted))
	assert.Equal(t, "change", waitFor(t, changed))

	state, err := interop.Call[schemas.PermissionState](ctx, b, "PermissionsAPI.getState", status.Handle)
	require.NoError(t, err)
	assert.Equal(t, schemas.PermissionGranted, state)

	_, err = interop.Call[statusRecord](ctx, b, "PermissionsAPI.query", "not-a-permission")
	assert.True(t, interop.IsScriptError(err, "TypeError"), "got %v", err)
}

func TestNavigate_FetchesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><head><title>Served %s</title></head><body></body></html>", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	b := newBridge(t)
	ctx := context.Background()

	require.NoError(t, b.Navigate(ctx, srv.URL+"/page"))
	title, err := interop.Call[string](ctx, b, "DocumentAPI.getTitle")
	require.NoError(t, err)
	assert.Equal(t, "Served /page", title)

	href, err := interop.Call[string](ctx, b, "LocationAPI.getHref")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/page", href)

	err = b.Navigate(ctx, srv.URL+"/missing")
	var navErr *jsbind.NavigationError
	require.True(t, errors.As(err, &navErr), "got %v", err)
	assert.Equal(t, srv.URL+"/missing", navErr.URL)

	require.NoError(t, b.Navigate(ctx, "about:blank"))
	ready, err := interop.Call[schemas.DocumentReadyState](ctx, b, "DocumentAPI.getReadyState")
	require.NoError(t, err)
	assert.Equal(t, schemas.ReadyStateComplete, ready)
}

func TestClose_RejectsFurtherCalls(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b, err := inproc.New(zaptest.NewLogger(t), inproc.Options{URL: "https://example.test/"})
	require.NoError(t, err)
	require.NoError(t, b.Close(context.Background()))
	require.NoError(t, b.Close(context.Background()))

	_, err = b.Invoke(context.Background(), "DocumentAPI.getTitle")
	assert.ErrorIs(t, err, interop.ErrClosed)
	assert.ErrorIs(t, b.SetOnline(context.Background(), true), interop.ErrClosed)
}

func TestLoadHTML_StartsNewRealm(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b, err := inproc.New(zaptest.NewLogger(t), inproc.Options{URL: "https://example.test/"})
	require.NoError(t, err)
	defer b.Close(context.Background())
	ctx := context.Background()

	var loads int
	remove := b.OnDocument(func(context.Context) error {
		loads++
		return nil
	})

	require.NoError(t, b.LoadHTML(ctx, "https://example.test/one", testPage))
	assert.Equal(t, 1, loads)
	stale, ok, err := interop.CallOptional[interop.HandleRef](ctx, b, "DocumentAPI.getElementById", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, stale.Realm)

	ref := interop.CallbackRef{ID: 1}
	_, err = b.Invoke(ctx, "EventsAPI.addEventListener", ref, events.TargetWindow, "resize", schemas.KindEvent)
	require.NoError(t, err)

	require.NoError(t, b.LoadHTML(ctx, "https://example.test/two", testPage))
	assert.Equal(t, 2, loads)

	_, err = interop.Call[string](ctx, b, "ElementAPI.getId", stale)
	assert.True(t, interop.IsScriptError(err, "HandleReleasedError"), "got %v", err)
	released, err := interop.Call[bool](ctx, b, "InteropAPI.release", stale)
	require.NoError(t, err)
	assert.False(t, released)

	fresh, ok, err := interop.CallOptional[interop.HandleRef](ctx, b, "DocumentAPI.getElementById", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, stale.Realm, fresh.Realm)
	id, err := interop.Call[string](ctx, b, "ElementAPI.getId", fresh)
	require.NoError(t, err)
	assert.Equal(t, "main", id)

	count, err := interop.Call[int](ctx, b, "EventsAPI.getListenerCount")
	require.NoError(t, err)
	assert.Zero(t, count, "listeners of the old document are removed")
	n, err := b.ListenerCount(ctx, "window", "resize")
	require.NoError(t, err)
	assert.Zero(t, n)

	remove()
	require.NoError(t, b.LoadHTML(ctx, "https://example.test/three", testPage))
	assert.Equal(t, 2, loads)
}
