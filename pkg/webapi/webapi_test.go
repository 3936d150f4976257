package webapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/interop/inproc"
	"github.com/xkilldash9x/webbind/pkg/webapi"
)

const page = `<!DOCTYPE html>
<html lang="en"><head><title>Wrapper fixture</title></head>
<body>
  <main id="main" class="content">
    <p id="intro">Hello</p>
    <input id="name" type="text" value="ada">
    <button id="go" data-role="primary">Go</button>
  </main>
</body></html>`

// harness binds the wrappers to an in-process page.
type harness struct {
	bridge  *inproc.Bridge
	globals *webapi.Globals
}

func newHarness(t *testing.T, opts ...func(*inproc.Options)) *harness {
	t.Helper()
	o := inproc.Options{URL: "https://example.test/"}
	for _, fn := range opts {
		fn(&o)
	}
	logger := zaptest.NewLogger(t)
	b, err := inproc.New(logger, o)
	require.NoError(t, err)
	require.NoError(t, b.LoadHTML(context.Background(), "https://example.test/index.html", page))

	g := webapi.Bind(b, logger)
	t.Cleanup(func() {
		_ = g.Close(context.Background())
		_ = b.Close(context.Background())
	})
	return &harness{bridge: b, globals: g}
}

// close releases the page before a leak check; the test cleanup then finds it closed.
func (h *harness) close() {
	_ = h.globals.Close(context.Background())
	_ = h.bridge.Close(context.Background())
}

func (h *harness) eval(t *testing.T, script string) any {
	t.Helper()
	v, err := h.bridge.Eval(context.Background(), script)
	require.NoError(t, err)
	return v
}

func (h *harness) listeners(t *testing.T, target, event string) int {
	t.Helper()
	n, err := h.bridge.ListenerCount(context.Background(), target, event)
	require.NoError(t, err)
	return n
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	var zero T
	return zero
}

func TestDocument_ReadOnlyAccessorsTrackNativeValue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.globals.Document

	title, err := doc.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Wrapper fixture", title)

	h.eval(t, `document.title = "Changed natively"`)
	title, err = doc.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Changed natively", title)

	url, err := doc.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/index.html", url)

	ready, err := doc.ReadyState(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.ReadyStateComplete, ready)

	mode, err := doc.CompatMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CSS1Compat", mode)

	visibility, err := doc.VisibilityState(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.VisibilityVisible, visibility)
}

func TestDocument_ReadWriteAccessorsRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.globals.Document

	require.NoError(t, doc.SetDir(ctx, "rtl"))
	dir, err := doc.Dir(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rtl", dir)

	require.NoError(t, doc.SetTitle(ctx, "From Go"))
	assert.Equal(t, "From Go", h.eval(t, `document.title`))

	require.NoError(t, doc.SetCookie(ctx, "session=abc; path=/"))
	cookie, err := doc.Cookie(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session=abc", cookie)
}

func TestDocument_NullableAccessors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.globals.Document

	missing, err := doc.GetElementByID(ctx, "missing-id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := doc.QuerySelector(ctx, ".does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, none)

	fullscreen, err := doc.FullscreenElement(ctx)
	require.NoError(t, err)
	assert.Nil(t, fullscreen)

	intro, err := doc.GetElementByID(ctx, "intro")
	require.NoError(t, err)
	require.NotNil(t, intro)

	// A mutation through the handle shows up on the native node.
	require.NoError(t, intro.SetTextContent(ctx, "Mutated from Go"))
	assert.Equal(t, "Mutated from Go", h.eval(t, `document.getElementById("intro").textContent`))

	again, err := doc.QuerySelector(ctx, "main > p")
	require.NoError(t, err)
	assert.True(t, intro.SameNode(again))

	body, err := doc.Body(ctx)
	require.NoError(t, err)
	active, err := doc.ActiveElement(ctx)
	require.NoError(t, err)
	assert.True(t, body.SameNode(active), "activeElement falls back to the body")
}

func TestDocument_Collections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.globals.Document

	all, err := doc.QuerySelectorAll(ctx, "main *")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byClass, err := doc.GetElementsByClassName(ctx, "content")
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	id, err := byClass[0].ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", id)

	created, err := doc.CreateElement(ctx, "section")
	require.NoError(t, err)
	connected, err := created.IsConnected(ctx)
	require.NoError(t, err)
	assert.False(t, connected)

	require.NoError(t, byClass[0].AppendChild(ctx, created))
	connected, err = created.IsConnected(ctx)
	require.NoError(t, err)
	assert.True(t, connected)

	_, err = doc.QuerySelectorAll(ctx, "p:hover")
	assert.True(t, interop.IsScriptError(err, "SyntaxError"), "got %v", err)
}

func TestElement_Members(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	button, err := h.globals.Document.GetElementByID(ctx, "go")
	require.NoError(t, err)
	require.NotNil(t, button)

	tag, err := button.TagName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BUTTON", tag)

	role, ok, err := button.GetAttribute(ctx, "data-role")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "primary", role)

	_, ok, err = button.GetAttribute(ctx, "data-missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, button.SetHidden(ctx, true))
	hidden, err := button.Hidden(ctx)
	require.NoError(t, err)
	assert.True(t, hidden)
	assert.Equal(t, true, h.eval(t, `document.getElementById("go").hasAttribute("hidden")`))

	require.NoError(t, button.SetTabIndex(ctx, 3))
	tabIndex, err := button.TabIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tabIndex)

	parent, err := button.ParentElement(ctx)
	require.NoError(t, err)
	parentID, err := parent.ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", parentID)

	input, err := h.globals.Document.GetElementByID(ctx, "name")
	require.NoError(t, err)
	value, err := input.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", value)

	require.NoError(t, input.Focus(ctx))
	active, err := h.globals.Document.ActiveElement(ctx)
	require.NoError(t, err)
	assert.True(t, input.SameNode(active))

	rect, err := input.GetBoundingClientRect(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.DOMRect{}, rect)
}

func TestElement_Release(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	intro, err := h.globals.Document.GetElementByID(ctx, "intro")
	require.NoError(t, err)
	alias, err := h.globals.Document.QuerySelector(ctx, "#intro")
	require.NoError(t, err)

	require.NoError(t, intro.Release(ctx))
	require.NoError(t, intro.Release(ctx))

	_, err = intro.ID(ctx)
	var released *webapi.HandleReleasedError
	require.True(t, errors.As(err, &released))
	assert.Equal(t, intro.Handle(), released.Handle)

	// The other wrapper shares the handle the script side dropped.
	_, err = alias.ID(ctx)
	assert.True(t, webapi.IsHandleReleased(err), "got %v", err)

	// A fresh lookup gets a fresh handle.
	fresh, err := h.globals.Document.GetElementByID(ctx, "intro")
	require.NoError(t, err)
	id, err := fresh.ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "intro", id)
}

func TestEvents_OneNativeListenerPerEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.globals.Document

	first := make(chan schemas.MouseEventArgs, 8)
	second := make(chan schemas.MouseEventArgs, 8)
	subA, err := doc.OnClick(ctx, func(e schemas.MouseEventArgs) { first <- e })
	require.NoError(t, err)
	subB, err := doc.OnClick(ctx, func(e schemas.MouseEventArgs) { second <- e })
	require.NoError(t, err)

	assert.Equal(t, 1, h.listeners(t, "document", "click"))
	assert.Equal(t, 2, doc.SubscriberCount("click"))

	h.eval(t, `document.getElementById("go").click(); document.getElementById("go").click()`)
	for i := 0; i < 2; i++ {
		assert.Equal(t, "click", receive(t, first).Type)
		assert.Equal(t, "click", receive(t, second).Type)
	}
	assert.Never(t, func() bool { return len(first) > 0 || len(second) > 0 }, 100*time.Millisecond, 10*time.Millisecond,
		"each occurrence is delivered once per subscriber")

	require.NoError(t, subA.Unsubscribe(ctx))
	require.NoError(t, subA.Unsubscribe(ctx))
	assert.Equal(t, 1, h.listeners(t, "document", "click"))

	require.NoError(t, subB.Unsubscribe(ctx))
	assert.Equal(t, 0, h.listeners(t, "document", "click"))

	h.eval(t, `document.getElementById("go").click()`)
	assert.Never(t, func() bool { return len(first) > 0 || len(second) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestEvents_ElementTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	input, err := h.globals.Document.GetElementByID(ctx, "name")
	require.NoError(t, err)

	focused := make(chan schemas.FocusEventArgs, 1)
	_, err = input.OnFocus(ctx, func(e schemas.FocusEventArgs) { focused <- e })
	require.NoError(t, err)
	assert.Equal(t, 1, h.listeners(t, "#name", "focus"))

	require.NoError(t, input.Focus(ctx))
	e := receive(t, focused)
	assert.Equal(t, "focus", e.Type)
	assert.False(t, e.Bubbles)

	require.NoError(t, input.Release(ctx))
	assert.Equal(t, 0, h.listeners(t, "#name", "focus"))
}

func TestEvents_UnknownName(t *testing.T) {
	h := newHarness(t)

	_, err := h.globals.Window.Subscribe(context.Background(), "message", func(string, json.RawMessage) error { return nil })
	var unknown *webapi.UnknownEventError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "message", unknown.Event)

	assert.Contains(t, h.globals.Window.EventNames(), "popstate")
	kind, ok := h.globals.Document.EventKind("keydown")
	assert.True(t, ok)
	assert.Equal(t, schemas.KindKeyboard, kind)
}

func TestHistory_PushStateRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t)
	defer h.close()
	ctx := context.Background()
	hist := h.globals.History

	raw, err := hist.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw), "a fresh entry has no state")
	var decoded any = "unset"
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded)
	var empty map[string]int
	require.NoError(t, hist.StateInto(ctx, &empty))
	assert.Nil(t, empty)

	require.NoError(t, hist.PushState(ctx, map[string]int{"x": 1}, "title", "/a"))

	var state map[string]int
	require.NoError(t, hist.StateInto(ctx, &state))
	assert.Equal(t, map[string]int{"x": 1}, state)

	length, err := hist.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	path, err := h.globals.Location.Pathname(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/a", path)

	err = hist.PushState(ctx, nil, "", "https://other.test/")
	assert.True(t, interop.IsScriptError(err, "SecurityError"), "got %v", err)
}

func TestHistory_TraversalFiresPopState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hist := h.globals.History

	popped := make(chan schemas.PopStateEventArgs, 1)
	_, err := h.globals.Window.OnPopState(ctx, func(e schemas.PopStateEventArgs) { popped <- e })
	require.NoError(t, err)

	require.NoError(t, hist.ReplaceState(ctx, map[string]int{"page": 1}, "", ""))
	require.NoError(t, hist.PushState(ctx, map[string]int{"page": 2}, "", "/two"))
	require.NoError(t, hist.Back(ctx))

	e := receive(t, popped)
	assert.JSONEq(t, `{"page":1}`, string(e.State))

	href, err := h.globals.Location.Href(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/index.html", href)
}

func TestLocation_HashChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	changed := make(chan schemas.HashChangeEventArgs, 1)
	_, err := h.globals.Window.OnHashChange(ctx, func(e schemas.HashChangeEventArgs) { changed <- e })
	require.NoError(t, err)

	require.NoError(t, h.globals.Location.SetHash(ctx, "section"))
	e := receive(t, changed)
	assert.Equal(t, "https://example.test/index.html", e.OldURL)
	assert.Equal(t, "https://example.test/index.html#section", e.NewURL)

	hash, err := h.globals.Location.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#section", hash)

	origin, err := h.globals.Location.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test", origin)
}

func TestWindow_MembersAndDialogs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	win := h.globals.Window

	width, err := win.InnerWidth(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(schemas.DefaultPersona.Width), width)

	secure, err := win.IsSecureContext(ctx)
	require.NoError(t, err)
	assert.True(t, secure)

	require.NoError(t, win.SetName(ctx, "main-window"))
	name, err := win.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main-window", name)

	scrolled := make(chan schemas.EventArgs, 1)
	_, err = h.globals.Document.OnScroll(ctx, func(e schemas.EventArgs) { scrolled <- e })
	require.NoError(t, err)
	top := 120.0
	require.NoError(t, win.ScrollTo(ctx, schemas.ScrollToOptions{Top: &top}))
	receive(t, scrolled)
	y, err := win.ScrollY(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(120), y)

	// The default dialog handler accepts prompts with their default value.
	value, ok, err := win.Prompt(ctx, "Name?", "ada")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ada", value)

	confirmed, err := win.Confirm(ctx, "Sure?")
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestWindow_ScrollToKeepsOmittedAxis(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t)
	defer h.close()
	ctx := context.Background()
	win := h.globals.Window

	left, top := 40.0, 0.0
	require.NoError(t, win.ScrollTo(ctx, schemas.ScrollToOptions{Left: &left, Top: &top}))

	top = 75
	require.NoError(t, win.ScrollTo(ctx, schemas.ScrollToOptions{Top: &top}))
	x, err := win.ScrollX(ctx)
	require.NoError(t, err)
	y, err := win.ScrollY(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40.0, x, "an omitted left keeps the horizontal position")
	assert.Equal(t, 75.0, y)

	dx := 10.0
	require.NoError(t, win.ScrollBy(ctx, schemas.ScrollToOptions{Left: &dx}))
	x, err = win.ScrollX(ctx)
	require.NoError(t, err)
	y, err = win.ScrollY(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 75.0, y)

	encoded, err := json.Marshal(schemas.ScrollToOptions{Top: &top})
	require.NoError(t, err)
	assert.JSONEq(t, `{"top":75}`, string(encoded))
}

func TestNavigatorAndStorage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	languages, err := h.globals.Navigator.Languages(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.DefaultPersona.Languages, languages)

	webdriver, err := h.globals.Navigator.Webdriver(ctx)
	require.NoError(t, err)
	assert.False(t, webdriver)

	store := h.globals.LocalStorage
	_, ok, err := store.GetItem(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetItem(ctx, "theme", "dark"))
	require.NoError(t, store.SetItem(ctx, "lang", "en"))
	theme, ok, err := store.GetItem(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", theme)

	key, ok, err := store.Key(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "lang", key)

	_, ok, err = store.Key(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	session, err := h.globals.SessionStorage.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, session, "areas are independent")

	require.NoError(t, store.Clear(ctx))
	n, err := store.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPermissions_QueryAndChange(t *testing.T) {
	h := newHarness(t, func(o *inproc.Options) {
		o.Permissions = map[string]schemas.PermissionState{"camera": schemas.PermissionDenied}
	})
	ctx := context.Background()

	camera, err := h.globals.Permissions.Query(ctx, "camera")
	require.NoError(t, err)
	assert.Equal(t, "camera", camera.Name())
	assert.Equal(t, schemas.PermissionDenied, camera.State())

	changed := make(chan struct{}, 1)
	_, err = camera.OnChange(ctx, func(schemas.EventArgs) { changed <- struct{}{} })
	require.NoError(t, err)

	require.NoError(t, h.bridge.SetPermission(ctx, "camera", schemas.PermissionGranted))
	receive(t, changed)

	state, err := camera.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, schemas.PermissionGranted, state)
	assert.Equal(t, schemas.PermissionGranted, camera.State())

	_, err = h.globals.Permissions.Query(ctx, "teleportation")
	assert.True(t, interop.IsScriptError(err, "TypeError"), "got %v", err)

	require.NoError(t, camera.Release(ctx))
}

func TestGlobals_CloseRemovesEveryListener(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	nop := func(schemas.EventArgs) {}

	_, err := h.globals.Document.OnVisibilityChange(ctx, nop)
	require.NoError(t, err)
	_, err = h.globals.Window.OnResize(ctx, nop)
	require.NoError(t, err)
	button, err := h.globals.Document.GetElementByID(ctx, "go")
	require.NoError(t, err)
	_, err = button.OnClick(ctx, func(schemas.MouseEventArgs) {})
	require.NoError(t, err)

	require.NoError(t, h.globals.Close(ctx))

	assert.Equal(t, 0, h.listeners(t, "document", "visibilitychange"))
	assert.Equal(t, 0, h.listeners(t, "window", "resize"))
	assert.Equal(t, 0, h.listeners(t, "#go", "click"))
	assert.Zero(t, h.bridge.Callbacks().Len())
}

// MockInvoker is a mock implementation of interop.Invoker.
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, identifier string, args ...any) (json.RawMessage, error) {
	ret := m.Called(ctx, identifier, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(json.RawMessage), ret.Error(1)
}

func (m *MockInvoker) Callbacks() *interop.CallbackTable { return nil }

func TestWrappers_PassErrorsThrough(t *testing.T) {
	inv := new(MockInvoker)
	g := webapi.Bind(inv, zaptest.NewLogger(t))
	ctx := context.Background()

	scriptErr := &interop.ScriptError{Identifier: "DocumentAPI.getTitle", Name: "Error", Message: "boom"}
	inv.On("Invoke", ctx, "DocumentAPI.getTitle", []any(nil)).Return(nil, scriptErr).Once()
	_, err := g.Document.Title(ctx)
	assert.Same(t, scriptErr, err)

	inv.On("Invoke", ctx, "StorageAPI.getItem", []any{webapi.StorageSession, "k"}).Return(json.RawMessage(`["v"]`), nil).Once()
	v, ok, err := g.SessionStorage.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	// Subscribing needs callback support from the bridge.
	_, err = g.Document.OnClick(ctx, func(schemas.MouseEventArgs) {})
	assert.Error(t, err)

	inv.AssertExpectations(t)
}

func TestGlobals_SubscriptionsFollowDocumentLoads(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t)
	defer h.close()
	ctx := context.Background()

	resized := make(chan schemas.EventArgs, 8)
	_, err := h.globals.Window.OnResize(ctx, func(e schemas.EventArgs) { resized <- e })
	require.NoError(t, err)
	button, err := h.globals.Document.GetElementByID(ctx, "go")
	require.NoError(t, err)
	_, err = button.OnClick(ctx, func(schemas.MouseEventArgs) {})
	require.NoError(t, err)

	for i, url := range []string{"https://example.test/second", "https://example.test/third"} {
		require.NoError(t, h.bridge.LoadHTML(ctx, url, page), "load %d", i)

		assert.Equal(t, 1, h.listeners(t, "window", "resize"), "load %d", i)
		require.NoError(t, h.bridge.Resize(ctx, 800+int64(i), 600))
		assert.Equal(t, "resize", receive(t, resized).Type)
		assert.Never(t, func() bool { return len(resized) > 0 }, 50*time.Millisecond, 10*time.Millisecond,
			"one delivery per occurrence after load %d", i)

		// A first subscriber for a new name installs a listener in the new document.
		clicks := make(chan schemas.MouseEventArgs, 1)
		sub, err := h.globals.Document.OnClick(ctx, func(e schemas.MouseEventArgs) { clicks <- e })
		require.NoError(t, err)
		assert.Equal(t, 1, h.listeners(t, "document", "click"))
		h.eval(t, `document.getElementById("go").click()`)
		assert.Equal(t, "click", receive(t, clicks).Type)
		require.NoError(t, sub.Unsubscribe(ctx))
	}

	assert.Equal(t, 0, button.SubscriberCount("click"), "element subscriptions end with their document")
	_, err = button.ID(ctx)
	assert.True(t, webapi.IsHandleReleased(err), "got %v", err)
	_, err = button.OnClick(ctx, func(schemas.MouseEventArgs) {})
	assert.True(t, webapi.IsHandleReleased(err), "got %v", err)
	require.NoError(t, button.Release(ctx))

	current, err := h.globals.Document.GetElementByID(ctx, "go")
	require.NoError(t, err)
	id, err := current.ID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "go", id)
}

func TestGlobals_NavigateRebinds(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t)
	defer h.close()
	ctx := context.Background()

	visibility := make(chan schemas.EventArgs, 1)
	_, err := h.globals.Document.OnVisibilityChange(ctx, func(e schemas.EventArgs) { visibility <- e })
	require.NoError(t, err)

	require.NoError(t, h.globals.Navigate(ctx, "about:blank"))
	assert.Equal(t, 1, h.listeners(t, "document", "visibilitychange"))
	require.NoError(t, h.bridge.SetVisibility(ctx, schemas.VisibilityHidden))
	assert.Equal(t, "visibilitychange", receive(t, visibility).Type)

	// Rebinding again in the same document installs nothing twice.
	require.NoError(t, h.globals.Rebind(ctx))
	assert.Equal(t, 1, h.listeners(t, "document", "visibilitychange"))

	unbound := webapi.Bind(new(MockInvoker), zaptest.NewLogger(t))
	assert.Error(t, unbound.Navigate(ctx, "about:blank"))
}
