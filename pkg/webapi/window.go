package webapi

import (
	"context"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/events"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

const windowNS = "WindowAPI"

var windowEvents = map[string]schemas.EventKind{
	"resize":       schemas.KindEvent,
	"scroll":       schemas.KindEvent,
	"popstate":     schemas.KindPopState,
	"hashchange":   schemas.KindHashChange,
	"online":       schemas.KindEvent,
	"offline":      schemas.KindEvent,
	"focus":        schemas.KindFocus,
	"blur":         schemas.KindFocus,
	"load":         schemas.KindEvent,
	"pageshow":     schemas.KindPageTransition,
	"pagehide":     schemas.KindPageTransition,
	"storage":      schemas.KindStorage,
	"error":        schemas.KindError,
	"beforeunload": schemas.KindEvent,
}

// Window wraps the global window object.
type Window struct {
	*target
	inv interop.Invoker
}

func newWindow(s *scope) *Window {
	return &Window{
		target: newTarget(s, events.TargetWindow, events.TargetWindow, windowEvents),
		inv:    s.inv,
	}
}

func windowCall[T any](ctx context.Context, w *Window, op string, args ...any) (T, error) {
	return interop.Call[T](ctx, w.inv, interop.Identifier(windowNS, op), args...)
}

func (w *Window) void(ctx context.Context, op string, args ...any) error {
	return interop.CallVoid(ctx, w.inv, interop.Identifier(windowNS, op), args...)
}

func (w *Window) InnerWidth(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getInnerWidth")
}
func (w *Window) InnerHeight(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getInnerHeight")
}
func (w *Window) OuterWidth(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getOuterWidth")
}
func (w *Window) OuterHeight(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getOuterHeight")
}
func (w *Window) ScrollX(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getScrollX")
}
func (w *Window) ScrollY(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getScrollY")
}
func (w *Window) DevicePixelRatio(ctx context.Context) (float64, error) {
	return windowCall[float64](ctx, w, "getDevicePixelRatio")
}
func (w *Window) Name(ctx context.Context) (string, error) {
	return windowCall[string](ctx, w, "getName")
}
func (w *Window) SetName(ctx context.Context, v string) error { return w.void(ctx, "setName", v) }
func (w *Window) Closed(ctx context.Context) (bool, error) {
	return windowCall[bool](ctx, w, "getClosed")
}
func (w *Window) IsSecureContext(ctx context.Context) (bool, error) {
	return windowCall[bool](ctx, w, "getIsSecureContext")
}
func (w *Window) Origin(ctx context.Context) (string, error) {
	return windowCall[string](ctx, w, "getOrigin")
}

func (w *Window) Alert(ctx context.Context, message string) error {
	return w.void(ctx, "alert", message)
}
func (w *Window) Confirm(ctx context.Context, message string) (bool, error) {
	return windowCall[bool](ctx, w, "confirm", message)
}

// Prompt shows a prompt dialog; ok is false when it was dismissed.
func (w *Window) Prompt(ctx context.Context, message, defaultValue string) (value string, ok bool, err error) {
	return interop.CallOptional[string](ctx, w.inv, interop.Identifier(windowNS, "prompt"), message, defaultValue)
}

func (w *Window) Print(ctx context.Context) error { return w.void(ctx, "print") }
func (w *Window) Focus(ctx context.Context) error { return w.void(ctx, "focus") }
func (w *Window) Blur(ctx context.Context) error  { return w.void(ctx, "blur") }

// ScrollTo scrolls to an absolute position. The scroll event follows asynchronously.
func (w *Window) ScrollTo(ctx context.Context, opts schemas.ScrollToOptions) error {
	return w.void(ctx, "scrollTo", opts)
}

// ScrollBy scrolls relative to the current position.
func (w *Window) ScrollBy(ctx context.Context, opts schemas.ScrollToOptions) error {
	return w.void(ctx, "scrollBy", opts)
}

// -- Events --

func (w *Window) OnResize(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "resize", fn)
}
func (w *Window) OnScroll(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "scroll", fn)
}
func (w *Window) OnPopState(ctx context.Context, fn func(schemas.PopStateEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "popstate", fn)
}
func (w *Window) OnHashChange(ctx context.Context, fn func(schemas.HashChangeEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "hashchange", fn)
}
func (w *Window) OnOnline(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "online", fn)
}
func (w *Window) OnOffline(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "offline", fn)
}
func (w *Window) OnFocus(ctx context.Context, fn func(schemas.FocusEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "focus", fn)
}
func (w *Window) OnBlur(ctx context.Context, fn func(schemas.FocusEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "blur", fn)
}
func (w *Window) OnLoad(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "load", fn)
}
func (w *Window) OnPageShow(ctx context.Context, fn func(schemas.PageTransitionEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "pageshow", fn)
}
func (w *Window) OnPageHide(ctx context.Context, fn func(schemas.PageTransitionEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "pagehide", fn)
}
func (w *Window) OnStorage(ctx context.Context, fn func(schemas.StorageEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "storage", fn)
}
func (w *Window) OnError(ctx context.Context, fn func(schemas.ErrorEventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "error", fn)
}
func (w *Window) OnBeforeUnload(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, w.target, "beforeunload", fn)
}
