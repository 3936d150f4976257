package webapi

import (
	"context"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/events"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

const documentNS = "DocumentAPI"

var documentEvents = map[string]schemas.EventKind{
	"click":            schemas.KindMouse,
	"dblclick":         schemas.KindMouse,
	"contextmenu":      schemas.KindMouse,
	"mousedown":        schemas.KindMouse,
	"mouseup":          schemas.KindMouse,
	"mousemove":        schemas.KindMouse,
	"keydown":          schemas.KindKeyboard,
	"keyup":            schemas.KindKeyboard,
	"keypress":         schemas.KindKeyboard,
	"input":            schemas.KindChange,
	"change":           schemas.KindChange,
	"focusin":          schemas.KindFocus,
	"focusout":         schemas.KindFocus,
	"pointerdown":      schemas.KindPointer,
	"pointerup":        schemas.KindPointer,
	"pointermove":      schemas.KindPointer,
	"wheel":            schemas.KindWheel,
	"touchstart":       schemas.KindTouch,
	"touchend":         schemas.KindTouch,
	"touchmove":        schemas.KindTouch,
	"scroll":           schemas.KindEvent,
	"visibilitychange": schemas.KindEvent,
	"readystatechange": schemas.KindEvent,
	"fullscreenchange": schemas.KindEvent,
	"DOMContentLoaded": schemas.KindEvent,
}

// Document wraps window.document.
type Document struct {
	*target
	inv interop.Invoker
}

func newDocument(s *scope) *Document {
	return &Document{
		target: newTarget(s, events.TargetDocument, events.TargetDocument, documentEvents),
		inv:    s.inv,
	}
}

func documentCall[T any](ctx context.Context, d *Document, op string, args ...any) (T, error) {
	return interop.Call[T](ctx, d.inv, interop.Identifier(documentNS, op), args...)
}

func (d *Document) void(ctx context.Context, op string, args ...any) error {
	return interop.CallVoid(ctx, d.inv, interop.Identifier(documentNS, op), args...)
}

func (d *Document) optionalElement(ctx context.Context, op string, args ...any) (*Element, error) {
	ref, ok, err := interop.CallOptional[interop.HandleRef](ctx, d.inv, interop.Identifier(documentNS, op), args...)
	if err != nil || !ok {
		return nil, err
	}
	return newElement(d.scope, ref), nil
}

func (d *Document) elements(ctx context.Context, op string, args ...any) ([]*Element, error) {
	refs, err := documentCall[[]interop.HandleRef](ctx, d, op, args...)
	if err != nil {
		return nil, err
	}
	return wrapElements(d.scope, refs), nil
}

func (d *Document) Title(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getTitle")
}
func (d *Document) SetTitle(ctx context.Context, v string) error { return d.void(ctx, "setTitle", v) }

func (d *Document) Dir(ctx context.Context) (string, error) { return documentCall[string](ctx, d, "getDir") }
func (d *Document) SetDir(ctx context.Context, v string) error  { return d.void(ctx, "setDir", v) }

func (d *Document) URL(ctx context.Context) (string, error) { return documentCall[string](ctx, d, "getURL") }
func (d *Document) DocumentURI(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getDocumentURI")
}
func (d *Document) Domain(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getDomain")
}
func (d *Document) Referrer(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getReferrer")
}

// Cookie returns the cookies visible to script as "name=value; ...".
func (d *Document) Cookie(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getCookie")
}

// SetCookie writes one cookie string, attributes included.
func (d *Document) SetCookie(ctx context.Context, v string) error { return d.void(ctx, "setCookie", v) }

func (d *Document) ReadyState(ctx context.Context) (schemas.DocumentReadyState, error) {
	return documentCall[schemas.DocumentReadyState](ctx, d, "getReadyState")
}
func (d *Document) CharacterSet(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getCharacterSet")
}
func (d *Document) ContentType(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getContentType")
}
func (d *Document) CompatMode(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getCompatMode")
}
func (d *Document) VisibilityState(ctx context.Context) (schemas.VisibilityState, error) {
	return documentCall[schemas.VisibilityState](ctx, d, "getVisibilityState")
}
func (d *Document) Hidden(ctx context.Context) (bool, error) {
	return documentCall[bool](ctx, d, "getHidden")
}
func (d *Document) LastModified(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getLastModified")
}
func (d *Document) DesignMode(ctx context.Context) (string, error) {
	return documentCall[string](ctx, d, "getDesignMode")
}
func (d *Document) SetDesignMode(ctx context.Context, v string) error {
	return d.void(ctx, "setDesignMode", v)
}
func (d *Document) HasFocus(ctx context.Context) (bool, error) {
	return documentCall[bool](ctx, d, "hasFocus")
}

// DocumentElement returns the root element, or nil for an empty document.
func (d *Document) DocumentElement(ctx context.Context) (*Element, error) {
	return d.optionalElement(ctx, "getDocumentElement")
}
func (d *Document) Body(ctx context.Context) (*Element, error) {
	return d.optionalElement(ctx, "getBody")
}
func (d *Document) Head(ctx context.Context) (*Element, error) {
	return d.optionalElement(ctx, "getHead")
}
func (d *Document) ActiveElement(ctx context.Context) (*Element, error) {
	return d.optionalElement(ctx, "getActiveElement")
}
func (d *Document) FullscreenElement(ctx context.Context) (*Element, error) {
	return d.optionalElement(ctx, "getFullscreenElement")
}
func (d *Document) PointerLockElement(ctx context.Context) (*Element, error) {
	return d.optionalElement(ctx, "getPointerLockElement")
}

// GetElementByID returns nil, without error, when no element has the id.
func (d *Document) GetElementByID(ctx context.Context, id string) (*Element, error) {
	return d.optionalElement(ctx, "getElementById", id)
}

// QuerySelector returns the first element matching selectors, or nil.
func (d *Document) QuerySelector(ctx context.Context, selectors string) (*Element, error) {
	return d.optionalElement(ctx, "querySelector", selectors)
}
func (d *Document) QuerySelectorAll(ctx context.Context, selectors string) ([]*Element, error) {
	return d.elements(ctx, "querySelectorAll", selectors)
}
func (d *Document) GetElementsByClassName(ctx context.Context, names string) ([]*Element, error) {
	return d.elements(ctx, "getElementsByClassName", names)
}
func (d *Document) GetElementsByTagName(ctx context.Context, name string) ([]*Element, error) {
	return d.elements(ctx, "getElementsByTagName", name)
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(ctx context.Context, tagName string) (*Element, error) {
	ref, err := documentCall[interop.HandleRef](ctx, d, "createElement", tagName)
	if err != nil {
		return nil, err
	}
	return newElement(d.scope, ref), nil
}

func (d *Document) ExitFullscreen(ctx context.Context) error  { return d.void(ctx, "exitFullscreen") }
func (d *Document) ExitPointerLock(ctx context.Context) error { return d.void(ctx, "exitPointerLock") }

// -- Events --

func (d *Document) OnClick(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "click", fn)
}
func (d *Document) OnDblClick(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "dblclick", fn)
}
func (d *Document) OnContextMenu(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "contextmenu", fn)
}
func (d *Document) OnMouseDown(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "mousedown", fn)
}
func (d *Document) OnMouseUp(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "mouseup", fn)
}
func (d *Document) OnMouseMove(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "mousemove", fn)
}
func (d *Document) OnKeyDown(ctx context.Context, fn func(schemas.KeyboardEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "keydown", fn)
}
func (d *Document) OnKeyUp(ctx context.Context, fn func(schemas.KeyboardEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "keyup", fn)
}
func (d *Document) OnKeyPress(ctx context.Context, fn func(schemas.KeyboardEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "keypress", fn)
}
func (d *Document) OnInput(ctx context.Context, fn func(schemas.ChangeEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "input", fn)
}
func (d *Document) OnChange(ctx context.Context, fn func(schemas.ChangeEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "change", fn)
}
func (d *Document) OnFocusIn(ctx context.Context, fn func(schemas.FocusEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "focusin", fn)
}
func (d *Document) OnFocusOut(ctx context.Context, fn func(schemas.FocusEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "focusout", fn)
}
func (d *Document) OnPointerDown(ctx context.Context, fn func(schemas.PointerEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "pointerdown", fn)
}
func (d *Document) OnPointerUp(ctx context.Context, fn func(schemas.PointerEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "pointerup", fn)
}
func (d *Document) OnPointerMove(ctx context.Context, fn func(schemas.PointerEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "pointermove", fn)
}
func (d *Document) OnWheel(ctx context.Context, fn func(schemas.WheelEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "wheel", fn)
}
func (d *Document) OnTouchStart(ctx context.Context, fn func(schemas.TouchEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "touchstart", fn)
}
func (d *Document) OnTouchEnd(ctx context.Context, fn func(schemas.TouchEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "touchend", fn)
}
func (d *Document) OnTouchMove(ctx context.Context, fn func(schemas.TouchEventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "touchmove", fn)
}
func (d *Document) OnScroll(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "scroll", fn)
}
func (d *Document) OnVisibilityChange(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "visibilitychange", fn)
}
func (d *Document) OnReadyStateChange(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "readystatechange", fn)
}
func (d *Document) OnFullscreenChange(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "fullscreenchange", fn)
}
func (d *Document) OnDOMContentLoaded(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, d.target, "DOMContentLoaded", fn)
}
