package webapi

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

const elementNS = "ElementAPI"

// HandleReleasedError is returned by calls on an Element after Release.
type HandleReleasedError struct {
	Handle interop.HandleRef
}

func (e *HandleReleasedError) Error() string {
	return fmt.Sprintf("webapi: %s has been released", e.Handle)
}

// IsHandleReleased reports whether err means the element's native object is no longer
// reachable, either because this wrapper released it or because another wrapper of the
// same node did.
func IsHandleReleased(err error) bool {
	var released *HandleReleasedError
	return errors.As(err, &released) || interop.IsScriptError(err, "HandleReleasedError")
}

var elementEvents = map[string]schemas.EventKind{
	"click":       schemas.KindMouse,
	"dblclick":    schemas.KindMouse,
	"mousedown":   schemas.KindMouse,
	"mouseup":     schemas.KindMouse,
	"mouseenter":  schemas.KindMouse,
	"mouseleave":  schemas.KindMouse,
	"keydown":     schemas.KindKeyboard,
	"keyup":       schemas.KindKeyboard,
	"input":       schemas.KindChange,
	"change":      schemas.KindChange,
	"focus":       schemas.KindFocus,
	"blur":        schemas.KindFocus,
	"pointerdown": schemas.KindPointer,
	"pointerup":   schemas.KindPointer,
	"wheel":       schemas.KindWheel,
	"touchstart":  schemas.KindTouch,
	"touchend":    schemas.KindTouch,
}

// Element wraps one HTMLElement. Two Elements wrapping the same node share a handle, see
// SameNode.
type Element struct {
	*target

	inv      interop.Invoker
	ref      interop.HandleRef
	logger   *zap.Logger
	released atomic.Bool
}

func newElement(s *scope, ref interop.HandleRef) *Element {
	return &Element{
		target: newTarget(s, ref.String(), ref, elementEvents),
		inv:    s.inv,
		ref:    ref,
		logger: s.logger,
	}
}

func wrapElements(s *scope, refs []interop.HandleRef) []*Element {
	out := make([]*Element, len(refs))
	for i, ref := range refs {
		out[i] = newElement(s, ref)
	}
	return out
}

// Handle returns the bridge handle of the element.
func (e *Element) Handle() interop.HandleRef { return e.ref }

// SameNode reports whether e and other wrap the same native node.
func (e *Element) SameNode(other *Element) bool {
	return e != nil && other != nil && e.ref == other.ref
}

// Release removes the element's listeners and drops its handle on the script side.
// Further calls on e fail with *HandleReleasedError.
func (e *Element) Release(ctx context.Context) error {
	if !e.released.CompareAndSwap(false, true) {
		return nil
	}
	err := e.target.close(ctx)
	if _, callErr := e.inv.Invoke(ctx, "InteropAPI.release", e.ref); callErr != nil {
		err = errors.Join(err, callErr)
	}
	e.logger.Debug("Released element handle.", zap.Stringer("handle", e.ref))
	return err
}

func elementCall[T any](ctx context.Context, e *Element, op string, args ...any) (T, error) {
	var zero T
	if e.released.Load() {
		return zero, &HandleReleasedError{Handle: e.ref}
	}
	return interop.Call[T](ctx, e.inv, interop.Identifier(elementNS, op), append([]any{e.ref}, args...)...)
}

func elementVoid(ctx context.Context, e *Element, op string, args ...any) error {
	if e.released.Load() {
		return &HandleReleasedError{Handle: e.ref}
	}
	return interop.CallVoid(ctx, e.inv, interop.Identifier(elementNS, op), append([]any{e.ref}, args...)...)
}

func (e *Element) optionalElement(ctx context.Context, op string, args ...any) (*Element, error) {
	if e.released.Load() {
		return nil, &HandleReleasedError{Handle: e.ref}
	}
	ref, ok, err := interop.CallOptional[interop.HandleRef](ctx, e.inv, interop.Identifier(elementNS, op), append([]any{e.ref}, args...)...)
	if err != nil || !ok {
		return nil, err
	}
	return newElement(e.scope, ref), nil
}

func (e *Element) ID(ctx context.Context) (string, error) { return elementCall[string](ctx, e, "getId") }
func (e *Element) SetID(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setId", v)
}

func (e *Element) ClassName(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getClassName")
}
func (e *Element) SetClassName(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setClassName", v)
}

// TagName returns the upper-case tag name.
func (e *Element) TagName(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getTagName")
}

func (e *Element) InnerHTML(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getInnerHTML")
}
func (e *Element) SetInnerHTML(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setInnerHTML", v)
}

func (e *Element) OuterHTML(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getOuterHTML")
}

func (e *Element) TextContent(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getTextContent")
}
func (e *Element) SetTextContent(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setTextContent", v)
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getInnerText")
}
func (e *Element) SetInnerText(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setInnerText", v)
}

func (e *Element) Title(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getTitle")
}
func (e *Element) SetTitle(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setTitle", v)
}

func (e *Element) Hidden(ctx context.Context) (bool, error) {
	return elementCall[bool](ctx, e, "getHidden")
}
func (e *Element) SetHidden(ctx context.Context, v bool) error {
	return elementVoid(ctx, e, "setHidden", v)
}

func (e *Element) Dir(ctx context.Context) (string, error) { return elementCall[string](ctx, e, "getDir") }
func (e *Element) SetDir(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setDir", v)
}

func (e *Element) Lang(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getLang")
}
func (e *Element) SetLang(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setLang", v)
}

func (e *Element) TabIndex(ctx context.Context) (int64, error) {
	return elementCall[int64](ctx, e, "getTabIndex")
}
func (e *Element) SetTabIndex(ctx context.Context, v int64) error {
	return elementVoid(ctx, e, "setTabIndex", v)
}

// Value returns the value of form controls and "" for other elements.
func (e *Element) Value(ctx context.Context) (string, error) {
	return elementCall[string](ctx, e, "getValue")
}
func (e *Element) SetValue(ctx context.Context, v string) error {
	return elementVoid(ctx, e, "setValue", v)
}

// GetAttribute returns the attribute value; ok is false when the attribute is absent.
func (e *Element) GetAttribute(ctx context.Context, name string) (value string, ok bool, err error) {
	if e.released.Load() {
		return "", false, &HandleReleasedError{Handle: e.ref}
	}
	return interop.CallOptional[string](ctx, e.inv, interop.Identifier(elementNS, "getAttribute"), e.ref, name)
}

func (e *Element) SetAttribute(ctx context.Context, name, value string) error {
	return elementVoid(ctx, e, "setAttribute", name, value)
}

func (e *Element) RemoveAttribute(ctx context.Context, name string) error {
	return elementVoid(ctx, e, "removeAttribute", name)
}

func (e *Element) HasAttribute(ctx context.Context, name string) (bool, error) {
	return elementCall[bool](ctx, e, "hasAttribute", name)
}

// ParentElement returns nil for a detached element and for the document element.
func (e *Element) ParentElement(ctx context.Context) (*Element, error) {
	return e.optionalElement(ctx, "getParentElement")
}

func (e *Element) Children(ctx context.Context) ([]*Element, error) {
	refs, err := elementCall[[]interop.HandleRef](ctx, e, "getChildren")
	if err != nil {
		return nil, err
	}
	return wrapElements(e.scope, refs), nil
}

// QuerySelector returns the first descendant matching selectors, or nil.
func (e *Element) QuerySelector(ctx context.Context, selectors string) (*Element, error) {
	return e.optionalElement(ctx, "querySelector", selectors)
}

func (e *Element) QuerySelectorAll(ctx context.Context, selectors string) ([]*Element, error) {
	refs, err := elementCall[[]interop.HandleRef](ctx, e, "querySelectorAll", selectors)
	if err != nil {
		return nil, err
	}
	return wrapElements(e.scope, refs), nil
}

func (e *Element) AppendChild(ctx context.Context, child *Element) error {
	if child == nil {
		return errors.New("webapi: AppendChild requires an element")
	}
	if child.released.Load() {
		return &HandleReleasedError{Handle: child.ref}
	}
	return elementVoid(ctx, e, "appendChild", child.ref)
}

// Remove detaches the element from its parent. The handle stays valid.
func (e *Element) Remove(ctx context.Context) error { return elementVoid(ctx, e, "remove") }
func (e *Element) Focus(ctx context.Context) error  { return elementVoid(ctx, e, "focus") }
func (e *Element) Blur(ctx context.Context) error   { return elementVoid(ctx, e, "blur") }
func (e *Element) Click(ctx context.Context) error  { return elementVoid(ctx, e, "click") }

// ScrollIntoView scrolls the element into view. opts may be nil.
func (e *Element) ScrollIntoView(ctx context.Context, opts *schemas.ScrollIntoViewOptions) error {
	return elementVoid(ctx, e, "scrollIntoView", opts)
}

func (e *Element) GetBoundingClientRect(ctx context.Context) (schemas.DOMRect, error) {
	return elementCall[schemas.DOMRect](ctx, e, "getBoundingClientRect")
}

func (e *Element) IsConnected(ctx context.Context) (bool, error) {
	return elementCall[bool](ctx, e, "isConnected")
}

// -- Events --

func (e *Element) OnClick(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "click", fn)
}
func (e *Element) OnDblClick(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "dblclick", fn)
}
func (e *Element) OnMouseDown(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "mousedown", fn)
}
func (e *Element) OnMouseUp(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "mouseup", fn)
}
func (e *Element) OnMouseEnter(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "mouseenter", fn)
}
func (e *Element) OnMouseLeave(ctx context.Context, fn func(schemas.MouseEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "mouseleave", fn)
}
func (e *Element) OnKeyDown(ctx context.Context, fn func(schemas.KeyboardEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "keydown", fn)
}
func (e *Element) OnKeyUp(ctx context.Context, fn func(schemas.KeyboardEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "keyup", fn)
}
func (e *Element) OnInput(ctx context.Context, fn func(schemas.ChangeEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "input", fn)
}
func (e *Element) OnChange(ctx context.Context, fn func(schemas.ChangeEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "change", fn)
}
func (e *Element) OnFocus(ctx context.Context, fn func(schemas.FocusEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "focus", fn)
}
func (e *Element) OnBlur(ctx context.Context, fn func(schemas.FocusEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "blur", fn)
}
func (e *Element) OnPointerDown(ctx context.Context, fn func(schemas.PointerEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "pointerdown", fn)
}
func (e *Element) OnPointerUp(ctx context.Context, fn func(schemas.PointerEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "pointerup", fn)
}
func (e *Element) OnWheel(ctx context.Context, fn func(schemas.WheelEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "wheel", fn)
}
func (e *Element) OnTouchStart(ctx context.Context, fn func(schemas.TouchEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "touchstart", fn)
}
func (e *Element) OnTouchEnd(ctx context.Context, fn func(schemas.TouchEventArgs)) (*Subscription, error) {
	return on(ctx, e.target, "touchend", fn)
}
