// internal/browser/jsbind/window.go
package jsbind

import (
	"fmt"
	"math"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
)

// installWindow defines the window globals on the global object.
func (h *Host) installWindow() error {
	w := h.window
	h.defineEventTarget(w)

	values := map[string]any{
		"window":         w,
		"self":           w,
		"document":       h.document.Object,
		"history":        h.history.Object,
		"navigator":      h.newNavigator(),
		"localStorage":   h.local.Object,
		"sessionStorage": h.session.Object,
	}
	for name, v := range values {
		if err := w.DefineDataProperty(name, h.vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
			return fmt.Errorf("jsbind: defining window.%s: %w", name, err)
		}
	}

	h.accessor(w, "location", func(*goja.Object) goja.Value {
		return h.location.Object
	}, func(_ *goja.Object, v goja.Value) {
		h.location.navigate(v.String(), false)
	})

	get := func(name string, fn func() any) {
		h.accessor(w, name, func(*goja.Object) goja.Value { return h.vm.ToValue(fn()) }, nil)
	}
	get("innerWidth", func() any { return h.width })
	get("innerHeight", func() any { return h.height })
	get("outerWidth", func() any { return h.width })
	get("outerHeight", func() any { return h.height })
	get("scrollX", func() any { return h.scrollX })
	get("scrollY", func() any { return h.scrollY })
	get("pageXOffset", func() any { return h.scrollX })
	get("pageYOffset", func() any { return h.scrollY })
	get("devicePixelRatio", func() any { return h.persona.DevicePixelRatio })
	get("closed", func() any { return false })
	get("isSecureContext", func() any { return h.secureContext() })
	get("origin", func() any { return originOf(h.history.current().url) })
	h.accessor(w, "name", func(*goja.Object) goja.Value {
		return h.vm.ToValue(h.name)
	}, func(_ *goja.Object, v goja.Value) {
		h.name = v.String()
	})

	h.method(w, "alert", func(call goja.FunctionCall) goja.Value {
		h.dialogs.Alert(optionalString(call.Argument(0)))
		return goja.Undefined()
	})
	h.method(w, "confirm", func(call goja.FunctionCall) goja.Value {
		return h.vm.ToValue(h.dialogs.Confirm(optionalString(call.Argument(0))))
	})
	h.method(w, "prompt", func(call goja.FunctionCall) goja.Value {
		text, ok := h.dialogs.Prompt(optionalString(call.Argument(0)), optionalString(call.Argument(1)))
		if !ok {
			return goja.Null()
		}
		return h.vm.ToValue(text)
	})
	h.method(w, "print", func(goja.FunctionCall) goja.Value {
		h.logger.Info("[JS Print]", zap.String("url", h.URL()))
		return goja.Undefined()
	})
	h.method(w, "focus", func(goja.FunctionCall) goja.Value {
		h.setFocused(true)
		return goja.Undefined()
	})
	h.method(w, "blur", func(goja.FunctionCall) goja.Value {
		h.setFocused(false)
		return goja.Undefined()
	})
	h.method(w, "scrollTo", func(call goja.FunctionCall) goja.Value {
		x, y := h.scrollArgs(call, h.scrollX, h.scrollY)
		h.scrollTo(x, y)
		return goja.Undefined()
	})
	h.method(w, "scroll", func(call goja.FunctionCall) goja.Value {
		x, y := h.scrollArgs(call, h.scrollX, h.scrollY)
		h.scrollTo(x, y)
		return goja.Undefined()
	})
	h.method(w, "scrollBy", func(call goja.FunctionCall) goja.Value {
		dx, dy := h.scrollArgs(call, 0, 0)
		h.scrollTo(h.scrollX+dx, h.scrollY+dy)
		return goja.Undefined()
	})
	return nil
}

func optionalString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}

func (h *Host) secureContext() bool {
	u := h.history.current().url
	switch u.Scheme {
	case "https", "wss", "file", "about":
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// scrollArgs reads either (x, y) or a ScrollToOptions dictionary. Missing members keep
// their defaults.
func (h *Host) scrollArgs(call goja.FunctionCall, defX, defY float64) (float64, float64) {
	x, y := defX, defY
	first := call.Argument(0)
	if obj, ok := first.(*goja.Object); ok && len(call.Arguments) == 1 {
		if v := obj.Get("left"); v != nil && !goja.IsUndefined(v) {
			x = finite(v.ToFloat())
		}
		if v := obj.Get("top"); v != nil && !goja.IsUndefined(v) {
			y = finite(v.ToFloat())
		}
		return x, y
	}
	if len(call.Arguments) >= 2 {
		x = finite(first.ToFloat())
		y = finite(call.Argument(1).ToFloat())
	}
	return x, y
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// scrollTo moves the viewport and queues a scroll event when it actually moved.
// There is no layout, so only the lower bound is clamped.
func (h *Host) scrollTo(x, y float64) {
	x, y = math.Max(0, x), math.Max(0, y)
	if x == h.scrollX && y == h.scrollY {
		return
	}
	h.scrollX, h.scrollY = x, y
	h.sched.Schedule(func() {
		h.fire(h.document.Object, "Event", "scroll", map[string]any{"bubbles": true}, true)
	})
}

func (h *Host) setFocused(focused bool) {
	if h.focused == focused {
		return
	}
	h.focused = focused
	eventType := "blur"
	if focused {
		eventType = "focus"
	}
	h.fire(h.window, "FocusEvent", eventType, nil, true)
}

// -- Host controls. These simulate the user agent and must run on the loop. --

// Resize changes the viewport and fires resize on the window.
func (h *Host) Resize(width, height int64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("jsbind: invalid viewport %dx%d", width, height)
	}
	if width == h.width && height == h.height {
		return nil
	}
	h.width, h.height = width, height
	h.fire(h.window, "UIEvent", "resize", map[string]any{"view": h.window}, true)
	return nil
}

// SetVisibility changes document.visibilityState and fires visibilitychange.
func (h *Host) SetVisibility(state schemas.VisibilityState) error {
	switch state {
	case schemas.VisibilityVisible, schemas.VisibilityHidden:
	default:
		return fmt.Errorf("jsbind: invalid visibility state %q", state)
	}
	if state == h.visibility {
		return nil
	}
	h.visibility = state
	h.fire(h.document.Object, "Event", "visibilitychange", map[string]any{"bubbles": true}, true)
	return nil
}

// SetOnline flips navigator.onLine and fires online or offline on the window.
func (h *Host) SetOnline(online bool) {
	if online == h.online {
		return
	}
	h.online = online
	eventType := "offline"
	if online {
		eventType = "online"
	}
	h.fire(h.window, "Event", eventType, nil, true)
}

// ListenerCount reports how many listeners for eventType are registered on target,
// which is "window", "document", or a selector for an element.
func (h *Host) ListenerCount(target, eventType string) (int, error) {
	switch target {
	case "window":
		return h.listenerCount(h.window, eventType), nil
	case "document":
		return h.listenerCount(h.document.Object, eventType), nil
	}
	n, err := queryFirst(h.document.root, target, false)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, &ElementNotFoundError{Selector: target}
	}
	return h.listenerCount(h.wrap(n).(*goja.Object), eventType), nil
}
