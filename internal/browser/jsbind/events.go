// internal/browser/jsbind/events.go
package jsbind

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Event phases, as exposed on Event.prototype.
const (
	phaseNone      = 0
	phaseCapturing = 1
	phaseAtTarget  = 2
	phaseBubbling  = 3
)

type listener struct {
	id      int
	fn      goja.Callable
	value   goja.Value
	capture bool
	once    bool
}

// eventTarget holds the listeners registered on one JS object.
type eventTarget struct {
	listeners map[string][]*listener
	nextID    int
}

func (et *eventTarget) add(eventType string, l *listener) bool {
	for _, existing := range et.listeners[eventType] {
		if existing.value.SameAs(l.value) && existing.capture == l.capture {
			return false
		}
	}
	et.nextID++
	l.id = et.nextID
	et.listeners[eventType] = append(et.listeners[eventType], l)
	return true
}

func (et *eventTarget) remove(eventType string, match func(*listener) bool) {
	list := et.listeners[eventType]
	for i, l := range list {
		if match(l) {
			// Copy so an in-progress dispatch keeps iterating its own snapshot.
			next := make([]*listener, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(et.listeners, eventType)
			} else {
				et.listeners[eventType] = next
			}
			return
		}
	}
}

func (et *eventTarget) has(eventType string, id int) bool {
	for _, l := range et.listeners[eventType] {
		if l.id == id {
			return true
		}
	}
	return false
}

func (h *Host) targetFor(obj *goja.Object) *eventTarget {
	et, ok := h.targets[obj]
	if !ok {
		et = &eventTarget{listeners: make(map[string][]*listener)}
		h.targets[obj] = et
	}
	return et
}

// listenerCount reports how many listeners for eventType are registered on obj.
func (h *Host) listenerCount(obj *goja.Object, eventType string) int {
	if et, ok := h.targets[obj]; ok {
		return len(et.listeners[eventType])
	}
	return 0
}

// defineEventTarget installs addEventListener, removeEventListener and dispatchEvent on
// obj. The methods resolve their target through `this`, so obj may be a prototype.
func (h *Host) defineEventTarget(obj *goja.Object) {
	h.method(obj, "addEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			h.throwTypeError("Failed to execute 'addEventListener' on 'EventTarget': 2 arguments required, but only %d present.", len(call.Arguments))
		}
		fn, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			// null callbacks are ignored; objects with handleEvent are not supported.
			return goja.Undefined()
		}
		capture, once := h.listenerOptions(call.Argument(2))
		this := h.receiver(call.This)
		h.targetFor(this).add(call.Arguments[0].String(), &listener{
			fn:      fn,
			value:   call.Arguments[1],
			capture: capture,
			once:    once,
		})
		return goja.Undefined()
	})

	h.method(obj, "removeEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			h.throwTypeError("Failed to execute 'removeEventListener' on 'EventTarget': 2 arguments required, but only %d present.", len(call.Arguments))
		}
		capture, _ := h.listenerOptions(call.Argument(2))
		value := call.Arguments[1]
		this := h.receiver(call.This)
		h.targetFor(this).remove(call.Arguments[0].String(), func(l *listener) bool {
			return l.value.SameAs(value) && l.capture == capture
		})
		return goja.Undefined()
	})

	h.method(obj, "dispatchEvent", func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0)
		if goja.IsUndefined(event) || goja.IsNull(event) {
			h.throwTypeError("Failed to execute 'dispatchEvent' on 'EventTarget': parameter 1 is not of type 'Event'.")
		}
		return h.vm.ToValue(h.dispatch(h.receiver(call.This), event.ToObject(h.vm)))
	})
}

func (h *Host) listenerOptions(v goja.Value) (capture, once bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return false, false
	}
	if _, isObj := v.(*goja.Object); !isObj {
		return v.ToBoolean(), false
	}
	o := v.ToObject(h.vm)
	if c := o.Get("capture"); c != nil {
		capture = c.ToBoolean()
	}
	if c := o.Get("once"); c != nil {
		once = c.ToBoolean()
	}
	return capture, once
}

// propagationPath lists target and its ancestors up to the window.
func (h *Host) propagationPath(target *goja.Object) []*goja.Object {
	path := []*goja.Object{target}
	switch {
	case target == h.window:
		return path
	case target == h.document.Object:
		return append(path, h.window)
	}
	el, ok := h.byObject[target]
	if !ok {
		return path
	}
	for n := el.Node.Parent; n != nil; n = n.Parent {
		if n == h.document.root {
			return append(path, h.document.Object, h.window)
		}
		path = append(path, h.wrap(n).(*goja.Object))
	}
	return path
}

// dispatch runs event through target's propagation path. It returns false when a
// listener cancelled the event.
func (h *Host) dispatch(target *goja.Object, event *goja.Object) bool {
	path := h.propagationPath(target)
	eventType := ""
	if v := event.Get("type"); v != nil {
		eventType = v.String()
	}
	bubbles := boolField(event, "bubbles")

	h.setEventField(event, "target", target)

	stopped := func() bool { return boolField(event, "__stop") }

	for i := len(path) - 1; i > 0 && !stopped(); i-- {
		h.invokeListeners(path[i], event, eventType, phaseCapturing)
	}
	if !stopped() {
		h.invokeListeners(path[0], event, eventType, phaseAtTarget)
	}
	if bubbles {
		for i := 1; i < len(path) && !stopped(); i++ {
			h.invokeListeners(path[i], event, eventType, phaseBubbling)
		}
	}

	h.setEventField(event, "currentTarget", goja.Null())
	h.setEventField(event, "eventPhase", phaseNone)
	return !boolField(event, "defaultPrevented")
}

func (h *Host) invokeListeners(current *goja.Object, event *goja.Object, eventType string, phase int) {
	et, ok := h.targets[current]
	if !ok {
		return
	}
	snapshot := et.listeners[eventType]
	if len(snapshot) == 0 {
		return
	}
	h.setEventField(event, "currentTarget", current)
	h.setEventField(event, "eventPhase", phase)

	for _, l := range snapshot {
		if phase == phaseCapturing && !l.capture {
			continue
		}
		if phase == phaseBubbling && l.capture {
			continue
		}
		if !et.has(eventType, l.id) {
			continue
		}
		if l.once {
			id := l.id
			et.remove(eventType, func(x *listener) bool { return x.id == id })
		}
		if _, err := l.fn(current, event); err != nil {
			if ie, ok := err.(*goja.InterruptedError); ok {
				panic(ie)
			}
			h.logger.Warn("Uncaught exception in event listener.", zap.String("event", eventType), zap.Error(err))
		}
		if boolField(event, "__stopImmediate") {
			return
		}
	}
}

func boolField(obj *goja.Object, name string) bool {
	v := obj.Get(name)
	return v != nil && v.ToBoolean()
}

func (h *Host) setEventField(event *goja.Object, name string, v any) {
	if err := event.Set(name, v); err != nil {
		h.logger.Debug("Failed to set event field", zap.String("field", name), zap.Error(err))
	}
}

// newEvent constructs an instance of the named prelude event class. Events created by
// the host on behalf of the user agent are trusted.
func (h *Host) newEvent(class, eventType string, init map[string]any, trusted bool) *goja.Object {
	ctor := h.vm.Get(class)
	if ctor == nil {
		ctor = h.vm.Get("Event")
	}
	if init == nil {
		init = map[string]any{}
	}
	obj, err := h.vm.New(ctor, h.vm.ToValue(eventType), h.vm.ToValue(init))
	if err != nil {
		h.logger.Error("Failed to construct event", zap.String("class", class), zap.String("type", eventType), zap.Error(err))
		obj = h.vm.NewObject()
		_ = obj.Set("type", eventType)
	}
	if trusted {
		h.setEventField(obj, "isTrusted", true)
	}
	return obj
}

// fire constructs and dispatches an event in one step.
func (h *Host) fire(target *goja.Object, class, eventType string, init map[string]any, trusted bool) bool {
	return h.dispatch(target, h.newEvent(class, eventType, init, trusted))
}
