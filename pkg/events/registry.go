// Package events keeps the Go side of native event subscriptions. A Registry belongs to
// one wrapper instance and owns at most one native listener per event name, installed
// for the first subscriber and removed after the last one leaves.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

// Well-known targets understood by the surface. Any other target is an interop.HandleRef.
const (
	TargetWindow   = "window"
	TargetDocument = "document"
)

// MethodOnEvent is the callback method the surface uses to deliver native events.
const MethodOnEvent = "OnEvent"

const (
	addListenerID    = "EventsAPI.addEventListener"
	removeListenerID = "EventsAPI.removeEventListener"
)

// ListenerID identifies one subscription. Go funcs are not comparable, so removal goes
// through the ID returned by Subscribe.
type ListenerID uint64

// Handler receives one native event occurrence. A returned error is logged.
type Handler func(eventName string, payload json.RawMessage) error

// On adapts a typed callback into a Handler that decodes the payload into T first.
func On[T any](fn func(T)) Handler {
	return func(eventName string, payload json.RawMessage) error {
		var v T
		if err := interop.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("decoding %s payload: %w", eventName, err)
		}
		fn(v)
		return nil
	}
}

type subscription struct {
	id ListenerID
	fn Handler
}

type entry struct {
	kind schemas.EventKind
	subs []subscription
}

// Registry reference counts the subscriptions of one native event target.
type Registry struct {
	inv    interop.Invoker
	target any
	logger *zap.Logger

	// opMu serializes operations that talk to the bridge.
	opMu   sync.Mutex
	ref    interop.CallbackRef
	hasRef bool
	closed bool

	mu      sync.RWMutex
	entries map[string]*entry
	nextID  ListenerID
}

// NewRegistry creates a registry for target: TargetWindow, TargetDocument or an
// interop.HandleRef.
func NewRegistry(inv interop.Invoker, target any, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		inv:     inv,
		target:  target,
		logger:  logger.Named("events"),
		entries: make(map[string]*entry),
	}
}

// CallbackRef returns the callback registration of this registry, if one was created.
func (r *Registry) CallbackRef() (interop.CallbackRef, bool) {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return r.ref, r.hasRef
}

// ensureRef registers the registry in the bridge's callback table on first use.
func (r *Registry) ensureRef() (interop.CallbackRef, error) {
	if r.hasRef {
		return r.ref, nil
	}
	table := r.inv.Callbacks()
	if table == nil {
		return interop.CallbackRef{}, errors.New("bridge does not support callbacks")
	}
	r.ref = table.Register(r)
	r.hasRef = true
	r.logger.Debug("Registered callback target.", zap.Stringer("ref", r.ref), zap.Any("target", r.target))
	return r.ref, nil
}

// Subscribe adds fn for eventName. The first subscriber for a name installs the native
// listener; if that fails no subscription is recorded and the bridge error is returned.
func (r *Registry) Subscribe(ctx context.Context, eventName string, kind schemas.EventKind, fn Handler) (ListenerID, error) {
	if fn == nil {
		return 0, errors.New("events: nil handler")
	}
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.closed {
		return 0, interop.ErrClosed
	}

	r.mu.RLock()
	e, installed := r.entries[eventName]
	r.mu.RUnlock()

	if !installed {
		ref, err := r.ensureRef()
		if err != nil {
			return 0, err
		}
		if _, err := r.inv.Invoke(ctx, addListenerID, ref, r.target, eventName, kind); err != nil {
			return 0, err
		}
		e = &entry{kind: kind}
		r.logger.Debug("Installed native listener.", zap.String("event", eventName), zap.String("kind", string(kind)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	r.entries[eventName] = e
	return id, nil
}

// Unsubscribe removes the subscription id from eventName. Removing an unknown or already
// removed subscription is a no-op. Removing the last subscriber uninstalls the native
// listener.
func (r *Registry) Unsubscribe(ctx context.Context, eventName string, id ListenerID) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.closed {
		return nil
	}

	r.mu.Lock()
	e, ok := r.entries[eventName]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	idx := -1
	for i, s := range e.subs {
		if s.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return nil
	}
	// Copy so a dispatch holding the old slice is unaffected.
	subs := make([]subscription, 0, len(e.subs)-1)
	subs = append(subs, e.subs[:idx]...)
	subs = append(subs, e.subs[idx+1:]...)
	e.subs = subs
	last := len(subs) == 0
	if last {
		delete(r.entries, eventName)
	}
	r.mu.Unlock()

	if !last {
		return nil
	}
	if _, err := r.inv.Invoke(ctx, removeListenerID, r.ref, r.target, eventName); err != nil {
		return err
	}
	r.logger.Debug("Removed native listener.", zap.String("event", eventName))
	return nil
}

// SubscriberCount returns the number of Go subscribers for eventName.
func (r *Registry) SubscriberCount(eventName string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[eventName]; ok {
		return len(e.subs)
	}
	return 0
}

// Events returns the names that currently have a native listener installed.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Close removes every native listener and releases the callback registration. It is
// safe to call more than once.
func (r *Registry) Close(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	r.mu.Lock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	var errs []error
	for _, name := range names {
		if _, err := r.inv.Invoke(ctx, removeListenerID, r.ref, r.target, name); err != nil {
			errs = append(errs, fmt.Errorf("removing %s listener: %w", name, err))
		}
	}
	if r.hasRef {
		if table := r.inv.Callbacks(); table != nil {
			table.Release(r.ref)
		}
	}
	return errors.Join(errs...)
}

// Rebind brings the registry in line with a newly loaded document. Window and document
// listeners are installed again so their subscribers keep receiving events. An element
// target belonged to the old document, so its subscriptions are dropped and later calls
// for it fail on the script side.
func (r *Registry) Rebind(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.closed {
		return nil
	}

	if _, wellKnown := r.target.(string); !wellKnown {
		r.mu.Lock()
		dropped := len(r.entries)
		r.entries = make(map[string]*entry)
		r.mu.Unlock()
		if dropped > 0 {
			r.logger.Debug("Dropped listeners of a replaced document.", zap.Int("events", dropped))
		}
		return nil
	}

	r.mu.RLock()
	kinds := make(map[string]schemas.EventKind, len(r.entries))
	for name, e := range r.entries {
		kinds[name] = e.kind
	}
	r.mu.RUnlock()

	var errs []error
	for name, kind := range kinds {
		if _, err := r.inv.Invoke(ctx, addListenerID, r.ref, r.target, name, kind); err != nil {
			errs = append(errs, fmt.Errorf("reinstalling %s listener: %w", name, err))
			continue
		}
		r.logger.Debug("Reinstalled native listener.", zap.String("event", name))
	}
	return errors.Join(errs...)
}

// InvokeCallback implements interop.CallbackTarget. Each current subscriber of the event
// receives the occurrence once, in subscription order.
func (r *Registry) InvokeCallback(method string, args []json.RawMessage) {
	if method != MethodOnEvent {
		r.logger.Debug("Ignoring unknown callback method.", zap.String("method", method))
		return
	}
	if len(args) < 1 {
		r.logger.Warn("Event callback without an event name.")
		return
	}
	var eventName string
	if err := interop.Unmarshal(args[0], &eventName); err != nil {
		r.logger.Warn("Event callback with a malformed event name.", zap.Error(err))
		return
	}
	var payload json.RawMessage
	if len(args) > 1 {
		payload = args[1]
	}

	r.mu.RLock()
	var subs []subscription
	if e, ok := r.entries[eventName]; ok {
		subs = e.subs
	}
	r.mu.RUnlock()

	for _, s := range subs {
		r.dispatch(eventName, s, payload)
	}
}

func (r *Registry) dispatch(eventName string, s subscription, payload json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic in event handler.",
				zap.String("event", eventName),
				zap.Uint64("listener_id", uint64(s.id)),
				zap.Any("panic_reason", rec),
				zap.String("stack", string(debug.Stack())))
		}
	}()
	if err := s.fn(eventName, payload); err != nil {
		r.logger.Warn("Event handler failed.", zap.String("event", eventName), zap.Error(err))
	}
}
