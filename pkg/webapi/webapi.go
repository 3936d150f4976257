// Package webapi mirrors browser interfaces as Go types. Every property and method is a
// single bridge call; native events are exposed as subscriptions whose native listener
// exists only while at least one Go subscriber does.
//
// Nullable native values come back as a nil *Element or as a (value, ok) pair.
// Failures reported by the bridge are returned unchanged.
package webapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/events"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

// Globals holds the wrappers for the globals of one page.
type Globals struct {
	Document       *Document
	Window         *Window
	History        *History
	Location       *Location
	Navigator      *Navigator
	LocalStorage   *Storage
	SessionStorage *Storage
	Permissions    *Permissions

	scope   *scope
	unwatch func()
}

// Bind creates the global wrappers over inv. No bridge call is made until a wrapper is
// used. If inv reports document loads, the wrappers rebind after each one.
func Bind(inv interop.Invoker, logger *zap.Logger) *Globals {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("webapi")
	s := &scope{inv: inv, logger: log, live: make(map[*target]struct{})}

	g := &Globals{
		Document:       newDocument(s),
		Window:         newWindow(s),
		History:        &History{inv: inv},
		Location:       &Location{inv: inv},
		Navigator:      &Navigator{inv: inv},
		LocalStorage:   &Storage{inv: inv, area: StorageLocal},
		SessionStorage: &Storage{inv: inv, area: StorageSession},
		Permissions:    &Permissions{scope: s},
		scope:          s,
	}
	if obs, ok := inv.(interop.DocumentObserver); ok {
		g.unwatch = obs.OnDocument(g.Rebind)
	}
	return g
}

// Rebind carries the subscriptions over to a newly loaded document. Window and document
// subscribers keep receiving events. Element and permission status wrappers from the
// old document are stale: their subscriptions end and calls on them fail with an error
// IsHandleReleased recognizes. Bridges that report document loads trigger this
// themselves; call it after a navigation the bridge cannot see, such as a link click.
func (g *Globals) Rebind(ctx context.Context) error {
	return g.scope.rebind(ctx)
}

// Navigate loads url through the bridge behind g and rebinds the wrappers to the new
// document.
func (g *Globals) Navigate(ctx context.Context, url string) error {
	nav, ok := g.scope.inv.(interface {
		Navigate(ctx context.Context, url string) error
	})
	if !ok {
		return errors.New("webapi: the bound invoker cannot navigate")
	}
	if err := nav.Navigate(ctx, url); err != nil {
		return err
	}
	if _, observed := g.scope.inv.(interop.DocumentObserver); observed {
		return nil
	}
	return g.Rebind(ctx)
}

// Close removes every native listener installed through wrappers created by this
// Globals, including elements and permission statuses.
func (g *Globals) Close(ctx context.Context) error {
	if g.unwatch != nil {
		g.unwatch()
	}
	return g.scope.closeAll(ctx)
}

// scope tracks the targets that currently hold subscriptions so Close can tear them
// down without keeping every wrapper alive.
type scope struct {
	inv    interop.Invoker
	logger *zap.Logger

	mu   sync.Mutex
	live map[*target]struct{}
}

func (s *scope) track(t *target) {
	s.mu.Lock()
	s.live[t] = struct{}{}
	s.mu.Unlock()
}

func (s *scope) forget(t *target) {
	s.mu.Lock()
	delete(s.live, t)
	s.mu.Unlock()
}

func (s *scope) closeAll(ctx context.Context) error {
	s.mu.Lock()
	targets := make([]*target, 0, len(s.live))
	for t := range s.live {
		targets = append(targets, t)
	}
	s.live = make(map[*target]struct{})
	s.mu.Unlock()

	var errs []error
	for _, t := range targets {
		if err := t.reg.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *scope) rebind(ctx context.Context) error {
	s.mu.Lock()
	targets := make([]*target, 0, len(s.live))
	for t := range s.live {
		targets = append(targets, t)
	}
	s.mu.Unlock()

	var errs []error
	for _, t := range targets {
		if err := t.reg.Rebind(ctx); err != nil {
			errs = append(errs, fmt.Errorf("rebinding %s: %w", t.name, err))
		}
	}
	if len(targets) > 0 {
		s.logger.Debug("Rebound wrappers to a new document.", zap.Int("targets", len(targets)))
	}
	return errors.Join(errs...)
}

// UnknownEventError is returned when subscribing to a name the wrapper does not expose.
type UnknownEventError struct {
	Target string
	Event  string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("webapi: %s has no %q event", e.Target, e.Event)
}

// target is the event side of a wrapper: one registry (and so at most one callback
// registration) per wrapper instance.
type target struct {
	name  string
	kinds map[string]schemas.EventKind
	reg   *events.Registry
	scope *scope
}

func newTarget(s *scope, name string, native any, kinds map[string]schemas.EventKind) *target {
	return &target{
		name:  name,
		kinds: kinds,
		reg:   events.NewRegistry(s.inv, native, s.logger.With(zap.String("target", name))),
		scope: s,
	}
}

// Subscribe adds fn as a subscriber of the named event. The payload passed to fn is the
// JSON record described by the event's kind.
func (t *target) Subscribe(ctx context.Context, eventName string, fn events.Handler) (*Subscription, error) {
	kind, ok := t.kinds[eventName]
	if !ok {
		return nil, &UnknownEventError{Target: t.name, Event: eventName}
	}
	id, err := t.reg.Subscribe(ctx, eventName, kind, fn)
	if err != nil {
		return nil, err
	}
	t.scope.track(t)
	return &Subscription{reg: t.reg, event: eventName, id: id}, nil
}

// EventNames lists the events that can be subscribed to, sorted.
func (t *target) EventNames() []string {
	names := make([]string, 0, len(t.kinds))
	for name := range t.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EventKind returns the payload kind of eventName.
func (t *target) EventKind(eventName string) (schemas.EventKind, bool) {
	kind, ok := t.kinds[eventName]
	return kind, ok
}

// SubscriberCount returns the number of Go subscribers of eventName.
func (t *target) SubscriberCount(eventName string) int {
	return t.reg.SubscriberCount(eventName)
}

func (t *target) close(ctx context.Context) error {
	t.scope.forget(t)
	return t.reg.Close(ctx)
}

func on[T any](ctx context.Context, t *target, eventName string, fn func(T)) (*Subscription, error) {
	if fn == nil {
		return nil, errors.New("webapi: nil event handler")
	}
	return t.Subscribe(ctx, eventName, events.On(fn))
}

// Subscription is one Go subscriber of a native event.
type Subscription struct {
	reg   *events.Registry
	event string
	id    events.ListenerID
}

// Event returns the name of the subscribed event.
func (s *Subscription) Event() string { return s.event }

// Unsubscribe removes the subscriber. The native listener goes away with the last
// subscriber. Calling it again is a no-op.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.reg.Unsubscribe(ctx, s.event, s.id)
}
