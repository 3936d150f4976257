package webapi

import (
	"context"
	"errors"
	"sync"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

const permissionsNS = "PermissionsAPI"

var permissionStatusEvents = map[string]schemas.EventKind{
	"change": schemas.KindEvent,
}

// Permissions wraps navigator.permissions.
type Permissions struct {
	scope *scope
}

type permissionRecord struct {
	Handle interop.HandleRef       `json:"handle"`
	Name   string                  `json:"name"`
	State  schemas.PermissionState `json:"state"`
}

// Query resolves the status of the named permission. Unknown names fail with the
// native TypeError.
func (p *Permissions) Query(ctx context.Context, name string) (*PermissionStatus, error) {
	rec, err := interop.Call[permissionRecord](ctx, p.scope.inv, interop.Identifier(permissionsNS, "query"), name)
	if err != nil {
		return nil, err
	}
	return &PermissionStatus{
		target: newTarget(p.scope, "permission:"+rec.Name, rec.Handle, permissionStatusEvents),
		inv:    p.scope.inv,
		ref:    rec.Handle,
		name:   rec.Name,
		state:  rec.State,
	}, nil
}

// PermissionStatus wraps a PermissionStatus object. State is the value last read from
// the page; Refresh re-reads it.
type PermissionStatus struct {
	*target
	inv interop.Invoker
	ref interop.HandleRef

	mu    sync.RWMutex
	name  string
	state schemas.PermissionState
}

func (s *PermissionStatus) Name() string { return s.name }

func (s *PermissionStatus) State() schemas.PermissionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Refresh reads the current state from the page and returns it.
func (s *PermissionStatus) Refresh(ctx context.Context) (schemas.PermissionState, error) {
	state, err := interop.Call[schemas.PermissionState](ctx, s.inv, interop.Identifier(permissionsNS, "getState"), s.ref)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state, nil
}

// OnChange subscribes to the change event. Call Refresh from fn to read the new state.
func (s *PermissionStatus) OnChange(ctx context.Context, fn func(schemas.EventArgs)) (*Subscription, error) {
	return on(ctx, s.target, "change", fn)
}

// Release removes the status listeners and drops its handle on the script side.
func (s *PermissionStatus) Release(ctx context.Context) error {
	err := s.target.close(ctx)
	if _, callErr := s.inv.Invoke(ctx, "InteropAPI.release", s.ref); callErr != nil {
		err = errors.Join(err, callErr)
	}
	return err
}
