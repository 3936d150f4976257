// internal/browser/jsbind/navigator.go
package jsbind

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
)

// newNavigator builds window.navigator from the persona.
func (h *Host) newNavigator() *goja.Object {
	nav := h.vm.NewObject()
	p := h.persona
	get := func(name string, fn func() any) {
		h.accessor(nav, name, func(*goja.Object) goja.Value { return h.vm.ToValue(fn()) }, nil)
	}
	get("userAgent", func() any { return p.UserAgent })
	get("appVersion", func() any { return strings.TrimPrefix(p.UserAgent, "Mozilla/") })
	get("platform", func() any { return p.Platform })
	get("language", func() any {
		if len(p.Languages) == 0 {
			return "en-US"
		}
		return p.Languages[0]
	})
	get("languages", func() any {
		langs := make([]any, len(p.Languages))
		for i, l := range p.Languages {
			langs[i] = l
		}
		return h.vm.NewArray(langs...)
	})
	get("onLine", func() any { return h.online })
	get("cookieEnabled", func() any { return true })
	get("hardwareConcurrency", func() any { return p.HardwareConcurrency })
	get("webdriver", func() any { return false })
	get("permissions", func() any { return h.perms.Object })
	return nav
}

// permissions backs navigator.permissions. Each name has one PermissionStatus object,
// so a change event reaches every script that queried it.
type permissions struct {
	host     *Host
	Object   *goja.Object
	states   map[string]schemas.PermissionState
	statuses map[string]*goja.Object
}

func newPermissions(h *Host, seed map[string]schemas.PermissionState) *permissions {
	p := &permissions{
		host:     h,
		Object:   h.vm.NewObject(),
		states:   make(map[string]schemas.PermissionState),
		statuses: make(map[string]*goja.Object),
	}
	for name, state := range seed {
		if state.Valid() {
			p.states[name] = state
		}
	}
	h.method(p.Object, "query", func(call goja.FunctionCall) goja.Value {
		prelude := h.vm.Get("__webbindPrelude").ToObject(h.vm)
		query, ok := goja.AssertFunction(prelude.Get("queryPermission"))
		if !ok {
			h.throwTypeError("permissions are unavailable")
		}
		v, err := query(goja.Undefined(), h.vm.Get("__webbindHost"), call.Argument(0))
		if err != nil {
			panic(err)
		}
		return v
	})
	return p
}

func (p *permissions) state(name string) schemas.PermissionState {
	if s, ok := p.states[name]; ok {
		return s
	}
	return schemas.PermissionPrompt
}

// query returns the PermissionStatus for name. Unknown names throw a TypeError, which
// the prelude turns into a rejection.
func (p *permissions) query(name string) goja.Value {
	h := p.host
	if !slices.Contains(schemas.PermissionNames, name) {
		h.throwTypeError("Failed to execute 'query' on 'Permissions': The provided value '%s' is not a valid enum value of type PermissionName.", name)
	}
	if status, ok := p.statuses[name]; ok {
		return status
	}
	status := h.vm.NewObject()
	h.defineEventTarget(status)
	if err := status.DefineDataProperty("name", h.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		h.logger.Error("Failed to define PermissionStatus.name", zap.Error(err))
	}
	h.accessor(status, "state", func(*goja.Object) goja.Value {
		return h.vm.ToValue(string(p.state(name)))
	}, nil)
	p.statuses[name] = status
	return status
}

// SetPermission changes the state reported for name and fires change on its
// PermissionStatus if one was handed out.
func (h *Host) SetPermission(name string, state schemas.PermissionState) error {
	if !slices.Contains(schemas.PermissionNames, name) {
		return fmt.Errorf("jsbind: unknown permission %q", name)
	}
	if !state.Valid() {
		return fmt.Errorf("jsbind: invalid permission state %q", state)
	}
	prev := h.perms.state(name)
	h.perms.states[name] = state
	if status, ok := h.perms.statuses[name]; ok && prev != state {
		h.fire(status, "Event", "change", nil, true)
	}
	return nil
}

// storageArea backs localStorage and sessionStorage. Keys keep insertion order so
// key(n) is stable.
type storageArea struct {
	host   *Host
	kind   string
	Object *goja.Object
	keys   []string
	values map[string]string
}

func newStorageArea(h *Host, kind string) *storageArea {
	s := &storageArea{host: h, kind: kind, Object: h.vm.NewObject(), values: make(map[string]string)}

	h.accessor(s.Object, "length", func(*goja.Object) goja.Value {
		return h.vm.ToValue(len(s.keys))
	}, nil)
	h.method(s.Object, "key", func(call goja.FunctionCall) goja.Value {
		i := call.Argument(0).ToInteger()
		if i < 0 || i >= int64(len(s.keys)) {
			return goja.Null()
		}
		return h.vm.ToValue(s.keys[i])
	})
	h.method(s.Object, "getItem", func(call goja.FunctionCall) goja.Value {
		v, ok := s.values[call.Argument(0).String()]
		if !ok {
			return goja.Null()
		}
		return h.vm.ToValue(v)
	})
	h.method(s.Object, "setItem", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			h.throwTypeError("Failed to execute 'setItem' on 'Storage': 2 arguments required, but only %d present.", len(call.Arguments))
		}
		s.set(call.Arguments[0].String(), call.Arguments[1].String())
		return goja.Undefined()
	})
	h.method(s.Object, "removeItem", func(call goja.FunctionCall) goja.Value {
		s.remove(call.Argument(0).String())
		return goja.Undefined()
	})
	h.method(s.Object, "clear", func(goja.FunctionCall) goja.Value {
		s.keys = nil
		s.values = make(map[string]string)
		return goja.Undefined()
	})
	return s
}

func (s *storageArea) set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *storageArea) remove(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
}
