// internal/browser/jsbind/location.go
package jsbind

import (
	"net/url"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Location backs window.location and document.location.
type Location struct {
	host   *Host
	Object *goja.Object
}

func newLocation(h *Host) *Location {
	l := &Location{host: h, Object: h.vm.NewObject()}
	l.define()
	return l
}

func (l *Location) url() *url.URL { return l.host.history.current().url }

func (l *Location) define() {
	h := l.host
	obj := l.Object
	get := func(name string, fn func(u *url.URL) string) {
		h.accessor(obj, name, func(*goja.Object) goja.Value { return h.vm.ToValue(fn(l.url())) }, nil)
	}

	h.accessor(obj, "href", func(*goja.Object) goja.Value {
		return h.vm.ToValue(l.url().String())
	}, func(_ *goja.Object, v goja.Value) {
		l.navigate(v.String(), false)
	})
	h.accessor(obj, "hash", func(*goja.Object) goja.Value {
		return h.vm.ToValue(hashOf(l.url()))
	}, func(_ *goja.Object, v goja.Value) {
		l.navigate("#"+strings.TrimPrefix(v.String(), "#"), false)
	})
	get("protocol", func(u *url.URL) string { return u.Scheme + ":" })
	get("host", func(u *url.URL) string { return u.Host })
	get("hostname", func(u *url.URL) string { return u.Hostname() })
	get("port", func(u *url.URL) string { return u.Port() })
	get("pathname", func(u *url.URL) string {
		if u.Opaque != "" {
			return u.Opaque
		}
		if p := u.EscapedPath(); p != "" {
			return p
		}
		return "/"
	})
	get("search", func(u *url.URL) string {
		if u.RawQuery == "" {
			return ""
		}
		return "?" + u.RawQuery
	})
	get("origin", originOf)

	h.method(obj, "assign", func(call goja.FunctionCall) goja.Value {
		l.navigate(call.Argument(0).String(), false)
		return goja.Undefined()
	})
	h.method(obj, "replace", func(call goja.FunctionCall) goja.Value {
		l.navigate(call.Argument(0).String(), true)
		return goja.Undefined()
	})
	h.method(obj, "reload", func(goja.FunctionCall) goja.Value {
		h.logger.Info("Reload requested; the in-process document is not reloaded.", zap.String("url", h.URL()))
		return goja.Undefined()
	})
	h.method(obj, "toString", func(goja.FunctionCall) goja.Value {
		return h.vm.ToValue(l.url().String())
	})
}

// navigate resolves raw against the current URL. Fragment navigations add a history
// entry and queue hashchange; anything else only moves the address, since the
// in-process window has no network to fetch a new document from.
func (l *Location) navigate(raw string, replace bool) {
	h := l.host
	ref, err := url.Parse(raw)
	if err != nil {
		h.throwDOMException("SyntaxError", "'%s' is not a valid URL.", raw)
	}
	from := l.url()
	to := from.ResolveReference(ref)
	if ref.Fragment == "" {
		// The reference's fragment always wins, including an empty one ("#" or "").
		to.Fragment, to.RawFragment = "", ""
	}

	if to.String() == from.String() && strings.Contains(raw, "#") {
		return
	}

	e := &historyEntry{url: to}
	if replace {
		h.history.entries[h.history.index] = e
	} else {
		h.history.push(e)
	}

	if fragmentOnly(from, to) {
		oldURL, newURL := from.String(), to.String()
		h.sched.Schedule(func() {
			h.fire(h.window, "HashChangeEvent", "hashchange", map[string]any{
				"oldURL": oldURL,
				"newURL": newURL,
			}, true)
		})
		return
	}
	h.logger.Info("Cross-document navigation recorded without loading.", zap.String("from", from.String()), zap.String("to", to.String()))
}

func hashOf(u *url.URL) string {
	if f := u.EscapedFragment(); f != "" {
		return "#" + f
	}
	return ""
}
