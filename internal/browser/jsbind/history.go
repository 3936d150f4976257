// internal/browser/jsbind/history.go
package jsbind

import (
	"encoding/json"
	"net/url"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
)

type historyEntry struct {
	url      *url.URL
	title    string
	state    string
	hasState bool
	// cached keeps history.state identical across reads of the same entry.
	cached goja.Value
}

// History backs window.history. All entries belong to the one in-process document, so
// every traversal is a same-document traversal.
type History struct {
	host   *Host
	Object *goja.Object

	entries           []*historyEntry
	index             int
	scrollRestoration schemas.ScrollRestoration
}

func newHistory(h *Host, initial *url.URL) *History {
	hist := &History{
		host:              h,
		Object:            h.vm.NewObject(),
		entries:           []*historyEntry{{url: initial}},
		scrollRestoration: schemas.ScrollRestorationAuto,
	}
	hist.define()
	return hist
}

func (hist *History) current() *historyEntry { return hist.entries[hist.index] }

// reset discards session history, leaving one entry for u.
func (hist *History) reset(u *url.URL) {
	hist.entries = []*historyEntry{{url: u}}
	hist.index = 0
}

func (hist *History) push(e *historyEntry) {
	hist.entries = append(hist.entries[:hist.index+1], e)
	hist.index = len(hist.entries) - 1
}

func (hist *History) define() {
	h := hist.host
	obj := hist.Object

	h.accessor(obj, "length", func(*goja.Object) goja.Value {
		return h.vm.ToValue(len(hist.entries))
	}, nil)
	h.accessor(obj, "scrollRestoration", func(*goja.Object) goja.Value {
		return h.vm.ToValue(string(hist.scrollRestoration))
	}, func(_ *goja.Object, v goja.Value) {
		switch mode := schemas.ScrollRestoration(v.String()); mode {
		case schemas.ScrollRestorationAuto, schemas.ScrollRestorationManual:
			hist.scrollRestoration = mode
		}
	})
	h.accessor(obj, "state", func(*goja.Object) goja.Value {
		return hist.stateValue(hist.current())
	}, nil)

	h.method(obj, "back", func(goja.FunctionCall) goja.Value {
		hist.traverse(-1)
		return goja.Undefined()
	})
	h.method(obj, "forward", func(goja.FunctionCall) goja.Value {
		hist.traverse(1)
		return goja.Undefined()
	})
	h.method(obj, "go", func(call goja.FunctionCall) goja.Value {
		hist.traverse(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	})
	h.method(obj, "pushState", func(call goja.FunctionCall) goja.Value {
		hist.update(call, false)
		return goja.Undefined()
	})
	h.method(obj, "replaceState", func(call goja.FunctionCall) goja.Value {
		hist.update(call, true)
		return goja.Undefined()
	})
}

func (hist *History) stateValue(e *historyEntry) goja.Value {
	if !e.hasState {
		return goja.Null()
	}
	if e.cached != nil {
		return e.cached
	}
	v, err := hist.host.jsonParse(e.state)
	if err != nil {
		hist.host.logger.Warn("Stored history state failed to parse.", zap.Error(err))
		return goja.Null()
	}
	e.cached = v
	return v
}

// update implements pushState and replaceState.
func (hist *History) update(call goja.FunctionCall, replace bool) {
	h := hist.host
	method := "pushState"
	if replace {
		method = "replaceState"
	}
	if len(call.Arguments) < 2 {
		h.throwTypeError("Failed to execute '%s' on 'History': 2 arguments required, but only %d present.", method, len(call.Arguments))
	}

	data := call.Argument(0)
	serialized, hasState, err := h.jsonStringify(data)
	if err != nil {
		h.throwDOMException("DataCloneError", "Failed to execute '%s' on 'History': %v", method, err)
	}
	if goja.IsNull(data) {
		hasState = false
	}

	cur := hist.current()
	target := cur.url
	if raw := call.Argument(2); !goja.IsUndefined(raw) && !goja.IsNull(raw) {
		ref, err := url.Parse(raw.String())
		if err != nil {
			h.throwDOMException("SecurityError", "Failed to execute '%s' on 'History': '%s' is not a valid URL.", method, raw.String())
		}
		target = cur.url.ResolveReference(ref)
		if !sameOrigin(cur.url, target) {
			h.throwDOMException("SecurityError",
				"Failed to execute '%s' on 'History': A history state object with URL '%s' cannot be created in a document with origin '%s' and URL '%s'.",
				method, target.String(), originOf(cur.url), cur.url.String())
		}
	}

	e := &historyEntry{url: target, title: call.Argument(1).String(), state: serialized, hasState: hasState}
	if replace {
		hist.entries[hist.index] = e
	} else {
		hist.push(e)
	}
}

// traverse queues a traversal by delta entries. Out of range deltas are ignored and
// go(0) reloads, which the in-process window only logs.
func (hist *History) traverse(delta int) {
	h := hist.host
	h.sched.Schedule(func() {
		if delta == 0 {
			h.logger.Info("Reload requested; the in-process document is not reloaded.", zap.String("url", h.URL()))
			return
		}
		target := hist.index + delta
		if target < 0 || target >= len(hist.entries) {
			return
		}
		from := hist.current()
		hist.index = target
		to := hist.current()

		h.fire(h.window, "PopStateEvent", "popstate", map[string]any{"state": hist.stateValue(to)}, true)
		if fragmentOnly(from.url, to.url) {
			h.fire(h.window, "HashChangeEvent", "hashchange", map[string]any{
				"oldURL": from.url.String(),
				"newURL": to.url.String(),
			}, true)
		}
	})
}

// HistoryEntries returns a snapshot of session history.
func (h *Host) HistoryEntries() []schemas.HistoryEntry {
	out := make([]schemas.HistoryEntry, len(h.history.entries))
	for i, e := range h.history.entries {
		out[i] = schemas.HistoryEntry{URL: e.url.String(), Title: e.title}
		if e.hasState {
			out[i].State = json.RawMessage(e.state)
		}
	}
	return out
}

// fragmentOnly reports whether a and b differ in their fragment and nothing else.
func fragmentOnly(a, b *url.URL) bool {
	if a.Fragment == b.Fragment {
		return false
	}
	x, y := *a, *b
	x.Fragment, x.RawFragment = "", ""
	y.Fragment, y.RawFragment = "", ""
	return x.String() == y.String()
}

func sameOrigin(a, b *url.URL) bool {
	if a.Opaque != "" || b.Opaque != "" {
		return a.Scheme == b.Scheme && a.Opaque == b.Opaque
	}
	return a.Scheme == b.Scheme && a.Host == b.Host
}

// originOf serializes the origin of u. Non-network schemes have an opaque origin.
func originOf(u *url.URL) string {
	switch u.Scheme {
	case "http", "https", "ws", "wss", "ftp":
		return u.Scheme + "://" + u.Host
	}
	return "null"
}
