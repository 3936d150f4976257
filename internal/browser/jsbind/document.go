// internal/browser/jsbind/document.go
package jsbind

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/webbind/api/schemas"
)

// Document backs the global document object.
type Document struct {
	host   *Host
	Object *goja.Object

	root         *html.Node
	readyState   schemas.DocumentReadyState
	referrer     string
	cookies      map[string]string
	cookieOrder  []string
	designMode   bool
	active       *html.Node
	quirks       bool
	lastModified time.Time
}

func newDocument(h *Host, referrer string) *Document {
	d := &Document{
		host:         h,
		Object:       h.vm.NewObject(),
		readyState:   schemas.ReadyStateLoading,
		referrer:     referrer,
		cookies:      make(map[string]string),
		lastModified: h.now(),
	}
	h.defineEventTarget(d.Object)
	d.define()
	return d
}

// replaceRoot swaps in a freshly parsed tree. Wrappers for the old tree stay valid but
// are no longer connected.
func (d *Document) replaceRoot(root *html.Node, hasDoctype bool) {
	d.root = root
	d.quirks = !hasDoctype
	d.active = nil
	d.lastModified = d.host.now()
}

func hasDoctype(doc *html.Node) bool {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			return true
		}
	}
	return false
}

func (d *Document) documentElement() *html.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func (d *Document) child(a atom.Atom) *html.Node {
	de := d.documentElement()
	if de == nil {
		return nil
	}
	for c := de.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func (d *Document) titleElement() *html.Node {
	return htmlquery.FindOne(d.root, "//title")
}

func (d *Document) define() {
	h := d.host
	obj := d.Object
	get := func(name string, fn func() goja.Value) {
		h.accessor(obj, name, func(*goja.Object) goja.Value { return fn() }, nil)
	}

	h.accessor(obj, "title", func(*goja.Object) goja.Value {
		t := d.titleElement()
		if t == nil {
			return h.vm.ToValue("")
		}
		return h.vm.ToValue(strings.Join(strings.Fields(htmlquery.InnerText(t)), " "))
	}, func(_ *goja.Object, v goja.Value) {
		t := d.titleElement()
		if t == nil {
			head := d.child(atom.Head)
			if head == nil {
				return
			}
			t = &html.Node{Type: html.ElementNode, DataAtom: atom.Title, Data: "title"}
			head.AppendChild(t)
		}
		h.replaceChildrenWithText(t, v.String())
	})
	h.accessor(obj, "dir", func(*goja.Object) goja.Value {
		de := d.documentElement()
		if de == nil {
			return h.vm.ToValue("")
		}
		v, _ := getAttr(de, "dir")
		return h.vm.ToValue(normalizeDir(v))
	}, func(_ *goja.Object, v goja.Value) {
		if de := d.documentElement(); de != nil {
			setAttr(de, "dir", v.String())
		}
	})
	get("URL", func() goja.Value { return h.vm.ToValue(h.URL()) })
	get("documentURI", func() goja.Value { return h.vm.ToValue(h.URL()) })
	h.accessor(obj, "domain", func(*goja.Object) goja.Value {
		return h.vm.ToValue(h.history.current().url.Hostname())
	}, func(_ *goja.Object, v goja.Value) {
		h.throwDOMException("SecurityError", "Failed to set the 'domain' property on 'Document': Assignment is forbidden.")
	})
	get("referrer", func() goja.Value { return h.vm.ToValue(d.referrer) })
	h.accessor(obj, "cookie", func(*goja.Object) goja.Value {
		return h.vm.ToValue(d.cookieString())
	}, func(_ *goja.Object, v goja.Value) {
		d.setCookie(v.String())
	})
	get("readyState", func() goja.Value { return h.vm.ToValue(string(d.readyState)) })
	get("characterSet", func() goja.Value { return h.vm.ToValue("UTF-8") })
	get("charset", func() goja.Value { return h.vm.ToValue("UTF-8") })
	get("contentType", func() goja.Value { return h.vm.ToValue("text/html") })
	get("compatMode", func() goja.Value {
		if d.quirks {
			return h.vm.ToValue("BackCompat")
		}
		return h.vm.ToValue("CSS1Compat")
	})
	get("visibilityState", func() goja.Value { return h.vm.ToValue(string(h.visibility)) })
	get("hidden", func() goja.Value { return h.vm.ToValue(h.visibility == schemas.VisibilityHidden) })
	get("lastModified", func() goja.Value {
		return h.vm.ToValue(d.lastModified.Format("01/02/2006 15:04:05"))
	})
	h.accessor(obj, "designMode", func(*goja.Object) goja.Value {
		if d.designMode {
			return h.vm.ToValue("on")
		}
		return h.vm.ToValue("off")
	}, func(_ *goja.Object, v goja.Value) {
		switch strings.ToLower(v.String()) {
		case "on":
			d.designMode = true
		case "off":
			d.designMode = false
		}
	})
	get("documentElement", func() goja.Value { return h.wrap(d.documentElement()) })
	get("head", func() goja.Value { return h.wrap(d.child(atom.Head)) })
	get("body", func() goja.Value { return h.wrap(d.child(atom.Body)) })
	get("activeElement", func() goja.Value {
		if d.active != nil && h.isConnected(d.active) {
			return h.wrap(d.active)
		}
		return h.wrap(d.child(atom.Body))
	})
	get("fullscreenElement", func() goja.Value { return goja.Null() })
	get("pointerLockElement", func() goja.Value { return goja.Null() })
	get("defaultView", func() goja.Value { return h.window })
	get("location", func() goja.Value { return h.location.Object })
	get("nodeType", func() goja.Value { return h.vm.ToValue(9) })
	get("nodeName", func() goja.Value { return h.vm.ToValue("#document") })

	h.method(obj, "hasFocus", func(goja.FunctionCall) goja.Value {
		return h.vm.ToValue(h.focused && h.visibility == schemas.VisibilityVisible)
	})
	h.method(obj, "getElementById", func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).String()
		if id == "" {
			return goja.Null()
		}
		return h.wrap(htmlquery.FindOne(d.root, "//*[@id="+xpathLiteral(id)+"]"))
	})
	h.method(obj, "querySelector", func(call goja.FunctionCall) goja.Value {
		return h.querySelector(d.root, call.Argument(0).String(), false)
	})
	h.method(obj, "querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return h.querySelectorAll(d.root, call.Argument(0).String(), false)
	})
	h.method(obj, "getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return h.elementsByTagName(d.root, call.Argument(0).String(), false)
	})
	h.method(obj, "getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return h.elementsByClassName(d.root, call.Argument(0).String(), false)
	})
	h.method(obj, "createElement", func(call goja.FunctionCall) goja.Value {
		name := strings.ToLower(call.Argument(0).String())
		if !validTagName(name) {
			h.throwDOMException("InvalidCharacterError", "Failed to execute 'createElement' on 'Document': The tag name provided ('%s') is not a valid name.", name)
		}
		return h.wrap(&html.Node{Type: html.ElementNode, DataAtom: atom.Lookup([]byte(name)), Data: name})
	})
	h.method(obj, "createTextNode", func(call goja.FunctionCall) goja.Value {
		return h.wrap(&html.Node{Type: html.TextNode, Data: call.Argument(0).String()})
	})
	h.method(obj, "exitFullscreen", func(goja.FunctionCall) goja.Value {
		return h.rejected("TypeError", "Not in fullscreen mode")
	})
	h.method(obj, "exitPointerLock", func(goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})
}

func validTagName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r == '-' || r == '_' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

// rejected returns a promise already rejected with a DOMException.
func (h *Host) rejected(name, message string) goja.Value {
	prelude := h.vm.Get("__webbindPrelude").ToObject(h.vm)
	reject, ok := goja.AssertFunction(prelude.Get("rejected"))
	if !ok {
		return goja.Undefined()
	}
	exc, err := h.vm.New(h.vm.Get("DOMException"), h.vm.ToValue(message), h.vm.ToValue(name))
	if err != nil {
		return goja.Undefined()
	}
	p, err := reject(goja.Undefined(), exc)
	if err != nil {
		return goja.Undefined()
	}
	return p
}

// -- Cookies --

func (d *Document) cookieString() string {
	parts := make([]string, 0, len(d.cookieOrder))
	for _, name := range d.cookieOrder {
		if name == "" {
			parts = append(parts, d.cookies[name])
			continue
		}
		parts = append(parts, name+"="+d.cookies[name])
	}
	return strings.Join(parts, "; ")
}

// setCookie applies one Set-Cookie style string. Only name, value, expires and max-age
// are honoured; the other attributes are accepted and ignored.
func (d *Document) setCookie(raw string) {
	segments := strings.Split(raw, ";")
	pair := strings.TrimSpace(segments[0])
	name, value := "", pair
	if i := strings.IndexByte(pair, '='); i >= 0 {
		name, value = strings.TrimSpace(pair[:i]), strings.TrimSpace(pair[i+1:])
	}

	expired := false
	for _, attr := range segments[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(attr), "=")
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "max-age":
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n <= 0 {
				expired = true
			}
		case "expires":
			if t, err := time.Parse(time.RFC1123, strings.TrimSpace(v)); err == nil && !t.After(d.host.now()) {
				expired = true
			}
		}
	}

	_, exists := d.cookies[name]
	if expired {
		if exists {
			delete(d.cookies, name)
			for i, n := range d.cookieOrder {
				if n == name {
					d.cookieOrder = append(d.cookieOrder[:i], d.cookieOrder[i+1:]...)
					break
				}
			}
		}
		return
	}
	if !exists {
		d.cookieOrder = append(d.cookieOrder, name)
	}
	d.cookies[name] = value
}

// Cookies returns a copy of the cookie jar.
func (h *Host) Cookies() map[string]string {
	out := make(map[string]string, len(h.document.cookies))
	for k, v := range h.document.cookies {
		out[k] = v
	}
	return out
}

// -- Loading --

// LoadHTML replaces the document with markup served from rawURL. It resets session
// history to a single entry and runs the readiness sequence: DOMContentLoaded, load and
// pageshow.
func (h *Host) LoadHTML(rawURL, markup string) error {
	u, err := parseURL(rawURL)
	if err != nil {
		return &NavigationError{URL: rawURL, Message: "invalid document URL", Err: err}
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return &NavigationError{URL: rawURL, Message: "parsing document", Err: err}
	}

	h.history.reset(u)
	d := h.document
	d.replaceRoot(root, hasDoctype(root))
	d.readyState = schemas.ReadyStateLoading
	h.scrollX, h.scrollY = 0, 0

	d.readyState = schemas.ReadyStateInteractive
	h.fire(d.Object, "Event", "readystatechange", nil, true)
	h.fire(d.Object, "Event", "DOMContentLoaded", map[string]any{"bubbles": true}, true)

	d.readyState = schemas.ReadyStateComplete
	h.fire(d.Object, "Event", "readystatechange", nil, true)
	h.fire(h.window, "Event", "load", nil, true)
	h.fire(h.window, "PageTransitionEvent", "pageshow", map[string]any{"persisted": false}, true)

	h.logger.Debug("Document loaded.", zap.String("url", u.String()), zap.Int("bytes", len(markup)))
	return nil
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("URL must be absolute")
	}
	return u, nil
}
