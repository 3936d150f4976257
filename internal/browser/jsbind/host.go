// internal/browser/jsbind/host.go
//
// Package jsbind implements an in-process browser window on top of a goja runtime. The
// DOM is a golang.org/x/net/html tree; the window, document, history, location,
// navigator, permissions and storage objects are Go backed. Everything in this package
// must run on the goroutine that owns the runtime (the event loop).
package jsbind

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/webbind/api/schemas"
)

//go:embed prelude.js
var preludeSource string

// Scheduler queues a task to run later on the runtime's goroutine. It backs the parts of
// the window that are asynchronous in a real browser (history traversal, scroll events).
type Scheduler interface {
	Schedule(task func())
}

// DialogHandler answers window.alert, confirm and prompt.
type DialogHandler interface {
	Alert(message string)
	Confirm(message string) bool
	// Prompt returns the entered text, or false when the dialog was dismissed.
	Prompt(message, defaultValue string) (string, bool)
}

// Options configures a Host.
type Options struct {
	// URL is the address of the initial document. Defaults to about:blank.
	URL string
	// Referrer is reported by document.referrer.
	Referrer string
	// Persona drives navigator fields and the initial viewport.
	Persona schemas.Persona
	// Permissions seeds PermissionStatus.state. Unlisted names are "prompt".
	Permissions map[string]schemas.PermissionState
	// Dialogs answers modal dialogs. Defaults to a handler that logs, confirms and
	// accepts the default prompt value.
	Dialogs DialogHandler
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Host is the in-process window.
type Host struct {
	vm     *goja.Runtime
	sched  Scheduler
	logger *zap.Logger

	now     func() time.Time
	origin  time.Time
	persona schemas.Persona
	dialogs DialogHandler

	window   *goja.Object
	document *Document
	history  *History
	location *Location
	perms    *permissions
	local    *storageArea
	session  *storageArea

	targets   map[*goja.Object]*eventTarget
	elements  map[*html.Node]*Element
	byObject  map[*goja.Object]*Element
	nodeProto *goja.Object
	elemProto *goja.Object

	width, height    int64
	scrollX, scrollY float64
	name             string
	focused          bool
	online           bool
	visibility       schemas.VisibilityState
}

// NewHost installs the window into vm. vm must be fresh: NewHost defines window,
// document and friends as globals.
func NewHost(vm *goja.Runtime, sched Scheduler, logger *zap.Logger, opts Options) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sched == nil {
		return nil, fmt.Errorf("jsbind: a scheduler is required")
	}
	persona := opts.Persona
	if persona.UserAgent == "" {
		persona = schemas.DefaultPersona
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	h := &Host{
		vm:         vm,
		sched:      sched,
		logger:     logger.Named("jsbind"),
		now:        now,
		origin:     now(),
		persona:    persona,
		targets:    make(map[*goja.Object]*eventTarget),
		elements:   make(map[*html.Node]*Element),
		byObject:   make(map[*goja.Object]*Element),
		width:      persona.Width,
		height:     persona.Height,
		focused:    true,
		online:     true,
		visibility: schemas.VisibilityVisible,
	}
	h.dialogs = opts.Dialogs
	if h.dialogs == nil {
		h.dialogs = &loggingDialogs{logger: h.logger}
	}

	initialURL := opts.URL
	if initialURL == "" {
		initialURL = "about:blank"
	}
	u, err := parseURL(initialURL)
	if err != nil {
		return nil, fmt.Errorf("jsbind: invalid initial URL %q: %w", initialURL, err)
	}

	if err := h.installHostObject(); err != nil {
		return nil, err
	}
	if _, err := vm.RunScript("jsbind/prelude.js", preludeSource); err != nil {
		return nil, fmt.Errorf("jsbind: evaluating prelude: %w", err)
	}

	h.window = vm.GlobalObject()
	h.nodeProto, h.elemProto = h.newNodePrototypes()
	h.history = newHistory(h, u)
	h.location = newLocation(h)
	h.document = newDocument(h, opts.Referrer)
	h.perms = newPermissions(h, opts.Permissions)
	h.local = newStorageArea(h, "local")
	h.session = newStorageArea(h, "session")

	if err := h.installWindow(); err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(""))
	if err != nil {
		return nil, fmt.Errorf("jsbind: building blank document: %w", err)
	}
	h.document.replaceRoot(doc, hasDoctype(doc))
	h.document.readyState = schemas.ReadyStateComplete
	return h, nil
}

// installHostObject exposes the helpers the prelude relies on.
func (h *Host) installHostObject() error {
	obj := h.vm.NewObject()
	if err := obj.Set("now", func() float64 { return h.timeStamp() }); err != nil {
		return err
	}
	if err := obj.Set("queryPermission", func(call goja.FunctionCall) goja.Value {
		return h.perms.query(call.Argument(0).String())
	}); err != nil {
		return err
	}
	return h.window0().DefineDataProperty("__webbindHost", obj, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
}

// window0 is usable before h.window is assigned.
func (h *Host) window0() *goja.Object { return h.vm.GlobalObject() }

// timeStamp reports milliseconds since the host was created, like performance.now().
func (h *Host) timeStamp() float64 {
	return float64(h.now().Sub(h.origin).Microseconds()) / 1000
}

// Runtime returns the goja runtime the host is installed in.
func (h *Host) Runtime() *goja.Runtime { return h.vm }

// Window returns the global object.
func (h *Host) Window() *goja.Object { return h.window }

// Document returns the document object.
func (h *Host) Document() *goja.Object { return h.document.Object }

// URL returns the address of the current session history entry.
func (h *Host) URL() string { return h.history.current().url.String() }

// throwDOMException aborts the running native function with a DOMException.
func (h *Host) throwDOMException(name, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ctor := h.vm.Get("DOMException")
	if ctor != nil {
		if obj, err := h.vm.New(ctor, h.vm.ToValue(msg), h.vm.ToValue(name)); err == nil {
			panic(obj)
		}
	}
	panic(h.vm.NewGoError(fmt.Errorf("%s: %s", name, msg)))
}

// throwTypeError aborts the running native function with a TypeError.
func (h *Host) throwTypeError(format string, args ...any) {
	panic(h.vm.NewTypeError("%s", fmt.Sprintf(format, args...)))
}

// accessor defines a configurable, enumerable accessor on obj. set may be nil.
func (h *Host) accessor(obj *goja.Object, name string, get func(this *goja.Object) goja.Value, set func(this *goja.Object, v goja.Value)) {
	getter := h.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return get(h.receiver(call.This))
	})
	setter := goja.Undefined()
	if set != nil {
		setter = h.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(h.receiver(call.This), call.Argument(0))
			return goja.Undefined()
		})
	}
	if err := obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		h.logger.Error("Failed to define accessor", zap.String("property", name), zap.Error(err))
	}
}

// receiver converts this to an object. Unqualified references to window accessors
// arrive with an undefined receiver.
func (h *Host) receiver(this goja.Value) *goja.Object {
	if this == nil || goja.IsUndefined(this) || goja.IsNull(this) {
		return h.vm.GlobalObject()
	}
	return this.ToObject(h.vm)
}

// method defines a function valued property on obj.
func (h *Host) method(obj *goja.Object, name string, fn func(call goja.FunctionCall) goja.Value) {
	if err := obj.Set(name, fn); err != nil {
		h.logger.Error("Failed to define method", zap.String("method", name), zap.Error(err))
	}
}

// jsonStringify runs the runtime's JSON.stringify on v. It is the structured clone used
// for history state.
func (h *Host) jsonStringify(v goja.Value) (string, bool, error) {
	stringify, ok := goja.AssertFunction(h.vm.Get("JSON").ToObject(h.vm).Get("stringify"))
	if !ok {
		return "", false, fmt.Errorf("JSON.stringify is unavailable")
	}
	out, err := stringify(goja.Undefined(), v)
	if err != nil {
		return "", false, err
	}
	if goja.IsUndefined(out) {
		return "", false, nil
	}
	return out.String(), true, nil
}

func (h *Host) jsonParse(s string) (goja.Value, error) {
	parse, ok := goja.AssertFunction(h.vm.Get("JSON").ToObject(h.vm).Get("parse"))
	if !ok {
		return nil, fmt.Errorf("JSON.parse is unavailable")
	}
	return parse(goja.Undefined(), h.vm.ToValue(s))
}

// loggingDialogs is the default DialogHandler.
type loggingDialogs struct {
	logger *zap.Logger
}

func (d *loggingDialogs) Alert(message string) {
	d.logger.Info("[JS Alert]", zap.String("message", message))
}

func (d *loggingDialogs) Confirm(message string) bool {
	d.logger.Info("[JS Confirm]", zap.String("message", message))
	return true
}

func (d *loggingDialogs) Prompt(message, defaultValue string) (string, bool) {
	d.logger.Info("[JS Prompt]", zap.String("message", message), zap.String("default", defaultValue))
	return defaultValue, true
}
