// Package inproc runs the script-side surface inside an embedded goja runtime that
// hosts an in-process window. Calls block the caller until the runtime has settled the
// result; there is no browser process.
package inproc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/browser/fetch"
	"github.com/xkilldash9x/webbind/internal/browser/jsbind"
	"github.com/xkilldash9x/webbind/internal/browser/jsexec"
	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/interop/surface"
)

// maxDocumentBytes caps what Navigate will read from a response body.
const maxDocumentBytes = 8 << 20

// Options configures an in-process bridge.
type Options struct {
	// URL is the address of the initial, empty document.
	URL         string
	Referrer    string
	Persona     schemas.Persona
	Permissions map[string]schemas.PermissionState
	Dialogs     jsbind.DialogHandler
	// HTTPClient fetches documents for Navigate. Defaults to a fetch client that
	// identifies as Persona and gives up after FetchTimeout.
	HTTPClient   *http.Client
	FetchTimeout time.Duration
}

// Bridge implements interop.Bridge on top of a jsexec.Runtime. Document loads are
// reported through interop.DocumentObserver.
type Bridge struct {
	interop.DocumentHooks

	rt        *jsexec.Runtime
	callbacks *interop.CallbackTable
	client    *http.Client
	logger    *zap.Logger

	closeOnce sync.Once
}

var (
	_ interop.Bridge           = (*Bridge)(nil)
	_ interop.DocumentObserver = (*Bridge)(nil)
)

// New starts a runtime, installs the window and the surface, and wires the callback
// function to a fresh CallbackTable.
func New(logger *zap.Logger, opts Options) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("inproc").With(zap.String("bridge_id", uuid.NewString()))

	src, err := surface.Source()
	if err != nil {
		return nil, err
	}

	rt, err := jsexec.New(log, jsbind.Options{
		URL:         opts.URL,
		Referrer:    opts.Referrer,
		Persona:     opts.Persona,
		Permissions: opts.Permissions,
		Dialogs:     opts.Dialogs,
	})
	if err != nil {
		return nil, err
	}

	client := opts.HTTPClient
	if client == nil {
		client = fetch.NewClient(fetch.Config{
			Timeout:  opts.FetchTimeout,
			Persona:  opts.Persona,
			Referrer: opts.Referrer,
			Logger:   log,
		})
	}

	b := &Bridge{
		rt:        rt,
		callbacks: interop.NewCallbackTable(log),
		client:    client,
		logger:    log,
	}

	err = rt.Do(context.Background(), func(vm *goja.Runtime) error {
		if err := vm.Set(interop.CallbackFunctionName, b.deliver(vm)); err != nil {
			return err
		}
		_, err := vm.RunScript("webbind/surface.js", src)
		return err
	})
	if err != nil {
		b.shutdown()
		return nil, fmt.Errorf("inproc: installing surface: %w", err)
	}
	log.Debug("In-process bridge ready.", zap.String("url", opts.URL))
	return b, nil
}

// deliver builds the global the surface posts callbacks through.
func (b *Bridge) deliver(vm *goja.Runtime) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if err := b.callbacks.Deliver([]byte(call.Argument(0).String())); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	}
}

// Mode implements interop.Bridge.
func (b *Bridge) Mode() interop.Mode { return interop.ModeInProcess }

// Callbacks implements interop.Invoker.
func (b *Bridge) Callbacks() *interop.CallbackTable { return b.callbacks }

// Invoke implements interop.Invoker.
func (b *Bridge) Invoke(ctx context.Context, identifier string, args ...any) (json.RawMessage, error) {
	argsJSON, err := interop.EncodeArgs(args)
	if err != nil {
		return nil, err
	}

	var promise *goja.Promise
	err = b.rt.Do(ctx, func(vm *goja.Runtime) error {
		webbind := vm.Get("WebBind")
		if webbind == nil || goja.IsUndefined(webbind) {
			return fmt.Errorf("inproc: the API surface is not installed")
		}
		obj := webbind.ToObject(vm)
		invoke, ok := goja.AssertFunction(obj.Get("invoke"))
		if !ok {
			return fmt.Errorf("inproc: WebBind.invoke is not a function")
		}
		v, err := invoke(obj, vm.ToValue(identifier), vm.ToValue(argsJSON))
		if err != nil {
			return err
		}
		p, ok := v.Export().(*goja.Promise)
		if !ok {
			return fmt.Errorf("inproc: WebBind.invoke returned %s, not a promise", v.String())
		}
		promise = p
		return nil
	})
	if err != nil {
		return nil, b.translate(err)
	}

	settled, err := b.rt.Await(ctx, promise)
	if err != nil {
		return nil, b.translate(err)
	}
	payload, ok := settled.(string)
	if !ok {
		return nil, fmt.Errorf("inproc: %s settled with %T, want a JSON string", identifier, settled)
	}
	return interop.DecodeEnvelope(identifier, []byte(payload))
}

func (b *Bridge) translate(err error) error {
	if errors.Is(err, jsexec.ErrClosed) {
		return interop.ErrClosed
	}
	return err
}

// Navigate fetches url and loads it as the current document. about:blank loads an
// empty document without a request.
func (b *Bridge) Navigate(ctx context.Context, url string) error {
	markup := ""
	if !strings.HasPrefix(url, "about:") {
		body, err := b.fetch(ctx, url)
		if err != nil {
			return err
		}
		markup = body
	}
	return b.LoadHTML(ctx, url, markup)
}

func (b *Bridge) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &jsbind.NavigationError{URL: url, Message: "building request", Err: err}
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", &jsbind.NavigationError{URL: url, Message: "fetching document", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &jsbind.NavigationError{URL: url, Message: fmt.Sprintf("server responded with %s", resp.Status)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", &jsbind.NavigationError{URL: url, Message: "reading document", Err: err}
	}
	b.logger.Debug("Fetched document.", zap.String("url", url), zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return string(body), nil
}

// -- Host controls --

// LoadHTML replaces the current document with markup, as if it had been served from url.
// The window survives, but the surface forgets the old document's handles and
// listeners, as a browser would on navigation. Document hooks run before LoadHTML
// returns.
func (b *Bridge) LoadHTML(ctx context.Context, url, markup string) error {
	err := b.rt.Do(ctx, func(vm *goja.Runtime) error {
		if err := b.rt.Host().LoadHTML(url, markup); err != nil {
			return err
		}
		return resetSurface(vm)
	})
	if err != nil {
		return b.translate(err)
	}
	return b.RunDocumentHooks(ctx)
}

func resetSurface(vm *goja.Runtime) error {
	webbind := vm.Get("WebBind")
	if webbind == nil || goja.IsUndefined(webbind) {
		return fmt.Errorf("inproc: the API surface is not installed")
	}
	reset, ok := goja.AssertFunction(webbind.ToObject(vm).Get("__reset"))
	if !ok {
		return fmt.Errorf("inproc: WebBind.__reset is not a function")
	}
	_, err := reset(goja.Undefined())
	return err
}

// Eval runs script in the page and returns its exported result. Promises are awaited.
func (b *Bridge) Eval(ctx context.Context, script string) (any, error) {
	v, err := b.rt.ExecuteScript(ctx, script, nil)
	return v, b.translate(err)
}

// Resize changes the viewport and fires resize.
func (b *Bridge) Resize(ctx context.Context, width, height int64) error {
	return b.host(ctx, func(h *jsbind.Host) error { return h.Resize(width, height) })
}

// SetVisibility changes document.visibilityState and fires visibilitychange.
func (b *Bridge) SetVisibility(ctx context.Context, state schemas.VisibilityState) error {
	return b.host(ctx, func(h *jsbind.Host) error { return h.SetVisibility(state) })
}

// SetOnline flips navigator.onLine and fires online or offline.
func (b *Bridge) SetOnline(ctx context.Context, online bool) error {
	return b.host(ctx, func(h *jsbind.Host) error {
		h.SetOnline(online)
		return nil
	})
}

// SetPermission changes a permission state and fires change on its status object.
func (b *Bridge) SetPermission(ctx context.Context, name string, state schemas.PermissionState) error {
	return b.host(ctx, func(h *jsbind.Host) error { return h.SetPermission(name, state) })
}

// ListenerCount reports the native listeners for eventType on target ("window",
// "document" or a selector).
func (b *Bridge) ListenerCount(ctx context.Context, target, eventType string) (int, error) {
	var n int
	err := b.host(ctx, func(h *jsbind.Host) error {
		var err error
		n, err = h.ListenerCount(target, eventType)
		return err
	})
	return n, err
}

// HistoryEntries returns a snapshot of session history.
func (b *Bridge) HistoryEntries(ctx context.Context) ([]schemas.HistoryEntry, error) {
	var entries []schemas.HistoryEntry
	err := b.host(ctx, func(h *jsbind.Host) error {
		entries = h.HistoryEntries()
		return nil
	})
	return entries, err
}

func (b *Bridge) host(ctx context.Context, fn func(h *jsbind.Host) error) error {
	err := b.rt.Do(ctx, func(*goja.Runtime) error { return fn(b.rt.Host()) })
	return b.translate(err)
}

// Close implements interop.Bridge. It must not be called from a callback handler.
func (b *Bridge) Close(context.Context) error {
	b.shutdown()
	return nil
}

func (b *Bridge) shutdown() {
	b.closeOnce.Do(func() {
		b.rt.Close()
		b.callbacks.Close()
		b.client.CloseIdleConnections()
		b.logger.Debug("In-process bridge closed.")
	})
}
