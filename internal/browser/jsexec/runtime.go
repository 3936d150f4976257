// internal/browser/jsexec/runtime.go
package jsexec

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/internal/browser/jsbind"
)

// DefaultTimeout is the fallback execution timeout if the context has no deadline.
const DefaultTimeout = 30 * time.Second

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("jsexec: runtime is closed")

// PromiseRejectedError carries the reason a promise settled as rejected.
type PromiseRejectedError struct {
	Reason string
}

func (e *PromiseRejectedError) Error() string {
	return "javascript promise rejected: " + e.Reason
}

// Runtime owns a goja VM running on its own event loop, with the in-process window
// installed. All VM access goes through Do so it happens on the loop goroutine.
type Runtime struct {
	loop   *eventloop.EventLoop
	host   *jsbind.Host
	logger *zap.Logger

	// interrupt bookkeeping: only the job that armed an interrupt may fire it.
	mu      sync.Mutex
	seq     uint64
	current uint64

	closed    chan struct{}
	closeOnce sync.Once
}

// New starts an event loop and installs the window described by opts into its VM.
func New(logger *zap.Logger, opts jsbind.Options) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("jsexec")

	reg := new(require.Registry)
	reg.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(&consolePrinter{logger: log.Named("console")}))
	loop := eventloop.NewEventLoop(eventloop.WithRegistry(reg), eventloop.EnableConsole(true))
	loop.Start()

	r := &Runtime{
		loop:   loop,
		logger: log,
		closed: make(chan struct{}),
	}

	initErr := make(chan error, 1)
	loop.RunOnLoop(func(vm *goja.Runtime) {
		vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
		host, err := jsbind.NewHost(vm, r, log, opts)
		r.host = host
		initErr <- err
	})
	if err := <-initErr; err != nil {
		loop.Stop()
		return nil, fmt.Errorf("jsexec: installing window: %w", err)
	}
	return r, nil
}

// Host returns the in-process window. Its methods must only be called from inside Do.
func (r *Runtime) Host() *jsbind.Host { return r.host }

// Schedule queues task on the loop. It implements jsbind.Scheduler.
func (r *Runtime) Schedule(task func()) {
	r.loop.RunOnLoop(func(*goja.Runtime) {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("Panic in scheduled task.", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			}
		}()
		task()
	})
}

// Do runs fn on the loop goroutine and waits for it. Cancelling ctx interrupts fn if it
// is executing script; a job still queued when ctx ends is skipped.
func (r *Runtime) Do(ctx context.Context, fn func(vm *goja.Runtime) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-r.closed:
		return ErrClosed
	default:
	}

	done := make(chan error, 1)
	started := make(chan struct{})
	r.loop.RunOnLoop(func(vm *goja.Runtime) {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		close(started)
		disarm := r.arm(ctx, vm)
		err := r.protect(fn, vm)
		disarm()

		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) && ctx.Err() != nil {
			err = fmt.Errorf("javascript execution interrupted by context: %w", ctx.Err())
		}
		done <- err
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case <-started:
			// The interrupt is on its way; report how the job actually ended.
		default:
			return ctx.Err()
		}
	case <-r.closed:
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-r.closed:
		return ErrClosed
	}
}

// arm interrupts the VM when ctx ends, but only while this job is current.
func (r *Runtime) arm(ctx context.Context, vm *goja.Runtime) func() {
	r.mu.Lock()
	r.seq++
	token := r.seq
	r.current = token
	r.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.current == token {
			vm.Interrupt(ctx.Err())
		}
	})
	return func() {
		stop()
		r.mu.Lock()
		r.current = 0
		r.mu.Unlock()
		vm.ClearInterrupt()
	}
}

func (r *Runtime) protect(fn func(vm *goja.Runtime) error, vm *goja.Runtime) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if ie, ok := p.(*goja.InterruptedError); ok {
				err = ie
				return
			}
			r.logger.Error("Panic on the event loop.", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("jsexec: panic on the event loop: %v", p)
		}
	}()
	return fn(vm)
}

// ExecuteScript runs a JavaScript snippet within the persistent VM environment.
// It handles context based cancellation, timeouts, and asynchronous Promises.
// Args can be passed if the script is structured as a function wrapper.
func (r *Runtime) ExecuteScript(ctx context.Context, script string, args []interface{}) (interface{}, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var (
		exported interface{}
		promise  *goja.Promise
	)
	err := r.Do(ctx, func(vm *goja.Runtime) error {
		var result goja.Value
		var err error
		if isFunctionWrapper(script) {
			result, err = executeFunctionWrapper(vm, script, args)
		} else {
			if len(args) > 0 {
				r.logger.Debug("Arguments provided to ExecuteScript in snippet mode are ignored.")
			}
			result, err = vm.RunString(script)
		}
		if err != nil {
			var jsErr *goja.Exception
			if errors.As(err, &jsErr) {
				return fmt.Errorf("javascript exception: %w", jsErr)
			}
			return err
		}
		if p, ok := result.Export().(*goja.Promise); ok {
			promise = p
			return nil
		}
		exported = result.Export()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if promise != nil {
		return r.Await(ctx, promise)
	}
	return exported, nil
}

// Await waits for promise to settle and returns its exported value.
func (r *Runtime) Await(ctx context.Context, promise *goja.Promise) (interface{}, error) {
	type settlement struct {
		value interface{}
		err   error
	}
	settled := make(chan settlement, 1)

	err := r.Do(ctx, func(vm *goja.Runtime) error {
		switch promise.State() {
		case goja.PromiseStateFulfilled:
			settled <- settlement{value: promise.Result().Export()}
			return nil
		case goja.PromiseStateRejected:
			settled <- settlement{err: &PromiseRejectedError{Reason: reason(promise.Result())}}
			return nil
		}
		obj := vm.ToValue(promise).ToObject(vm)
		then, ok := goja.AssertFunction(obj.Get("then"))
		if !ok {
			return fmt.Errorf("jsexec: promise has no then method")
		}
		onFulfilled := func(v goja.Value) { settled <- settlement{value: v.Export()} }
		onRejected := func(v goja.Value) { settled <- settlement{err: &PromiseRejectedError{Reason: reason(v)}} }
		_, err := then(obj, vm.ToValue(onFulfilled), vm.ToValue(onRejected))
		return err
	})
	if err != nil {
		return nil, err
	}

	select {
	case s := <-settled:
		return s.value, s.err
	case <-ctx.Done():
		return nil, fmt.Errorf("context done while waiting for promise: %w", ctx.Err())
	case <-r.closed:
		return nil, ErrClosed
	}
}

func reason(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	return v.String()
}

// Close stops the event loop. It must not be called from the loop goroutine.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
		r.loop.Stop()
	})
}

// isFunctionWrapper uses heuristics to detect common function wrappers.
func isFunctionWrapper(script string) bool {
	s := strings.TrimSpace(script)
	if len(s) < 5 {
		return false
	}

	return strings.HasPrefix(s, "(function") || strings.HasPrefix(s, "(async function") ||
		strings.HasPrefix(s, "function") || strings.HasPrefix(s, "async function") ||
		strings.HasPrefix(s, "(()=>") || strings.HasPrefix(s, "(async (")
}

// executeFunctionWrapper evaluates the script and calls the resulting function.
func executeFunctionWrapper(vm *goja.Runtime, script string, args []interface{}) (goja.Value, error) {
	prog, err := goja.Compile("", script, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile function wrapper script: %w", err)
	}

	val, err := vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}

	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, fmt.Errorf("script did not evaluate to a callable function wrapper")
	}

	gojaArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		gojaArgs[i] = vm.ToValue(arg)
	}

	return fn(vm.GlobalObject(), gojaArgs...)
}

// consolePrinter routes console.log and friends to zap.
type consolePrinter struct {
	logger *zap.Logger
}

func (p *consolePrinter) Log(s string)   { p.logger.Info(s) }
func (p *consolePrinter) Warn(s string)  { p.logger.Warn(s) }
func (p *consolePrinter) Error(s string) { p.logger.Error(s) }
