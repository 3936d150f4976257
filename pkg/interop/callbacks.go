package interop

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// CallbackFunctionName is the global the surface calls to reach Go. Each strategy
// installs it: a goja function, a CDP binding or a playwright binding.
const CallbackFunctionName = "__webbindCallback"

// CallbackTarget receives callbacks posted by the script side for one CallbackRef.
type CallbackTarget interface {
	InvokeCallback(method string, args []json.RawMessage)
}

// CallbackFunc adapts a function to CallbackTarget.
type CallbackFunc func(method string, args []json.RawMessage)

// InvokeCallback implements CallbackTarget.
func (f CallbackFunc) InvokeCallback(method string, args []json.RawMessage) { f(method, args) }

// callbackMessage is what the surface posts through CallbackFunctionName.
type callbackMessage struct {
	Ref    int64             `json:"ref"`
	Method string            `json:"method"`
	Args   []json.RawMessage `json:"args"`
}

// CallbackTable maps CallbackRefs to Go targets and delivers script-side callbacks to
// them in arrival order on a dedicated goroutine, so a handler may call back into the
// bridge without blocking the runtime that produced the event.
type CallbackTable struct {
	logger *zap.Logger

	mu      sync.RWMutex
	nextID  int64
	targets map[int64]CallbackTarget

	qmu     sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewCallbackTable creates a table and starts its delivery goroutine.
func NewCallbackTable(logger *zap.Logger) *CallbackTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &CallbackTable{
		logger:  logger.Named("callbacks"),
		targets: make(map[int64]CallbackTarget),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go t.run()
	return t
}

// Register adds target and returns the ref the script side will use to address it.
func (t *CallbackTable) Register(target CallbackTarget) CallbackRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.targets[t.nextID] = target
	return CallbackRef{ID: t.nextID}
}

// Release forgets ref. Callbacks still queued for it are dropped.
func (t *CallbackTable) Release(ref CallbackRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.targets, ref.ID)
}

// Len returns the number of registered targets.
func (t *CallbackTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.targets)
}

// Deliver parses a payload posted through CallbackFunctionName and queues it for its
// target. It never blocks on handler execution.
func (t *CallbackTable) Deliver(payload []byte) error {
	var msg callbackMessage
	if err := codec.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed callback payload: %w", err)
	}
	if msg.Ref <= 0 || msg.Method == "" {
		return fmt.Errorf("callback payload is missing ref or method")
	}

	select {
	case <-t.done:
		return ErrClosed
	default:
	}

	t.enqueue(func() {
		t.mu.RLock()
		target, ok := t.targets[msg.Ref]
		t.mu.RUnlock()
		if !ok {
			t.logger.Debug("Dropping callback for released target.", zap.Int64("ref", msg.Ref), zap.String("method", msg.Method))
			return
		}
		t.invoke(target, msg)
	})
	return nil
}

func (t *CallbackTable) invoke(target CallbackTarget, msg callbackMessage) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Panic in callback target.",
				zap.Int64("ref", msg.Ref),
				zap.String("method", msg.Method),
				zap.Any("panic_reason", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()
	target.InvokeCallback(msg.Method, msg.Args)
}

func (t *CallbackTable) enqueue(fn func()) {
	t.qmu.Lock()
	t.pending = append(t.pending, fn)
	t.qmu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *CallbackTable) run() {
	defer close(t.stopped)
	for {
		select {
		case <-t.done:
			return
		case <-t.wake:
		}
		for {
			t.qmu.Lock()
			batch := t.pending
			t.pending = nil
			t.qmu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}
}

// Close stops delivery and forgets every target. Undelivered callbacks are dropped.
// It must not be called from inside a callback target.
func (t *CallbackTable) Close() {
	t.once.Do(func() {
		close(t.done)
		<-t.stopped
		t.mu.Lock()
		t.targets = make(map[int64]CallbackTarget)
		t.mu.Unlock()
	})
}
