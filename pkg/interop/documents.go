package interop

import (
	"context"
	"errors"
	"sync"
)

// DocumentObserver is implemented by bridges that know when the page's document has been
// replaced. Everything the surface handed out for the old document is gone by then:
// handles are rejected and native listeners no longer exist.
type DocumentObserver interface {
	// OnDocument registers fn to run after every navigation or document load, on the
	// goroutine that caused it and before that call returns. The returned func removes
	// the registration.
	OnDocument(fn func(ctx context.Context) error) (remove func())
}

// DocumentHooks is a DocumentObserver implementation for bridges to embed.
type DocumentHooks struct {
	mu     sync.Mutex
	nextID uint64
	fns    map[uint64]func(ctx context.Context) error
}

// OnDocument implements DocumentObserver.
func (h *DocumentHooks) OnDocument(fn func(ctx context.Context) error) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = make(map[uint64]func(ctx context.Context) error)
	}
	h.nextID++
	id := h.nextID
	h.fns[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.fns, id)
		h.mu.Unlock()
	}
}

// RunDocumentHooks calls every registered hook and joins their errors. Hooks may call
// back into the bridge.
func (h *DocumentHooks) RunDocumentHooks(ctx context.Context) error {
	h.mu.Lock()
	fns := make([]func(ctx context.Context) error, 0, len(h.fns))
	for _, fn := range h.fns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	var errs []error
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
