package webapi

import (
	"context"
	"encoding/json"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

const historyNS = "HistoryAPI"

// History wraps window.history. Its events (popstate, hashchange) fire on the window.
type History struct {
	inv interop.Invoker
}

func historyCall[T any](ctx context.Context, h *History, op string, args ...any) (T, error) {
	return interop.Call[T](ctx, h.inv, interop.Identifier(historyNS, op), args...)
}

func (h *History) void(ctx context.Context, op string, args ...any) error {
	return interop.CallVoid(ctx, h.inv, interop.Identifier(historyNS, op), args...)
}

func (h *History) Length(ctx context.Context) (int, error) {
	return historyCall[int](ctx, h, "getLength")
}

func (h *History) ScrollRestoration(ctx context.Context) (schemas.ScrollRestoration, error) {
	return historyCall[schemas.ScrollRestoration](ctx, h, "getScrollRestoration")
}

func (h *History) SetScrollRestoration(ctx context.Context, v schemas.ScrollRestoration) error {
	return h.void(ctx, "setScrollRestoration", v)
}

// State returns the JSON form of history.state; "null" when the entry has none.
func (h *History) State(ctx context.Context) (json.RawMessage, error) {
	raw, err := historyCall[json.RawMessage](ctx, h, "getState")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	return raw, nil
}

// StateInto decodes history.state into v.
func (h *History) StateInto(ctx context.Context, v any) error {
	raw, err := h.State(ctx)
	if err != nil {
		return err
	}
	return interop.Unmarshal(raw, v)
}

// Back, Forward and Go queue a traversal; it completes asynchronously with popstate.
func (h *History) Back(ctx context.Context) error    { return h.void(ctx, "back") }
func (h *History) Forward(ctx context.Context) error { return h.void(ctx, "forward") }
func (h *History) Go(ctx context.Context, delta int) error {
	return h.void(ctx, "go", delta)
}

// PushState adds an entry. state must be JSON encodable; an empty url keeps the current
// URL.
func (h *History) PushState(ctx context.Context, state any, title, url string) error {
	return h.void(ctx, "pushState", state, title, optionalURL(url))
}

// ReplaceState rewrites the current entry.
func (h *History) ReplaceState(ctx context.Context, state any, title, url string) error {
	return h.void(ctx, "replaceState", state, title, optionalURL(url))
}

func optionalURL(url string) any {
	if url == "" {
		return nil
	}
	return url
}
