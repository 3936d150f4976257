// Package interop defines the call contract between Go wrappers and the script-side API
// surface. A strategy (in-process goja, chromedp, playwright) implements Invoker; the
// wrappers in pkg/webapi only ever talk to that interface.
package interop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects the call strategy used to reach the script side.
type Mode string

const (
	// ModeInProcess runs the surface inside an embedded JS runtime. Calls block until
	// the runtime has produced a result.
	ModeInProcess Mode = "inprocess"
	// ModeCDP drives an out-of-process Chromium over the DevTools protocol.
	ModeCDP Mode = "cdp"
	// ModePlaywright drives an out-of-process browser through the playwright driver.
	ModePlaywright Mode = "playwright"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeInProcess, ModeCDP, ModePlaywright:
		return m, nil
	case "", "in-process", "inproc":
		return ModeInProcess, nil
	default:
		return "", fmt.Errorf("unknown bridge mode %q", s)
	}
}

// Invoker invokes named script-side functions.
type Invoker interface {
	// Invoke calls the function registered under identifier ("Namespace.operation")
	// with the positional args and returns its JSON encoded result. A script failure
	// is reported as *ScriptError.
	Invoke(ctx context.Context, identifier string, args ...any) (json.RawMessage, error)

	// Callbacks returns the table that routes script-side callbacks back to Go.
	Callbacks() *CallbackTable
}

// Bridge is an Invoker bound to a concrete page or runtime.
type Bridge interface {
	Invoker

	// Navigate loads url in the page the bridge is bound to.
	Navigate(ctx context.Context, url string) error

	// Mode reports the strategy in use.
	Mode() Mode

	// Close releases the page/runtime and stops callback delivery.
	Close(ctx context.Context) error
}

// Call invokes identifier and decodes the result into T.
func Call[T any](ctx context.Context, inv Invoker, identifier string, args ...any) (T, error) {
	var out T
	raw, err := inv.Invoke(ctx, identifier, args...)
	if err != nil {
		return out, err
	}
	if err := Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding result of %s: %w", identifier, err)
	}
	return out, nil
}

// CallVoid invokes identifier and discards the result.
func CallVoid(ctx context.Context, inv Invoker, identifier string, args ...any) error {
	_, err := inv.Invoke(ctx, identifier, args...)
	return err
}

// CallOptional invokes identifier, whose script side answers with a zero-or-one element
// array, and unwraps it. The boolean is false when the native value was null.
func CallOptional[T any](ctx context.Context, inv Invoker, identifier string, args ...any) (T, bool, error) {
	var zero T
	items, err := Call[[]T](ctx, inv, identifier, args...)
	if err != nil {
		return zero, false, err
	}
	switch len(items) {
	case 0:
		return zero, false, nil
	case 1:
		return items[0], true, nil
	default:
		return zero, false, fmt.Errorf("%s: expected at most one value, got %d", identifier, len(items))
	}
}

// Identifier joins a namespace and an operation into the wire identifier.
func Identifier(namespace, operation string) string {
	return namespace + "." + operation
}
