package webapi

import (
	"context"

	"github.com/xkilldash9x/webbind/pkg/interop"
)

const locationNS = "LocationAPI"

// Location wraps window.location.
type Location struct {
	inv interop.Invoker
}

func (l *Location) get(ctx context.Context, op string) (string, error) {
	return interop.Call[string](ctx, l.inv, interop.Identifier(locationNS, op))
}

func (l *Location) void(ctx context.Context, op string, args ...any) error {
	return interop.CallVoid(ctx, l.inv, interop.Identifier(locationNS, op), args...)
}

func (l *Location) Href(ctx context.Context) (string, error)     { return l.get(ctx, "getHref") }
func (l *Location) SetHref(ctx context.Context, v string) error  { return l.void(ctx, "setHref", v) }
func (l *Location) Protocol(ctx context.Context) (string, error) { return l.get(ctx, "getProtocol") }
func (l *Location) Host(ctx context.Context) (string, error)     { return l.get(ctx, "getHost") }
func (l *Location) Hostname(ctx context.Context) (string, error) { return l.get(ctx, "getHostname") }
func (l *Location) Port(ctx context.Context) (string, error)     { return l.get(ctx, "getPort") }
func (l *Location) Pathname(ctx context.Context) (string, error) { return l.get(ctx, "getPathname") }
func (l *Location) Search(ctx context.Context) (string, error)   { return l.get(ctx, "getSearch") }
func (l *Location) Hash(ctx context.Context) (string, error)     { return l.get(ctx, "getHash") }

// SetHash navigates to the fragment; hashchange fires asynchronously on the window.
func (l *Location) SetHash(ctx context.Context, v string) error { return l.void(ctx, "setHash", v) }
func (l *Location) Origin(ctx context.Context) (string, error)  { return l.get(ctx, "getOrigin") }

func (l *Location) Assign(ctx context.Context, url string) error  { return l.void(ctx, "assign", url) }
func (l *Location) Replace(ctx context.Context, url string) error { return l.void(ctx, "replace", url) }
func (l *Location) Reload(ctx context.Context) error              { return l.void(ctx, "reload") }
