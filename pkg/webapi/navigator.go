package webapi

import (
	"context"

	"github.com/xkilldash9x/webbind/pkg/interop"
)

const navigatorNS = "NavigatorAPI"

// Navigator wraps window.navigator. Permissions live on Globals.Permissions.
type Navigator struct {
	inv interop.Invoker
}

func navigatorCall[T any](ctx context.Context, n *Navigator, op string) (T, error) {
	return interop.Call[T](ctx, n.inv, interop.Identifier(navigatorNS, op))
}

func (n *Navigator) UserAgent(ctx context.Context) (string, error) {
	return navigatorCall[string](ctx, n, "getUserAgent")
}
func (n *Navigator) Language(ctx context.Context) (string, error) {
	return navigatorCall[string](ctx, n, "getLanguage")
}
func (n *Navigator) Languages(ctx context.Context) ([]string, error) {
	return navigatorCall[[]string](ctx, n, "getLanguages")
}
func (n *Navigator) OnLine(ctx context.Context) (bool, error) {
	return navigatorCall[bool](ctx, n, "getOnLine")
}
func (n *Navigator) CookieEnabled(ctx context.Context) (bool, error) {
	return navigatorCall[bool](ctx, n, "getCookieEnabled")
}
func (n *Navigator) HardwareConcurrency(ctx context.Context) (int64, error) {
	return navigatorCall[int64](ctx, n, "getHardwareConcurrency")
}
func (n *Navigator) Platform(ctx context.Context) (string, error) {
	return navigatorCall[string](ctx, n, "getPlatform")
}
func (n *Navigator) Webdriver(ctx context.Context) (bool, error) {
	return navigatorCall[bool](ctx, n, "getWebdriver")
}
