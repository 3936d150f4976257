// Package pw drives a Chromium page through the playwright driver. Like the CDP
// strategy every call is an asynchronous round trip; playwright awaits the promise
// returned by the surface's invoke.
package pw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/interop/surface"
)

// Bridge implements interop.Bridge over one playwright page. Navigations made through
// Navigate are reported through interop.DocumentObserver.
type Bridge struct {
	interop.DocumentHooks

	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page

	callbacks *interop.CallbackTable
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool
}

var (
	_ interop.Bridge           = (*Bridge)(nil)
	_ interop.DocumentObserver = (*Bridge)(nil)
)

const shutdownGracePeriod = 15 * time.Second

// Launch installs (optionally) and starts the playwright driver, launches Chromium and
// opens a page with the surface installed.
func Launch(ctx context.Context, logger *zap.Logger, opts Options) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("playwright").With(zap.String("bridge_id", uuid.NewString()))

	if opts.Install {
		if err := ensureInstallation(ctx, log, opts); err != nil {
			return nil, err
		}
	}

	launchCtx, cancel := context.WithTimeout(ctx, opts.launchTimeout())
	defer cancel()

	b := &Bridge{
		callbacks: interop.NewCallbackTable(log),
		logger:    log,
	}
	err := await(launchCtx, func() error { return b.start(opts) })
	if err != nil {
		// start may still be running when launchCtx expired; shut down whatever it
		// managed to create once it returns.
		_ = b.Close(context.Background())
		return nil, err
	}
	log.Info("Playwright bridge ready.", zap.String("browser_version", b.browser.Version()))
	return b, nil
}

func ensureInstallation(ctx context.Context, logger *zap.Logger, opts Options) error {
	logger.Info("Verifying Playwright browser installation...")
	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	err := await(installCtx, func() error { return playwright.Install(opts.runOptions()) })
	if err != nil {
		return fmt.Errorf("pw: installing browsers: %w", err)
	}
	return nil
}

// start brings up the driver, browser, context and page in order.
func (b *Bridge) start(opts Options) error {
	src, err := surface.Source()
	if err != nil {
		return err
	}

	pw, err := playwright.Run(opts.runOptions())
	if err != nil {
		return fmt.Errorf("pw: starting driver: %w", err)
	}
	if err := b.keep(func() { b.pw = pw }, func() { _ = pw.Stop() }); err != nil {
		return err
	}

	browser, err := pw.Chromium.Launch(opts.launchOptions())
	if err != nil {
		return fmt.Errorf("pw: launching browser: %w", err)
	}
	if err := b.keep(func() { b.browser = browser }, func() { _ = browser.Close() }); err != nil {
		return err
	}

	bctx, err := browser.NewContext(opts.contextOptions())
	if err != nil {
		return fmt.Errorf("pw: creating browser context: %w", err)
	}
	if err := b.keep(func() { b.bctx = bctx }, func() { _ = bctx.Close() }); err != nil {
		return err
	}

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("pw: opening page: %w", err)
	}

	err = page.ExposeBinding(interop.CallbackFunctionName, func(_ *playwright.BindingSource, args ...interface{}) interface{} {
		b.deliver(args)
		return nil
	})
	if err != nil {
		return fmt.Errorf("pw: exposing callback binding: %w", err)
	}
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(src)}); err != nil {
		return fmt.Errorf("pw: adding init script: %w", err)
	}
	if _, err := page.Evaluate(src); err != nil {
		return fmt.Errorf("pw: installing surface: %w", err)
	}

	return b.keep(func() { b.page = page }, func() {})
}

// keep records a freshly created resource, or releases it when Close already ran
// while start was still in progress.
func (b *Bridge) keep(set, release func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		release()
		return interop.ErrClosed
	}
	set()
	return nil
}

func (b *Bridge) deliver(args []interface{}) {
	if len(args) != 1 {
		b.logger.Warn("Dropping callback with unexpected arity.", zap.Int("args", len(args)))
		return
	}
	payload, ok := args[0].(string)
	if !ok {
		b.logger.Warn("Dropping non-string callback payload.", zap.Any("payload", args[0]))
		return
	}
	if err := b.callbacks.Deliver([]byte(payload)); err != nil && !errors.Is(err, interop.ErrClosed) {
		b.logger.Warn("Dropping callback.", zap.Error(err))
	}
}

// await runs fn on its own goroutine and returns early with ctx's error. Playwright
// calls are synchronous and take no context.
func await(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) livePage() (playwright.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.page == nil {
		return nil, interop.ErrClosed
	}
	return b.page, nil
}

// Mode implements interop.Bridge.
func (b *Bridge) Mode() interop.Mode { return interop.ModePlaywright }

// Callbacks implements interop.Invoker.
func (b *Bridge) Callbacks() *interop.CallbackTable { return b.callbacks }

// Invoke implements interop.Invoker.
func (b *Bridge) Invoke(ctx context.Context, identifier string, args ...any) (json.RawMessage, error) {
	page, err := b.livePage()
	if err != nil {
		return nil, err
	}
	argsJSON, err := interop.EncodeArgs(args)
	if err != nil {
		return nil, err
	}

	var result interface{}
	err = await(ctx, func() error {
		var err error
		result, err = page.Evaluate(surface.InvokeExpression(identifier, argsJSON))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pw: evaluating %s: %w", identifier, err)
	}
	payload, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("pw: %s returned %T instead of an envelope", identifier, result)
	}
	return interop.DecodeEnvelope(identifier, []byte(payload))
}

// Navigate implements interop.Bridge. The init script re-installs the surface.
func (b *Bridge) Navigate(ctx context.Context, url string) error {
	page, err := b.livePage()
	if err != nil {
		return err
	}
	gotoOpts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad}
	if deadline, ok := ctx.Deadline(); ok {
		gotoOpts.Timeout = playwright.Float(float64(time.Until(deadline).Milliseconds()))
	}
	err = await(ctx, func() error {
		_, err := page.Goto(url, gotoOpts)
		return err
	})
	if err != nil {
		return fmt.Errorf("pw: navigating to %s: %w", url, err)
	}
	return b.RunDocumentHooks(ctx)
}

// Eval evaluates script in the page and returns its (awaited) result.
func (b *Bridge) Eval(ctx context.Context, script string) (interface{}, error) {
	page, err := b.livePage()
	if err != nil {
		return nil, err
	}
	var result interface{}
	err = await(ctx, func() error {
		var err error
		result, err = page.Evaluate(script)
		return err
	})
	return result, err
}

// Close implements interop.Bridge. It closes the page's context, the browser and the
// driver, in that order.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	pw, browser, bctx := b.pw, b.browser, b.bctx
	b.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()

	err := await(shutdownCtx, func() error {
		var errs []error
		if bctx != nil {
			if err := bctx.Close(); err != nil {
				b.logger.Warn("Failed to close browser context.", zap.Error(err))
			}
		}
		if browser != nil {
			if err := browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}
		if pw != nil {
			if err := pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop playwright driver: %w", err))
			}
		}
		return errors.Join(errs...)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		b.logger.Warn("Playwright shutdown timed out, proceeding forcefully.")
	}

	b.callbacks.Close()
	b.logger.Info("Playwright bridge closed.")
	return err
}
