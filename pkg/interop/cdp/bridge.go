// Package cdp drives a Chromium page over the DevTools protocol. Each call is an
// asynchronous round trip: the surface's invoke is evaluated with awaitPromise and the
// settled envelope comes back by value.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/browser/emulation"
	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/interop/surface"
)

// Bridge implements interop.Bridge over one chromedp tab. Navigations made through
// Navigate are reported through interop.DocumentObserver.
type Bridge struct {
	interop.DocumentHooks

	ctx       context.Context // chromedp tab context
	cancelAll context.CancelFunc

	callbacks *interop.CallbackTable
	logger    *zap.Logger
	shutdown  time.Duration
	persona   *schemas.Persona

	mu     sync.Mutex
	closed bool
}

var (
	_ interop.Bridge           = (*Bridge)(nil)
	_ interop.DocumentObserver = (*Bridge)(nil)
)

// Launch starts (or, with Options.RemoteURL, attaches to) a browser, opens a tab and
// installs the surface in it.
func Launch(ctx context.Context, logger *zap.Logger, opts Options) (*Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("cdp").With(zap.String("bridge_id", uuid.NewString()))

	// The browser must outlive ctx, which only bounds startup.
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
		log.Info("Attaching to running browser.", zap.String("url", opts.RemoteURL))
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts.AllocatorOptions()...)
		log.Info("Launching browser.", zap.Bool("headless", opts.Headless))
	}

	sugar := log.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	b := &Bridge{
		ctx: tabCtx,
		cancelAll: func() {
			tabCancel()
			allocCancel()
		},
		callbacks: interop.NewCallbackTable(log),
		logger:    log,
		shutdown:  opts.shutdownTimeout(),
		persona:   opts.Persona,
	}

	startCtx, cancel := context.WithTimeout(ctx, opts.startupTimeout())
	defer cancel()
	if err := b.install(startCtx); err != nil {
		_ = b.Close(context.Background())
		return nil, err
	}
	log.Info("CDP bridge ready.")
	return b, nil
}

// install registers the callback binding and makes the surface present in the current
// document and every document loaded after it.
func (b *Bridge) install(ctx context.Context) error {
	src, err := surface.Source()
	if err != nil {
		return err
	}

	chromedp.ListenTarget(b.ctx, func(ev interface{}) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != interop.CallbackFunctionName {
			return
		}
		if err := b.callbacks.Deliver([]byte(called.Payload)); err != nil && !errors.Is(err, interop.ErrClosed) {
			b.logger.Warn("Dropping callback.", zap.Error(err))
		}
	})

	var actions []chromedp.Action
	if b.persona != nil {
		actions = append(actions, emulation.Apply(*b.persona, b.logger))
	}

	var scriptID page.ScriptIdentifier
	actions = append(actions,
		runtime.AddBinding(interop.CallbackFunctionName),
		chromedp.ActionFunc(func(c context.Context) error {
			var err error
			scriptID, err = page.AddScriptToEvaluateOnNewDocument(src).Do(c)
			return err
		}),
		chromedp.Evaluate(src, nil),
	)
	if err := b.run(ctx, actions...); err != nil {
		return fmt.Errorf("cdp: installing surface: %w", err)
	}
	b.logger.Debug("Installed surface.", zap.String("script_id", string(scriptID)))
	return nil
}

// run executes actions on the tab, bounded by both the tab and ctx.
func (b *Bridge) run(ctx context.Context, actions ...chromedp.Action) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return interop.ErrClosed
	}

	runCtx, cancel := combineContext(b.ctx, ctx)
	defer cancel()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Mode implements interop.Bridge.
func (b *Bridge) Mode() interop.Mode { return interop.ModeCDP }

// Callbacks implements interop.Invoker.
func (b *Bridge) Callbacks() *interop.CallbackTable { return b.callbacks }

// Invoke implements interop.Invoker.
func (b *Bridge) Invoke(ctx context.Context, identifier string, args ...any) (json.RawMessage, error) {
	argsJSON, err := interop.EncodeArgs(args)
	if err != nil {
		return nil, err
	}

	var payload string
	err = b.run(ctx, chromedp.Evaluate(surface.InvokeExpression(identifier, argsJSON), &payload, awaitPromise))
	if err != nil {
		return nil, fmt.Errorf("cdp: evaluating %s: %w", identifier, err)
	}
	return interop.DecodeEnvelope(identifier, []byte(payload))
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// Navigate implements interop.Bridge. The surface is re-installed in the new document
// by the new-document script, with a new realm.
func (b *Bridge) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("cdp: navigating to %s: %w", url, err)
	}
	return b.RunDocumentHooks(ctx)
}

// Eval evaluates script in the page and decodes its (awaited) result into res, which
// may be nil.
func (b *Bridge) Eval(ctx context.Context, script string, res interface{}) error {
	return b.run(ctx, chromedp.Evaluate(script, res, awaitPromise))
}

// Close implements interop.Bridge. It closes the tab and, for launched browsers, waits
// for the browser process to exit.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, b.shutdown)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(b.ctx) }()

	var err error
	select {
	case err = <-done:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	case <-shutdownCtx.Done():
		b.logger.Warn("Browser shutdown timed out, proceeding forcefully.", zap.Duration("timeout", b.shutdown))
	}

	b.cancelAll()
	b.callbacks.Close()
	b.logger.Info("CDP bridge closed.")
	return err
}
