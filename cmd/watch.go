package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/webbind/internal/observability"
	"github.com/xkilldash9x/webbind/internal/service"
	"github.com/xkilldash9x/webbind/pkg/events"
	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/webapi"
)

// eventTarget is the subscription surface shared by Window and Document.
type eventTarget interface {
	Subscribe(ctx context.Context, eventName string, fn events.Handler) (*webapi.Subscription, error)
	EventNames() []string
}

// valueEvaluator and resultEvaluator cover the two Eval shapes the strategies expose.
type valueEvaluator interface {
	Eval(ctx context.Context, script string) (interface{}, error)
}

type resultEvaluator interface {
	Eval(ctx context.Context, script string, res interface{}) error
}

// watchRecord is one line of watch output.
type watchRecord struct {
	Target  string          `json:"target"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type watchOptions struct {
	url      string
	script   string
	duration time.Duration
	logRate  float64
}

func newWatchCmd(factory service.ComponentFactory) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <window|document> <event> [event...]",
		Short: "Subscribe to window or document events and print each occurrence as a JSON line",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			comps, err := startComponents(ctx, factory, opts.url)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			return runWatch(ctx, cmd.OutOrStdout(), comps, args[0], args[1:], opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "", "navigate here before subscribing")
	flags.StringVar(&opts.script, "script", "", "evaluate this script in the page once subscribed")
	flags.DurationVar(&opts.duration, "duration", 0, "stop after this long (0 waits for interrupt)")
	flags.Float64Var(&opts.logRate, "log-rate", 5, "maximum event log lines per second; output lines are never dropped")
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, comps *service.Components, targetName string, names []string, opts watchOptions) error {
	logger := observability.GetLogger().Named("watch")

	target, err := resolveTarget(comps.Globals, targetName)
	if err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Limit(opts.logRate), 1)
	var suppressed int
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)

	// Callbacks arrive on a single delivery goroutine, so the handler needs no locking.
	handler := func(event string, payload json.RawMessage) error {
		if err := enc.Encode(watchRecord{Target: targetName, Event: event, Payload: payload}); err != nil {
			return err
		}
		if limiter.Allow() {
			logger.Info("Event received.", zap.String("target", targetName), zap.String("event", event), zap.Int("suppressed", suppressed))
			suppressed = 0
		} else {
			suppressed++
		}
		return nil
	}

	subs := make([]*webapi.Subscription, 0, len(names))
	defer func() {
		// The bridge may already be gone when ctx was cancelled; Shutdown covers that case.
		unsubCtx, cancel := comps.WithCallTimeout(context.WithoutCancel(ctx))
		defer cancel()
		for _, sub := range subs {
			if err := sub.Unsubscribe(unsubCtx); err != nil {
				logger.Debug("Unsubscribe failed.", zap.String("event", sub.Event()), zap.Error(err))
			}
		}
	}()

	subCtx, cancel := comps.WithCallTimeout(ctx)
	for _, name := range names {
		sub, err := target.Subscribe(subCtx, name, handler)
		if err != nil {
			cancel()
			var unknown *webapi.UnknownEventError
			if errors.As(err, &unknown) {
				return fmt.Errorf("%w (known events: %s)", err, eventList(target))
			}
			return fmt.Errorf("subscribing to %s %q: %w", targetName, name, err)
		}
		subs = append(subs, sub)
	}
	cancel()
	logger.Info("Watching.", zap.String("target", targetName), zap.Strings("events", names))

	if opts.script != "" {
		evalCtx, cancel := comps.WithCallTimeout(ctx)
		err := evaluate(evalCtx, comps.Bridge, opts.script)
		cancel()
		if err != nil {
			return err
		}
	}

	waitCtx := ctx
	if opts.duration > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	<-waitCtx.Done()
	return nil
}

func resolveTarget(g *webapi.Globals, name string) (eventTarget, error) {
	switch strings.ToLower(name) {
	case "window":
		return g.Window, nil
	case "document":
		return g.Document, nil
	default:
		return nil, fmt.Errorf("unknown event target %q (want window or document)", name)
	}
}

func evaluate(ctx context.Context, bridge interop.Bridge, script string) error {
	switch b := bridge.(type) {
	case valueEvaluator:
		_, err := b.Eval(ctx, script)
		return err
	case resultEvaluator:
		return b.Eval(ctx, script, nil)
	default:
		return fmt.Errorf("bridge mode %s cannot evaluate scripts", bridge.Mode())
	}
}

func eventList(t eventTarget) string {
	return strings.Join(t.EventNames(), ", ")
}
