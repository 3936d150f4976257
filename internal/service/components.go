// File: internal/service/components.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/webapi"
)

const shutdownTimeout = 30 * time.Second

// Components holds a launched bridge and the globals bound to it.
type Components struct {
	Bridge  interop.Bridge
	Globals *webapi.Globals
	// CallTimeout bounds each call issued through WithCallTimeout. Zero disables it.
	CallTimeout time.Duration

	logger *zap.Logger
}

// WithCallTimeout derives the context for one call.
func (c *Components) WithCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.CallTimeout)
}

// Shutdown removes every native listener the globals installed and then closes the
// bridge. It uses its own timeout so it completes after the command context is gone.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Beginning components shutdown sequence.")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// 1. Unsubscribe while the bridge can still reach the page.
	if c.Globals != nil {
		if err := c.Globals.Close(ctx); err != nil {
			logger.Warn("Error while releasing event subscriptions.", zap.Error(err))
		}
	}

	// 2. Close the bridge.
	if c.Bridge != nil {
		if err := c.Bridge.Close(ctx); err != nil {
			logger.Warn("Error during bridge shutdown.", zap.Error(err))
		} else {
			logger.Debug("Bridge closed.", zap.String("mode", string(c.Bridge.Mode())))
		}
	}
}
