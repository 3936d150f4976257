package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/webapi"
)

func TestComponents_WithCallTimeout(t *testing.T) {
	t.Run("Bounded", func(t *testing.T) {
		c := &Components{CallTimeout: time.Minute}
		ctx, cancel := c.WithCallTimeout(context.Background())
		defer cancel()
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("Unbounded", func(t *testing.T) {
		c := &Components{}
		ctx, cancel := c.WithCallTimeout(context.Background())
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		cancel()
		assert.Error(t, ctx.Err())
	})
}

func TestComponents_Shutdown(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("ClosesBridge", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		bridge := new(MockBridge)
		bridge.On("Close", mock.Anything).Return(nil).Once()
		bridge.On("Mode").Return(interop.ModeCDP)

		c := &Components{Bridge: bridge, Globals: webapi.Bind(bridge, logger), logger: logger}
		c.Shutdown()

		bridge.AssertExpectations(t)
	})

	t.Run("CloseErrorIsLogged", func(t *testing.T) {
		bridge := new(MockBridge)
		bridge.On("Close", mock.Anything).Return(errors.New("browser gone")).Once()

		c := &Components{Bridge: bridge, logger: logger}
		assert.NotPanics(t, c.Shutdown)
		bridge.AssertExpectations(t)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.NotPanics(t, (&Components{}).Shutdown)
	})
}
