package service

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/webbind/internal/config"
	"github.com/xkilldash9x/webbind/internal/observability"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

func TestMain(m *testing.M) {
	observability.InitializeLogger(config.NewDefaultConfig().Logger())
	exitCode := m.Run()
	observability.Sync()
	os.Exit(exitCode)
}

// MockBridge is a mock implementation of interop.Bridge.
type MockBridge struct {
	mock.Mock
}

var _ interop.Bridge = (*MockBridge)(nil)

func (m *MockBridge) Invoke(ctx context.Context, identifier string, args ...any) (json.RawMessage, error) {
	ret := m.Called(ctx, identifier, args)
	raw, _ := ret.Get(0).(json.RawMessage)
	return raw, ret.Error(1)
}

func (m *MockBridge) Callbacks() *interop.CallbackTable {
	ret := m.Called()
	table, _ := ret.Get(0).(*interop.CallbackTable)
	return table
}

func (m *MockBridge) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBridge) Mode() interop.Mode {
	return m.Called().Get(0).(interop.Mode)
}

func (m *MockBridge) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
