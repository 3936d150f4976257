// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/config"
	"github.com/xkilldash9x/webbind/pkg/interop"
	"github.com/xkilldash9x/webbind/pkg/interop/cdp"
	"github.com/xkilldash9x/webbind/pkg/interop/inproc"
	"github.com/xkilldash9x/webbind/pkg/interop/pw"
	"github.com/xkilldash9x/webbind/pkg/webapi"
)

// ComponentFactory creates the bridge and bound globals a command works against.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

// launcher starts one strategy. Tests swap these out.
type launcher func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (interop.Bridge, error)

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct {
	launchers map[interop.Mode]launcher
}

// NewComponentFactory creates a factory that launches the strategy named by
// bridge.mode.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{
		launchers: map[interop.Mode]launcher{
			interop.ModeInProcess:  launchInProcess,
			interop.ModeCDP:        launchCDP,
			interop.ModePlaywright: launchPlaywright,
		},
	}
}

// Create launches the configured bridge and binds the globals to it.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	mode, err := interop.ParseMode(cfg.Bridge().Mode)
	if err != nil {
		return nil, err
	}
	launch, ok := f.launchers[mode]
	if !ok {
		return nil, fmt.Errorf("no launcher registered for bridge mode %q", mode)
	}

	logger.Debug("Launching bridge.", zap.String("mode", string(mode)))
	bridge, err := launch(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s bridge: %w", mode, err)
	}

	return &Components{
		Bridge:      bridge,
		Globals:     webapi.Bind(bridge, logger),
		CallTimeout: cfg.Bridge().CallTimeout,
		logger:      logger,
	}, nil
}

func launchInProcess(_ context.Context, cfg config.Interface, logger *zap.Logger) (interop.Bridge, error) {
	return inproc.New(logger, InProcessOptions(cfg))
}

func launchCDP(ctx context.Context, cfg config.Interface, logger *zap.Logger) (interop.Bridge, error) {
	return cdp.Launch(ctx, logger, CDPOptions(cfg))
}

func launchPlaywright(ctx context.Context, cfg config.Interface, logger *zap.Logger) (interop.Bridge, error) {
	return pw.Launch(ctx, logger, PlaywrightOptions(cfg))
}

// InProcessOptions translates the inprocess section.
func InProcessOptions(cfg config.Interface) inproc.Options {
	ip := cfg.InProcess()
	return inproc.Options{
		URL:          ip.URL,
		Referrer:     ip.Referrer,
		Persona:      ip.Persona,
		Permissions:  ip.PermissionStates(),
		FetchTimeout: ip.FetchTimeout,
	}
}

// CDPOptions translates the browser section for the CDP strategy.
func CDPOptions(cfg config.Interface) cdp.Options {
	b := cfg.Browser()
	return cdp.Options{
		RemoteURL:       b.RemoteURL,
		ExecPath:        b.ExecPath,
		UserDataDir:     b.UserDataDir,
		Headless:        b.Headless,
		IgnoreTLSErrors: b.IgnoreTLSErrors,
		UserAgent:       b.UserAgent,
		Persona:         emulatedPersona(cfg),
		Args:            b.Args,
		StartupTimeout:  b.StartupTimeout,
		ShutdownTimeout: b.ShutdownTimeout,
	}
}

// PlaywrightOptions translates the browser section for the playwright strategy.
func PlaywrightOptions(cfg config.Interface) pw.Options {
	b := cfg.Browser()
	return pw.Options{
		Install:         b.Install,
		ExecPath:        b.ExecPath,
		Headless:        b.Headless,
		IgnoreTLSErrors: b.IgnoreTLSErrors,
		UserAgent:       b.UserAgent,
		Persona:         emulatedPersona(cfg),
		Args:            b.Args,
		LaunchTimeout:   b.StartupTimeout,
		Verbose:         b.Debug,
	}
}

// emulatedPersona returns the inprocess persona when the browser should report it.
func emulatedPersona(cfg config.Interface) *schemas.Persona {
	if !cfg.Browser().EmulatePersona {
		return nil
	}
	p := cfg.InProcess().Persona
	return &p
}
