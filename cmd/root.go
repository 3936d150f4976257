// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/internal/config"
	"github.com/xkilldash9x/webbind/internal/observability"
	"github.com/xkilldash9x/webbind/internal/service"
)

type contextKey string

const configKey contextKey = "config"

// Execute builds the command tree and runs it with ctx, which should be cancelled on
// SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	return newRootCmd(service.NewComponentFactory()).ExecuteContext(ctx)
}

// newRootCmd assembles the root command. factory is injected so tests can run the
// subcommands without a browser.
func newRootCmd(factory service.ComponentFactory) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "webbind",
		Short:         "webbind drives browser DOM and BOM APIs through a typed call bridge.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			// 1. Load file, environment and flags, in increasing precedence.
			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Decode and validate.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 3. Logger.
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting webbind", zap.String("version", Version), zap.String("mode", cfg.Bridge().Mode))

			// 4. Hand the config to subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./webbind.yaml or ~/.webbind/webbind.yaml)")
	flags.String("mode", "", "bridge mode: inprocess, cdp or playwright")
	flags.Duration("timeout", 0, "per-call timeout (0 keeps the configured bridge.call_timeout)")
	flags.Bool("headed", false, "show the browser window (cdp and playwright modes)")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newInspectCmd(factory))
	cmd.AddCommand(newCallCmd(factory))
	cmd.AddCommand(newWatchCmd(factory))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// initializeConfig reads the config file and binds WEBBIND_* variables and flags.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	path, err := config.ResolvePath(cfgFile)
	if err != nil {
		return err
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("webbind")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := config.ResolvePath("~/.webbind"); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	config.BindEnv(v)

	flags := cmd.Flags()
	if f := flags.Lookup("mode"); f != nil && f.Changed {
		v.Set("bridge.mode", f.Value.String())
	}
	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		v.Set("bridge.call_timeout", f.Value.String())
	}
	if f := flags.Lookup("headed"); f != nil && f.Changed {
		headed, _ := flags.GetBool("headed")
		v.Set("browser.headless", !headed)
	}
	return nil
}

// getConfigFromContext returns the config stored by the root PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not found in context")
	}
	return cfg, nil
}

// startComponents launches the configured bridge and, when url is set, navigates to it.
func startComponents(ctx context.Context, factory service.ComponentFactory, url string) (*service.Components, error) {
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	logger := observability.GetLogger()

	comps, err := factory.Create(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return comps, nil
	}

	navCtx, cancel := comps.WithCallTimeout(ctx)
	defer cancel()
	if err := comps.Bridge.Navigate(navCtx, url); err != nil {
		comps.Shutdown()
		return nil, err
	}
	logger.Info("Navigated.", zap.String("url", url))
	return comps, nil
}
