package cmd

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webbind/internal/observability"
	"github.com/xkilldash9x/webbind/internal/service"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

func newCallCmd(factory service.ComponentFactory) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "call <Namespace.operation> [args...]",
		Short: "Invoke one surface function and print its JSON result",
		Long: `Invoke one surface function, e.g. "DocumentAPI.getTitle" or
"HistoryAPI.pushState '{\"x\":1}' title /a". Each argument is decoded as JSON
when it parses and passed as a string otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identifier := args[0]
			callArgs := parseCallArgs(args[1:])

			comps, err := startComponents(ctx, factory, url)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			callCtx, cancel := comps.WithCallTimeout(ctx)
			defer cancel()
			raw, err := comps.Bridge.Invoke(callCtx, identifier, callArgs...)
			if err != nil {
				var se *interop.ScriptError
				if errors.As(err, &se) {
					observability.GetLogger().Debug("Script side threw.", zap.String("identifier", identifier), zap.String("name", se.Name))
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "navigate here before the call")
	return cmd
}

// parseCallArgs decodes each argument as JSON, falling back to the raw string.
func parseCallArgs(args []string) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		var v any
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(arg, &v); err == nil {
			out[i] = v
		} else {
			out[i] = arg
		}
	}
	return out
}
