package cmd

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/internal/service"
	"github.com/xkilldash9x/webbind/pkg/webapi"
)

// inspectConcurrency caps the calls in flight against one page.
const inspectConcurrency = 4

// Snapshot is the page state printed by inspect.
type Snapshot struct {
	URL             string                     `json:"url"`
	Title           string                     `json:"title"`
	ReadyState      schemas.DocumentReadyState `json:"readyState"`
	VisibilityState schemas.VisibilityState    `json:"visibilityState"`
	CharacterSet    string                     `json:"characterSet"`
	ContentType     string                     `json:"contentType"`
	Referrer        string                     `json:"referrer"`
	Origin          string                     `json:"origin"`
	InnerWidth      float64                    `json:"innerWidth"`
	InnerHeight     float64                    `json:"innerHeight"`
	HistoryLength   int                        `json:"historyLength"`
	UserAgent       string                     `json:"userAgent"`
	Languages       []string                   `json:"languages"`
	OnLine          bool                       `json:"onLine"`
	LocalStorage    int                        `json:"localStorageLength"`
	SessionStorage  int                        `json:"sessionStorageLength"`
}

func newInspectCmd(factory service.ComponentFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [url]",
		Short: "Print a snapshot of document, window, history, navigator and storage state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var url string
			if len(args) == 1 {
				url = args[0]
			}

			comps, err := startComponents(ctx, factory, url)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			callCtx, cancel := comps.WithCallTimeout(ctx)
			defer cancel()
			snap, err := takeSnapshot(callCtx, comps.Globals)
			if err != nil {
				return err
			}

			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// takeSnapshot reads every Snapshot field concurrently. The first failure cancels the
// remaining calls.
func takeSnapshot(ctx context.Context, g *webapi.Globals) (*Snapshot, error) {
	var s Snapshot
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(inspectConcurrency)

	read := func(name string, fn func() error) {
		eg.Go(func() error {
			if err := fn(); err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			return nil
		})
	}

	read("document.URL", func() (err error) { s.URL, err = g.Document.URL(ctx); return })
	read("document.title", func() (err error) { s.Title, err = g.Document.Title(ctx); return })
	read("document.readyState", func() (err error) { s.ReadyState, err = g.Document.ReadyState(ctx); return })
	read("document.visibilityState", func() (err error) { s.VisibilityState, err = g.Document.VisibilityState(ctx); return })
	read("document.characterSet", func() (err error) { s.CharacterSet, err = g.Document.CharacterSet(ctx); return })
	read("document.contentType", func() (err error) { s.ContentType, err = g.Document.ContentType(ctx); return })
	read("document.referrer", func() (err error) { s.Referrer, err = g.Document.Referrer(ctx); return })
	read("window.origin", func() (err error) { s.Origin, err = g.Window.Origin(ctx); return })
	read("window.innerWidth", func() (err error) { s.InnerWidth, err = g.Window.InnerWidth(ctx); return })
	read("window.innerHeight", func() (err error) { s.InnerHeight, err = g.Window.InnerHeight(ctx); return })
	read("history.length", func() (err error) { s.HistoryLength, err = g.History.Length(ctx); return })
	read("navigator.userAgent", func() (err error) { s.UserAgent, err = g.Navigator.UserAgent(ctx); return })
	read("navigator.languages", func() (err error) { s.Languages, err = g.Navigator.Languages(ctx); return })
	read("navigator.onLine", func() (err error) { s.OnLine, err = g.Navigator.OnLine(ctx); return })
	read("localStorage.length", func() (err error) { s.LocalStorage, err = g.LocalStorage.Length(ctx); return })
	read("sessionStorage.length", func() (err error) { s.SessionStorage, err = g.SessionStorage.Length(ctx); return })

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
