package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/example/pages"
)

func newRenderCommand(cc *cliContext) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render one path of the demo and print the page with its injected script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, cc, args[0], title, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&title, "title", "hxpage", "Page title")
	return cmd
}

func runRender(cmd *cobra.Command, cc *cliContext, path, title string, w io.Writer) error {
	history, err := hxpage.NewMemoryHistory("http://localhost" + path)
	if err != nil {
		return err
	}
	doc := hxpage.NewMemoryDocument()

	opts, err := appOptions(cc.cfg.App, cc.logger)
	if err != nil {
		return err
	}
	opts = append(opts, hxpage.WithDocument(doc), hxpage.WithHistory(history))

	app, err := hxpage.New(pages.Build, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Render(ctx); err != nil {
		return err
	}
	if err := app.Flush(); err != nil {
		return err
	}
	if doc.Region() == "" {
		cc.logger.Warn().Str("path", path).Strs("known", app.Router().Paths()).Msg("No components registered for path")
	}

	if err := doc.Page(hxpage.PageOptions{Title: title, DispatchPath: cc.cfg.Server.DispatchPath}).Render(ctx, w); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
