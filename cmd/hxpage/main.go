// Command hxpage serves and renders the demo page tree.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/internal/config"
	"github.com/pthm/hxpage/internal/logging"
)

const cliExecutable = "hxpage"

// Set by the linker.
var (
	version   = "dev"
	buildDate = "unknown"
)

type cliContext struct {
	configFile string
	cfg        config.Config
	logger     zerolog.Logger
}

func newRootCommand() *cobra.Command {
	cc := &cliContext{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "hxpage renders component trees and re-binds their event handlers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), cc.configFile)
			if err != nil {
				return err
			}
			cc.cfg = cfg
			cc.logger = logging.Configure(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}
	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&cc.configFile, "config", "c", "", "Configuration file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCommand(cc))
	cmd.AddCommand(newRenderCommand(cc))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// appOptions maps the configuration onto application options.
func appOptions(cfg config.AppConfig, logger zerolog.Logger) ([]hxpage.Option, error) {
	mode, err := hxpage.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	busOpts := []hxpage.BusOption{hxpage.WithMaxDepth(cfg.MaxPublishDepth)}
	if cfg.IsolateSubscribers {
		busOpts = append(busOpts, hxpage.WithRecover())
	}
	emOpts := []hxpage.EventManagerOption{
		hxpage.WithListenerMode(mode),
	}
	if cfg.ValidateScripts {
		emOpts = append(emOpts, hxpage.WithScriptValidation())
	}
	if cfg.SealedTokens {
		emOpts = append(emOpts, hxpage.WithSealedTokens())
	}

	return []hxpage.Option{
		hxpage.WithLogger(logger),
		hxpage.WithRefreshDelay(cfg.RefreshDelay),
		hxpage.WithIdentifierLength(cfg.IDLength),
		hxpage.WithBusOptions(busOpts...),
		hxpage.WithEventOptions(emOpts...),
	}, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of hxpage",
		// Config is not needed to print a version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", cliExecutable, version, buildDate)
			return err
		},
	}
}

func main() {
	start := time.Now()
	if err := newRootCommand().Execute(); err != nil {
		log.Debug().Dur("elapsed", time.Since(start)).Msg("Command failed")
		os.Exit(1)
	}
}
