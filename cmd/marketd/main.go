// Command marketd serves the marketplace chat API from a local SQLite
// database for development.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/bookchat/internal/config"
	"github.com/matheus3301/bookchat/internal/daemon"
	"github.com/matheus3301/bookchat/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		listen  string
		dataDir string
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:          "marketd",
		Short:        "Development backend for the marketplace chat API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadEffective(session.ConfigPath(), session.DotEnvPath())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("listen") {
				listen = cfg.Market.Listen
			}
			if !cmd.Flags().Changed("data-dir") {
				dataDir = cfg.Market.DataDir
			}

			app := fx.New(
				daemon.Module(daemon.Params{
					DataDir: session.MarketDir(dataDir),
					Addr:    listen,
					Console: !quiet,
				}),
				fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: l.Named("fx")}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&listen, "listen", config.DefaultListen, "HTTP listen address")
	f.StringVar(&dataDir, "data-dir", "", "data directory (default ~/.bookchat/market)")
	f.BoolVar(&quiet, "quiet", false, "log only to the log file")
	return cmd
}
