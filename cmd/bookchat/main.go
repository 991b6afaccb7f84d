// Command bookchat is the terminal chat widget of the used-book marketplace.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matheus3301/bookchat/internal/bus"
	"github.com/matheus3301/bookchat/internal/chat"
	"github.com/matheus3301/bookchat/internal/config"
	"github.com/matheus3301/bookchat/internal/logging"
	"github.com/matheus3301/bookchat/internal/market"
	"github.com/matheus3301/bookchat/internal/session"
	"github.com/matheus3301/bookchat/internal/tui"
)

type options struct {
	profile string
	apiURL  string
	user    string
	contact string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "bookchat",
		Short:        "Chat with buyers and sellers of used books",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.profile, "profile", "", "profile name (overrides config default)")
	f.StringVar(&opts.apiURL, "api-url", "", "marketplace API base URL")
	f.StringVar(&opts.user, "user", "", "sign in as this username instead of the profile's")
	f.StringVar(&opts.contact, "contact", "", "open a conversation with this seller on start")
	return cmd
}

func run(opts options) error {
	cfg, err := config.LoadEffective(session.ConfigPath(), session.DotEnvPath())
	if err != nil {
		return err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}

	profile := session.Resolve(opts.profile, cfg)
	if err := session.ValidateName(profile); err != nil {
		return err
	}
	if err := session.EnsureDir(profile); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	logger, err := logging.New(session.LogPath(profile), profile, false)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	p, _ := cfg.Profile(profile)
	if opts.user != "" {
		p = config.Profile{UserID: opts.user, Username: opts.user}
	}
	accounts := session.NewProvider(p)

	client, err := market.New(market.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout()}, logger.Named("market"))
	if err != nil {
		return err
	}

	b := bus.New()
	chatSession := chat.NewSession(market.ChatAPI{Client: client}, accounts, b, logger.Named("chat"))
	defer chatSession.Close()
	accounts.OnSignOut(chatSession.Reset)

	if opts.contact != "" {
		if u, ok := accounts.CurrentUser(); ok {
			chatSession.NotifyExternalContact(opts.contact, u)
		}
	}

	logger.Info("bookchat starting",
		zap.String("api_url", cfg.APIURL),
		zap.String("user", p.Username))

	app := tui.NewApp(tui.Options{
		Profile:        profile,
		Session:        chatSession,
		Accounts:       accounts,
		Bus:            b,
		Logger:         logger.Named("tui"),
		RequestTimeout: cfg.Timeout(),
	})
	if err := app.Run(); err != nil {
		return err
	}
	logger.Info("bookchat exited", zap.Int64("bus_dropped", b.Dropped()))
	return nil
}
