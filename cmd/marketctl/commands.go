package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matheus3301/bookchat/internal/config"
	"github.com/matheus3301/bookchat/internal/market"
	"github.com/matheus3301/bookchat/internal/session"
)

// env is everything a subcommand needs after flag and config resolution.
type env struct {
	cfg     *config.Config
	profile string
	user    config.Profile
	client  *market.Client
}

func (g *globalFlags) load() (*env, error) {
	cfg, err := config.LoadEffective(session.ConfigPath(), session.DotEnvPath())
	if err != nil {
		return nil, err
	}
	if g.apiURL != "" {
		cfg.APIURL = g.apiURL
	}
	profile := session.Resolve(g.profile, cfg)
	if err := session.ValidateName(profile); err != nil {
		return nil, err
	}
	user, _ := cfg.Profile(profile)
	if g.as != "" {
		user = config.Profile{UserID: g.as, Username: g.as}
	}
	client, err := market.New(market.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout()}, nil)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, profile: profile, user: user, client: client}, nil
}

func (e *env) requireUser() (string, error) {
	if e.user.Username == "" {
		return "", fmt.Errorf("profile %q has no username; set one with `marketctl profile set` or pass --as", e.profile)
	}
	return e.user.Username, nil
}

func newContactsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List the users you have exchanged messages with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.load()
			if err != nil {
				return err
			}
			me, err := e.requireUser()
			if err != nil {
				return err
			}
			contacts, err := e.client.ListContacts(cmd.Context(), me)
			if err != nil {
				return err
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), contacts)
			}
			for _, c := range contacts {
				fmt.Fprintln(cmd.OutOrStdout(), c.Username)
			}
			return nil
		},
	}
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history <user>",
		Short: "Show the conversation with a user, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load()
			if err != nil {
				return err
			}
			me, err := e.requireUser()
			if err != nil {
				return err
			}
			msgs, err := e.client.GetHistory(cmd.Context(), me, args[0])
			if err != nil {
				return err
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), msgs)
			}
			return printHistory(cmd.OutOrStdout(), msgs, me)
		},
	}
}

func newSendCmd(g *globalFlags) *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "send <user> <message...>",
		Short: "Send a message to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load()
			if err != nil {
				return err
			}
			me, err := e.requireUser()
			if err != nil {
				return err
			}
			if args[0] == me {
				return errors.New("cannot send a message to yourself")
			}
			if clientID == "" {
				clientID = uuid.NewString()
			}
			stored, err := e.client.PostMessage(cmd.Context(), market.ChatMessage{
				ClientMsgID: clientID,
				SenderID:    me,
				ReceiverID:  args[0],
				Message:     strings.Join(args[1:], " "),
				Timestamp:   time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), stored)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent #%d to %s\n", stored.ID, stored.ReceiverID)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "client message id for idempotent retries (default: random)")
	return cmd
}

func newProfileCmd(g *globalFlags) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the active profile",
	}
	profile.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved profile and API settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.load()
			if err != nil {
				return err
			}
			view := struct {
				Profile  string `json:"profile"`
				UserID   string `json:"user_id"`
				Username string `json:"username"`
				APIURL   string `json:"api_url"`
				Timeout  string `json:"request_timeout"`
			}{e.profile, e.user.UserID, e.user.Username, e.cfg.APIURL, e.cfg.Timeout().String()}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "profile\t%s\n", view.Profile)
			fmt.Fprintf(w, "user\t%s (%s)\n", view.Username, view.UserID)
			fmt.Fprintf(w, "api_url\t%s\n", view.APIURL)
			fmt.Fprintf(w, "timeout\t%s\n", view.Timeout)
			return w.Flush()
		},
	})
	profile.AddCommand(&cobra.Command{
		Use:   "set <username> [user-id]",
		Short: "Store the username for the active profile in the config file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := session.ConfigPath()
			cfg, err := config.LoadOrDefault(path)
			if err != nil {
				return err
			}
			name := session.Resolve(g.profile, cfg)
			if err := session.ValidateName(name); err != nil {
				return err
			}
			p := config.Profile{Username: args[0], UserID: args[0]}
			if len(args) == 2 {
				p.UserID = args[1]
			}
			cfg.SetProfile(name, p)
			if cfg.DefaultProfile == "" {
				cfg.DefaultProfile = name
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %s now signs in as %s\n", name, p.Username)
			return nil
		},
	})
	return profile
}

func printHistory(w io.Writer, msgs []market.ChatMessage, me string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range msgs {
		who := m.SenderID
		if who == me {
			who = "you"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Timestamp.Local().Format(time.DateTime), who, m.Message)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
