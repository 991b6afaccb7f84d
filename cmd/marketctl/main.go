// Command marketctl is a scriptable client for the marketplace chat API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	profile string
	apiURL  string
	as      string
	json    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "marketctl",
		Short:        "Inspect and drive marketplace chats from the shell",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.profile, "profile", "", "profile name (overrides config default)")
	pf.StringVar(&g.apiURL, "api-url", "", "marketplace API base URL")
	pf.StringVar(&g.as, "as", "", "act as this username instead of the profile's")
	pf.BoolVar(&g.json, "json", false, "output in JSON format")

	root.AddCommand(
		newContactsCmd(g),
		newHistoryCmd(g),
		newSendCmd(g),
		newProfileCmd(g),
	)
	return root
}
