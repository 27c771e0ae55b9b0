// Package cli implements the filing-agent command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	var homeOverride string

	cmd := &cobra.Command{
		Use:          "filing-agent",
		Short:        "Securities-report analysis agent (A2A JSON-RPC server)",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(homeOverride)
			if err != nil {
				return err
			}
			cmd.SetContext(config.WithHome(cmd.Context(), home))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Override agent home directory (default: ~/.sakamomo-agents, env: AGENTS_HOME)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCardCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newApikeyCmd())
	cmd.AddCommand(newDoctorCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
