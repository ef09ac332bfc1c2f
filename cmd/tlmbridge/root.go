package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/tlmbridge/config"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tlmbridge",
		Short: "Simulate a timing-protocol to TLM bridge.",
		Long: `tlmbridge connects a synthetic request source to TLM routers ` +
			`through a four-phase handshake adapter and runs the simulation ` +
			`until every request completes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile == "" {
				return config.LoadDotEnv()
			}

			return config.LoadDotEnv(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"YAML platform description (defaults are used when empty)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "",
		"file with "+config.EnvPrefix+" variables (defaults to .env)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newDefaultsCommand())
	cmd.AddCommand(newInspectCommand())

	return cmd
}
