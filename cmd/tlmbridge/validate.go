package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tlmbridge/config"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a platform description without running it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: %d channels, %d sockets, %d cores, %d bus targets\n",
				cfg.Name, cfg.Channels, cfg.NumSockets(),
				len(cfg.Cores), len(cfg.BusTargets))

			return nil
		},
	}
}

func newDefaultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the default platform description as YAML.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Default().Marshal()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}
