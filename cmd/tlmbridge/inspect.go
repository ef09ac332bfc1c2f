package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tlmbridge/datarecording"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <trace.sqlite3>",
		Short: "List the tables of a trace database and their row counts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			tables, err := reader.ListTables()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			for _, t := range tables {
				n, err := reader.Count(t)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s\t%d\n", t, n)
			}

			return nil
		},
	}
}
