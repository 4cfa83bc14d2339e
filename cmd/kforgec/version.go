package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const kforgecVersion = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kforgec version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "kforgec version", kforgecVersion)
			return nil
		},
	}
}
