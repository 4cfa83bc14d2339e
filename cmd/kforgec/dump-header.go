package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kforge/kforge/emit"
)

func newDumpHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-header <file.kmod>",
		Short: "Print the descriptor-set header of a .kmod file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			raw, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %q", path)
			}

			sets, consumed, err := emit.DecodeHeader(raw)
			if err != nil {
				return errors.Wrapf(err, "decoding header of %q", path)
			}

			cmd.Printf("%d entry point(s), header %d bytes, %d bytes of SPIR-V body\n",
				len(sets), consumed, len(raw)-consumed)
			for i, ds := range sets {
				cmd.Printf("  [%d] %-24s uniform=%d storage=%d\n",
					i, ds.EntryPointName, ds.UniformBufferCount, ds.StorageBufferCount)
			}
			return nil
		},
	}
}
