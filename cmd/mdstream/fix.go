package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riverfjs/mdstream"
)

func newFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix [file]",
		Short: "Print a partial markdown document completed for display",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), mdstream.Fix(text, nil))
			return err
		},
	}
}
