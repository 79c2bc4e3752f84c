package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/version"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
				return err
			}
			output, err := FormatResponse(version.Current(), OutputFormat(opts.format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
