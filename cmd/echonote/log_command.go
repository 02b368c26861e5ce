package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"echonote/internal/logs"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var filter string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the tail of the pipeline log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var output []string
			if substring := strings.TrimSpace(filter); substring != "" {
				output, err = logs.Grep(cfg.LogFilePath(), substring)
			} else {
				output, err = logs.Tail(cfg.LogFilePath(), lines)
			}
			if err != nil {
				return err
			}
			if len(output) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Log is empty.")
				return nil
			}
			for _, line := range output {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of log lines to show")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show lines containing this substring")
	return cmd
}
