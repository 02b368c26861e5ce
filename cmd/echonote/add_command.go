package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"echonote/internal/artifacts"
	"echonote/internal/config"
	"echonote/internal/notes"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <namespace> <audio-file>...",
		Short: "Copy audio files into a namespace's raw-input directory",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := strings.TrimSpace(args[0])
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				store := artifacts.NewStore(cfg.Paths.DataDir, logger)
				for _, source := range args[1:] {
					expanded, err := config.ExpandPath(source)
					if err != nil {
						return err
					}
					dest, err := store.ImportSegment(namespace, expanded)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", dest)
				}
				return nil
			})
		},
	}
}
