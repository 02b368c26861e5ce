package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"echonote/internal/artifacts"
	"echonote/internal/config"
	"echonote/internal/logging"
	"echonote/internal/notes"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which stage artifacts exist per note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				listed, err := registry.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(listed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notes yet.")
					return nil
				}

				store := artifacts.NewStore(cfg.Paths.DataDir, logging.NewNop())
				rows := make([][]string, 0, len(listed))
				for _, note := range listed {
					segments, _ := store.ListSegments(note.Title)
					rows = append(rows, []string{
						note.Title,
						fmt.Sprintf("%d", len(segments)),
						stageMark(store.HasArtifact(artifacts.StageTranscribed, note.Title, artifacts.IntegratedName)),
						stageMark(store.HasArtifact(artifacts.StageRevised, note.Title, artifacts.IntegratedName)),
						stageMark(store.HasArtifact(artifacts.StageSummarized, note.Title, artifacts.IntegratedName)),
						stageMark(store.HasArtifact(artifacts.StageSearched, note.Title, artifacts.SearchResultsName)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Namespace", "Segments", "Transcribed", "Revised", "Summarized", "Searched"}, rows))
				return nil
			})
		},
	}
}

func stageMark(done bool) string {
	if done {
		return "yes"
	}
	return "-"
}
