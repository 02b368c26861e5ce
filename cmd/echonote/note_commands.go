package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"echonote/internal/config"
	"echonote/internal/notes"
)

func newNoteCommand(ctx *commandContext) *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Manage registry notes",
	}

	noteCmd.AddCommand(newNoteCreateCommand(ctx))
	noteCmd.AddCommand(newNoteListCommand(ctx))
	noteCmd.AddCommand(newNoteShowCommand(ctx))
	noteCmd.AddCommand(newNoteDeleteCommand(ctx))

	return noteCmd
}

func newNoteCreateCommand(ctx *commandContext) *cobra.Command {
	var notePath string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				target := strings.TrimSpace(notePath)
				if target == "" {
					target = title + ".md"
				}
				note, err := registry.Create(cmd.Context(), title, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created note %q (path %s)\n", note.Title, note.NotePath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notePath, "path", "", "Note file path (defaults to <title>.md)")
	return cmd
}

func newNoteListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all notes",
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
				rows := make([][]string, 0, len(listed))
				for _, note := range listed {
					rows = append(rows, []string{
						note.Title,
						note.NotePath,
						note.CreatedAt.Local().Format("2006-01-02 15:04"),
						note.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Title", "Path", "Created", "Updated"}, rows))
				return nil
			})
		},
	}
}

func newNoteShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <title>",
		Short: "Show the latest stage snapshots of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				note, err := registry.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Title:   %s\n", note.Title)
				fmt.Fprintf(out, "Path:    %s\n", note.NotePath)
				fmt.Fprintf(out, "Created: %s\n", note.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Updated: %s\n", note.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				printSnapshot(out, "Transcribed", note.TranscribedText)
				printSnapshot(out, "Revised", note.RevisedText)
				printSnapshot(out, "Summarized", note.SummarizedText)
				printSnapshot(out, "Search info", note.SearchedInfo)
				return nil
			})
		},
	}
}

func printSnapshot(out io.Writer, label, value string) {
	fmt.Fprintf(out, "\n%s:\n", label)
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	for _, line := range strings.Split(value, "\n") {
		fmt.Fprintf(out, "  %s\n", line)
	}
}

func newNoteDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <title>",
		Short: "Delete a note (artifact files are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				title := strings.TrimSpace(args[0])
				if err := registry.Delete(cmd.Context(), title); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %q\n", title)
				return nil
			})
		},
	}
}
