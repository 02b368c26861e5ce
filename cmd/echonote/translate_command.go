package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"echonote/internal/config"
	"echonote/internal/notes"
	"echonote/internal/services/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var collect bool

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text and optionally collect it into the vocabulary table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				client := translate.NewClient(translate.Config{
					APIKey:     cfg.Translate.APIKey,
					BaseURL:    cfg.Translate.BaseURL,
					SourceLang: cfg.Translate.SourceLang,
					TargetLang: cfg.Translate.TargetLang,
				})
				translated, err := client.Translate(cmd.Context(), text)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), translated)

				if collect {
					if _, err := registry.RecordWord(cmd.Context(), text, translated); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Collected %q into vocabulary\n", text)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&collect, "collect", false, "Record the text in the vocabulary table")
	return cmd
}

func newVocabCommand(ctx *commandContext) *cobra.Command {
	vocabCmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect collected vocabulary",
	}

	vocabCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List collected words by frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(func(cfg *config.Config, registry *notes.Registry) error {
				listed, err := registry.ListWords(cmd.Context())
				if err != nil {
					return err
				}
				if len(listed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No vocabulary collected yet.")
					return nil
				}
				rows := make([][]string, 0, len(listed))
				for _, entry := range listed {
					example := entry.ExTexts
					if idx := strings.IndexByte(example, '\n'); idx >= 0 {
						example = example[:idx]
					}
					rows = append(rows, []string{
						entry.Word,
						fmt.Sprintf("%d", entry.Frequency),
						example,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Word", "Count", "Example"}, rows))
				return nil
			})
		},
	})

	return vocabCmd
}
