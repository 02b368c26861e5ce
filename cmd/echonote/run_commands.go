package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"echonote/internal/artifacts"
	"echonote/internal/config"
	"echonote/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run pipeline stages for a namespace",
	}

	runCmd.AddCommand(newRunStageCommand(ctx, "transcribe", artifacts.StageTranscribed,
		"Transcribe raw segments and build the integrated transcript"))
	runCmd.AddCommand(newRunStageCommand(ctx, "revise", artifacts.StageRevised,
		"Revise the integrated transcript"))
	runCmd.AddCommand(newRunStageCommand(ctx, "summarize", artifacts.StageSummarized,
		"Summarize the revised text"))
	runCmd.AddCommand(newRunStageCommand(ctx, "analyze", artifacts.StageSearched,
		"Extract keywords from the summary and look them up"))
	runCmd.AddCommand(newRunAllCommand(ctx))

	return runCmd
}

func newRunStageCommand(ctx *commandContext, name string, stage artifacts.Stage, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <namespace>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := strings.TrimSpace(args[0])
			return ctx.withPipeline(func(cfg *config.Config, coordinator *pipeline.Coordinator) error {
				if err := coordinator.RunStage(cmd.Context(), stage, namespace); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stage %s completed for namespace %s\n", stage, namespace)
				return nil
			})
		},
	}
}

func newRunAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "all <namespace>",
		Short: "Run the full stage sequence, stopping at the first failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := strings.TrimSpace(args[0])
			return ctx.withPipeline(func(cfg *config.Config, coordinator *pipeline.Coordinator) error {
				if err := coordinator.RunAll(cmd.Context(), namespace); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "All stages completed for namespace %s\n", namespace)
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <namespace>",
		Short: "Delete the namespace's raw segments for a fresh session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := strings.TrimSpace(args[0])
			return ctx.withPipeline(func(cfg *config.Config, coordinator *pipeline.Coordinator) error {
				if err := coordinator.Reset(cmd.Context(), namespace); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Namespace %s reset\n", namespace)
				return nil
			})
		},
	}
}
