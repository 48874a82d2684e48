package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"arivid/internal/logging"
	"arivid/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show job status, or list all jobs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			defer rt.Close()

			if len(args) == 1 {
				return printJob(cmd, rt, args[0])
			}
			return printJobList(cmd, rt)
		},
	}
}

func printJob(cmd *cobra.Command, rt *runtime, id string) error {
	job, err := rt.manager.Status(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", job.ID)
	fmt.Fprintf(out, "Status:   %s\n", job.Status)
	if job.Status == queue.StatusProcessing || job.StepMessage != "" {
		fmt.Fprintf(out, "Step:     %d/%d - %s\n", job.Step, queue.StepCombine, job.StepMessage)
	}
	if job.Prompt != "" {
		fmt.Fprintf(out, "Prompt:   %s\n", job.Prompt)
	}
	if job.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", job.Error)
	}
	if job.VideoPath != "" {
		fmt.Fprintf(out, "Video:    %s\n", job.VideoPath)
	}
	if job.SubtitlePath != "" {
		fmt.Fprintf(out, "Subtitle: %s\n", job.SubtitlePath)
	}
	if job.Duration > 0 {
		fmt.Fprintf(out, "Duration: %.1fs\n", job.Duration)
	}
	return nil
}

func printJobList(cmd *cobra.Command, rt *runtime) error {
	jobs, err := rt.manager.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs")
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "STATUS", "STEP", "PROMPT", "CREATED"})
	for _, job := range jobs {
		tw.AppendRow(table.Row{
			shortID(job.ID),
			string(job.Status),
			stepLabel(job),
			truncate(job.Prompt, 48),
			job.CreatedAt.Local().Format(time.DateTime),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	fmt.Fprintln(out, tw.Render())

	summary, err := rt.manager.Health(cmd.Context())
	if err == nil {
		fmt.Fprintf(out, "%d jobs: %d pending, %d processing, %d completed, %d failed\n",
			summary.Total, summary.Pending, summary.Processing, summary.Completed, summary.Failed)
	}
	return nil
}

func stepLabel(job *queue.Job) string {
	if job.Status.Terminal() || job.Step == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", job.Step, queue.StepCombine)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
