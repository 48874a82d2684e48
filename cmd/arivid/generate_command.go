package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arivid/internal/logging"
	"arivid/internal/queue"
	"arivid/internal/workflow"
)

const generatePollInterval = 500 * time.Millisecond

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		language string
		voice    string
		quality  string
		sync     string
		noAudio  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a video for a prompt and wait for the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.manager.Start(signalCtx); err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			defer rt.manager.Stop()

			req := workflow.Request{
				Prompt:     strings.Join(args, " "),
				Language:   language,
				Voice:      voice,
				Quality:    quality,
				SyncMethod: sync,
			}
			// Config decides include_audio unless the flag was given.
			if cmd.Flags().Changed("no-audio") {
				req.IncludeAudio = queue.BoolPtr(!noAudio)
			}

			id, err := rt.manager.Submit(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s submitted\n", id)

			job, err := waitForJob(signalCtx, rt, id, out)
			if err != nil {
				return err
			}
			if job.Status == queue.StatusFailed {
				return fmt.Errorf("generation failed: %s", job.Error)
			}
			fmt.Fprintf(out, "Video: %s\n", job.VideoPath)
			if job.SubtitlePath != "" {
				fmt.Fprintf(out, "Subtitles: %s\n", job.SubtitlePath)
			}
			if job.Duration > 0 {
				fmt.Fprintf(out, "Duration: %.1fs\n", job.Duration)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Narration language code (detected from the prompt when empty)")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice (defaults to the language voice table)")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Render quality: l, m, h, p, or k")
	cmd.Flags().StringVar(&sync, "sync", "", "Sync method: timing_analysis, simple, or subtitle_overlay")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Skip narration and produce a silent video")
	return cmd
}

// waitForJob polls the status store until the job reaches a terminal state,
// echoing step transitions as they happen.
func waitForJob(ctx context.Context, rt *runtime, id string, out io.Writer) (*queue.Job, error) {
	ticker := time.NewTicker(generatePollInterval)
	defer ticker.Stop()

	lastMessage := ""
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := rt.manager.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.StepMessage != "" && job.StepMessage != lastMessage {
			fmt.Fprintf(out, "[%d/%d] %s\n", job.Step, queue.StepCombine, job.StepMessage)
			lastMessage = job.StepMessage
		}
		if job.Status.Terminal() {
			return job, nil
		}
	}
}
