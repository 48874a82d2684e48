package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"arivid/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the video generation daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lockPath := filepath.Join(cfg.Paths.LogDir, "arivid.lock")
			lock := flock.New(lockPath)
			held, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !held {
				return errors.New("another arivid instance is already running")
			}
			defer lock.Unlock()

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
			logger.Info("arivid daemon started",
				logging.String("storage", cfg.Paths.StorageDir),
				logging.String("lock", lockPath))

			summary, err := rt.store.Health(signalCtx)
			if err == nil {
				logger.Info("status store",
					logging.Int("total", summary.Total),
					logging.Int("processing", summary.Processing),
					logging.Int("failed", summary.Failed))
			}

			<-signalCtx.Done()
			logger.Info("arivid daemon shutting down")
			rt.manager.Stop()
			return nil
		},
	}
}
