package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LesCam/barstock-sub005/internal/banner"
	"github.com/LesCam/barstock-sub005/internal/daemon"
	"github.com/LesCam/barstock-sub005/internal/executor"
	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/netmon"
	"github.com/LesCam/barstock-sub005/internal/notifications"
	"github.com/LesCam/barstock-sub005/internal/queue"
	"github.com/LesCam/barstock-sub005/internal/store"
	"github.com/LesCam/barstock-sub005/internal/syncer"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer st.Close()

			notifier := notifications.NewService(cfg)
			q := queue.New(st, logger, queue.WithWarner(notifier))
			q.Rehydrate(ctx)

			probe := netmon.NewProbe(cfg, logger)
			exec := executor.NewHTTP(cfg)
			engine := syncer.New(q, exec, probe, logger, syncer.WithNotifier(notifier))
			projector := banner.New(time.Duration(cfg.Sync.SyncedBannerSeconds) * time.Second)

			unsubBanner := projector.Subscribe(func(state banner.State) {
				logger.Info("banner changed", logging.String(logging.FieldBanner, string(state)))
			})
			defer unsubBanner()

			d, err := daemon.New(cfg, q, engine, probe, projector, logger)
			if err != nil {
				return err
			}
			if err := d.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			d.Stop(context.Background())
			return nil
		},
	}
}
