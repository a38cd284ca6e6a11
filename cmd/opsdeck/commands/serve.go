package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/config"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep a session alive and expose its metrics endpoint",
		Long: `Run a long-lived console session: expose the Prometheus metrics
endpoint and watch the configuration file for changes. Intended for
supervised deployments; interactive commands remain one-shot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if configPath != "" {
				watcher := config.NewWatcher(configPath, a.logger)
				if err := watcher.Watch(ctx, func(cfg *config.Config) {
					// Engine latency picks up on the next session; log
					// level changes apply to new loggers only. The reload
					// mainly validates edits before a restart.
					a.logger.Infof("configuration change accepted (latency %s)", cfg.Simulation.Latency)
				}); err != nil {
					return err
				}
				defer func() { _ = watcher.Stop() }()
			}

			if a.cfg.Telemetry.Metrics.Enabled {
				go func() {
					if err := a.metrics.Serve(); err != nil {
						a.logger.WithError(err).Error("metrics endpoint failed")
					}
				}()
				fmt.Printf("Metrics on %s%s\n",
					a.cfg.Telemetry.Metrics.ListenAddress, a.cfg.Telemetry.Metrics.Path)
			}

			a.logger.Info("session ready; press Ctrl+C to stop")
			<-ctx.Done()
			return nil
		},
	}
}
