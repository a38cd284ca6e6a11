// Package commands implements the opsdeck CLI: a role-gated console for
// generating, organizing, and simulating execution of playbooks against a
// registry of managed VMs.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/access"
	"github.com/opsdeck/opsdeck/pkg/assist"
	"github.com/opsdeck/opsdeck/pkg/catalog"
	"github.com/opsdeck/opsdeck/pkg/config"
	"github.com/opsdeck/opsdeck/pkg/engine"
	"github.com/opsdeck/opsdeck/pkg/results"
	"github.com/opsdeck/opsdeck/pkg/seed"
	"github.com/opsdeck/opsdeck/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	roleName   string
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "opsdeck",
		Short: "OpsDeck - Playbook Operations Console",
		Long: `OpsDeck is a role-gated console for configuration-management playbooks:
generate them with an AI collaborator, organize them into groups, and
simulate their execution against a registry of managed VMs.

Every session starts from a seeded catalog; executions are simulated
with a deterministic log, and every run is recorded in the result
registry for later comparison.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&roleName, "role", "r", "operator", "actor role (admin, operator, developer)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newPlaybooksCommand())
	rootCmd.AddCommand(newGroupsCommand())
	rootCmd.AddCommand(newVMsCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newBulkCommand())
	rootCmd.AddCommand(newResultsCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// app bundles one console session: configuration, telemetry, the seeded
// catalog, the result registry, the execution engines, and the AI
// collaborator client.
type app struct {
	cfg      *config.Config
	role     access.Role
	logger   *telemetry.Logger
	events   *telemetry.EventBus
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer
	store    *catalog.Store
	registry *results.SQLiteRegistry
	runner   *engine.Runner
	orch     *engine.Orchestrator
	assist   *assist.Client
}

// newApp builds a session from the global flags. The catalog and registry
// are session-scoped: seeded fresh on every invocation.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	role, err := access.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.Telemetry.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := telemetry.NewTracer(cfg.Telemetry.Tracing, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	events := telemetry.NewEventBus(cfg.Telemetry.Events)
	metrics := telemetry.NewMetrics(cfg.Telemetry.Metrics)

	registry := results.NewSQLiteRegistry(cfg.Results)
	if err := registry.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize result registry: %w", err)
	}
	if err := registry.Migrate(ctx); err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("failed to migrate result registry: %w", err)
	}

	store := catalog.NewStore()
	if cfg.Seed.Enabled {
		data, err := loadSeed(cfg.Seed)
		if err != nil {
			_ = registry.Close()
			return nil, err
		}
		if err := seed.Apply(ctx, data, store, registry, logger); err != nil {
			_ = registry.Close()
			return nil, err
		}
	}
	metrics.SetCatalogSizes(len(store.Playbooks()), len(store.VMs()))

	deps := engine.Deps{
		Events:  events,
		Metrics: metrics,
		Tracer:  tracer,
		Logger:  logger,
		Latency: cfg.Simulation.Latency,
	}

	return &app{
		cfg:      cfg,
		role:     role,
		logger:   logger,
		events:   events,
		metrics:  metrics,
		tracer:   tracer,
		store:    store,
		registry: registry,
		runner:   engine.NewRunner(store, registry, deps),
		orch:     engine.NewOrchestrator(store, registry, deps, nil),
		assist: assist.NewClient(cfg.Assist, assist.Deps{
			Events:  events,
			Metrics: metrics,
			Logger:  logger,
		}),
	}, nil
}

func loadSeed(cfg config.SeedConfig) (*seed.Data, error) {
	if cfg.Path != "" {
		return seed.FromFile(cfg.Path)
	}
	return seed.Builtin()
}

// Close releases the session's resources.
func (a *app) Close(ctx context.Context) {
	_ = a.registry.Close()
	_ = a.tracer.Shutdown(ctx)
}
