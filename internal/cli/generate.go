package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kolah/drygen/internal/codegen"
	"github.com/kolah/drygen/internal/config"
	"github.com/kolah/drygen/internal/loader"
	"github.com/kolah/drygen/internal/metrics"
	"github.com/kolah/drygen/internal/output"
	"github.com/kolah/drygen/internal/resolver"
)

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Dry::Schema::Params definitions from an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	config.BindFlags(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	m := metrics.New()
	fetcher := resolver.NewSourceFetcher(cfg.Resolver.Settings(), logger)

	loaded, err := loader.Load(ctx, cfg.Spec, loader.Options{
		Validate: cfg.ValidateSpec,
		Fetcher:  fetcher,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	for _, w := range loaded.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	gen, err := codegen.New(cfg,
		codegen.WithLogger(logger),
		codegen.WithMetrics(m),
		codegen.WithFetcher(fetcher),
	)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	result, err := gen.Generate(ctx, loaded)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	for _, d := range result.Diagnostics {
		cmd.PrintErrf("Warning: %s\n", d)
	}

	info := loaded.Document.Info
	cmd.PrintErrf("Loaded OpenAPI %s: %s v%s\n", loaded.Version, info.Title, info.Version)

	if cfg.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", result.Output.Filename, result.Output.Content)
	} else {
		path := filepath.Join(cfg.OutputDir, result.Output.Filename)
		changed, err := output.WriteFile(path, []byte(result.Output.Content), output.WriteOptions{Check: cfg.Check})
		if err != nil {
			return err
		}
		switch {
		case changed:
			cmd.PrintErrf("Written: %s\n", path)
		case cfg.Check:
			cmd.PrintErrf("Up to date: %s\n", path)
		default:
			cmd.PrintErrf("Unchanged: %s\n", path)
		}
	}

	summary, err := m.Summary()
	if err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	cmd.PrintErrf("  Definitions: %d\n", len(result.Definitions))
	cmd.PrintErrf("  Skipped operations: %d\n", result.Skipped)
	cmd.PrintErrf("  Diagnostics: %d\n", len(result.Diagnostics))
	cmd.PrintErrf("  References fetched: %d (cached: %d)\n", summary.Fetches, summary.CacheHits)

	if cfg.Strict && len(result.Diagnostics) > 0 {
		return fmt.Errorf("strict mode: %d diagnostics reported", len(result.Diagnostics))
	}

	return nil
}
