// run.go - Shared pipeline wiring for the generate, revise and template commands
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"docsite-generator/internal/ai"
	"docsite-generator/internal/cache"
	"docsite-generator/internal/docgen"
	"docsite-generator/internal/site"
)

// newGenerator assembles the pipeline from the shared dependencies. A
// cache that fails to open only disables caching, never the run.
func newGenerator(deps *RootDependencies) *docgen.Generator {
	var store *cache.Store
	if deps.Config.Cache.Enabled && deps.CacheDir != "" {
		opened, err := cache.Open(deps.CacheDir, deps.Logger)
		if err != nil {
			deps.Logger.Warn("failed to open generation cache, caching disabled: %v", err)
		} else {
			store = opened
		}
	}
	engine := ai.NewEngine(deps.Config.AI, nil, deps.Logger)
	return docgen.NewGenerator(deps.Config, engine, store, deps.Logger)
}

// runPipeline executes one pipeline run for a subcommand and prints the
// section report. The returned error is run-fatal; failed sections are
// reported through the manifest instead.
func runPipeline(cmd *cobra.Command, opts docgen.Options) error {
	deps, err := handleRootCommand(cmd)
	if err != nil {
		return err
	}

	gen := newGenerator(deps)
	defer func() {
		if err := gen.Close(); err != nil {
			deps.Logger.Warn("failed to release pipeline resources: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner, _ := pterm.DefaultSpinner.Start("Generating documentation...")
	manifest, err := gen.Run(ctx, opts)
	if err != nil {
		spinner.Fail("Run failed")
		return err
	}
	spinner.Success("Site assembled")

	printSummary(manifest)
	if opts.Mode != site.ModeTemplateOnly && gen.Stats().Calls() > 0 {
		pterm.Info.Println(gen.Stats().String())
	}
	return nil
}

// printSummary renders the per-section report and the overall outcome.
func printSummary(manifest *site.SiteManifest) {
	rows := pterm.TableData{{"SECTION", "STATUS", "PAGE", "NOTE"}}
	for _, result := range manifest.Sections {
		rows = append(rows, []string{result.SectionID, result.Status, result.TargetPath, result.Note})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	for _, issue := range manifest.Issues {
		pterm.Warning.Printfln("validator: %s: %s (%s)", issue.Path, issue.Detail, issue.Kind)
	}

	stats := docgen.StatsFromManifest(manifest)
	switch {
	case stats.Failed == stats.Total && stats.Total > 0:
		pterm.Error.Printfln("no section succeeded (%d failed)", stats.Failed)
	case stats.Failed > 0:
		pterm.Warning.Printfln("partial success: %d generated, %d reused, %d failed of %d sections",
			stats.Completed, stats.Reused, stats.Failed, stats.Total)
	default:
		pterm.Success.Printfln("%d generated, %d reused of %d sections",
			stats.Completed, stats.Reused, stats.Total)
	}
}
