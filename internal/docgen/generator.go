// generator.go - Pipeline orchestration from repository scan to site manifest
package docgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"docsite-generator/internal/ai"
	"docsite-generator/internal/bundle"
	"docsite-generator/internal/cache"
	"docsite-generator/internal/config"
	"docsite-generator/internal/errs"
	"docsite-generator/internal/prompts"
	"docsite-generator/internal/scanner"
	"docsite-generator/internal/site"
	"docsite-generator/internal/utils"
	"docsite-generator/pkg/logger"
)

// Options selects what a single run does. Zero values fall back to the
// loaded configuration.
type Options struct {
	RootPath    string
	OutputDir   string
	Mode        string
	ModelRef    string
	PromptsPath string
	Workers     int
	Sections    []string
}

// ProgressStats summarizes section outcomes for the exit report.
type ProgressStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Reused    int `json:"reused"`
	Failed    int `json:"failed"`
}

// StatsFromManifest derives the run summary from terminal section
// statuses.
func StatsFromManifest(manifest *site.SiteManifest) ProgressStats {
	return ProgressStats{
		Total:     len(manifest.Sections),
		Completed: manifest.CountByStatus(site.StatusGenerated),
		Reused:    manifest.CountByStatus(site.StatusReused),
		Failed:    manifest.CountByStatus(site.StatusFailed),
	}
}

// Generator drives scan, prompt resolution, content generation and site
// assembly for one repository.
type Generator struct {
	config *config.Config
	engine *ai.Engine
	cache  *cache.Store
	logger logger.Logger
}

// NewGenerator creates a generator. store may be nil when the cache is
// disabled.
func NewGenerator(cfg *config.Config, engine *ai.Engine, store *cache.Store, log logger.Logger) *Generator {
	return &Generator{
		config: cfg,
		engine: engine,
		cache:  store,
		logger: log,
	}
}

// Stats exposes the engine call counters for reporting.
func (g *Generator) Stats() *ai.CallStats {
	return g.engine.Stats()
}

// Close releases the engine clients and the cache store.
func (g *Generator) Close() error {
	var firstErr error
	if err := g.engine.Close(); err != nil {
		firstErr = err
	}
	if g.cache != nil {
		if err := g.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run executes one pipeline run and returns the stored manifest. Failed
// sections do not fail the run; scan and assembly problems do.
func (g *Generator) Run(ctx context.Context, opts Options) (*site.SiteManifest, error) {
	mode := opts.Mode
	if mode == "" {
		mode = site.ModeFresh
	}
	switch mode {
	case site.ModeFresh, site.ModeRevise, site.ModeTemplateOnly:
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = g.config.Site.Output
	}
	modelRef := opts.ModelRef
	if modelRef == "" {
		modelRef = g.config.AI.Model
	}
	if mode == site.ModeTemplateOnly {
		// No model is consulted, the manifest must not claim one.
		modelRef = ""
	}

	runID, err := utils.GenerateUUID()
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}
	stagingDir := filepath.Join(outputDir, ".docgen", "tmp-"+runID)
	defer func() {
		if err := os.RemoveAll(stagingDir); err != nil {
			g.logger.Warn("failed to remove staging directory %s: %v", stagingDir, err)
		}
		_ = os.Remove(filepath.Dir(stagingDir))
	}()

	layout := g.layout(opts)
	assembler := site.NewAssembler(outputDir, stagingDir, runID, modelRef, g.logger)
	g.logger.Info("run %s starting: mode=%s output=%s sections=%d", runID, mode, outputDir, len(layout.Sections))

	if mode == site.ModeTemplateOnly {
		return g.finish(assembler, sectionsForLayout(layout), layout, mode, outputDir)
	}

	metadata, err := scanner.NewScanner(g.config.Scan, g.logger).Scan(opts.RootPath)
	if err != nil {
		return nil, err
	}
	if g.config.Site.Title == "" {
		if name := projectName(metadata); name != "" {
			layout.Title = name
		}
	}

	tree, err := g.promptTree(opts)
	if err != nil {
		return nil, err
	}
	for _, issue := range tree.Validate() {
		g.logger.Warn("prompt configuration: %s", issue)
	}

	sections := sectionsForLayout(layout)
	g.prepareSections(sections, layout, tree, metadata)

	if mode == site.ModeRevise {
		previous, err := site.LoadManifest(outputDir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				g.logger.Warn("previous manifest unreadable, revising everything: %v", err)
			}
			previous = nil
		}
		site.NewReviser(g.config.Revise.Policy, outputDir, g.logger).Apply(sections, previous)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = g.config.Generate.Workers
	}
	g.generateSections(ctx, sections, modelRef, mode, workers)

	return g.finish(assembler, sections, layout, mode, outputDir)
}

// finish assembles the site, validates it and stores the manifest.
func (g *Generator) finish(assembler *site.Assembler, sections []*site.ContentSection, layout site.LayoutSpec, mode, outputDir string) (*site.SiteManifest, error) {
	manifest, err := assembler.Assemble(sections, layout, mode)
	if err != nil {
		return nil, err
	}
	manifest.Issues = site.Validate(outputDir)
	if err := site.SaveManifest(outputDir, manifest); err != nil {
		return manifest, err
	}

	stats := StatsFromManifest(manifest)
	g.logger.Info("run %s finished: %d generated, %d reused, %d failed of %d sections",
		manifest.RunID, stats.Completed, stats.Reused, stats.Failed, stats.Total)
	for _, result := range manifest.Sections {
		if result.Status == site.StatusFailed {
			g.logger.Warn("section %s failed: %s", result.SectionID, result.Note)
		}
	}
	return manifest, nil
}

// layout builds the section layout for this run from the built-in
// default, the configuration and the run options.
func (g *Generator) layout(opts Options) site.LayoutSpec {
	layout := site.DefaultLayout()
	if g.config.Site.Title != "" {
		layout.Title = g.config.Site.Title
	}
	if g.config.Site.Tagline != "" {
		layout.Tagline = g.config.Site.Tagline
	}
	filter := opts.Sections
	if len(filter) == 0 {
		filter = g.config.Site.Sections
	}
	return layout.Select(filter)
}

// promptTree loads the prompt configuration, preferring the run option,
// then the configured path, then the embedded defaults.
func (g *Generator) promptTree(opts Options) (*prompts.Tree, error) {
	path := opts.PromptsPath
	if path == "" {
		path = g.config.Site.Prompts
	}
	if path == "" {
		return prompts.Default()
	}
	return prompts.Load(path)
}

// prepareSections resolves prompts, builds context bundles and
// fingerprints every section. A section that cannot resolve its prompt
// fails alone; the rest of the run continues.
func (g *Generator) prepareSections(sections []*site.ContentSection, layout site.LayoutSpec, tree *prompts.Tree, metadata *scanner.RepositoryMetadata) {
	vars := substitutionVars(metadata)
	builder := bundle.NewBuilder(g.logger)

	for i, section := range sections {
		resolved, err := tree.Resolve(section.SectionID, prompts.SplitPath(layout.Sections[i].PromptPath))
		if err != nil {
			section.Status = site.StatusFailed
			section.StatusNote = err.Error()
			g.logger.Error("section %s prompt resolution failed: %v", section.SectionID, err)
			continue
		}
		resolved.Prompt = prompts.Substitute(resolved.Prompt, vars)
		resolved.EffectiveContext = prompts.Substitute(resolved.EffectiveContext, vars)
		section.ResolvedPrompt = resolved

		b, err := builder.Build(metadata, g.bundleSpec(section.SectionID, resolved.ContextSpec))
		if err != nil {
			section.Status = site.StatusFailed
			section.StatusNote = err.Error()
			g.logger.Error("section %s context bundling failed: %v", section.SectionID, err)
			continue
		}
		section.Bundle = b
		section.Fingerprint = site.Fingerprint(section.SectionID, resolved, b)
	}
}

// bundleSpec translates a prompt-tree context spec into bundle terms,
// filling gaps from the configured defaults.
func (g *Generator) bundleSpec(sectionID string, spec *prompts.RepoContextSpec) bundle.SectionSpec {
	out := bundle.SectionSpec{
		SectionID:     sectionID,
		MaxCharacters: g.config.Context.DefaultBudget,
	}
	if spec == nil {
		return out
	}
	for _, category := range spec.Categories {
		out.Categories = append(out.Categories, scanner.Category(category))
	}
	out.IncludePatterns = spec.IncludePatterns
	if spec.MaxCharacters > 0 {
		out.MaxCharacters = spec.MaxCharacters
	}
	return out
}

// generateSections runs content generation for every pending section,
// sequentially by default or on a bounded worker pool. Section slots are
// mutated in place so the manifest order never depends on completion
// order.
func (g *Generator) generateSections(ctx context.Context, sections []*site.ContentSection, modelRef, mode string, workers int) {
	var pending []*site.ContentSection
	for _, section := range sections {
		if section.Status == site.StatusPending {
			pending = append(pending, section)
		}
	}
	if len(pending) == 0 {
		return
	}

	if workers <= 1 || len(pending) == 1 {
		for _, section := range pending {
			g.generateSection(ctx, section, modelRef, mode)
		}
		return
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	queue := make(chan *site.ContentSection, len(pending))
	for _, section := range pending {
		queue <- section
	}
	close(queue)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for section := range queue {
			g.generateSection(ctx, section, modelRef, mode)
		}
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}
	wg.Wait()
}

// generateSection produces one section's content, consulting the cache
// first. Any failure is terminal for the section only.
func (g *Generator) generateSection(ctx context.Context, section *site.ContentSection, modelRef, mode string) {
	if g.cache != nil && section.Fingerprint != "" {
		if content, ok := g.cache.Get(section.Fingerprint); ok {
			section.GeneratedContent = content
			section.Status = site.StatusGenerated
			section.StatusNote = "cache hit"
			g.logger.Debug("section %s served from cache", section.SectionID)
			return
		}
	}

	existing := ""
	if mode == site.ModeRevise && section.ExistingContent != "" {
		existing, _ = site.ExtractManagedRegion(section.ExistingContent, section.SectionID)
	}

	content, err := g.engine.Generate(ctx, ai.Request{
		SectionID:       section.SectionID,
		Prompt:          section.ResolvedPrompt.Prompt,
		Context:         composeContext(section),
		ExistingContent: existing,
		ModelRef:        modelRef,
	})
	if err != nil {
		section.Status = site.StatusFailed
		section.StatusNote = failureNote(err)
		g.logger.Error("section %s generation failed: %v", section.SectionID, err)
		return
	}

	section.GeneratedContent = content
	section.Status = site.StatusGenerated
	if g.cache != nil && section.Fingerprint != "" {
		if err := g.cache.Put(section.Fingerprint, content); err != nil {
			g.logger.Warn("failed to cache section %s: %v", section.SectionID, err)
		}
	}
}

// composeContext joins the prompt-tree context with the repository
// excerpts the bundle selected for the section.
func composeContext(section *site.ContentSection) string {
	var b strings.Builder
	if section.ResolvedPrompt != nil && section.ResolvedPrompt.EffectiveContext != "" {
		b.WriteString(section.ResolvedPrompt.EffectiveContext)
	}
	if section.Bundle != nil && len(section.Bundle.Excerpts) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("REPOSITORY CONTEXT:")
		for _, excerpt := range section.Bundle.Excerpts {
			b.WriteString(fmt.Sprintf("\n\n--- %s ---\n", excerpt.SourcePath))
			b.WriteString(excerpt.Content)
		}
	}
	return b.String()
}

// failureNote turns a generation error into a manifest-friendly note.
func failureNote(err error) string {
	if errors.Is(err, context.Canceled) {
		return "cancelled before completion"
	}
	if gerr, ok := errs.AsGeneration(err); ok {
		return gerr.Error()
	}
	return err.Error()
}

// sectionsForLayout creates the pipeline state for every layout slot.
func sectionsForLayout(layout site.LayoutSpec) []*site.ContentSection {
	sections := make([]*site.ContentSection, 0, len(layout.Sections))
	for _, spec := range layout.Sections {
		sections = append(sections, &site.ContentSection{
			SectionID:  spec.ID,
			Title:      spec.Title,
			TargetPath: layout.TargetPath(spec),
			Status:     site.StatusPending,
		})
	}
	return sections
}

// substitutionVars derives the prompt variables from scanned metadata.
func substitutionVars(metadata *scanner.RepositoryMetadata) map[string]string {
	name := projectName(metadata)
	if name == "" {
		name = "this project"
	}
	description := ""
	if metadata.ProjectMetadata != nil {
		description = metadata.ProjectMetadata.Description
	}
	languages := strings.Join(languageNames(metadata), ", ")
	if languages == "" {
		languages = "unknown"
	}
	primary := metadata.PrimaryLanguage()
	if primary == "" {
		primary = "general-purpose"
	}
	return map[string]string{
		"project_name":        name,
		"project_description": description,
		"languages":           languages,
		"primary_language":    primary,
	}
}

func projectName(metadata *scanner.RepositoryMetadata) string {
	if metadata.ProjectMetadata == nil {
		return ""
	}
	return metadata.ProjectMetadata.Name
}

// languageNames lists detected languages, most files first, ties
// alphabetical.
func languageNames(metadata *scanner.RepositoryMetadata) []string {
	names := make([]string, 0, len(metadata.LanguageStats))
	for name := range metadata.LanguageStats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := metadata.LanguageStats[names[i]], metadata.LanguageStats[names[j]]
		if si.FileCount != sj.FileCount {
			return si.FileCount > sj.FileCount
		}
		return names[i] < names[j]
	})
	return names
}
