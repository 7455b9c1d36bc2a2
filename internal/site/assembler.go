// assembler.go - Writes the final site tree and produces the run manifest
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docsite-generator/internal/errs"
	"docsite-generator/internal/utils"
	"docsite-generator/pkg/logger"
)

// docsSidebarID is the sidebar id the Docusaurus scaffold is expected
// to reference. Scaffold checks report against it, never fail on it.
const docsSidebarID = "docsSidebar"

// Assembler writes section pages and the index into the output tree.
// Pages are staged first and renamed into place, so an interrupted run
// never leaves a half-written page behind.
type Assembler struct {
	outputDir  string
	stagingDir string
	runID      string
	modelRef   string
	logger     logger.Logger
}

// NewAssembler creates an assembler for one run. stagingDir must live
// on the same filesystem as outputDir so renames stay atomic.
func NewAssembler(outputDir, stagingDir, runID, modelRef string, log logger.Logger) *Assembler {
	return &Assembler{
		outputDir:  outputDir,
		stagingDir: stagingDir,
		runID:      runID,
		modelRef:   modelRef,
		logger:     log,
	}
}

// Assemble writes every section page plus the index page and returns
// the manifest recording each section's terminal status. A failed
// section never stops the rest of the site from being written; an
// unusable output root does.
func (a *Assembler) Assemble(sections []*ContentSection, layout LayoutSpec, mode string) (*SiteManifest, error) {
	docsDir := filepath.Join(a.outputDir, filepath.FromSlash(layout.DocsDir))
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return nil, errs.NewTemplateAssemblyError(docsDir, err)
	}
	if err := utils.CheckDirWritable(docsDir); err != nil {
		return nil, errs.NewTemplateAssemblyError(docsDir, err)
	}
	if err := os.MkdirAll(a.stagingDir, 0755); err != nil {
		return nil, errs.NewTemplateAssemblyError(a.stagingDir, err)
	}

	manifest := &SiteManifest{
		RunID:       a.runID,
		GeneratedAt: time.Now().UTC(),
		Mode:        mode,
		ModelRef:    a.modelRef,
		Title:       layout.Title,
	}

	for _, section := range sections {
		page, write, err := a.renderSection(section, mode)
		if err != nil {
			return nil, errs.NewTemplateAssemblyError(section.TargetPath, err)
		}
		if write {
			if err := a.writePage(section.TargetPath, page); err != nil {
				return nil, errs.NewTemplateAssemblyError(section.TargetPath, err)
			}
		}
		manifest.Sections = append(manifest.Sections, SectionResult{
			SectionID:   section.SectionID,
			Status:      section.Status,
			TargetPath:  section.TargetPath,
			Fingerprint: section.Fingerprint,
			Note:        section.StatusNote,
		})
		manifest.Navigation = append(manifest.Navigation, section.SectionID)
		a.logger.Debug("assembled section %s status=%s target=%s", section.SectionID, section.Status, section.TargetPath)
	}

	if err := a.writeIndex(sections, layout, mode); err != nil {
		return nil, err
	}

	manifest.Notes = append(manifest.Notes, a.verifyScaffold(layout)...)
	a.logger.Info("site assembled: %d sections under %s", len(sections), a.outputDir)
	return manifest, nil
}

// renderSection decides what a section's page looks like for this run.
// The returned bool reports whether the page must be written at all;
// reused sections keep their on-disk bytes.
func (a *Assembler) renderSection(section *ContentSection, mode string) (string, bool, error) {
	if mode == ModeTemplateOnly {
		body, err := PlaceholderBody(section.SectionID, section.Title)
		if err != nil {
			return "", false, err
		}
		section.Status = StatusGenerated
		section.StatusNote = "template placeholder"
		return RenderPage(section.SectionID, section.Title, body), true, nil
	}

	switch section.Status {
	case StatusReused:
		return "", false, nil

	case StatusFailed:
		if mode == ModeRevise && section.ExistingContent != "" {
			// The previous page is better than a failure placeholder.
			section.StatusNote = joinNote(section.StatusNote, "previous page kept")
			return "", false, nil
		}
		body, err := FailedBody(section.SectionID, section.Title, section.StatusNote)
		if err != nil {
			return "", false, err
		}
		return RenderPage(section.SectionID, section.Title, body), true, nil

	default:
		body := section.GeneratedContent
		if mode == ModeRevise && section.ExistingContent != "" {
			oldBody, _ := ExtractManagedRegion(section.ExistingContent, section.SectionID)
			merged, ok := ReplaceManagedRegion(section.ExistingContent, section.SectionID, body)
			if !ok {
				// Markers are gone, the page belongs to its human
				// editors now. The differencer normally catches this
				// before generation; never overwrite regardless.
				section.Status = StatusReused
				section.StatusNote = joinNote(section.StatusNote, "managed markers missing, page left untouched")
				return "", false, nil
			}
			section.StatusNote = joinNote(section.StatusNote, diffSummary(oldBody, body))
			return merged, true, nil
		}
		return RenderPage(section.SectionID, section.Title, body), true, nil
	}
}

// writeIndex renders the navigation page, merging into an existing
// index in revision mode so human edits around the markers survive.
func (a *Assembler) writeIndex(sections []*ContentSection, layout LayoutSpec, mode string) error {
	indexPath := layout.IndexPath()
	page := RenderIndexPage(layout, sections)

	if mode == ModeRevise {
		existing, err := os.ReadFile(filepath.Join(a.outputDir, filepath.FromSlash(indexPath)))
		if err == nil {
			body, _ := ExtractManagedRegion(page, "index")
			merged, ok := ReplaceManagedRegion(string(existing), "index", body)
			if !ok {
				// Markers are gone, the index belongs to its human
				// editors now; leave it untouched.
				a.logger.Info("index managed markers missing, page left untouched")
				return nil
			}
			page = merged
		}
	}

	if err := a.writePage(indexPath, page); err != nil {
		return errs.NewTemplateAssemblyError(indexPath, err)
	}
	return nil
}

// writePage stages the content and renames it onto its target path.
func (a *Assembler) writePage(relPath, content string) error {
	staged := filepath.Join(a.stagingDir, filepath.Base(relPath))
	if err := os.WriteFile(staged, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to stage page: %w", err)
	}
	target := filepath.Join(a.outputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}
	if err := os.Rename(staged, target); err != nil {
		return fmt.Errorf("failed to move page into place: %w", err)
	}
	return nil
}

// verifyScaffold checks the Docusaurus scaffold around the docs tree.
// Findings are reported through the manifest, never treated as fatal.
func (a *Assembler) verifyScaffold(layout LayoutSpec) []string {
	var notes []string

	indexPath := filepath.Join(a.outputDir, filepath.FromSlash(layout.IndexPath()))
	if _, err := os.Stat(indexPath); err != nil {
		notes = append(notes, fmt.Sprintf("index page missing at %s", layout.IndexPath()))
	}

	sidebars := filepath.Join(a.outputDir, "sidebars.js")
	if data, err := os.ReadFile(sidebars); err != nil {
		notes = append(notes, "sidebars.js not present, Docusaurus will autogenerate the sidebar")
	} else if !strings.Contains(string(data), docsSidebarID) {
		notes = append(notes, fmt.Sprintf("sidebars.js does not define sidebar id %q", docsSidebarID))
	}

	config := filepath.Join(a.outputDir, "docusaurus.config.js")
	if data, err := os.ReadFile(config); err != nil {
		notes = append(notes, "docusaurus.config.js not present, site is docs-only")
	} else if !strings.Contains(string(data), docsSidebarID) {
		notes = append(notes, fmt.Sprintf("docusaurus.config.js does not reference sidebar id %q", docsSidebarID))
	}

	for _, note := range notes {
		a.logger.Debug("scaffold check: %s", note)
	}
	return notes
}

func joinNote(existing, addition string) string {
	if existing == "" {
		return addition
	}
	if addition == "" {
		return existing
	}
	return existing + "; " + addition
}
