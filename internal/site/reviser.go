// reviser.go - Staleness detection and change reporting for revision runs
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/zeebo/xxh3"

	"docsite-generator/internal/bundle"
	"docsite-generator/internal/prompts"
	"docsite-generator/pkg/logger"
)

// Revision policies. PolicyFingerprint reuses sections whose inputs are
// unchanged; PolicyAlways regenerates everything while still merging
// into existing pages.
const (
	PolicyFingerprint = "fingerprint"
	PolicyAlways      = "always"
)

// Reviser decides which sections of a previous run can be reused.
type Reviser struct {
	policy    string
	outputDir string
	logger    logger.Logger
}

// NewReviser creates a reviser. An empty policy selects the fingerprint
// policy.
func NewReviser(policy, outputDir string, log logger.Logger) *Reviser {
	if policy == "" {
		policy = PolicyFingerprint
	}
	return &Reviser{policy: policy, outputDir: outputDir, logger: log}
}

// Fingerprint hashes the inputs that drive a section's generated
// content: the section id, its resolved prompt and effective context,
// and the ranked bundle excerpts. Two runs over identical inputs hash
// identically, so the ranking order feeds the hash too.
func Fingerprint(sectionID string, resolved *prompts.Resolved, b *bundle.ContextBundle) string {
	var sb strings.Builder
	sb.WriteString(sectionID)
	sb.WriteByte(0)
	if resolved != nil {
		sb.WriteString(resolved.Prompt)
		sb.WriteByte(0)
		sb.WriteString(resolved.EffectiveContext)
		sb.WriteByte(0)
	}
	if b != nil {
		for _, excerpt := range b.Excerpts {
			sb.WriteString(excerpt.SourcePath)
			sb.WriteByte(0)
			sb.WriteString(excerpt.Content)
			sb.WriteByte(0)
		}
	}
	return fmt.Sprintf("%016x", xxh3.HashString(sb.String()))
}

// Apply compares each section against the previous manifest and the
// pages on disk. Unchanged sections are marked reused with their page
// carried verbatim; pages whose markers were deleted by hand are
// treated as human-owned and never regenerated. Everything else keeps
// its status, with the existing page loaded for merging.
func (r *Reviser) Apply(sections []*ContentSection, previous *SiteManifest) {
	for _, section := range sections {
		target := filepath.Join(r.outputDir, filepath.FromSlash(section.TargetPath))
		data, err := os.ReadFile(target)
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Warn("failed to read existing page %s: %v", section.TargetPath, err)
			}
			r.logger.Debug("section %s has no existing page, generating fresh", section.SectionID)
			continue
		}
		section.ExistingContent = string(data)

		if _, ok := ExtractManagedRegion(section.ExistingContent, section.SectionID); !ok {
			section.Status = StatusReused
			section.StatusNote = joinNote(section.StatusNote, "managed markers removed, page is human-owned")
			r.logger.Info("section %s is human-owned, reusing as-is", section.SectionID)
			continue
		}

		// Sections that already failed resolution keep their page for
		// the assembler; staleness only applies to pending ones.
		if section.Status != StatusPending {
			continue
		}

		if r.policy == PolicyAlways {
			r.logger.Debug("section %s regenerating under policy %s", section.SectionID, r.policy)
			continue
		}

		if previous == nil {
			continue
		}
		prev := previous.Section(section.SectionID)
		if prev == nil || prev.Fingerprint == "" {
			continue
		}
		if prev.Fingerprint == section.Fingerprint {
			section.Status = StatusReused
			section.StatusNote = "inputs unchanged since previous run"
			r.logger.Debug("section %s unchanged, reusing", section.SectionID)
		}
	}
}

// diffSummary reports the line-level change between the old and new
// managed region for the section's status note.
func diffSummary(oldBody, newBody string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldBody, newBody, true)
	var added, removed int
	for _, d := range diffs {
		lines := strings.Count(d.Text, "\n")
		if lines == 0 && len(d.Text) > 0 {
			lines = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += lines
		case diffmatchpatch.DiffDelete:
			removed += lines
		}
	}
	if added == 0 && removed == 0 {
		return "managed region unchanged"
	}
	return fmt.Sprintf("managed region updated (+%d/-%d lines)", added, removed)
}
