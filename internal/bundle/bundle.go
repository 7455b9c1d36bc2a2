// bundle.go - Size-bounded context bundle construction
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"docsite-generator/internal/scanner"
	"docsite-generator/internal/utils"
	"docsite-generator/pkg/logger"
)

// SectionSpec selects and bounds the repository content for one section.
// An empty Categories list allows every category; an empty IncludePatterns
// list matches every path.
type SectionSpec struct {
	SectionID       string
	Categories      []scanner.Category
	IncludePatterns []string
	MaxCharacters   int
}

// Excerpt is one file's contribution to a bundle. Weight is the rank key
// the excerpt was ordered by: key files carry their role-priority index,
// everything else is offset by path depth, lower sorts first.
type Excerpt struct {
	SourcePath string
	Content    string
	Weight     int
}

// ContextBundle is the bounded excerpt set for one section. It is built
// once, consumed by prompt assembly, and never mutated afterward.
type ContextBundle struct {
	SectionID       string
	CharacterBudget int
	Excerpts        []Excerpt
	Truncated       bool
}

// TotalCharacters returns the summed excerpt length in runes.
func (b *ContextBundle) TotalCharacters() int {
	total := 0
	for _, excerpt := range b.Excerpts {
		total += utf8.RuneCountInString(excerpt.Content)
	}
	return total
}

// Builder assembles context bundles from scanned repository metadata.
type Builder struct {
	logger logger.Logger
}

func NewBuilder(logger logger.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build ranks the candidate files for spec and fills the character budget
// in rank order. Each candidate contributes its full content or a
// head-truncated prefix sized to exactly fill the remaining budget,
// whichever is smaller. Truncated reports whether any candidate was
// shortened or left out because the budget ran out.
func (b *Builder) Build(metadata *scanner.RepositoryMetadata, spec SectionSpec) (*ContextBundle, error) {
	if spec.MaxCharacters <= 0 {
		return nil, fmt.Errorf("failed to build context bundle for section %s: max characters must be positive, got %d",
			spec.SectionID, spec.MaxCharacters)
	}

	bundle := &ContextBundle{
		SectionID:       spec.SectionID,
		CharacterBudget: spec.MaxCharacters,
	}

	remaining := spec.MaxCharacters
	for _, candidate := range b.rankCandidates(metadata, spec) {
		if remaining == 0 {
			bundle.Truncated = true
			break
		}

		data, err := os.ReadFile(filepath.Join(metadata.RootPath, filepath.FromSlash(candidate.path)))
		if err != nil {
			b.logger.Warn("skipping unreadable context file %s: %v", candidate.path, err)
			continue
		}

		content := string(data)
		length := utf8.RuneCountInString(content)
		if length > remaining {
			content = headRunes(content, remaining)
			length = remaining
			bundle.Truncated = true
		}

		bundle.Excerpts = append(bundle.Excerpts, Excerpt{
			SourcePath: candidate.path,
			Content:    content,
			Weight:     candidate.weight,
		})
		remaining -= length
	}

	b.logger.Debug("built context bundle for section %s: %d excerpts, %d/%d characters, truncated: %v",
		spec.SectionID, len(bundle.Excerpts), bundle.TotalCharacters(), spec.MaxCharacters, bundle.Truncated)
	return bundle, nil
}

type candidate struct {
	path   string
	weight int
}

// rankCandidates filters metadata.Files by category and include patterns,
// then orders the survivors: key files first in role-priority order, the
// rest by ascending path depth, ties broken by path.
func (b *Builder) rankCandidates(metadata *scanner.RepositoryMetadata, spec SectionSpec) []candidate {
	// An empty allow-list admits every category.
	files := metadata.Files
	if len(spec.Categories) > 0 {
		files = metadata.FilesInCategories(spec.Categories...)
	}

	keyWeight := make(map[string]int, len(metadata.KeyFiles))
	for i, role := range scanner.RolePriority {
		if path, ok := metadata.KeyFiles[role]; ok {
			if _, seen := keyWeight[path]; !seen {
				keyWeight[path] = i
			}
		}
	}

	var ranked []candidate
	for _, file := range files {
		if !b.matchesAny(spec.IncludePatterns, file.RelPath) {
			continue
		}

		weight, isKey := keyWeight[file.RelPath]
		if !isKey {
			weight = len(scanner.RolePriority) + utils.PathDepth(file.RelPath)
		}
		ranked = append(ranked, candidate{path: file.RelPath, weight: weight})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight < ranked[j].weight
		}
		return ranked[i].path < ranked[j].path
	})
	return ranked
}

func (b *Builder) matchesAny(patterns []string, relPath string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			b.logger.Warn("invalid include pattern %q: %v", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// headRunes returns the first n runes of s without splitting a rune.
func headRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
