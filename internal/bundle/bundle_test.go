package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsite-generator/internal/scanner"
	"docsite-generator/test/mocks"
)

func newTestBuilder() *Builder {
	return NewBuilder(&mocks.MockLogger{})
}

// setupBundleRepo writes a small repository and hand-builds its metadata so
// ranking and budget behavior can be asserted against known file sizes.
func setupBundleRepo(t *testing.T) *scanner.RepositoryMetadata {
	t.Helper()
	tempDir := t.TempDir()

	for _, dir := range []string{"docs", "docs/deeper", "src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tempDir, dir), 0755))
	}

	files := map[string]string{
		"README.md":            strings.Repeat("r", 200),
		"CONTRIBUTING.md":      strings.Repeat("c", 500),
		"package.json":         `{"name": "demo"}`,
		"docs/guide.md":        "guide content\n",
		"docs/deeper/notes.md": "notes content\n",
		"src/main.go":          "package main\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644))
	}

	return &scanner.RepositoryMetadata{
		RootPath: tempDir,
		Files: []scanner.FileEntry{
			{RelPath: "src/main.go", Category: scanner.CategorySource, Language: "Go"},
			{RelPath: "docs/deeper/notes.md", Category: scanner.CategoryDocs, Language: "Markdown"},
			{RelPath: "CONTRIBUTING.md", Category: scanner.CategoryDocs, Language: "Markdown"},
			{RelPath: "package.json", Category: scanner.CategoryConfig, Language: "JSON"},
			{RelPath: "docs/guide.md", Category: scanner.CategoryDocs, Language: "Markdown"},
			{RelPath: "README.md", Category: scanner.CategoryDocs, Language: "Markdown"},
		},
		KeyFiles: map[scanner.Role]string{
			scanner.RoleReadme:       "README.md",
			scanner.RoleContributing: "CONTRIBUTING.md",
			scanner.RoleManifest:     "package.json",
		},
	}
}

func TestBuildBudgetScenario(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()

	bundle, err := builder.Build(metadata, SectionSpec{
		SectionID:       "contributing",
		Categories:      []scanner.Category{scanner.CategoryDocs},
		IncludePatterns: []string{"README.md", "CONTRIBUTING.md"},
		MaxCharacters:   300,
	})
	require.NoError(t, err)

	require.Len(t, bundle.Excerpts, 2)
	assert.Equal(t, "README.md", bundle.Excerpts[0].SourcePath)
	assert.Len(t, bundle.Excerpts[0].Content, 200, "first excerpt kept whole")
	assert.Equal(t, "CONTRIBUTING.md", bundle.Excerpts[1].SourcePath)
	assert.Len(t, bundle.Excerpts[1].Content, 100, "second excerpt head-truncated to fill the budget")
	assert.True(t, bundle.Truncated)
	assert.Equal(t, 300, bundle.TotalCharacters())
}

func TestBuildRanking(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()

	bundle, err := builder.Build(metadata, SectionSpec{SectionID: "overview", MaxCharacters: 10000})
	require.NoError(t, err)

	var order []string
	var weights []int
	for _, excerpt := range bundle.Excerpts {
		order = append(order, excerpt.SourcePath)
		weights = append(weights, excerpt.Weight)
	}

	assert.Equal(t, []string{
		"README.md",
		"CONTRIBUTING.md",
		"package.json",
		"docs/guide.md",
		"src/main.go",
		"docs/deeper/notes.md",
	}, order, "key files in role order, then depth, then path")
	assert.Equal(t, []int{0, 2, 6, 9, 9, 10}, weights)
	assert.False(t, bundle.Truncated)
}

func TestBuildCategoryFilter(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()

	bundle, err := builder.Build(metadata, SectionSpec{
		SectionID:     "api",
		Categories:    []scanner.Category{scanner.CategorySource},
		MaxCharacters: 10000,
	})
	require.NoError(t, err)

	require.Len(t, bundle.Excerpts, 1)
	assert.Equal(t, "src/main.go", bundle.Excerpts[0].SourcePath)
}

func TestBuildIncludePatterns(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()

	t.Run("directory glob", func(t *testing.T) {
		bundle, err := builder.Build(metadata, SectionSpec{
			SectionID:       "guides",
			IncludePatterns: []string{"docs/**"},
			MaxCharacters:   10000,
		})
		require.NoError(t, err)

		var paths []string
		for _, excerpt := range bundle.Excerpts {
			paths = append(paths, excerpt.SourcePath)
		}
		assert.Equal(t, []string{"docs/guide.md", "docs/deeper/notes.md"}, paths)
	})

	t.Run("double star matches the root level too", func(t *testing.T) {
		bundle, err := builder.Build(metadata, SectionSpec{
			SectionID:       "markdown",
			IncludePatterns: []string{"**/*.md"},
			MaxCharacters:   10000,
		})
		require.NoError(t, err)

		var paths []string
		for _, excerpt := range bundle.Excerpts {
			paths = append(paths, excerpt.SourcePath)
		}
		assert.Equal(t, []string{
			"README.md",
			"CONTRIBUTING.md",
			"docs/guide.md",
			"docs/deeper/notes.md",
		}, paths)
	})
}

func TestBuildBudgetBoundaries(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()
	spec := SectionSpec{
		SectionID:       "contributing",
		IncludePatterns: []string{"README.md", "CONTRIBUTING.md"},
	}

	t.Run("exact fit is not truncated", func(t *testing.T) {
		spec.MaxCharacters = 700
		bundle, err := builder.Build(metadata, spec)
		require.NoError(t, err)
		assert.Equal(t, 700, bundle.TotalCharacters())
		assert.False(t, bundle.Truncated)
	})

	t.Run("one character short is truncated", func(t *testing.T) {
		spec.MaxCharacters = 699
		bundle, err := builder.Build(metadata, spec)
		require.NoError(t, err)
		assert.Equal(t, 699, bundle.TotalCharacters())
		assert.True(t, bundle.Truncated)
	})

	t.Run("exhaustion excludes later candidates", func(t *testing.T) {
		spec.MaxCharacters = 200
		bundle, err := builder.Build(metadata, spec)
		require.NoError(t, err)
		require.Len(t, bundle.Excerpts, 1)
		assert.Equal(t, "README.md", bundle.Excerpts[0].SourcePath)
		assert.True(t, bundle.Truncated, "CONTRIBUTING.md left out by exhaustion")
	})

	t.Run("budget below the shortest candidate still yields one excerpt", func(t *testing.T) {
		spec.MaxCharacters = 5
		bundle, err := builder.Build(metadata, spec)
		require.NoError(t, err)
		require.Len(t, bundle.Excerpts, 1)
		assert.Equal(t, "rrrrr", bundle.Excerpts[0].Content)
		assert.True(t, bundle.Truncated)
	})
}

func TestBuildDeterminism(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()
	spec := SectionSpec{SectionID: "overview", MaxCharacters: 450}

	first, err := builder.Build(metadata, spec)
	require.NoError(t, err)
	second, err := builder.Build(metadata, spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildInvalidBudget(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()

	_, err := builder.Build(metadata, SectionSpec{SectionID: "overview", MaxCharacters: 0})
	assert.Error(t, err)
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	metadata := setupBundleRepo(t)
	metadata.Files = append(metadata.Files, scanner.FileEntry{
		RelPath:  "docs/ghost.md",
		Category: scanner.CategoryDocs,
	})
	builder := newTestBuilder()

	bundle, err := builder.Build(metadata, SectionSpec{
		SectionID:       "guides",
		IncludePatterns: []string{"docs/**"},
		MaxCharacters:   10000,
	})
	require.NoError(t, err)

	for _, excerpt := range bundle.Excerpts {
		assert.NotEqual(t, "docs/ghost.md", excerpt.SourcePath)
	}
	assert.Len(t, bundle.Excerpts, 2)
	assert.False(t, bundle.Truncated, "missing files are skipped, not counted against the budget")
}

func TestBuildNoCandidates(t *testing.T) {
	metadata := setupBundleRepo(t)
	builder := newTestBuilder()

	bundle, err := builder.Build(metadata, SectionSpec{
		SectionID:       "none",
		IncludePatterns: []string{"nonexistent/**"},
		MaxCharacters:   100,
	})
	require.NoError(t, err)
	assert.Empty(t, bundle.Excerpts)
	assert.False(t, bundle.Truncated)
}

func TestHeadRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"ascii", "hello", 3, "hel"},
		{"whole string", "hello", 10, "hello"},
		{"zero", "hello", 0, ""},
		{"multibyte boundary", "héllo", 2, "hé"},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, headRunes(tt.input, tt.n))
		})
	}
}
