package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docsite-generator/internal/config"
	"docsite-generator/internal/errs"
	"docsite-generator/test/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanConfig = config.ConfigScan{
	ExcludeDirs:   config.DefaultExcludeDirs,
	MaxFileSizeKB: 100,
	MaxFiles:      10000,
}

func newTestScanner(cfg config.ConfigScan) *Scanner {
	return NewScanner(cfg, &mocks.MockLogger{})
}

func setupTestRepo(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	dirs := []string{
		"src",
		filepath.Join("src", "pkg"),
		"docs",
		"tests",
		"assets",
		filepath.Join(".github", "workflows"),
		filepath.Join("node_modules", "left-pad"),
	}
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tempDir, dir), 0755))
	}

	files := map[string]string{
		"README.md":       "# Demo App\n\nA demo application for scanning.\n",
		"CONTRIBUTING.md": "# Contributing\n\nPlease open a pull request.\n",
		"package.json": `{
  "name": "demo-app",
  "version": "1.2.3",
  "description": "A demo application",
  "author": {"name": "Ada"},
  "license": "MIT",
  "repository": {"url": "https://example.com/demo.git"},
  "dependencies": {"react": "^18.0.0", "axios": "^1.0.0"},
  "devDependencies": {"jest": "^29.0.0"}
}`,
		".gitignore": "*.log\n",
		filepath.Join("src", "main.go"):                      "package main\n\nfunc main() {}\n",
		filepath.Join("src", "pkg", "util.go"):               "package pkg\n",
		filepath.Join("src", "debug.log"):                    "noise",
		filepath.Join("docs", "guide.md"):                    "# Guide\n",
		filepath.Join("tests", "test_app.py"):                "def test_app():\n    pass\n",
		filepath.Join("assets", "logo.svg"):                  "<svg/>",
		filepath.Join(".github", "workflows", "ci.yml"):      "on: push\n",
		filepath.Join("node_modules", "left-pad", "index.js"): "module.exports = {}\n",
	}
	for path, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, path), []byte(content), 0644))
	}

	return tempDir
}

func TestLoadIgnoreRules(t *testing.T) {
	s := newTestScanner(scanConfig)

	t.Run("default rules only", func(t *testing.T) {
		ignore := s.loadIgnoreRules(t.TempDir())
		require.NotNil(t, ignore)

		assert.True(t, ignore.MatchesPath("node_modules/left-pad/index.js"))
		assert.True(t, ignore.MatchesPath(".git/config"))
		assert.True(t, ignore.MatchesPath("dist/bundle.js"))
		assert.False(t, ignore.MatchesPath("src/main.go"))
	})

	t.Run("merge gitignore rules", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(tempDir, ".gitignore"),
			[]byte("# generated\n/generated\n*.log\n"), 0644))

		ignore := s.loadIgnoreRules(tempDir)
		require.NotNil(t, ignore)

		assert.True(t, ignore.MatchesPath("generated/out.txt"), "gitignore rule")
		assert.True(t, ignore.MatchesPath("src/main.log"), "gitignore rule")
		assert.True(t, ignore.MatchesPath("node_modules/x"), "default rule")
		assert.False(t, ignore.MatchesPath("src/main.go"))
	})
}

func TestScan(t *testing.T) {
	repoPath := setupTestRepo(t)
	s := newTestScanner(scanConfig)

	metadata, err := s.Scan(repoPath)
	require.NoError(t, err)
	require.NotNil(t, metadata)

	scanned := make(map[string]FileEntry)
	for _, f := range metadata.Files {
		scanned[f.RelPath] = f
	}

	t.Run("exclusions", func(t *testing.T) {
		assert.NotContains(t, scanned, "node_modules/left-pad/index.js", "excluded directory")
		assert.NotContains(t, scanned, "src/debug.log", "gitignore rule")
		assert.Contains(t, scanned, "src/main.go")
		assert.Contains(t, scanned, "README.md")
	})

	t.Run("directory categories", func(t *testing.T) {
		assert.Equal(t, CategorySource, metadata.DirectoryCategories["."])
		assert.Equal(t, CategorySource, metadata.DirectoryCategories["src"])
		assert.Equal(t, CategorySource, metadata.DirectoryCategories["src/pkg"], "inherits when name also matches")
		assert.Equal(t, CategoryDocs, metadata.DirectoryCategories["docs"])
		assert.Equal(t, CategoryTest, metadata.DirectoryCategories["tests"])
		assert.Equal(t, CategoryOther, metadata.DirectoryCategories["assets"])
		assert.Equal(t, CategoryConfig, metadata.DirectoryCategories[".github"])
		assert.Equal(t, CategoryConfig, metadata.DirectoryCategories[".github/workflows"], "inherits from .github")
	})

	t.Run("file categories", func(t *testing.T) {
		assert.Equal(t, CategoryDocs, scanned["README.md"].Category)
		assert.Equal(t, CategoryDocs, scanned["CONTRIBUTING.md"].Category)
		assert.Equal(t, CategoryConfig, scanned["package.json"].Category)
		assert.Equal(t, CategorySource, scanned["src/main.go"].Category)
		assert.Equal(t, CategoryTest, scanned["tests/test_app.py"].Category)
		assert.Equal(t, CategoryOther, scanned["assets/logo.svg"].Category)
		assert.Equal(t, CategoryConfig, scanned[".github/workflows/ci.yml"].Category)
	})

	t.Run("language stats", func(t *testing.T) {
		require.Contains(t, metadata.LanguageStats, "Go")
		assert.Equal(t, 2, metadata.LanguageStats["Go"].FileCount)
		assert.Equal(t, 4, metadata.LanguageStats["Go"].LineCount)
		require.Contains(t, metadata.LanguageStats, "Python")
		assert.Equal(t, 1, metadata.LanguageStats["Python"].FileCount)
		assert.NotContains(t, metadata.LanguageStats, "SVG", "unknown extensions never touch language stats")
		assert.Equal(t, "Markdown", metadata.PrimaryLanguage())
	})

	t.Run("key files", func(t *testing.T) {
		assert.Equal(t, "README.md", metadata.KeyFiles[RoleReadme])
		assert.Equal(t, "CONTRIBUTING.md", metadata.KeyFiles[RoleContributing])
		assert.Equal(t, "package.json", metadata.KeyFiles[RoleManifest])
	})

	t.Run("project metadata", func(t *testing.T) {
		project := metadata.ProjectMetadata
		require.NotNil(t, project)
		assert.Equal(t, "demo-app", project.Name)
		assert.Equal(t, "1.2.3", project.Version)
		assert.Equal(t, "A demo application", project.Description)
		assert.Equal(t, "Ada", project.Author)
		assert.Equal(t, "MIT", project.License)
		assert.Equal(t, "https://example.com/demo.git", project.RepoURL)
		assert.Equal(t, []string{"axios", "react"}, project.Dependencies, "sorted for determinism")
		assert.Equal(t, "package.json", project.Source)
	})

	t.Run("summary helpers", func(t *testing.T) {
		assert.Equal(t, len(metadata.Files), metadata.TotalFiles())
		assert.Positive(t, metadata.TotalLines())

		var docPaths []string
		for _, f := range metadata.FilesInCategories(CategoryDocs) {
			docPaths = append(docPaths, f.RelPath)
		}
		assert.ElementsMatch(t, []string{"README.md", "CONTRIBUTING.md", "docs/guide.md"}, docPaths)
		assert.Empty(t, metadata.FilesInCategories(), "no categories admits nothing")
	})
}

func TestScanDeterminism(t *testing.T) {
	repoPath := setupTestRepo(t)
	s := newTestScanner(scanConfig)

	first, err := s.Scan(repoPath)
	require.NoError(t, err)
	second, err := s.Scan(repoPath)
	require.NoError(t, err)

	assert.Equal(t, first, second, "scanning an unchanged tree twice yields equal metadata")
}

func TestScanMissingRoot(t *testing.T) {
	s := newTestScanner(scanConfig)

	_, err := s.Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	var scanErr *errs.ScanError
	assert.True(t, errors.As(err, &scanErr))
}

func TestScanRootIsFile(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "plain.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	s := newTestScanner(scanConfig)
	_, err := s.Scan(filePath)

	var scanErr *errs.ScanError
	assert.True(t, errors.As(err, &scanErr))
}

func TestScanFileCaps(t *testing.T) {
	t.Run("max files truncates the scan", func(t *testing.T) {
		repoPath := setupTestRepo(t)
		cfg := scanConfig
		cfg.MaxFiles = 3

		metadata, err := newTestScanner(cfg).Scan(repoPath)
		require.NoError(t, err)
		assert.Len(t, metadata.Files, 3)
	})

	t.Run("oversized files are skipped", func(t *testing.T) {
		tempDir := t.TempDir()
		big := make([]byte, 2048)
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "big.go"), big, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "small.go"), []byte("package x\n"), 0644))

		cfg := scanConfig
		cfg.MaxFileSizeKB = 1
		metadata, err := newTestScanner(cfg).Scan(tempDir)
		require.NoError(t, err)

		require.Len(t, metadata.Files, 1)
		assert.Equal(t, "small.go", metadata.Files[0].RelPath)
	})
}

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		name        string
		relPath     string
		dirCategory Category
		want        Category
	}{
		{"source file in source dir", "src/main.go", CategorySource, CategorySource},
		{"markdown is docs wherever it lives", "src/NOTES.md", CategorySource, CategoryDocs},
		{"readme without extension", "README", CategorySource, CategoryDocs},
		{"test file name beats source dir", "src/app_test.go", CategorySource, CategoryTest},
		{"test dir beats doc extension", "tests/fixtures.md", CategoryTest, CategoryTest},
		{"cmake lists is build, not docs", "CMakeLists.txt", CategorySource, CategoryBuild},
		{"dockerfile", "Dockerfile", CategorySource, CategoryBuild},
		{"manifest is config", "package.json", CategorySource, CategoryConfig},
		{"ini extension is config", "deploy/settings.ini", CategorySource, CategoryConfig},
		{"vendor dir wins for plain source", "vendor/lib.go", CategoryVendor, CategoryVendor},
		{"unknown file inherits dir", "assets/logo.svg", CategoryOther, CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyFile(tt.relPath, tt.dirCategory))
		})
	}
}

func TestSelectKeyFiles(t *testing.T) {
	t.Run("candidate order dominates depth", func(t *testing.T) {
		files := []FileEntry{
			{RelPath: "readme.txt"},
			{RelPath: "docs/README.md"},
		}
		keyFiles := selectKeyFiles(files)
		assert.Equal(t, "docs/README.md", keyFiles[RoleReadme], "readme.md candidates beat readme.txt anywhere")
	})

	t.Run("depth breaks ties within a candidate", func(t *testing.T) {
		files := []FileEntry{
			{RelPath: "docs/README.md"},
			{RelPath: "README.md"},
		}
		keyFiles := selectKeyFiles(files)
		assert.Equal(t, "README.md", keyFiles[RoleReadme])
	})

	t.Run("bare license beats license.md", func(t *testing.T) {
		files := []FileEntry{
			{RelPath: "LICENSE.md"},
			{RelPath: "LICENSE"},
		}
		keyFiles := selectKeyFiles(files)
		assert.Equal(t, "LICENSE", keyFiles[RoleLicense])
	})

	t.Run("missing roles stay absent", func(t *testing.T) {
		keyFiles := selectKeyFiles([]FileEntry{{RelPath: "main.go"}})
		assert.Empty(t, keyFiles)
	})
}
