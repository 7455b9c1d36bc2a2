package site

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsite-generator/internal/errs"
	"docsite-generator/test/mocks"
)

func testLayout() LayoutSpec {
	layout := DefaultLayout()
	layout.Sections = layout.Sections[:2]
	layout.Title = "Gizmo Docs"
	layout.Tagline = "Everything about Gizmo"
	return layout
}

func newTestAssembler(t *testing.T, outputDir string) *Assembler {
	t.Helper()
	staging := filepath.Join(outputDir, ".docgen", "tmp-test")
	return NewAssembler(outputDir, staging, "run-1234", "openai/gpt-4o", &mocks.MockLogger{})
}

func layoutSections(layout LayoutSpec) []*ContentSection {
	var sections []*ContentSection
	for _, spec := range layout.Sections {
		sections = append(sections, &ContentSection{
			SectionID:  spec.ID,
			Title:      spec.Title,
			TargetPath: layout.TargetPath(spec),
			Status:     StatusPending,
		})
	}
	return sections
}

func readPage(t *testing.T, outputDir, relPath string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(relPath)))
	require.NoError(t, err)
	return string(data)
}

func writePage(t *testing.T, outputDir, relPath, content string) {
	t.Helper()
	target := filepath.Join(outputDir, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte(content), 0644))
}

func TestAssembleFresh(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()
	sections := layoutSections(layout)
	sections[0].Status = StatusGenerated
	sections[0].GeneratedContent = "## What it is\n\nGizmo processes widgets."
	sections[1].Status = StatusFailed
	sections[1].StatusNote = "model unavailable"

	manifest, err := newTestAssembler(t, out).Assemble(sections, layout, ModeFresh)
	require.NoError(t, err)

	page := readPage(t, out, "docs/overview.md")
	assert.True(t, strings.HasPrefix(page, "---\nid: overview\ntitle: Overview\n---\n\n"))
	assert.Contains(t, page, BeginMarker("overview"))
	assert.Contains(t, page, "Gizmo processes widgets.")
	assert.Contains(t, page, EndMarker("overview"))

	failedPage := readPage(t, out, "docs/installation.md")
	assert.Contains(t, failedPage, ":::caution")
	assert.Contains(t, failedPage, "model unavailable")

	index := readPage(t, out, "docs/index.md")
	assert.Contains(t, index, "slug: /")
	assert.Contains(t, index, "- [Overview](overview.md)")
	assert.Contains(t, index, "- [Installation](installation.md)")

	require.Len(t, manifest.Sections, 2)
	assert.Equal(t, "run-1234", manifest.RunID)
	assert.Equal(t, ModeFresh, manifest.Mode)
	assert.Equal(t, "openai/gpt-4o", manifest.ModelRef)
	assert.Equal(t, StatusGenerated, manifest.Sections[0].Status)
	assert.Equal(t, StatusFailed, manifest.Sections[1].Status)
	assert.Equal(t, []string{"overview", "installation"}, manifest.Navigation)
	assert.Equal(t, 1, manifest.CountByStatus(StatusFailed))
	assert.False(t, manifest.GeneratedAt.IsZero())
}

func TestAssembleTemplateOnly(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()
	sections := layoutSections(layout)

	manifest, err := newTestAssembler(t, out).Assemble(sections, layout, ModeTemplateOnly)
	require.NoError(t, err)

	for _, section := range sections {
		assert.Equal(t, StatusGenerated, section.Status)
		assert.Equal(t, "template placeholder", section.StatusNote)

		page := readPage(t, out, section.TargetPath)
		assert.Contains(t, page, ":::note")
		assert.Contains(t, page, section.Title)
		assert.NotContains(t, page, "{{")
	}
	assert.Equal(t, 2, manifest.CountByStatus(StatusGenerated))
	assert.FileExists(t, filepath.Join(out, "docs", "index.md"))
}

func TestAssembleReviseMergesIntoExistingPage(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()
	layout.Sections = layout.Sections[:1]

	existing := "---\nid: overview\ntitle: Overview\n---\n\nHuman intro kept.\n\n" +
		BeginMarker("overview") + "\nold body\n" + EndMarker("overview") +
		"\n\nHuman footer kept.\n"
	writePage(t, out, "docs/overview.md", existing)

	sections := layoutSections(layout)
	sections[0].Status = StatusGenerated
	sections[0].ExistingContent = existing
	sections[0].GeneratedContent = "new body line one\nline two"

	manifest, err := newTestAssembler(t, out).Assemble(sections, layout, ModeRevise)
	require.NoError(t, err)

	page := readPage(t, out, "docs/overview.md")
	assert.True(t, strings.HasPrefix(page, "---\nid: overview\ntitle: Overview\n---\n\nHuman intro kept.\n\n"+BeginMarker("overview")+"\n"))
	assert.True(t, strings.HasSuffix(page, EndMarker("overview")+"\n\nHuman footer kept.\n"))
	assert.Contains(t, page, "new body line one")
	assert.NotContains(t, page, "old body")
	assert.Contains(t, manifest.Sections[0].Note, "managed region updated")
}

func TestAssembleReviseKeepsReusedPage(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()
	layout.Sections = layout.Sections[:1]

	existing := RenderPage("overview", "Overview", "settled content")
	writePage(t, out, "docs/overview.md", existing)

	sections := layoutSections(layout)
	sections[0].Status = StatusReused
	sections[0].ExistingContent = existing
	sections[0].StatusNote = "inputs unchanged since previous run"

	manifest, err := newTestAssembler(t, out).Assemble(sections, layout, ModeRevise)
	require.NoError(t, err)

	assert.Equal(t, existing, readPage(t, out, "docs/overview.md"))
	assert.Equal(t, StatusReused, manifest.Sections[0].Status)
	assert.Equal(t, "inputs unchanged since previous run", manifest.Sections[0].Note)
}

func TestAssembleReviseFailedKeepsPreviousPage(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()
	layout.Sections = layout.Sections[:1]

	existing := RenderPage("overview", "Overview", "content from last run")
	writePage(t, out, "docs/overview.md", existing)

	sections := layoutSections(layout)
	sections[0].Status = StatusFailed
	sections[0].ExistingContent = existing
	sections[0].StatusNote = "rate limited"

	manifest, err := newTestAssembler(t, out).Assemble(sections, layout, ModeRevise)
	require.NoError(t, err)

	assert.Equal(t, existing, readPage(t, out, "docs/overview.md"))
	assert.Equal(t, StatusFailed, manifest.Sections[0].Status)
	assert.Contains(t, manifest.Sections[0].Note, "previous page kept")
}

func TestAssembleReviseNeverOverwritesMarkerlessPage(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()
	layout.Sections = layout.Sections[:1]

	existing := "# Overview\n\nCompletely hand-written now.\n"
	writePage(t, out, "docs/overview.md", existing)

	sections := layoutSections(layout)
	sections[0].Status = StatusGenerated
	sections[0].ExistingContent = existing
	sections[0].GeneratedContent = "machine content"

	manifest, err := newTestAssembler(t, out).Assemble(sections, layout, ModeRevise)
	require.NoError(t, err)

	assert.Equal(t, existing, readPage(t, out, "docs/overview.md"))
	assert.Equal(t, StatusReused, manifest.Sections[0].Status)
	assert.Contains(t, manifest.Sections[0].Note, "page left untouched")
}

func TestAssembleReviseNeverOverwritesMarkerlessIndex(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()

	existing := "# My Docs\n\nFully hand-written index, no markers.\n"
	writePage(t, out, layout.IndexPath(), existing)

	sections := layoutSections(layout)
	for _, section := range sections {
		section.Status = StatusGenerated
		section.GeneratedContent = "machine content"
	}

	_, err := newTestAssembler(t, out).Assemble(sections, layout, ModeRevise)
	require.NoError(t, err)

	assert.Equal(t, existing, readPage(t, out, layout.IndexPath()))
}

func TestAssembleUnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(out, []byte("not a directory"), 0644))

	_, err := newTestAssembler(t, out).Assemble(nil, testLayout(), ModeFresh)

	var asmErr *errs.TemplateAssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.True(t, errs.IsRunFatal(err))
}

func TestVerifyScaffold(t *testing.T) {
	out := t.TempDir()
	layout := testLayout()

	manifest, err := newTestAssembler(t, out).Assemble(layoutSections(layout), layout, ModeTemplateOnly)
	require.NoError(t, err)

	notes := strings.Join(manifest.Notes, "\n")
	assert.Contains(t, notes, "sidebars.js not present")
	assert.Contains(t, notes, "docusaurus.config.js not present")
	assert.NotContains(t, notes, "index page missing")

	writePage(t, out, "sidebars.js", "module.exports = { docsSidebar: [{ type: 'autogenerated', dirName: '.' }] };\n")
	writePage(t, out, "docusaurus.config.js", "module.exports = { themeConfig: { sidebarId: 'docsSidebar' } };\n")

	manifest, err = newTestAssembler(t, out).Assemble(layoutSections(layout), layout, ModeTemplateOnly)
	require.NoError(t, err)
	assert.Empty(t, manifest.Notes)

	writePage(t, out, "sidebars.js", "module.exports = { otherSidebar: [] };\n")
	manifest, err = newTestAssembler(t, out).Assemble(layoutSections(layout), layout, ModeTemplateOnly)
	require.NoError(t, err)
	require.Len(t, manifest.Notes, 1)
	assert.Contains(t, manifest.Notes[0], "does not define sidebar id")
}

func TestLayoutSelect(t *testing.T) {
	layout := DefaultLayout()

	selected := layout.Select([]string{"api", "overview", "unknown"})
	require.Len(t, selected.Sections, 2)
	assert.Equal(t, "overview", selected.Sections[0].ID)
	assert.Equal(t, "api", selected.Sections[1].ID)

	assert.Len(t, layout.Select(nil).Sections, len(layout.Sections))
}
