// validator.go - Post-assembly content checks over the generated site
package site

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Issue is one validation finding. Issues are reported through the
// manifest and the exit report, never treated as fatal.
type Issue struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
	Line   int    `json:"line,omitempty"`
}

// Issue kinds reported by Validate.
const (
	IssuePlaceholder     = "placeholder"
	IssueBrokenLink      = "broken_link"
	IssueEmptySection    = "empty_section"
	IssueUnbalancedFence = "unbalanced_fence"
)

// Leftover tokens that mark unfinished content in a published page.
var placeholderTokens = []string{"[INSERT_", "TODO:", "FIXME:", "[PLACEHOLDER"}

var (
	curlyPlaceholderRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	headingRe          = regexp.MustCompile(`^(#{1,6})\s+(\S.*)$`)
	markdownLinkRe     = regexp.MustCompile(`\]\(([^()\s]+)\)`)
)

// Validate walks every markdown page under outputDir and reports
// leftover placeholders, broken relative links, empty sections and
// unbalanced code fences.
func Validate(outputDir string) []Issue {
	var issues []Issue
	_ = filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".docgen" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".md") && !strings.HasSuffix(p, ".mdx") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(outputDir, p)
		if rerr != nil {
			rel = p
		}
		issues = append(issues, validatePage(outputDir, filepath.ToSlash(rel), string(data))...)
		return nil
	})
	return issues
}

// validatePage checks one page. relPath is slash-separated and relative
// to outputDir; links resolve against the page's own directory.
func validatePage(outputDir, relPath, content string) []Issue {
	var issues []Issue
	lines := strings.Split(content, "\n")

	inFrontmatter := false
	inFence := false
	fenceCount := 0
	lastFenceLine := 0

	headingLine := 0
	headingText := ""
	bodySeen := false

	flushHeading := func() {
		if headingLine > 0 && !bodySeen {
			issues = append(issues, Issue{
				Path:   relPath,
				Kind:   IssueEmptySection,
				Detail: fmt.Sprintf("section %q has no body", headingText),
				Line:   headingLine,
			})
		}
	}

	for i, line := range lines {
		n := i + 1
		trimmed := strings.TrimSpace(line)

		if n == 1 && trimmed == "---" {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if trimmed == "---" {
				inFrontmatter = false
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			fenceCount++
			lastFenceLine = n
			inFence = !inFence
			if headingLine > 0 {
				bodySeen = true
			}
			continue
		}

		for _, token := range placeholderTokens {
			if strings.Contains(line, token) {
				issues = append(issues, Issue{
					Path:   relPath,
					Kind:   IssuePlaceholder,
					Detail: fmt.Sprintf("leftover placeholder %q", token),
					Line:   n,
				})
			}
		}
		if m := curlyPlaceholderRe.FindString(line); m != "" {
			issues = append(issues, Issue{
				Path:   relPath,
				Kind:   IssuePlaceholder,
				Detail: fmt.Sprintf("leftover template expression %q", m),
				Line:   n,
			})
		}

		if inFence {
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flushHeading()
			headingLine = n
			headingText = m[2]
			bodySeen = false
		} else if trimmed != "" && !isHTMLComment(trimmed) {
			bodySeen = true
		}

		for _, m := range markdownLinkRe.FindAllStringSubmatch(line, -1) {
			if issue, broken := checkRelativeLink(outputDir, relPath, m[1], n); broken {
				issues = append(issues, issue)
			}
		}
	}
	flushHeading()

	if fenceCount%2 == 1 {
		issues = append(issues, Issue{
			Path:   relPath,
			Kind:   IssueUnbalancedFence,
			Detail: "unbalanced code fence",
			Line:   lastFenceLine,
		})
	}
	return issues
}

func isHTMLComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "<!--") && strings.HasSuffix(trimmed, "-->")
}

// checkRelativeLink resolves a markdown link target against the page's
// directory. External URLs, anchors and site-absolute routes are left
// to the site build.
func checkRelativeLink(outputDir, relPath, target string, line int) (Issue, bool) {
	if strings.Contains(target, "://") ||
		strings.HasPrefix(target, "mailto:") ||
		strings.HasPrefix(target, "tel:") ||
		strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "/") {
		return Issue{}, false
	}
	file, _, _ := strings.Cut(target, "#")
	if file == "" {
		return Issue{}, false
	}

	base := filepath.Dir(filepath.Join(outputDir, filepath.FromSlash(relPath)))
	resolved := filepath.Join(base, filepath.FromSlash(file))
	for _, candidate := range []string{resolved, resolved + ".md", resolved + ".mdx"} {
		if _, err := os.Stat(candidate); err == nil {
			return Issue{}, false
		}
	}
	return Issue{
		Path:   relPath,
		Kind:   IssueBrokenLink,
		Detail: fmt.Sprintf("link target %q does not exist", target),
		Line:   line,
	}, true
}
