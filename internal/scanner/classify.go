// classify.go - Category and language heuristics

package scanner

import (
	"path"
	"sort"
	"strings"

	"docsite-generator/internal/utils"
)

// File extensions to programming languages mapping
var languageExtensions = map[string]string{
	".py":         "Python",
	".js":         "JavaScript",
	".jsx":        "React",
	".ts":         "TypeScript",
	".tsx":        "React",
	".java":       "Java",
	".c":          "C",
	".cpp":        "C++",
	".cxx":        "C++",
	".cc":         "C++",
	".h":          "C/C++",
	".hpp":        "C++",
	".go":         "Go",
	".rs":         "Rust",
	".rb":         "Ruby",
	".php":        "PHP",
	".swift":      "Swift",
	".kt":         "Kotlin",
	".scala":      "Scala",
	".cs":         "C#",
	".r":          "R",
	".pl":         "Perl",
	".lua":        "Lua",
	".m":          "Objective-C",
	".sh":         "Shell",
	".bash":       "Shell",
	".zsh":        "Shell",
	".fish":       "Shell",
	".html":       "HTML",
	".htm":        "HTML",
	".css":        "CSS",
	".scss":       "SCSS",
	".sass":       "Sass",
	".less":       "Less",
	".md":         "Markdown",
	".markdown":   "Markdown",
	".json":       "JSON",
	".xml":        "XML",
	".yaml":       "YAML",
	".yml":        "YAML",
	".toml":       "TOML",
	".sql":        "SQL",
	".dockerfile": "Docker",
	".docker":     "Docker",
}

func nameSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// Directory name sets for category classification, checked in rule order.
var (
	testDirNames   = nameSet("test", "tests", "testing", "spec", "specs", "__tests__", "e2e")
	docDirNames    = nameSet("docs", "doc", "documentation", "wiki", "manual", "guide")
	buildDirNames  = nameSet("build", "dist", "target", "out", "bin", "release", "debug")
	configDirNames = nameSet("config", "conf", "cfg", "settings", ".github", ".circleci")
	vendorDirNames = nameSet("vendor", "node_modules", "third_party", "external")
	sourceDirNames = nameSet("src", "lib", "app", "core", "source", "code", "pkg", "internal", "cmd")
	assetDirNames  = nameSet("assets", "static", "img", "images", "media", "public", "fonts")
)

// Markdown-family extensions that mark a file as documentation on their
// own. Plain .txt is excluded so files like CMakeLists.txt keep their
// build classification.
var docExtensions = nameSet(".md", ".mdx", ".markdown", ".rst", ".adoc")

// Well-known documentation base names, matched with any extension.
var docBaseNames = nameSet(
	"readme", "license", "licence", "copying", "contributing", "contribute",
	"changelog", "history", "authors", "contributors", "notice",
	"code_of_conduct", "code-of-conduct", "security",
)

// Build-tool file names and extensions.
var buildFileNames = nameSet(
	"makefile", "gnumakefile", "cmakelists.txt", "dockerfile",
	"docker-compose.yml", "docker-compose.yaml", "jenkinsfile",
	"rakefile", "justfile",
)

var buildFileExtensions = nameSet(".gradle", ".mk", ".cmake", ".bazel")

// Well-known configuration file names.
var configFileNames = nameSet(
	"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"pyproject.toml", "setup.py", "setup.cfg", "requirements.txt", "tox.ini",
	"cargo.toml", "cargo.lock", "go.mod", "go.sum", "pom.xml",
	"composer.json", "gemfile", "gemfile.lock", "tsconfig.json",
	".gitignore", ".gitattributes", ".editorconfig", ".dockerignore",
	".npmrc", ".nvmrc", ".babelrc", ".eslintrc", ".prettierrc",
)

var configFileExtensions = nameSet(".ini", ".cfg", ".conf", ".properties")

// Key file candidates per role, in preference order. Matching is
// case-insensitive on the base name; earlier candidates beat later ones,
// then shallower paths beat deeper ones.
var keyFileCandidates = map[Role][]string{
	RoleReadme:        {"readme.md", "readme.txt", "readme.rst", "readme"},
	RoleLicense:       {"license", "license.md", "license.txt", "copying", "copyright"},
	RoleContributing:  {"contributing.md", "contribute.md", "contributing.rst", "contributing.txt", "contributing"},
	RoleChangelog:     {"changelog.md", "history.md", "releases.md", "changes.md", "changelog"},
	RoleCodeOfConduct: {"code_of_conduct.md", "code-of-conduct.md"},
	RoleSecurity:      {"security.md"},
	RoleManifest:      {"package.json", "pyproject.toml", "cargo.toml", "go.mod", "pom.xml"},
}

// classifyDirName classifies a single directory name. The second return
// is false when no rule matches and the directory inherits its parent's
// category.
func classifyDirName(name string) (Category, bool) {
	lower := strings.ToLower(name)
	switch {
	case testDirNames[lower]:
		return CategoryTest, true
	case docDirNames[lower]:
		return CategoryDocs, true
	case buildDirNames[lower]:
		return CategoryBuild, true
	case configDirNames[lower]:
		return CategoryConfig, true
	case vendorDirNames[lower]:
		return CategoryVendor, true
	case sourceDirNames[lower]:
		return CategorySource, true
	case assetDirNames[lower]:
		return CategoryOther, true
	}
	return "", false
}

// classifyFile decides a file's category from its own name first, falling
// back to the owning directory's category. Rule order is fixed: test,
// docs, build, config, vendor, then the directory.
func classifyFile(relPath string, dirCategory Category) Category {
	base := strings.ToLower(path.Base(relPath))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, ext)

	switch {
	case dirCategory == CategoryTest || isTestFileName(base):
		return CategoryTest
	case dirCategory == CategoryDocs || docExtensions[ext] || docBaseNames[stem] || docBaseNames[base]:
		return CategoryDocs
	case dirCategory == CategoryBuild || buildFileNames[base] || buildFileExtensions[ext]:
		return CategoryBuild
	case dirCategory == CategoryConfig || configFileNames[base] || configFileExtensions[ext]:
		return CategoryConfig
	case dirCategory == CategoryVendor:
		return CategoryVendor
	}
	return dirCategory
}

func isTestFileName(base string) bool {
	return strings.Contains(base, "_test.") ||
		strings.HasPrefix(base, "test_") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(base, ".test.") ||
		base == "conftest.py"
}

// detectLanguage maps a file name to its programming language, or "" when
// the extension is not recognized.
func detectLanguage(relPath string) string {
	base := strings.ToLower(path.Base(relPath))
	if base == "dockerfile" || strings.HasPrefix(base, "dockerfile.") {
		return "Docker"
	}
	return languageExtensions[strings.ToLower(path.Ext(base))]
}

// selectKeyFiles picks one path per role out of the scanned files.
// Preference: candidate list order, then path depth, then lexicographic
// path order.
func selectKeyFiles(files []FileEntry) map[Role]string {
	byBase := make(map[string][]string)
	for _, f := range files {
		base := strings.ToLower(path.Base(f.RelPath))
		byBase[base] = append(byBase[base], f.RelPath)
	}

	keyFiles := make(map[Role]string)
	for role, candidates := range keyFileCandidates {
		for _, candidate := range candidates {
			paths := byBase[candidate]
			if len(paths) == 0 {
				continue
			}
			sort.Slice(paths, func(i, j int) bool {
				di, dj := utils.PathDepth(paths[i]), utils.PathDepth(paths[j])
				if di != dj {
					return di < dj
				}
				return paths[i] < paths[j]
			})
			keyFiles[role] = paths[0]
			break
		}
	}
	return keyFiles
}
