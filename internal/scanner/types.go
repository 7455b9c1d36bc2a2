// types.go - Repository metadata model

package scanner

import "sort"

// Category classifies a file or directory by its likely purpose.
type Category string

const (
	CategorySource Category = "source"
	CategoryTest   Category = "test"
	CategoryDocs   Category = "docs"
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryVendor Category = "vendor"
	CategoryOther  Category = "other"
)

// Role identifies a well-known repository file.
type Role string

const (
	RoleReadme        Role = "readme"
	RoleLicense       Role = "license"
	RoleContributing  Role = "contributing"
	RoleChangelog     Role = "changelog"
	RoleCodeOfConduct Role = "code_of_conduct"
	RoleSecurity      Role = "security"
	RoleManifest      Role = "manifest"
)

// RolePriority orders roles by importance. The context builder ranks key
// files in this order.
var RolePriority = []Role{
	RoleReadme,
	RoleLicense,
	RoleContributing,
	RoleChangelog,
	RoleCodeOfConduct,
	RoleSecurity,
	RoleManifest,
}

// LanguageStat accumulates per-language totals across a scan.
type LanguageStat struct {
	FileCount int `json:"fileCount"`
	LineCount int `json:"lineCount"`
}

// FileEntry is one scanned file, retained for context building.
type FileEntry struct {
	RelPath  string   `json:"relPath"`
	Size     int64    `json:"size"`
	Category Category `json:"category"`
	Language string   `json:"language,omitempty"`
}

// ProjectMetadata holds fields extracted from the repository's manifest.
// Source names the manifest file the values came from; it is empty when
// the repository carries none.
type ProjectMetadata struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Description     string   `json:"description"`
	Author          string   `json:"author,omitempty"`
	License         string   `json:"license,omitempty"`
	RepoURL         string   `json:"repoUrl,omitempty"`
	Dependencies    []string `json:"dependencies,omitempty"`
	DevDependencies []string `json:"devDependencies,omitempty"`
	Source          string   `json:"source"`
}

// RepositoryMetadata is the snapshot a scan produces. It is created once
// per run and never mutated afterwards.
type RepositoryMetadata struct {
	RootPath            string
	Files               []FileEntry
	LanguageStats       map[string]*LanguageStat
	DirectoryCategories map[string]Category
	KeyFiles            map[Role]string
	ProjectMetadata     *ProjectMetadata
}

// TotalFiles counts every scanned file, recognized language or not.
func (m *RepositoryMetadata) TotalFiles() int {
	return len(m.Files)
}

// TotalLines sums line counts across all recognized languages.
func (m *RepositoryMetadata) TotalLines() int {
	total := 0
	for _, stat := range m.LanguageStats {
		total += stat.LineCount
	}
	return total
}

// PrimaryLanguage returns the language with the most files, breaking ties
// lexicographically. Empty when no file had a recognized language.
func (m *RepositoryMetadata) PrimaryLanguage() string {
	names := make([]string, 0, len(m.LanguageStats))
	for name := range m.LanguageStats {
		names = append(names, name)
	}
	sort.Strings(names)

	primary := ""
	best := 0
	for _, name := range names {
		if count := m.LanguageStats[name].FileCount; count > best {
			primary = name
			best = count
		}
	}
	return primary
}

// FilesInCategories returns the scanned files belonging to any of the
// given categories, preserving scan order.
func (m *RepositoryMetadata) FilesInCategories(categories ...Category) []FileEntry {
	allowed := make(map[Category]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	var matched []FileEntry
	for _, f := range m.Files {
		if allowed[f.Category] {
			matched = append(matched, f)
		}
	}
	return matched
}
