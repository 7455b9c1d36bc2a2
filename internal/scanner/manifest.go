// manifest.go - Project metadata extraction from manifest files

package scanner

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// Manifest formats in priority order. The first one present at the
// repository root is parsed and stops the search; values from different
// manifests are never merged.
var manifestPriority = []string{"package.json", "pyproject.toml", "Cargo.toml", "go.mod", "pom.xml"}

func (s *Scanner) extractProjectMetadata(rootPath string, metadata *RepositoryMetadata) *ProjectMetadata {
	project := &ProjectMetadata{}

	for _, name := range manifestPriority {
		data, err := os.ReadFile(filepath.Join(rootPath, name))
		if err != nil {
			continue
		}
		if parseErr := parseManifest(name, data, project); parseErr != nil {
			s.logger.Warn("failed to parse manifest %s: %v", name, parseErr)
		} else {
			project.Source = name
			s.logger.Debug("extracted project metadata from %s", name)
		}
		break
	}

	// The README fills gaps the manifest left: first heading as the name,
	// first paragraph as the description.
	if readmePath, ok := metadata.KeyFiles[RoleReadme]; ok && (project.Name == "" || project.Description == "") {
		if content, err := os.ReadFile(filepath.Join(rootPath, readmePath)); err == nil {
			fillFromReadme(string(content), project)
		}
	}

	if project.Name == "" {
		if abs, err := filepath.Abs(rootPath); err == nil {
			project.Name = filepath.Base(abs)
		} else {
			project.Name = filepath.Base(rootPath)
		}
	}
	return project
}

func parseManifest(name string, data []byte, project *ProjectMetadata) error {
	switch name {
	case "package.json":
		return parsePackageJSON(data, project)
	case "pyproject.toml":
		return parsePyprojectTOML(data, project)
	case "Cargo.toml":
		return parseCargoTOML(data, project)
	case "go.mod":
		return parseGoMod(data, project)
	case "pom.xml":
		return parsePomXML(data, project)
	}
	return fmt.Errorf("unsupported manifest: %s", name)
}

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Author          json.RawMessage   `json:"author"`
	License         string            `json:"license"`
	Repository      json.RawMessage   `json:"repository"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func parsePackageJSON(data []byte, project *ProjectMetadata) error {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("failed to parse package.json: %w", err)
	}
	project.Name = pkg.Name
	project.Version = pkg.Version
	project.Description = pkg.Description
	project.License = pkg.License
	project.Author = jsonStringOrField(pkg.Author, "name")
	project.RepoURL = jsonStringOrField(pkg.Repository, "url")
	project.Dependencies = sortedKeys(pkg.Dependencies)
	project.DevDependencies = sortedKeys(pkg.DevDependencies)
	return nil
}

type pyprojectTOML struct {
	Project struct {
		Name         string   `toml:"name"`
		Version      string   `toml:"version"`
		Description  string   `toml:"description"`
		Dependencies []string `toml:"dependencies"`
		Authors      []struct {
			Name  string `toml:"name"`
			Email string `toml:"email"`
		} `toml:"authors"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string         `toml:"name"`
			Version      string         `toml:"version"`
			Description  string         `toml:"description"`
			License      string         `toml:"license"`
			Authors      []string       `toml:"authors"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
	BuildSystem struct {
		Requires []string `toml:"requires"`
	} `toml:"build-system"`
}

func parsePyprojectTOML(data []byte, project *ProjectMetadata) error {
	var py pyprojectTOML
	if err := toml.Unmarshal(data, &py); err != nil {
		return fmt.Errorf("failed to parse pyproject.toml: %w", err)
	}

	if poetry := py.Tool.Poetry; poetry.Name != "" {
		project.Name = poetry.Name
		project.Version = poetry.Version
		project.Description = poetry.Description
		project.License = poetry.License
		if len(poetry.Authors) > 0 {
			project.Author = poetry.Authors[0]
		}
		project.Dependencies = sortedAnyKeys(poetry.Dependencies)
	} else {
		proj := py.Project
		project.Name = proj.Name
		project.Version = proj.Version
		project.Description = proj.Description
		if len(proj.Authors) > 0 {
			project.Author = proj.Authors[0].Name
		}
		project.Dependencies = proj.Dependencies
	}

	if len(py.BuildSystem.Requires) > 0 {
		project.DevDependencies = py.BuildSystem.Requires
	}
	return nil
}

type cargoTOML struct {
	Package struct {
		Name        string   `toml:"name"`
		Version     string   `toml:"version"`
		Description string   `toml:"description"`
		Authors     []string `toml:"authors"`
		License     string   `toml:"license"`
		Repository  string   `toml:"repository"`
	} `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

func parseCargoTOML(data []byte, project *ProjectMetadata) error {
	var cargo cargoTOML
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return fmt.Errorf("failed to parse Cargo.toml: %w", err)
	}
	project.Name = cargo.Package.Name
	project.Version = cargo.Package.Version
	project.Description = cargo.Package.Description
	project.License = cargo.Package.License
	project.RepoURL = cargo.Package.Repository
	if len(cargo.Package.Authors) > 0 {
		project.Author = cargo.Package.Authors[0]
	}
	project.Dependencies = sortedAnyKeys(cargo.Dependencies)
	return nil
}

func parseGoMod(data []byte, project *ProjectMetadata) error {
	file, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if file.Module != nil {
		project.Name = file.Module.Mod.Path
	}
	var deps []string
	for _, req := range file.Require {
		if !req.Indirect {
			deps = append(deps, req.Mod.Path)
		}
	}
	project.Dependencies = deps
	return nil
}

type pomXML struct {
	XMLName      xml.Name `xml:"project"`
	GroupID      string   `xml:"groupId"`
	ArtifactID   string   `xml:"artifactId"`
	Version      string   `xml:"version"`
	Name         string   `xml:"name"`
	Description  string   `xml:"description"`
	URL          string   `xml:"url"`
	Dependencies struct {
		Dependency []struct {
			GroupID    string `xml:"groupId"`
			ArtifactID string `xml:"artifactId"`
		} `xml:"dependency"`
	} `xml:"dependencies"`
}

func parsePomXML(data []byte, project *ProjectMetadata) error {
	var pom pomXML
	if err := xml.Unmarshal(data, &pom); err != nil {
		return fmt.Errorf("failed to parse pom.xml: %w", err)
	}
	project.Name = pom.Name
	if project.Name == "" {
		project.Name = pom.ArtifactID
	}
	project.Version = pom.Version
	project.Description = pom.Description
	project.RepoURL = pom.URL
	var deps []string
	for _, dep := range pom.Dependencies.Dependency {
		deps = append(deps, dep.GroupID+":"+dep.ArtifactID)
	}
	project.Dependencies = deps
	return nil
}

var (
	readmeTitleRe  = regexp.MustCompile(`(?m)^#\s+(.+)`)
	readmeDescRe   = regexp.MustCompile(`(?s)#.+\n+(.+?)(\n\n|\n#|$)`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	markdownMarkRe = regexp.MustCompile("[*_`]")
)

// fillFromReadme takes the README's first heading as the project name and
// its first paragraph as the description, for fields the manifest left
// empty. Markdown links and inline formatting are stripped from the
// description.
func fillFromReadme(content string, project *ProjectMetadata) {
	if project.Name == "" {
		if m := readmeTitleRe.FindStringSubmatch(content); m != nil {
			project.Name = strings.TrimSpace(m[1])
		}
	}
	if project.Description == "" {
		if m := readmeDescRe.FindStringSubmatch(content); m != nil {
			desc := strings.TrimSpace(m[1])
			desc = markdownLinkRe.ReplaceAllString(desc, "$1")
			desc = markdownMarkRe.ReplaceAllString(desc, "")
			project.Description = desc
		}
	}
}

// jsonStringOrField reads a package.json value that may be either a
// plain string or an object, returning the string itself or the
// object's named string field. package.json allows both forms for
// author and repository.
func jsonStringOrField(raw json.RawMessage, field string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if err := json.Unmarshal(obj[field], &s); err != nil {
		return ""
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
