// prompts.go - Hierarchical prompt configuration tree
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"docsite-generator/internal/errs"
)

// ContextSeparator joins the context strings collected along a prompt path.
const ContextSeparator = "\n\n"

//go:embed prompts.yaml
var defaultDocument []byte

// RepoContextSpec narrows the repository context attached to a node.
// Unset fields inherit from the nearest ancestor that sets them.
type RepoContextSpec struct {
	Categories      []string `yaml:"categories"`
	IncludePatterns []string `yaml:"include_patterns"`
	MaxCharacters   int      `yaml:"max_characters"`
}

// Node is one level of the prompt configuration. The mapping keys
// "context", "prompt" and "repository_context" are node fields; every
// other key introduces a child node.
type Node struct {
	Context     string
	Prompt      string
	ContextSpec *RepoContextSpec
	Children    map[string]*Node
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("prompt node must be a mapping, got %s at line %d", value.Tag, value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valueNode := value.Content[i], value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("failed to decode prompt node key at line %d: %w", keyNode.Line, err)
		}

		switch key {
		case "context":
			if err := valueNode.Decode(&n.Context); err != nil {
				return fmt.Errorf("failed to decode context at line %d: %w", valueNode.Line, err)
			}
		case "prompt":
			if err := valueNode.Decode(&n.Prompt); err != nil {
				return fmt.Errorf("failed to decode prompt at line %d: %w", valueNode.Line, err)
			}
		case "repository_context":
			spec := &RepoContextSpec{}
			if err := valueNode.Decode(spec); err != nil {
				return fmt.Errorf("failed to decode repository_context at line %d: %w", valueNode.Line, err)
			}
			n.ContextSpec = spec
		default:
			child := &Node{}
			if err := valueNode.Decode(child); err != nil {
				return fmt.Errorf("failed to decode prompt node %q: %w", key, err)
			}
			if n.Children == nil {
				n.Children = make(map[string]*Node)
			}
			n.Children[key] = child
		}
	}
	return nil
}

// Resolved is the outcome of walking one prompt path.
type Resolved struct {
	EffectiveContext string
	Prompt           string
	ContextSpec      *RepoContextSpec
}

// Tree is the loaded prompt configuration. It is built once and is
// read-only afterwards, so concurrent resolution is safe.
type Tree struct {
	root *Node
}

// Load reads and parses a prompt configuration file.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt configuration %s: %w", path, err)
	}
	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt configuration %s: %w", path, err)
	}
	return tree, nil
}

// Parse builds the node tree from a YAML document.
func Parse(data []byte) (*Tree, error) {
	root := &Node{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("failed to parse prompt configuration: %w", err)
	}
	return &Tree{root: root}, nil
}

// Default returns the compiled-in prompt configuration.
func Default() (*Tree, error) {
	return Parse(defaultDocument)
}

// Resolve walks path from the root, collecting every visited node's
// non-empty context. The effective context is the ordered join with
// ContextSeparator. The leaf's prompt is required and returned verbatim;
// prompts never inherit. Context specs merge field by field with the
// nearest setting winning.
func (t *Tree) Resolve(sectionID string, path []string) (*Resolved, error) {
	current := t.root
	var contexts []string
	var spec *RepoContextSpec

	if current.Context != "" {
		contexts = append(contexts, current.Context)
	}
	spec = mergeSpec(spec, current.ContextSpec)

	for _, segment := range path {
		child, ok := current.Children[segment]
		if !ok {
			return nil, errs.NewPromptResolutionError(sectionID, strings.Join(path, "/"),
				fmt.Errorf("unknown prompt path segment %q", segment))
		}
		current = child
		if current.Context != "" {
			contexts = append(contexts, current.Context)
		}
		spec = mergeSpec(spec, current.ContextSpec)
	}

	if current.Prompt == "" {
		return nil, errs.NewPromptResolutionError(sectionID, strings.Join(path, "/"),
			errors.New("node carries no prompt"))
	}

	return &Resolved{
		EffectiveContext: strings.Join(contexts, ContextSeparator),
		Prompt:           current.Prompt,
		ContextSpec:      spec,
	}, nil
}

// Validate reports prompt configuration problems that Resolve would only
// surface section by section, one message per dead-end leaf.
func (t *Tree) Validate() []string {
	var issues []string
	validateNode(t.root, "", &issues)
	return issues
}

func validateNode(node *Node, path string, issues *[]string) {
	if len(node.Children) == 0 && node.Prompt == "" {
		name := path
		if name == "" {
			name = "(root)"
		}
		*issues = append(*issues, fmt.Sprintf("prompt path %s: leaf node carries no prompt", name))
		return
	}

	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		childPath := name
		if path != "" {
			childPath = path + "/" + name
		}
		validateNode(node.Children[name], childPath, issues)
	}
}

func mergeSpec(base, next *RepoContextSpec) *RepoContextSpec {
	if next == nil {
		return base
	}
	merged := &RepoContextSpec{}
	if base != nil {
		*merged = *base
	}
	if len(next.Categories) > 0 {
		merged.Categories = next.Categories
	}
	if len(next.IncludePatterns) > 0 {
		merged.IncludePatterns = next.IncludePatterns
	}
	if next.MaxCharacters > 0 {
		merged.MaxCharacters = next.MaxCharacters
	}
	return merged
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Substitute replaces {name} placeholders in text with vars values in a
// single pass. Unknown placeholders are left intact, and placeholders
// inside substituted values are not expanded again.
func Substitute(text string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		if value, ok := vars[match[1:len(match)-1]]; ok {
			return value
		}
		return match
	})
}

// SplitPath turns a slash-separated prompt path into its segments.
func SplitPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
