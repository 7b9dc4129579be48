package letters

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFiles embed.FS

// tokenRe matches anything in double braces so malformed keys are caught at load.
var tokenRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

type Section struct {
	Title     string `yaml:"title"`
	Content   string `yaml:"content"`
	Condition string `yaml:"condition"`
}

// Template is an ordered list of sections. A section with a Condition renders
// only when the predicate holds; "!name" inverts it.
type Template struct {
	Type        string    `yaml:"type"`
	Title       string    `yaml:"title"`
	PromptTask  string    `yaml:"prompt_task"`
	PromptFinal string    `yaml:"prompt_final"`
	Sections    []Section `yaml:"sections"`
}

// Templates holds the validated templates by document type.
type Templates struct {
	byType map[string]Template
}

// LoadTemplates reads the embedded templates.
func LoadTemplates() (*Templates, error) {
	return LoadTemplatesFS(templateFiles, "templates")
}

// LoadTemplatesFS parses every *.yaml under dir and validates it against the
// context schema.
func LoadTemplatesFS(fsys fs.FS, dir string) (*Templates, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no templates found in %s", dir)
	}

	out := &Templates{byType: make(map[string]Template, len(matches))}
	for _, name := range matches {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		var t Template
		dec := yaml.NewDecoder(strings.NewReader(string(raw)))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := out.byType[t.Type]; dup {
			return nil, fmt.Errorf("%s: duplicate template type %q", name, t.Type)
		}
		out.byType[t.Type] = t
	}
	return out, nil
}

// Validate rejects templates that reference keys or conditions outside the schema.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Type) == "" {
		return fmt.Errorf("template type is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("template %s: title is required", t.Type)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template %s: no sections", t.Type)
	}
	known := make(map[string]bool, len(valueKeys))
	for _, k := range valueKeys {
		known[k] = true
	}
	conds := make(map[string]bool, len(conditionKeys))
	for _, k := range conditionKeys {
		conds[k] = true
	}

	for i, s := range t.Sections {
		if c := strings.TrimPrefix(s.Condition, "!"); c != "" && !conds[c] {
			return fmt.Errorf("template %s section %d: unknown condition %q", t.Type, i+1, s.Condition)
		}
		for _, m := range tokenRe.FindAllStringSubmatch(s.Content+s.Title, -1) {
			if !known[m[1]] {
				return fmt.Errorf("template %s section %d: unknown placeholder %q", t.Type, i+1, m[0])
			}
		}
	}
	return nil
}

// Get returns the template for a document type; empty means widerspruch.
func (ts *Templates) Get(docType string) (Template, error) {
	docType = strings.ToLower(strings.TrimSpace(docType))
	if docType == "" {
		docType = TypeWiderspruch
	}
	t, ok := ts.byType[docType]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnsupportedDocumentType, docType)
	}
	return t, nil
}

// Types lists the loaded document types.
func (ts *Templates) Types() []string {
	out := make([]string, 0, len(ts.byType))
	for k := range ts.byType {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
