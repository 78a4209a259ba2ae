// Package template renders the default Agent3D documentation artifacts.
// Templates carry {{PLACEHOLDER}} tokens and <template>/<example> scaffolding
// blocks; rendering substitutes the tokens and drops the scaffolding so
// generated documents never leak template structure into the drift scanner.
package template

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

//go:embed templates/*
var templateFS embed.FS

// Sentinel errors for template operations.
var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnresolved      = errors.New("unresolved placeholders")
)

var (
	placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.-]+)\}\}`)
	// blockRe matches a whole <template> or <example> block including the
	// surrounding newlines.
	blockRe = regexp.MustCompile(`(?s)\n?<(template|example)>.*?</(template|example)>\n?`)
)

// Renderer resolves template sources and renders them. Project-local
// overrides from the template_overrides config section take precedence over
// the embedded defaults.
type Renderer struct {
	root      string
	overrides map[string]string
}

// NewRenderer creates a Renderer for the project at root.
func NewRenderer(root string, overrides map[string]string) *Renderer {
	return &Renderer{root: root, overrides: overrides}
}

// Names lists the available template names, sorted.
func Names() []string {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// Source returns the raw template content for a name, honoring overrides.
func (r *Renderer) Source(name string) ([]byte, error) {
	if override, ok := r.overrides[name]; ok {
		path := override
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.root, filepath.FromSlash(override))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template override %s: %w", override, err)
		}
		return data, nil
	}

	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return data, nil
}

// Render produces the final document: scaffolding blocks stripped,
// placeholders substituted. Any placeholder left without a value is an
// error naming every missing token.
func (r *Renderer) Render(name string, values map[string]string) ([]byte, error) {
	source, err := r.Source(name)
	if err != nil {
		return nil, err
	}

	content := blockRe.ReplaceAllString(string(source), "\n")

	var missing []string
	content = placeholderRe.ReplaceAllStringFunc(content, func(token string) string {
		key := placeholderRe.FindStringSubmatch(token)[1]
		value, ok := values[key]
		if !ok {
			missing = appendMissing(missing, key)
			return token
		}
		return value
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w in %s: %s", ErrUnresolved, name, strings.Join(missing, ", "))
	}

	return []byte(content), nil
}

// RenderToFile renders a template and writes it relative to the project
// root, creating parent directories.
func (r *Renderer) RenderToFile(name, rel string, values map[string]string) error {
	content, err := r.Render(name, values)
	if err != nil {
		return err
	}

	path := filepath.Join(r.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func appendMissing(list []string, key string) []string {
	for _, existing := range list {
		if existing == key {
			return list
		}
	}
	return append(list, key)
}
