// Package generic provides a line-oriented fallback parser for languages
// without a dedicated AST integration (JavaScript, TypeScript, Java, Rust).
// It extracts comments, function-shaped declarations, and import lines with
// regular expressions; precision is lower than the Go and Python parsers but
// sufficient for identifier occurrence mapping.
package generic

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agent3d/agent3d/scanner/lang"
)

func init() {
	lang.DefaultRegistry.Register("javascript", []string{".js", ".jsx", ".mjs"}, func() lang.Parser {
		return NewParser("javascript")
	})
	lang.DefaultRegistry.Register("typescript", []string{".ts", ".tsx"}, func() lang.Parser {
		return NewParser("typescript")
	})
	lang.DefaultRegistry.Register("java", []string{".java"}, func() lang.Parser {
		return NewParser("java")
	})
	lang.DefaultRegistry.Register("rust", []string{".rs"}, func() lang.Parser {
		return NewParser("rust")
	})
}

var (
	blockCommentRe = regexp.MustCompile(`/\*+\s?(.*?)\s*\*+/`)

	// Declaration shapes across the four languages. Named group "name"
	// captures the declared identifier.
	declRes = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(?P<name>\w+)`),                      // js/ts
		regexp.MustCompile(`^\s*(?:const|let|var)\s+(?P<name>\w+)\s*=\s*(?:async\s*)?\(`),                  // js/ts arrow fn
		regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?\w[\w<>\[\]]*\s+(?P<name>\w+)\s*\(.*\)\s*\{`), // java
		regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(?P<name>\w+)`),                               // rust
	}

	importRes = []*regexp.Regexp{
		regexp.MustCompile(`^\s*import\s+.*?from\s+['"](?P<path>[^'"]+)['"]`), // js/ts
		regexp.MustCompile(`^\s*(?:const|let)\s+\w+\s*=\s*require\(['"](?P<path>[^'"]+)['"]\)`),
		regexp.MustCompile(`^\s*import\s+(?:static\s+)?(?P<path>[\w.]+)\s*;`), // java
		regexp.MustCompile(`^\s*use\s+(?P<path>[\w:]+)`),                      // rust
	}

	// Test-call shapes: describe/it/test blocks (js/ts) carry their label as
	// the first string argument.
	specLabelRe = regexp.MustCompile(`^\s*(?:describe|it|test)\s*\(\s*['"` + "`" + `](?P<label>[^'"` + "`" + `]+)`)

	callRe = regexp.MustCompile(`\b([\w.:]+\w)\s*\(`)
)

// Parser is a regex-based extractor configured per language.
type Parser struct {
	language string
}

// NewParser creates a generic parser tagged with the language name.
func NewParser(language string) *Parser {
	return &Parser{language: language}
}

// ParseFile scans the file line by line.
func (p *Parser) ParseFile(ctx context.Context, root, absPath string) (*lang.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		relPath = absPath
	}

	result := &lang.FileResult{
		Path:       filepath.ToSlash(relPath),
		Language:   p.language,
		IsTestFile: isTestFile(p.language, absPath),
	}

	var (
		current       *lang.Function
		pendingAttrs  []string
		pendingDoc    []string
		scanner       = bufio.NewScanner(f)
		lineNo        int
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	flush := func() {
		if current != nil {
			result.Functions = append(result.Functions, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if path := matchNamed(importRes, line, "path"); path != "" {
			result.Imports = append(result.Imports, path)
			continue
		}

		if label := matchFirst(specLabelRe, line); label != "" {
			flush()
			fn := lang.Function{
				Name:   label,
				Line:   lineNo,
				Labels: []string{label},
				IsTest: true,
			}
			current = &fn
			pendingDoc, pendingAttrs = nil, nil
			continue
		}

		if name := matchNamed(declRes, line, "name"); name != "" {
			flush()
			fn := lang.Function{
				Name:       name,
				Line:       lineNo,
				Doc:        strings.Join(pendingDoc, "\n"),
				Decorators: pendingAttrs,
				IsTest:     result.IsTestFile || isTestDecl(p.language, name, pendingAttrs),
			}
			current = &fn
			pendingDoc, pendingAttrs = nil, nil
			continue
		}

		if comment := extractComment(line); comment != "" {
			result.Comments = append(result.Comments, lang.Comment{Line: lineNo, Text: comment})
			pendingDoc = append(pendingDoc, comment)
			if strings.HasPrefix(strings.TrimSpace(line), "#[") {
				pendingAttrs = append(pendingAttrs, strings.TrimSpace(line))
			}
			continue
		}
		if attr := rustAttribute(line); attr != "" {
			pendingAttrs = append(pendingAttrs, attr)
			continue
		}

		if current != nil {
			for _, m := range callRe.FindAllStringSubmatch(line, -1) {
				current.Calls = appendUnique(current.Calls, m[1])
			}
		}

		// A blank line ends the doc-comment run above a declaration.
		if strings.TrimSpace(line) == "" {
			pendingDoc = nil
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return result, nil
}

func isTestFile(language, path string) bool {
	base := filepath.Base(path)
	switch language {
	case "javascript", "typescript":
		return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.")
	case "java":
		name := strings.TrimSuffix(base, ".java")
		return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests")
	case "rust":
		// Rust integration tests live under tests/; unit tests are detected
		// by the #[test] attribute on the declaration.
		return strings.Contains(filepath.ToSlash(path), "/tests/")
	}
	return false
}

func isTestDecl(language, name string, attrs []string) bool {
	switch language {
	case "rust":
		for _, a := range attrs {
			if strings.Contains(a, "#[test") || strings.Contains(a, "#[tokio::test") {
				return true
			}
		}
	case "java":
		for _, a := range attrs {
			if strings.Contains(a, "@Test") {
				return true
			}
		}
		return strings.HasPrefix(name, "test")
	}
	return false
}

func rustAttribute(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#[") || strings.HasPrefix(trimmed, "@") {
		return trimmed
	}
	return ""
}

func extractComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") {
		return strings.TrimSpace(strings.TrimLeft(trimmed, "/"))
	}
	if strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "*/") {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
	}
	if m := blockCommentRe.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return ""
}

func matchNamed(res []*regexp.Regexp, line, group string) string {
	for _, re := range res {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for i, name := range re.SubexpNames() {
			if name == group && m[i] != "" {
				return m[i]
			}
		}
	}
	return ""
}

func matchFirst(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
