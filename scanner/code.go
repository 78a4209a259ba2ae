package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agent3d/agent3d/identifier"
	"github.com/agent3d/agent3d/scanner/lang"
)

// OccurrenceContext names where in source an identifier was found.
type OccurrenceContext string

const (
	ContextTestDoc   OccurrenceContext = "test_doc"
	ContextTestLabel OccurrenceContext = "test_label"
	ContextDecorator OccurrenceContext = "decorator"
	ContextComment   OccurrenceContext = "comment"
)

// Occurrence is one identifier sighting in source code.
type Occurrence struct {
	ID       string            `yaml:"id"`
	File     string            `yaml:"file"`
	Line     int               `yaml:"line"`
	Context  OccurrenceContext `yaml:"context"`
	Function string            `yaml:"function,omitempty"`
}

// TestFunction is one extracted test implementation with the identifiers it
// claims.
type TestFunction struct {
	Name     string   `yaml:"name"`
	File     string   `yaml:"file"`
	Line     int      `yaml:"line"`
	IDs      []string `yaml:"ids,omitempty"`
	Imports  []string `yaml:"-"`
	Calls    []string `yaml:"-"`
	Language string   `yaml:"-"`
}

// CodeInventory is the source side of the cross-reference graph.
type CodeInventory struct {
	// Occurrences lists every identifier sighting, in file order.
	Occurrences []Occurrence
	// Tests lists extracted test functions.
	Tests []TestFunction
	// SourceFiles lists non-test source files, relative paths.
	SourceFiles []string
	// FunctionsByFile maps a source file to its declared function names.
	FunctionsByFile map[string][]string
	// ProjectFunctions is the set of function names declared in non-test
	// source, used by the test-quality heuristic.
	ProjectFunctions map[string]bool
}

// ByID groups occurrences by identifier.
func (inv *CodeInventory) ByID() map[string][]Occurrence {
	out := make(map[string][]Occurrence)
	for _, occ := range inv.Occurrences {
		out[occ.ID] = append(out[occ.ID], occ)
	}
	return out
}

// CodeScanner parses source files through the language registry and collects
// identifier occurrences.
type CodeScanner struct {
	root     string
	registry *lang.Registry
	logger   *slog.Logger
}

// NewCodeScanner creates a CodeScanner rooted at root.
func NewCodeScanner(root string, registry *lang.Registry, logger *slog.Logger) *CodeScanner {
	if registry == nil {
		registry = lang.DefaultRegistry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeScanner{root: root, registry: registry, logger: logger}
}

// Scan parses every source file. Files that fail to parse are skipped with a
// warning; the scan never aborts on a single bad file.
func (s *CodeScanner) Scan(ctx context.Context, source []string) (*CodeInventory, error) {
	inv := &CodeInventory{
		FunctionsByFile:  make(map[string][]string),
		ProjectFunctions: make(map[string]bool),
	}

	for _, rel := range source {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parser, _, err := s.registry.ForExtension(filepath.Ext(rel))
		if err != nil {
			continue
		}

		result, err := parser.ParseFile(ctx, s.root, filepath.Join(s.root, rel))
		if err != nil {
			s.logger.Warn("Skipping unparseable file",
				slog.String("file", rel), slog.String("error", err.Error()))
			continue
		}

		s.collect(result, inv)
	}

	sort.Strings(inv.SourceFiles)
	return inv, nil
}

func (s *CodeScanner) collect(result *lang.FileResult, inv *CodeInventory) {
	if !result.IsTestFile {
		inv.SourceFiles = append(inv.SourceFiles, result.Path)
	}

	for _, fn := range result.Functions {
		if !result.IsTestFile && !fn.IsTest {
			inv.FunctionsByFile[result.Path] = append(inv.FunctionsByFile[result.Path], fn.Name)
			inv.ProjectFunctions[fn.Name] = true
		}

		if fn.IsTest {
			test := TestFunction{
				Name:     fn.Name,
				File:     result.Path,
				Line:     fn.Line,
				Imports:  result.Imports,
				Calls:    fn.Calls,
				Language: result.Language,
			}

			for _, id := range identifier.FindAll(fn.Doc) {
				test.IDs = appendUniqueString(test.IDs, id.Raw)
				inv.Occurrences = append(inv.Occurrences, Occurrence{
					ID: id.Raw, File: result.Path, Line: fn.Line,
					Context: ContextTestDoc, Function: fn.Name,
				})
			}
			for _, label := range fn.Labels {
				for _, id := range identifier.FindAll(label) {
					test.IDs = appendUniqueString(test.IDs, id.Raw)
					inv.Occurrences = append(inv.Occurrences, Occurrence{
						ID: id.Raw, File: result.Path, Line: fn.Line,
						Context: ContextTestLabel, Function: fn.Name,
					})
				}
			}
			for _, dec := range fn.Decorators {
				for _, id := range identifier.FindAll(dec) {
					test.IDs = appendUniqueString(test.IDs, id.Raw)
					inv.Occurrences = append(inv.Occurrences, Occurrence{
						ID: id.Raw, File: result.Path, Line: fn.Line,
						Context: ContextDecorator, Function: fn.Name,
					})
				}
			}

			inv.Tests = append(inv.Tests, test)
			continue
		}

		// Identifier annotations on implementation functions.
		for _, id := range identifier.FindAll(fn.Doc) {
			inv.Occurrences = append(inv.Occurrences, Occurrence{
				ID: id.Raw, File: result.Path, Line: fn.Line,
				Context: ContextComment, Function: fn.Name,
			})
		}
	}

	for _, comment := range result.Comments {
		for _, id := range identifier.FindAll(comment.Text) {
			inv.Occurrences = append(inv.Occurrences, Occurrence{
				ID: id.Raw, File: result.Path, Line: comment.Line,
				Context: ContextComment,
			})
		}
	}
}

// ModulePrefixes derives import prefixes that identify project-local imports
// for the quality heuristic: the project name plus relative directory paths.
func ModulePrefixes(root, modulePath string, sourceFiles []string) []string {
	prefixes := make(map[string]bool)
	if modulePath != "" {
		prefixes[modulePath] = true
	}

	for _, f := range sourceFiles {
		dir := filepath.ToSlash(filepath.Dir(f))
		if dir == "." {
			continue
		}
		top := strings.SplitN(dir, "/", 2)[0]
		prefixes[top] = true
		// Python-style dotted module of the same directory.
		prefixes[strings.ReplaceAll(dir, "/", ".")] = true
	}

	out := make([]string, 0, len(prefixes))
	for p := range prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// GoModulePath reads the module path from go.mod at root, or "".
func GoModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module "))
		}
	}
	return ""
}
