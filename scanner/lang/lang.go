// Package lang provides per-language source parsers for the drift scanner.
// Parsers extract the places identifiers live in code: test function names,
// doc comments and docstrings, decorators, subtest labels, and ordinary
// comments. Language parsers register themselves via init() functions.
package lang

import (
	"context"
	"fmt"
	"sync"
)

// Function is a function or method declaration extracted from source.
type Function struct {
	// Name is the declared function name.
	Name string
	// Line is the 1-based line of the declaration.
	Line int
	// Doc is the doc comment or docstring, empty when absent.
	Doc string
	// Decorators holds decorator/attribute lines attached to the function
	// (Python decorators, Rust attributes). Empty for languages without them.
	Decorators []string
	// Labels holds subtest labels (Go t.Run names, parametrize ids).
	Labels []string
	// Calls lists names of functions invoked in the body, deduplicated.
	Calls []string
	// IsTest reports whether the function is a test by the language's
	// convention (TestXxx in _test.go, test_* in Python, ...).
	IsTest bool
}

// Comment is a source comment with its location.
type Comment struct {
	Line int
	Text string
}

// FileResult is the parse output for a single source file.
type FileResult struct {
	// Path is the file path relative to the scan root.
	Path string
	// Language is the registered parser name that produced the result.
	Language string
	// Imports lists imported module paths or names.
	Imports []string
	// Functions lists extracted declarations in source order.
	Functions []Function
	// Comments lists file comments outside doc positions.
	Comments []Comment
	// IsTestFile reports whether the file is a test file by naming
	// convention or content.
	IsTestFile bool
}

// Parser extracts identifier-bearing constructs from one source file.
type Parser interface {
	// ParseFile parses the file at absPath, reporting paths relative to root.
	ParseFile(ctx context.Context, root, absPath string) (*FileResult, error)
}

// Factory creates a Parser instance.
type Factory func() Parser

// Registry maintains language parsers keyed by name with their supported
// file extensions. Thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Factory
	extMap  map[string]string // extension → parser name
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Factory),
		extMap:  make(map[string]string),
	}
}

// Register adds a parser factory for the given extensions. The first
// registration wins on extension conflicts. Extensions include the leading
// dot (".go", ".py").
func (r *Registry) Register(name string, extensions []string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[name] = factory
	for _, ext := range extensions {
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = name
		}
	}
}

// ForExtension returns a parser for the file extension, or an error when no
// language claims it.
func (r *Registry) ForExtension(ext string) (Parser, string, error) {
	r.mu.RLock()
	name, ok := r.extMap[ext]
	var factory Factory
	if ok {
		factory = r.parsers[name]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, "", fmt.Errorf("no parser registered for extension: %s", ext)
	}
	return factory(), name, nil
}

// Supports reports whether any parser claims the extension.
func (r *Registry) Supports(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extMap[ext]
	return ok
}

// Extensions returns all registered file extensions.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extMap))
	for ext := range r.extMap {
		exts = append(exts, ext)
	}
	return exts
}

// DefaultRegistry is the global parser registry.
var DefaultRegistry = NewRegistry()
