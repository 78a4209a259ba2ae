package gitscope

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestValidateRef(t *testing.T) {
	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"main", false},
		{"origin/main", false},
		{"v1.2.3", false},
		{"HEAD~3", false},
		{"feature/drift-scan", false},
		{"abc123def", false},
		{"", true},
		{"-rf", true},
		{"--exec=evil", true},
		{"ref with spaces", true},
		{"ref;rm", true},
	}

	for _, tt := range tests {
		name := tt.ref
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			err := ValidateRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}

func TestRebasePaths(t *testing.T) {
	top := filepath.FromSlash("/repo")

	tests := []struct {
		name  string
		root  string
		files []string
		want  []string
	}{
		{
			name:  "root is repository top",
			root:  "/repo",
			files: []string{"docs/FEATURES.md", "pkg/core.go"},
			want:  []string{"docs/FEATURES.md", "pkg/core.go"},
		},
		{
			name:  "project root in subdirectory",
			root:  "/repo/services/api",
			files: []string{"services/api/docs/FEATURES.md", "services/api/main.go"},
			want:  []string{"docs/FEATURES.md", "main.go"},
		},
		{
			name:  "changes outside the project root are dropped",
			root:  "/repo/services/api",
			files: []string{"services/api/main.go", "services/web/index.ts", "README.md"},
			want:  []string{"main.go"},
		},
		{
			name:  "sibling prefix is not a parent",
			root:  "/repo/services/api",
			files: []string{"services/api-gateway/main.go"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rebasePaths(top, filepath.FromSlash(tt.root), tt.files)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rebasePaths(%q) = %v, want %v", tt.root, got, tt.want)
			}
		})
	}
}

func TestSplitFiles(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int
	}{
		{"empty", "", 0},
		{"single", "a.go", 1},
		{"multiple", "a.go\nb.go\ndocs/FEATURES.md", 3},
		{"trailing newline handled", "a.go\n\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitFiles(tt.output); len(got) != tt.want {
				t.Errorf("splitFiles(%q) = %v, want %d entries", tt.output, got, tt.want)
			}
		})
	}
}
