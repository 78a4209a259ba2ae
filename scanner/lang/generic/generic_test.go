package generic

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_TypeScriptSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.spec.ts")
	content := `import { login } from '../src/auth';

// TC-AUTH-003 - session expiry
describe('TC-AUTH-003', () => {
  it('expires stale sessions', () => {
    login('u', 'p');
  });
});
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := NewParser("typescript").ParseFile(context.Background(), dir, path)
	require.NoError(t, err)

	assert.True(t, r.IsTestFile)
	assert.Contains(t, r.Imports, "../src/auth")

	require.NotEmpty(t, r.Functions)
	assert.Equal(t, "TC-AUTH-003", r.Functions[0].Name)
	assert.True(t, r.Functions[0].IsTest)

	var commentTexts []string
	for _, c := range r.Comments {
		commentTexts = append(commentTexts, c.Text)
	}
	assert.Contains(t, commentTexts, "TC-AUTH-003 - session expiry")
}

func TestParseFile_Rust(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	content := `use crate::auth;

/// TC-AUTH-004 - token refresh
#[test]
fn test_refresh() {
    auth::refresh();
}

pub fn not_a_test() {}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := NewParser("rust").ParseFile(context.Background(), dir, path)
	require.NoError(t, err)

	assert.Contains(t, r.Imports, "crate::auth")
	require.Len(t, r.Functions, 2)

	refresh := r.Functions[0]
	assert.Equal(t, "test_refresh", refresh.Name)
	assert.True(t, refresh.IsTest)
	assert.Contains(t, refresh.Doc, "TC-AUTH-004")
	assert.Contains(t, refresh.Calls, "auth::refresh")

	assert.False(t, r.Functions[1].IsTest)
}

func TestParseFile_Java(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AuthTest.java")
	content := `import org.junit.Test;
import com.example.Auth;

public class AuthTest {
    // TC-AUTH-005
    @Test
    public void testLogin() {
        Auth.login("u", "p");
    }
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := NewParser("java").ParseFile(context.Background(), dir, path)
	require.NoError(t, err)

	assert.True(t, r.IsTestFile)
	assert.Contains(t, r.Imports, "org.junit.Test")

	var found bool
	for _, fn := range r.Functions {
		if fn.Name == "testLogin" {
			found = true
			assert.True(t, fn.IsTest)
		}
	}
	assert.True(t, found, "testLogin not extracted")
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		language string
		path     string
		want     bool
	}{
		{"javascript", "auth.test.js", true},
		{"javascript", "auth.js", false},
		{"typescript", "auth.spec.ts", true},
		{"java", "AuthTest.java", true},
		{"java", "Auth.java", false},
		{"rust", "proj/tests/integration.rs", true},
		{"rust", "src/lib.rs", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isTestFile(tt.language, tt.path); got != tt.want {
				t.Errorf("isTestFile(%s, %s) = %v, want %v", tt.language, tt.path, got, tt.want)
			}
		})
	}
}
