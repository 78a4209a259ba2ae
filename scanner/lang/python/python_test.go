package python

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTest = `"""Module docstring."""
import pytest
from proj.auth import login

# TC-AUTH-002 tracked here


@pytest.mark.parametrize("case", ["TC-AUTH-001a", "TC-AUTH-001b"])
def test_login(case):
    """TC-AUTH-001 - Login succeeds."""
    login("user", "pass")


def helper():
    pass
`

func TestParseFile_PytestConstructs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_auth.py")
	require.NoError(t, os.WriteFile(path, []byte(sampleTest), 0644))

	result, err := NewParser().ParseFile(context.Background(), dir, path)
	require.NoError(t, err)

	assert.True(t, result.IsTestFile)
	assert.Equal(t, "test_auth.py", result.Path)
	assert.Contains(t, result.Imports, "pytest")
	assert.Contains(t, result.Imports, "proj.auth")

	var testFn *struct {
		doc        string
		decorators []string
		calls      []string
		isTest     bool
	}
	for _, fn := range result.Functions {
		if fn.Name == "test_login" {
			testFn = &struct {
				doc        string
				decorators []string
				calls      []string
				isTest     bool
			}{fn.Doc, fn.Decorators, fn.Calls, fn.IsTest}
		}
		if fn.Name == "helper" {
			assert.False(t, fn.IsTest)
		}
	}

	require.NotNil(t, testFn, "test_login not extracted")
	assert.True(t, testFn.isTest)
	assert.Contains(t, testFn.doc, "TC-AUTH-001")
	require.Len(t, testFn.decorators, 1)
	assert.Contains(t, testFn.decorators[0], "parametrize")
	assert.Contains(t, testFn.decorators[0], "TC-AUTH-001a")
	assert.Contains(t, testFn.calls, "login")
}

func TestParseFile_Comments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.py")
	require.NoError(t, os.WriteFile(path, []byte("# FT-CORE-002 lives here\nx = 1\n"), 0644))

	result, err := NewParser().ParseFile(context.Background(), dir, path)
	require.NoError(t, err)

	require.NotEmpty(t, result.Comments)
	assert.Contains(t, result.Comments[0].Text, "FT-CORE-002")
	assert.False(t, result.IsTestFile)
}
