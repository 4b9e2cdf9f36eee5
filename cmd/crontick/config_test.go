package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crontick.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunConfigValidateOK(t *testing.T) {
	path := writeTempConfig(t, `
[[tasks]]
name = "noop"
schedule = "* * * * *"
command = "true"
`)

	var out strings.Builder
	err := runConfigValidate(&out, path)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "configuration is valid")
}

func TestRunConfigValidateReportsErrors(t *testing.T) {
	path := writeTempConfig(t, `
[[tasks]]
name = "bad"
schedule = "61 * * * *"
command = "true"
`)

	var out strings.Builder
	err := runConfigValidate(&out, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestRunConfigValidateMissingFile(t *testing.T) {
	var out strings.Builder
	err := runConfigValidate(&out, filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
