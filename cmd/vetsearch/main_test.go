package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/version"
)

const minimalConfig = `
database:
  addrs: ["127.0.0.1:1"]
embedding:
  provider: openai
  model: text-embedding-3-small
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestQueryCmd_RequiresText(t *testing.T) {
	_, err := execute(t, "query")
	require.Error(t, err)
}

func TestQueryCmd_UnknownMethod(t *testing.T) {
	_, err := execute(t, "--env", "local", "--config", writeConfig(t), "query", "--method", "fuzzy", "rabies")
	require.ErrorIs(t, err, domain.ErrUnknownMethod)
}

func TestQueryCmd_InvalidFilterField(t *testing.T) {
	_, err := execute(t, "--env", "local", "--config", writeConfig(t), "query", "--filter", "species=feline", "rabies")
	require.ErrorIs(t, err, domain.ErrInvalidFilterField)
}

func TestQueryCmd_TopKOutOfRange(t *testing.T) {
	_, err := execute(t, "--env", "local", "--config", writeConfig(t), "query", "--top-k", "1000", "rabies")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestServeCmd_MissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
