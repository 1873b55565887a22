package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RequiresSubcommand(t *testing.T) {
	err := Run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subcommand required")
}

func TestRun_UnknownSubcommand(t *testing.T) {
	err := Run([]string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subcommand")
}

func TestValidate_RequiresConfigFlag(t *testing.T) {
	err := Run([]string{"validate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--config flag is required")
}

func TestValidate_RejectsTraversalPath(t *testing.T) {
	err := Run([]string{"validate", "--config", "../evil.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config path")
}

func TestValidate_RejectsNonYAMLExtension(t *testing.T) {
	err := Run([]string{"validate", "--config", "beacon.toml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config path")
}

func TestValidate_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  title: Test Dashboard\n"), 0600))

	assert.NoError(t, Run([]string{"validate", "--config", path}))
}

func TestValidate_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	err := Run([]string{"validate", "--config", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is invalid")
}
