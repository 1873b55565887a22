package fetch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/beacon/internal/config"
)

func TestRun_RejectsTraversalConfigPath(t *testing.T) {
	err := Run([]string{"--config", "../evil.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config path")
}

func TestRun_RejectsNonYAMLConfigPath(t *testing.T) {
	err := Run([]string{"--config", "beacon.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config path")
}

func TestRun_MissingCredentials(t *testing.T) {
	t.Setenv(config.EnvClientID, "")
	t.Setenv(config.EnvClientSecret, "")

	err := Run([]string{"--data-dir", t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingCredentials))
}
