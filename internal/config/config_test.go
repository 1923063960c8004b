package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonsim/vonsim-core/vonsim"
)

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	def := vonsim.DefaultSimulatorConfig()
	assert.Equal(t, def.StepLimit, cfg.StepLimit)
	assert.Equal(t, def.EventBufferLen, cfg.EventBufferLen)
	assert.False(t, cfg.Debug)
}

func TestLoadReadsValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vonsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step_limit: 42\ndebug: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.StepLimit)
	assert.True(t, cfg.Debug)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("VONSIM_STEP_LIMIT", "99")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.StepLimit)
}

func TestSimulatorConfigCarriesStepLimitAndBufferLen(t *testing.T) {
	c := Config{StepLimit: 7, EventBufferLen: 3, Debug: true}
	sc := c.SimulatorConfig()
	assert.Equal(t, 7, sc.StepLimit)
	assert.Equal(t, 3, sc.EventBufferLen)
}
