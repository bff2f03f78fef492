package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresProjectID(t *testing.T) {
	c := Default()
	c.CacheDir = "/tmp/cache"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projectId")
}

func TestValidateRequiresPositiveBatchSize(t *testing.T) {
	c := Default()
	c.ProjectID = "p"
	c.CacheDir = "/tmp/cache"
	c.BatchSize = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batchSize")
}

func TestValidateOK(t *testing.T) {
	c := Default()
	c.ProjectID = "p"
	c.CacheDir = "/tmp/cache"
	require.NoError(t, c.Validate())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	content := "projectId: demo\ncacheDir: " + dir + "\nbatchSize: 100\nmaxWorkers: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.ProjectID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 2, cfg.MaxWorkers)
	// defaults carried over from Default() for fields the yaml didn't set
	assert.NotEmpty(t, cfg.SupportedExtensions)
}
