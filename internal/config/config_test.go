package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, "#{}", cfg.Marker)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := Load(fs, "/does/not/exist/stencil.yaml")
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadExplicitPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/project/stencil.yaml"
	require.NoError(t, afero.WriteFile(fs, path, []byte("marker: \"<<>>\"\n"), 0o644))

	cfg, err := Load(fs, path)
	require.NoError(t, err)

	assert.Equal(t, "<<>>", cfg.Marker)
	assert.Equal(t, "stdout", cfg.Output, "unset fields keep their default")
}

func TestDiscover(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.stencil.yaml", []byte("output: diff\n"), 0o644))

	path := Discover(fs, "/project")
	assert.Equal(t, "/project/.stencil.yaml", path)

	cfg, err := Load(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "diff", cfg.Output)
}

func TestDiscoverNoneFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.Empty(t, Discover(fs, "/empty"))
}
