package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesWalkerAndCacheSections(t *testing.T) {
	dir := t.TempDir()
	content := `walker {
    glob "**/*.go"
    exclude "vendor/**" "testdata/**"
    no_global_ignore true
}
cache {
    dir "/tmp/custom-cache"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFile), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "**/*.go", cfg.Glob)
	require.ElementsMatch(t, []string{"vendor/**", "testdata/**"}, cfg.Excludes)
	require.True(t, cfg.NoGlobalIgnore)
	require.Equal(t, "/tmp/custom-cache", cfg.CacheDir)
}
