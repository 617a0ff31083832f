package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	ref, err := Parse("https://example.com/config.yaml")
	require.NoError(t, err)
	require.True(t, ref.IsURL())
	require.Equal(t, "https://example.com/config.yaml", ref.String())
}

func TestParseFileMustExist(t *testing.T) {
	_, err := Parse("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestResolveRelativeURL(t *testing.T) {
	configLoc := URL("https://example.com/configs/main.yaml")
	ref, err := Resolve(configLoc, "./blacklist.txt")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/configs/blacklist.txt", ref.String())
}

func TestResolveRelativeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	blacklistPath := filepath.Join(dir, "configs", "blacklist.txt")
	require.NoError(t, os.WriteFile(blacklistPath, []byte("x"), 0o644))

	configLoc := File(filepath.Join(dir, "configs", "main.yaml"))
	ref, err := Resolve(configLoc, "./blacklist.txt")
	require.NoError(t, err)
	require.Equal(t, blacklistPath, ref.String())
}

func TestResolveAbsoluteURL(t *testing.T) {
	ref, err := Resolve(File("/some/config.yaml"), "https://other.example.com/list.txt")
	require.NoError(t, err)
	require.True(t, ref.IsURL())
}

func TestResolveBareFileMustExist(t *testing.T) {
	_, err := Resolve(File("/some/config.yaml"), "/nonexistent/list.txt")
	require.Error(t, err)
}
