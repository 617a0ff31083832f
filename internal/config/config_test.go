package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragibkl/bancuhd/internal/fetch"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadResolvesRelativeSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blacklist.txt", "doubleclick.net\n")
	writeFile(t, dir, "whitelist.txt", "good.example.com\n")

	configPath := writeFile(t, dir, "config.yaml", `
blacklist:
  - format: domains
    path: ./blacklist.txt
whitelist:
  - format: domains
    path: ./whitelist.txt
`)

	ctx := context.Background()
	cfg, err := Load(ctx, fetch.New(ctx), configPath)
	require.NoError(t, err)

	require.Len(t, cfg.Blacklist, 1)
	require.Equal(t, FormatDomains, cfg.Blacklist[0].Format)
	require.Len(t, cfg.Whitelist, 1)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blacklist.txt", "doubleclick.net\n")
	configPath := writeFile(t, dir, "config.yaml", `
blacklist:
  - format: zone
    path: ./blacklist.txt
`)

	ctx := context.Background()
	_, err := Load(ctx, fetch.New(ctx), configPath)
	require.Error(t, err, "zone is not a valid blacklist format")
}

func TestLoadRejectsMissingConfigLocation(t *testing.T) {
	ctx := context.Background()
	_, err := Load(ctx, fetch.New(ctx), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsMissingSource(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yaml", `
blacklist:
  - format: domains
    path: ./missing.txt
`)

	ctx := context.Background()
	_, err := Load(ctx, fetch.New(ctx), configPath)
	require.Error(t, err)
}
