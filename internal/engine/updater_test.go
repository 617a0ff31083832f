package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ragibkl/bancuhd/internal/config"
	"github.com/ragibkl/bancuhd/internal/fetch"
	"github.com/ragibkl/bancuhd/internal/ruleset/source"
)

func TestRunUpdateBuildsAndSwapsRuleset(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	blacklistPath := filepath.Join(dir, "blacklist.txt")
	require.NoError(t, os.WriteFile(blacklistPath, []byte("doubleclick.net\n"), 0o644))

	cfg := &config.Config{
		Blacklist: []config.Source{
			{Format: config.FormatDomains, Ref: source.File(blacklistPath)},
		},
	}

	e := New(dir, cfg, fetch.New(ctx))
	require.NoError(t, e.RunUpdate(ctx))

	require.True(t, e.IsBlocked(ctx, "doubleclick.net"))
	require.False(t, e.IsBlocked(ctx, "example.org"))
}

func TestUpdaterDestroysLiveOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dir := t.TempDir()

	cfg := &config.Config{}
	e := New(dir, cfg, fetch.New(ctx))
	upd := NewUpdater(e, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- upd.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("updater did not shut down")
	}

	stores, err := filepath.Glob(filepath.Join(dir, "db-*"))
	require.NoError(t, err)
	require.Empty(t, stores, "the live ruleset's store files must be removed on shutdown")
}
