package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragibkl/bancuhd/internal/config"
	"github.com/ragibkl/bancuhd/internal/fetch"
	"github.com/ragibkl/bancuhd/internal/ruleset/source"
	"github.com/ragibkl/bancuhd/internal/store"
)

func TestCompileSkipsUnreadableSourceWithoutAborting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	goodPath := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(goodPath, []byte("good.example.com\n"), 0o644))
	missingPath := filepath.Join(dir, "missing.txt")

	cfg := &config.Config{
		Blacklist: []config.Source{
			{Format: config.FormatDomains, Ref: source.File(missingPath)},
			{Format: config.FormatDomains, Ref: source.File(goodPath)},
		},
	}

	db, err := store.NewRulesetDB(dir)
	require.NoError(t, err)
	defer db.Destroy()

	c := New(cfg)
	err = c.Compile(ctx, fetch.New(ctx), db)
	require.Error(t, err, "compile reports the skipped source")
	var storeErr *StoreError
	require.False(t, errors.As(err, &storeErr), "a mere fetch skip must not look like a store write failure")

	blocked, err := db.Blacklist.Contains("good.example.com")
	require.NoError(t, err)
	require.True(t, blocked, "the readable source must still be compiled in")
}

func TestCompileAbortsImmediatelyOnStoreWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("doubleclick.net\n"), 0o644))

	cfg := &config.Config{
		Blacklist: []config.Source{
			{Format: config.FormatDomains, Ref: source.File(path)},
		},
	}

	db, err := store.NewRulesetDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.Blacklist.Destroy())

	c := New(cfg)
	err = c.Compile(ctx, fetch.New(ctx), db)
	require.Error(t, err)
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr), "a write failure must surface as a *StoreError")
}

func TestCompileOverridesPopulateRewrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "overrides.txt")
	require.NoError(t, os.WriteFile(path, []byte("www.bing.com    CNAME   strict.bing.com.\n"), 0o644))

	cfg := &config.Config{
		Overrides: []config.Source{
			{Format: config.FormatCName, Ref: source.File(path)},
		},
	}

	db, err := store.NewRulesetDB(dir)
	require.NoError(t, err)
	defer db.Destroy()

	c := New(cfg)
	require.NoError(t, c.Compile(ctx, fetch.New(ctx), db))

	alias, ok, err := db.Rewrites.Get("www.bing.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "strict.bing.com.", alias)
}
