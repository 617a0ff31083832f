package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragibkl/bancuhd/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := &Engine{workspace: t.TempDir()}
	db, err := store.NewRulesetDB(e.workspace)
	require.NoError(t, err)
	e.live = db
	return e
}

func TestWhitelistPrecedence(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.live.Blacklist.Put("bad.example.com"))
	require.NoError(t, e.live.Whitelist.Put("bad.example.com"))

	require.False(t, e.IsBlocked(ctx, "bad.example.com"))
}

func TestBlacklistWithoutWhitelist(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.live.Blacklist.Put("bad.example.com"))

	require.True(t, e.IsBlocked(ctx, "bad.example.com"))
}

func TestGetRedirect(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.live.Rewrites.PutAlias("www.bing.com", "strict.bing.com"))

	alias, ok := e.GetRedirect(ctx, "www.bing.com")
	require.True(t, ok)
	require.Equal(t, "strict.bing.com.", alias)
}

func TestDestroyLiveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	e.DestroyLive(ctx)
	e.DestroyLive(ctx)

	require.False(t, e.IsBlocked(ctx, "anything.example.com"))
}
