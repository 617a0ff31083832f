// Package engine owns the live ruleset behind a swap primitive and drives
// its periodic rebuild.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/datawire/dlib/dlog"

	"github.com/ragibkl/bancuhd/internal/config"
	"github.com/ragibkl/bancuhd/internal/fetch"
	"github.com/ragibkl/bancuhd/internal/ruleset/compiler"
	"github.com/ragibkl/bancuhd/internal/store"
)

// Engine owns the single slot holding the live RulesetDB, protected by a
// mutex. It is a process-lifetime singleton. Lookups hold the mutex for the
// whole store read, so RunUpdate never destroys a store a lookup is using.
type Engine struct {
	workspace string
	cfg       *config.Config
	fetcher   *fetch.Fetcher

	mu   sync.Mutex
	live *store.RulesetDB
}

// New builds an Engine that compiles rulesets from cfg into fresh stores
// under workspace.
func New(workspace string, cfg *config.Config, fetcher *fetch.Fetcher) *Engine {
	return &Engine{workspace: workspace, cfg: cfg, fetcher: fetcher}
}

// GetRedirect looks up name in the rewrites store of the live ruleset.
func (e *Engine) GetRedirect(ctx context.Context, name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.live
	if live == nil {
		return "", false
	}

	alias, ok, err := live.Rewrites.Get(name)
	if err != nil {
		dlog.Errorf(ctx, "rewrite lookup for %s: %v", name, err)
		return "", false
	}
	if ok {
		dlog.Infof(ctx, "rewrite: %s to: %s", name, alias)
	}
	return alias, ok
}

// IsBlocked probes whitelist first: a hit there always wins and reports
// false. Only then does a blacklist hit report true.
func (e *Engine) IsBlocked(ctx context.Context, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.live
	if live == nil {
		return false
	}

	if wl, err := live.Whitelist.Contains(name); err == nil && wl {
		dlog.Infof(ctx, "whitelist: %s", name)
		return false
	}
	if bl, err := live.Blacklist.Contains(name); err == nil && bl {
		dlog.Infof(ctx, "blacklist: %s", name)
		return true
	}
	return false
}

// RunUpdate builds a fresh RulesetDB, compiles it, swaps it in under the
// lock, and destroys whatever was live before. The lock is held only for
// the swap itself, never across the compile.
//
// A *compiler.StoreError means fresh is only partially written and must
// never be swapped in; it is destroyed and the error is returned so the
// caller can cancel rather than keep serving a torn ruleset. A plain
// skipped-sources error is logged and fresh is swapped in regardless, since
// the sources that did fetch were still compiled correctly.
func (e *Engine) RunUpdate(ctx context.Context) error {
	fresh, err := store.NewRulesetDB(e.workspace)
	if err != nil {
		return err
	}

	comp := compiler.New(e.cfg)
	if err := comp.Compile(ctx, e.fetcher, fresh); err != nil {
		var storeErr *compiler.StoreError
		if errors.As(err, &storeErr) {
			if destroyErr := fresh.Destroy(); destroyErr != nil {
				dlog.Errorf(ctx, "destroy partially-built ruleset: %v", destroyErr)
			}
			return storeErr
		}
		dlog.Warnf(ctx, "compile completed with warnings: %v", err)
	}

	e.mu.Lock()
	old := e.live
	e.live = fresh
	e.mu.Unlock()

	if old != nil {
		if err := old.Destroy(); err != nil {
			dlog.Errorf(ctx, "destroy previous ruleset: %v", err)
		}
	}
	return nil
}

// DestroyLive destroys whatever ruleset is currently live, exactly once.
// Called by the updater when it observes cancellation.
func (e *Engine) DestroyLive(ctx context.Context) {
	e.mu.Lock()
	live := e.live
	e.live = nil
	e.mu.Unlock()

	if live == nil {
		return
	}
	if err := live.Destroy(); err != nil {
		dlog.Errorf(ctx, "destroy live ruleset on shutdown: %v", err)
	}
}
