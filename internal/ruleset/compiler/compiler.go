// Package compiler drives the fetcher and parsers to populate a RulesetDB
// from a resolved Config.
package compiler

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/datawire/dlib/dlog"

	"github.com/ragibkl/bancuhd/internal/config"
	"github.com/ragibkl/bancuhd/internal/fetch"
	"github.com/ragibkl/bancuhd/internal/ruleset/parse"
	"github.com/ragibkl/bancuhd/internal/store"
)

// Compiler holds a resolved Config and drives the fetch/parse/insert
// pipeline for each of its sources.
type Compiler struct {
	cfg  *config.Config
	pool *parse.Pool
}

// StoreError reports that a write into the target RulesetDB itself failed,
// as distinct from a source that merely failed to fetch. Fetch failures are
// skipped and aggregated for observability; a StoreError means the target
// store is in an unknown state and Compile aborts immediately.
type StoreError struct {
	Source string
	Err    error
}

func (e *StoreError) Error() string {
	return "write ruleset store for source " + e.Source + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// New builds a Compiler for cfg.
func New(cfg *config.Config) *Compiler {
	return &Compiler{cfg: cfg, pool: parse.NewPool()}
}

// Compile processes whitelist, then blacklist, then rewrite sources into
// target. A source that fails to fetch is logged and skipped; it never
// aborts the rest of the build, and skipped-source errors are returned
// aggregated, for observability only, once the build otherwise completes.
// A failure writing into target itself aborts Compile immediately with a
// *StoreError, since the store is then in an unknown, partially-written
// state that the caller must not swap in as if it were good.
func (c *Compiler) Compile(ctx context.Context, f *fetch.Fetcher, target *store.RulesetDB) error {
	var skipped *multierror.Error

	for _, src := range c.cfg.Whitelist {
		domains, err := c.loadDomains(ctx, f, src)
		if err != nil {
			skipped = multierror.Append(skipped, err)
			continue
		}
		if err := target.Whitelist.PutBatch(domainStrings(domains)); err != nil {
			return &StoreError{Source: src.Ref.String(), Err: err}
		}
	}

	for _, src := range c.cfg.Blacklist {
		domains, err := c.loadDomains(ctx, f, src)
		if err != nil {
			skipped = multierror.Append(skipped, err)
			continue
		}
		if err := target.Blacklist.PutBatch(domainStrings(domains)); err != nil {
			return &StoreError{Source: src.Ref.String(), Err: err}
		}
	}

	for _, src := range c.cfg.Overrides {
		cnames, err := c.loadCNames(ctx, f, src)
		if err != nil {
			skipped = multierror.Append(skipped, err)
			continue
		}
		aliases := make(map[string]string, len(cnames))
		for _, cn := range cnames {
			aliases[string(cn.Domain)] = string(cn.Alias)
		}
		if err := target.Rewrites.PutAliasBatch(aliases); err != nil {
			return &StoreError{Source: src.Ref.String(), Err: err}
		}
	}

	if skipped != nil {
		dlog.Warnf(ctx, "compile finished with %d skipped source(s): %v", skipped.Len(), skipped)
	}
	return skipped.ErrorOrNil()
}

func (c *Compiler) loadDomains(ctx context.Context, f *fetch.Fetcher, src config.Source) ([]parse.Domain, error) {
	content, err := f.Fetch(ctx, src.Ref.Target())
	if err != nil {
		dlog.Warnf(ctx, "skipping source %s: %v", src.Ref, err)
		return nil, err
	}

	switch src.Format {
	case config.FormatHosts:
		return c.pool.Hosts(content), nil
	case config.FormatDomains:
		return c.pool.Domains(content), nil
	case config.FormatZone:
		return c.pool.Zone(content), nil
	default:
		return nil, nil
	}
}

func (c *Compiler) loadCNames(ctx context.Context, f *fetch.Fetcher, src config.Source) ([]parse.CName, error) {
	content, err := f.Fetch(ctx, src.Ref.Target())
	if err != nil {
		dlog.Warnf(ctx, "skipping source %s: %v", src.Ref, err)
		return nil, err
	}
	return c.pool.CNames(content), nil
}

func domainStrings(domains []parse.Domain) []string {
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = string(d)
	}
	return out
}
