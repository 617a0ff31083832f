// Package config loads and resolves the YAML ruleset configuration
// document referenced by --config-url.
package config

import (
	"context"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ragibkl/bancuhd/internal/fetch"
	"github.com/ragibkl/bancuhd/internal/ruleset/source"
)

// SourceFormat tags which line parser applies to a source's content.
type SourceFormat string

const (
	FormatHosts   SourceFormat = "hosts"
	FormatDomains SourceFormat = "domains"
	FormatZone    SourceFormat = "zone"
	FormatCName   SourceFormat = "cname"
)

// Source is one (format, ref) entry of the config document.
type Source struct {
	Format SourceFormat
	Ref    source.Ref
}

// Config is the fully resolved ruleset configuration: the location it was
// loaded from, plus three ordered lists of sources.
type Config struct {
	Location  source.Ref
	Blacklist []Source
	Whitelist []Source
	Overrides []Source
}

type rawSource struct {
	Format SourceFormat `yaml:"format"`
	Path   string       `yaml:"path"`
}

type rawConfig struct {
	Blacklist []rawSource `yaml:"blacklist"`
	Whitelist []rawSource `yaml:"whitelist"`
	Overrides []rawSource `yaml:"overrides"`
}

var validBlacklistFormats = map[SourceFormat]bool{FormatHosts: true, FormatDomains: true}
var validWhitelistFormats = map[SourceFormat]bool{FormatHosts: true, FormatDomains: true, FormatZone: true}
var validOverrideFormats = map[SourceFormat]bool{FormatCName: true}

// Load fetches the YAML document at configURL and resolves every source
// path relative to it.
func Load(ctx context.Context, f *fetch.Fetcher, configURL string) (*Config, error) {
	loc, err := source.Parse(configURL)
	if err != nil {
		return nil, err
	}

	content, err := f.Fetch(ctx, loc.Target())
	if err != nil {
		return nil, errors.Wrap(err, "fetch config")
	}

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}

	cfg := &Config{Location: loc}
	if cfg.Blacklist, err = resolveAll(loc, raw.Blacklist, validBlacklistFormats); err != nil {
		return nil, err
	}
	if cfg.Whitelist, err = resolveAll(loc, raw.Whitelist, validWhitelistFormats); err != nil {
		return nil, err
	}
	if cfg.Overrides, err = resolveAll(loc, raw.Overrides, validOverrideFormats); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveAll(configLoc source.Ref, raws []rawSource, valid map[SourceFormat]bool) ([]Source, error) {
	sources := make([]Source, 0, len(raws))
	for _, rs := range raws {
		if !valid[rs.Format] {
			return nil, errors.Errorf("unknown source format %q", rs.Format)
		}
		ref, err := source.Resolve(configLoc, rs.Path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Format: rs.Format, Ref: ref})
	}
	return sources, nil
}
