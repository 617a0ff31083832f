// Package source resolves configured source paths into concrete fetch
// targets relative to the location a config document was loaded from.
package source

import (
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/ragibkl/bancuhd/internal/fetch"
)

// Ref is either a local filesystem path or an absolute URL.
type Ref struct {
	Path string
	URL  string
}

// File builds a Ref from a bare filesystem path, without existence checks.
func File(path string) Ref { return Ref{Path: path} }

// URL builds a Ref from an absolute URL.
func URL(url string) Ref { return Ref{URL: url} }

// IsURL reports whether this Ref names a URL rather than a file path.
func (r Ref) IsURL() bool { return r.URL != "" }

func (r Ref) String() string {
	if r.IsURL() {
		return r.URL
	}
	return r.Path
}

// Target returns the fetch.Target this Ref resolves to.
func (r Ref) Target() fetch.Target {
	if r.IsURL() {
		return fetch.URL(r.URL)
	}
	return fetch.File(r.Path)
}

// Parse resolves the top-level config location string itself: an absolute
// URL, or a filesystem path that must already exist.
func Parse(raw string) (Ref, error) {
	if strings.HasPrefix(raw, "http") {
		if _, err := url.Parse(raw); err != nil {
			return Ref{}, errors.Wrapf(err, "invalid url %q", raw)
		}
		return URL(raw), nil
	}
	if _, err := os.Stat(raw); err != nil {
		return Ref{}, errors.Wrapf(err, "config location %q does not exist", raw)
	}
	return File(raw), nil
}

// Resolve resolves a source's raw path string against the config document's
// own location, per three rules: absolute URL, "./"-relative (URL-join or
// parent-directory join), or bare absolute filesystem path.
func Resolve(configLoc Ref, raw string) (Ref, error) {
	switch {
	case strings.HasPrefix(raw, "http"):
		if _, err := url.Parse(raw); err != nil {
			return Ref{}, errors.Wrapf(err, "invalid url %q", raw)
		}
		return URL(raw), nil

	case strings.HasPrefix(raw, "./"):
		if configLoc.IsURL() {
			base, err := url.Parse(configLoc.URL)
			if err != nil {
				return Ref{}, errors.Wrapf(err, "invalid config url %q", configLoc.URL)
			}
			joined, err := base.Parse(raw)
			if err != nil {
				return Ref{}, errors.Wrapf(err, "join %q onto %q", raw, configLoc.URL)
			}
			return URL(joined.String()), nil
		}
		resolved := path.Join(path.Dir(configLoc.Path), raw)
		if _, err := os.Stat(resolved); err != nil {
			return Ref{}, errors.Wrapf(err, "source %q does not exist", resolved)
		}
		return File(resolved), nil

	default:
		if _, err := os.Stat(raw); err != nil {
			return Ref{}, errors.Wrapf(err, "source %q does not exist", raw)
		}
		return File(raw), nil
	}
}
