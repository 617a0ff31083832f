// Package fetch retrieves the text content of a ruleset source, either a
// local file or an HTTP URL.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/datawire/dlib/dlog"
)

const (
	connectTimeout = 5 * time.Second
	totalTimeout   = 60 * time.Second
	maxRetries     = 5
)

// Target is a fetchable location: either a local file path or an absolute
// URL, never both.
type Target struct {
	Path string
	URL  string
}

// File returns a Target pointing at a local filesystem path.
func File(path string) Target { return Target{Path: path} }

// URL returns a Target pointing at an absolute URL.
func URL(url string) Target { return Target{URL: url} }

func (t Target) String() string {
	if t.URL != "" {
		return t.URL
	}
	return t.Path
}

// Fetcher retrieves the text content of a Target. A single Fetcher is
// shared process-wide so HTTP requests reuse one connection-pooled client.
type Fetcher struct {
	client *retryablehttp.Client
}

// New builds a Fetcher whose HTTP client retries transport and HTTP errors,
// making at most 5 attempts in all; each attempt has a 5s connect timeout
// and a 60s total timeout.
func New(ctx context.Context) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries - 1 // RetryMax counts retries after the first attempt
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		if !retry && checkErr == nil && err == nil && resp.StatusCode >= 400 {
			return true, nil // a 4xx is a failed fetch too, not list content
		}
		return retry, checkErr
	}
	client.HTTPClient = &http.Client{
		Timeout: totalTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}
	client.Logger = leveledLogger{ctx}
	return &Fetcher{client: client}
}

// Fetch retrieves the content of target. For a file target, any I/O error
// is terminal. For a URL target, the client above already retried
// transport/HTTP errors before returning.
func (f *Fetcher) Fetch(ctx context.Context, target Target) (string, error) {
	if target.URL == "" {
		content, err := os.ReadFile(target.Path)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", target.Path)
		}
		return string(content), nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "build request for %s", target.URL)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "fetch %s", target.URL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "read response body from %s", target.URL)
	}
	return string(body), nil
}

type leveledLogger struct {
	ctx context.Context
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { dlog.Errorf(l.ctx, "%s %v", msg, kv) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { dlog.Infof(l.ctx, "%s %v", msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { dlog.Debugf(l.ctx, "%s %v", msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { dlog.Warnf(l.ctx, "%s %v", msg, kv) }
