package parse

import (
	"runtime"
	"strings"
	"sync"
)

// Pool parses the lines of a source list in parallel, with at most one
// goroutine per worker slot running at a time. Each call blocks the caller
// until every line has been parsed.
type Pool struct {
	workers int
}

// NewPool returns a Pool sized to the host's CPU count.
func NewPool() *Pool {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return &Pool{workers: n}
}

// Domains parses every line of content with the Domain parser (used by the
// "domains" format), discarding lines that don't parse.
func (p *Pool) Domains(content string) []Domain {
	lines := strings.Split(content, "\n")
	results := make([][]Domain, len(lines))
	p.dispatch(len(lines), func(i int) {
		if d, ok := ParseDomain(lines[i]); ok {
			results[i] = []Domain{d}
		}
	})
	return flattenDomains(results)
}

// Hosts parses every line with the Host parser (used by the "hosts"
// format), returning the Domain half of each successful parse.
func (p *Pool) Hosts(content string) []Domain {
	lines := strings.Split(content, "\n")
	results := make([][]Domain, len(lines))
	p.dispatch(len(lines), func(i int) {
		if h, ok := ParseHost(lines[i]); ok {
			results[i] = []Domain{h.Domain}
		}
	})
	return flattenDomains(results)
}

// Zone parses every line with the CName parser (used by the "zone"
// whitelist format), returning the Domain half of each successful parse.
func (p *Pool) Zone(content string) []Domain {
	lines := strings.Split(content, "\n")
	results := make([][]Domain, len(lines))
	p.dispatch(len(lines), func(i int) {
		if c, ok := ParseCName(lines[i]); ok {
			results[i] = []Domain{c.Domain}
		}
	})
	return flattenDomains(results)
}

// CNames parses every line with the CName parser (used by the "cname"
// override format), returning the full pair.
func (p *Pool) CNames(content string) []CName {
	lines := strings.Split(content, "\n")
	results := make([][]CName, len(lines))
	p.dispatch(len(lines), func(i int) {
		if c, ok := ParseCName(lines[i]); ok {
			results[i] = []CName{c}
		}
	})
	var out []CName
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (p *Pool) dispatch(n int, work func(i int)) {
	if n == 0 {
		return
	}
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			work(i)
		}(i)
	}
	wg.Wait()
}

func flattenDomains(results [][]Domain) []Domain {
	var out []Domain
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
