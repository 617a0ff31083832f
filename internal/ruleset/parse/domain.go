// Package parse turns raw list lines into normalized domain values.
package parse

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Domain is a canonical, lowercase, ASCII (punycode) fully-qualified name
// without a trailing dot, or a wildcard of the form "*.<suffix>".
type Domain string

var domainRE = regexp.MustCompile(`.{2,200}\.[a-z]{2,6}`)

// ParseDomain extracts and validates the first domain-shaped substring of
// line. It returns ok=false for comments, blank lines, and anything without
// a matching substring.
func ParseDomain(line string) (Domain, bool) {
	match := domainRE.FindString(line)
	if match == "" {
		return "", false
	}

	wildcard := strings.HasPrefix(match, "*.")
	if wildcard {
		match = strings.TrimPrefix(match, "*.")
	}

	normalized, ok := validateDomainName(match)
	if !ok {
		return "", false
	}

	ascii, err := idna.Lookup.ToASCII(normalized)
	if err != nil {
		return "", false
	}

	if wildcard {
		ascii = "*." + ascii
	}
	return Domain(ascii), true
}

func validateDomainName(s string) (string, bool) {
	dn, err := publicsuffix.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	name := dn.SLD + "." + dn.TLD
	if dn.TRD != "" {
		name = dn.TRD + "." + name
	}
	return strings.TrimSpace(name), true
}
