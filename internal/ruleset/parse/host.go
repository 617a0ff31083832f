package parse

import "regexp"

// Host is the (ip, domain) pair produced by the hosts line format. Only
// Domain is retained by callers.
type Host struct {
	IP     string
	Domain Domain
}

var hostRE = regexp.MustCompile(`(?P<ip>\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\s+(?P<domain>.{2,200}\.[a-z]{2,6})`)

// ParseHost extracts an "<ipv4> <domain>" pair from line.
func ParseHost(line string) (Host, bool) {
	m := hostRE.FindStringSubmatch(line)
	if m == nil {
		return Host{}, false
	}
	ip, rawDomain := m[1], m[2]

	domain, ok := ParseDomain(rawDomain)
	if !ok {
		return Host{}, false
	}
	return Host{IP: ip, Domain: domain}, true
}
