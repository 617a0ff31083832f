// Package resolver wraps a recursive DNS client over a fixed list of
// upstream forwarders, and can supervise an embedded recursive resolver
// child process when no forwarders are configured.
package resolver

import (
	"fmt"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// Resolver is a thin façade over dns.Client.Exchange against a list of
// upstream name servers.
type Resolver struct {
	client     *dns.Client
	forwarders []string
}

// New builds a Resolver targeting forwarders (host:port strings).
func New(forwarders []string) *Resolver {
	return &Resolver{client: new(dns.Client), forwarders: forwarders}
}

// Lookup exchanges a query for name/qtype against each forwarder in turn,
// returning the first successful response's answer records. "NoError, no
// records" is reported as an empty, non-error result. An NXDOMAIN answer is
// returned at once as *NXDomainError. A transport error or any other rcode
// moves on to the next forwarder; if none succeeds, the last error is
// returned.
func (r *Resolver) Lookup(name string, qtype uint16) ([]dns.RR, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, forwarder := range r.forwarders {
		in, _, err := r.client.Exchange(msg, forwarder)
		if err != nil {
			lastErr = errors.Wrapf(err, "exchange with %s", forwarder)
			continue
		}
		switch in.Rcode {
		case dns.RcodeSuccess:
			return in.Answer, nil
		case dns.RcodeNameError:
			return nil, &NXDomainError{Name: name}
		default:
			lastErr = fmt.Errorf("upstream %s returned %s", forwarder, dns.RcodeToString[in.Rcode])
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no forwarders configured")
	}
	return nil, lastErr
}

// NXDomainError reports that a forwarder answered NXDOMAIN for a lookup.
type NXDomainError struct {
	Name string
}

func (e *NXDomainError) Error() string {
	return fmt.Sprintf("no records found for %s", e.Name)
}
