// Package dnsserver implements the DNS query state machine and the
// UDP/TCP server that accepts traffic for it.
package dnsserver

import (
	"context"
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/datawire/dlib/dlog"

	"github.com/ragibkl/bancuhd/internal/engine"
	"github.com/ragibkl/bancuhd/internal/resolver"
)

const blockTTL = 60

// Handler implements dns.Handler, classifying each query as rewrite,
// block, or forward and synthesizing the appropriate response.
type Handler struct {
	ctx      context.Context
	engine   *engine.Engine
	resolver *resolver.Resolver
}

// NewHandler builds a Handler bound to ctx for logging, consulting engine
// and resolver for each query.
func NewHandler(ctx context.Context, e *engine.Engine, r *resolver.Resolver) *Handler {
	return &Handler{ctx: ctx, engine: e, resolver: r}
}

// ServeDNS implements github.com/miekg/dns's Handler interface.
func (h *Handler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	defer func() {
		if h.ctx.Err() != nil {
			_ = w.Close()
		}
	}()

	if r.Opcode != dns.OpcodeQuery || r.Response || len(r.Question) == 0 {
		reply := new(dns.Msg)
		reply.SetRcode(r, dns.RcodeRefused)
		_ = w.WriteMsg(reply)
		return
	}

	q := r.Question[0]
	name := strings.ToLower(q.Name)
	qtype := q.Qtype

	if alias, ok := h.engine.GetRedirect(h.ctx, name); ok {
		h.respondRewrite(w, r, name, alias, qtype)
		return
	}

	if h.engine.IsBlocked(h.ctx, name) {
		h.respondBlocked(w, r, name, qtype)
		return
	}

	h.respondForward(w, r, name, qtype)
}

func (h *Handler) respondRewrite(w dns.ResponseWriter, r *dns.Msg, name, alias string, qtype uint16) {
	cname := &dns.CNAME{
		Hdr:    dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: blockTTL},
		Target: dns.Fqdn(alias),
	}
	answers := []dns.RR{cname}

	aliasAnswers, err := h.resolver.Lookup(alias, qtype)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	answers = append(answers, aliasAnswers...)
	h.sendAnswer(w, r, answers)
}

func (h *Handler) respondBlocked(w dns.ResponseWriter, r *dns.Msg, name string, qtype uint16) {
	switch qtype {
	case dns.TypeA:
		rr := &dns.A{
			Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: blockTTL},
			A:   net.IPv4zero,
		}
		h.sendAnswer(w, r, []dns.RR{rr})
	case dns.TypeAAAA:
		rr := &dns.AAAA{
			Hdr:  dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: blockTTL},
			AAAA: net.IPv6zero,
		}
		h.sendAnswer(w, r, []dns.RR{rr})
	default:
		reply := new(dns.Msg)
		reply.SetRcode(r, dns.RcodeNameError)
		_ = w.WriteMsg(reply)
	}
}

func (h *Handler) respondForward(w dns.ResponseWriter, r *dns.Msg, name string, qtype uint16) {
	answers, err := h.resolver.Lookup(name, qtype)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendAnswer(w, r, answers)
}

func (h *Handler) sendAnswer(w dns.ResponseWriter, r *dns.Msg, answers []dns.RR) {
	reply := new(dns.Msg)
	reply.SetReply(r)
	reply.Authoritative = false
	reply.RecursionAvailable = true
	reply.Answer = answers
	if err := w.WriteMsg(reply); err != nil {
		dlog.Errorf(h.ctx, "write response: %v", err)
	}
}

func (h *Handler) sendError(w dns.ResponseWriter, r *dns.Msg, err error) {
	reply := new(dns.Msg)
	if _, ok := err.(*resolver.NXDomainError); ok {
		reply.SetRcode(r, dns.RcodeNameError)
	} else {
		dlog.Errorf(h.ctx, "resolve error: %v", err)
		reply.SetRcode(r, dns.RcodeServerFailure)
	}
	if sendErr := w.WriteMsg(reply); sendErr != nil {
		dlog.Errorf(h.ctx, "write error response: %v", sendErr)
		minimal := new(dns.Msg)
		minimal.SetRcode(r, dns.RcodeServerFailure)
		_ = w.WriteMsg(minimal)
	}
}
