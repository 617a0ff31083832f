package dnsserver

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/datawire/dlib/dcontext"
	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
)

const tcpIdleTimeout = 10 * time.Second

// Server binds one UDP and one TCP listener on the same port and serves
// both with the same Handler.
type Server struct {
	addr    string
	handler dns.Handler
}

// New builds a Server listening on ":<port>".
func New(port int, handler dns.Handler) *Server {
	return &Server{addr: fmt.Sprintf(":%d", port), handler: handler}
}

// Run registers the UDP and TCP listeners as workers of g and returns at
// once; the listeners shut down when g's context is canceled, and g.Wait
// waits for them.
func (s *Server) Run(ctx context.Context, g *dgroup.Group) error {
	udp := &dns.Server{Addr: s.addr, Net: "udp", Handler: s.handler}
	tcp := &dns.Server{Addr: s.addr, Net: "tcp", Handler: s.handler, IdleTimeout: func() time.Duration { return tcpIdleTimeout }}

	g.Go("dns-udp", func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = udp.ShutdownContext(dcontext.HardContext(ctx))
		}()
		dlog.Infof(ctx, "DNS server listening on %s/udp", s.addr)
		if err := udp.ListenAndServe(); err != nil {
			return errors.Wrap(err, "udp listener")
		}
		return nil
	})

	g.Go("dns-tcp", func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = tcp.ShutdownContext(dcontext.HardContext(ctx))
		}()
		dlog.Infof(ctx, "DNS server listening on %s/tcp", s.addr)
		if err := tcp.ListenAndServe(); err != nil {
			return errors.Wrap(err, "tcp listener")
		}
		return nil
	})

	return nil
}
