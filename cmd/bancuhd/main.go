// Command bancuhd is a recursive-forwarding DNS server with an integrated
// content-filtering engine.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/ragibkl/bancuhd/internal/config"
	"github.com/ragibkl/bancuhd/internal/dnsserver"
	"github.com/ragibkl/bancuhd/internal/engine"
	"github.com/ragibkl/bancuhd/internal/fetch"
	"github.com/ragibkl/bancuhd/internal/resolver"
)

const workspaceDir = "./bancuh_db"

func main() {
	ctx := context.Background()
	ctx = dlog.WithLogger(ctx, dlog.WrapLogrus(makeBaseLogger()))

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bancuhd: error: %v\n", err)
		os.Exit(1)
	}
}

func makeBaseLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

func newRootCommand() *cobra.Command {
	var configURL string
	var port int
	var forwarders string
	var forwardersPort int

	cmd := &cobra.Command{
		Use:           "bancuhd",
		Short:         "Recursive-forwarding DNS server with content filtering",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, configURL, port, forwarders, forwardersPort)
		},
	}

	env, err := config.LoadEnv(context.Background())
	if err != nil {
		env = config.Env{Port: 53, ForwardersPort: 53}
	}

	flags := cmd.Flags()
	flags.StringVar(&configURL, "config-url", env.ConfigURL, "location of the YAML ruleset config (URL or local path)")
	flags.IntVar(&port, "port", env.Port, "UDP+TCP listen port")
	flags.StringVar(&forwarders, "forwarders", env.Forwarders, "comma-separated upstream resolver IPs; empty spawns an embedded resolver")
	flags.IntVar(&forwardersPort, "forwarders-port", env.ForwardersPort, "port used with every forwarder")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, configURL string, port int, forwarders string, forwardersPort int) error {
	if configURL == "" {
		return fmt.Errorf("--config-url (or CONFIG_URL) is required")
	}

	fetcher := fetch.New(ctx)
	cfg, err := config.Load(ctx, fetcher, configURL)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	forwarderAddrs, useEmbedded := resolveForwarders(forwarders, forwardersPort)

	g := dgroup.NewGroup(ctx, dgroup.GroupConfig{
		SoftShutdownTimeout:  5 * time.Second,
		EnableSignalHandling: true,
		ShutdownOnNonError:   true,
	})

	if useEmbedded {
		if !resolver.Available() {
			return fmt.Errorf("no forwarders configured and embedded resolver binary not found on PATH")
		}
		g.Go("embedded-resolver", func(ctx context.Context) error {
			return (resolver.Supervisor{}).Run(ctx)
		})
		forwarderAddrs = []string{resolver.EmbeddedAddr}
	}

	e := engine.New(workspaceDir, cfg, fetcher)
	upd := engine.NewUpdater(e, engine.DefaultUpdateInterval)
	g.Go("updater", upd.Run)

	r := resolver.New(forwarderAddrs)
	h := dnsserver.NewHandler(ctx, e, r)
	srv := dnsserver.New(port, h)
	if err := srv.Run(ctx, g); err != nil {
		return err
	}

	return g.Wait()
}

func resolveForwarders(forwarders string, port int) ([]string, bool) {
	if strings.TrimSpace(forwarders) == "" {
		return nil, true
	}
	parts := strings.Split(forwarders, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		addrs = append(addrs, fmt.Sprintf("%s:%d", p, port))
	}
	return addrs, false
}
