package resolver

import (
	"context"
	"os/exec"

	"github.com/datawire/ambassador/v2/pkg/dexec"
	"github.com/pkg/errors"

	"github.com/datawire/dlib/dlog"
)

// EmbeddedAddr is the address queries are sent to when no forwarders were
// configured and the embedded recursive resolver is used.
const EmbeddedAddr = "127.0.0.1:5353"

// Supervisor spawns and supervises the embedded recursive resolver child
// process ("named") as one worker inside the server's task group. It is
// killed automatically when its context is canceled.
type Supervisor struct{}

// Available reports whether a supervisable resolver binary is on $PATH.
func Available() bool {
	_, err := exec.LookPath("named")
	return err == nil
}

// Run launches "named -f -p 5353" and blocks until ctx is canceled or the
// child exits on its own. No listen address is passed: which interfaces
// named binds on port 5353 is left to named's own configuration, so it is
// not restricted to loopback. The child is not restarted after it exits.
func (Supervisor) Run(ctx context.Context) error {
	cmd := dexec.CommandContext(ctx, "named", "-f", "-p", "5353")
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "start embedded resolver")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		dlog.Debug(ctx, "embedded resolver stopping")
		if err := cmd.Process.Kill(); err != nil {
			dlog.Debugf(ctx, "kill embedded resolver: %v", err)
		}
		<-done
		return nil
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "embedded resolver exited")
		}
		return errors.New("embedded resolver exited unexpectedly")
	}
}
