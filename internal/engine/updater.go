package engine

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/datawire/dlib/dlog"

	"github.com/ragibkl/bancuhd/internal/ruleset/compiler"
)

// DefaultUpdateInterval is the 24h rebuild cadence specified for the
// updater loop.
const DefaultUpdateInterval = 24 * time.Hour

// Updater drives the engine's rebuild-swap-destroy cycle on a schedule,
// registered as one dgroup.Group worker alongside the DNS server.
type Updater struct {
	engine   *Engine
	interval time.Duration
}

// NewUpdater builds an Updater that rebuilds the engine's ruleset every
// interval. A zero interval is replaced by DefaultUpdateInterval.
func NewUpdater(e *Engine, interval time.Duration) *Updater {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	return &Updater{engine: e, interval: interval}
}

// Run performs an initial build, then loops: sleep, rebuild, repeat, until
// ctx is canceled, at which point it destroys whatever ruleset is live and
// returns. A failed initial build returns its error at once; a rebuild that
// fails with a *compiler.StoreError destroys the live ruleset and returns the
// error; any other rebuild error is logged and the loop goes on.
func (u *Updater) Run(ctx context.Context) error {
	if err := u.engine.RunUpdate(ctx); err != nil {
		return pkgerrors.Wrap(err, "initial ruleset build")
	}

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dlog.Info(ctx, "updater shutting down")
			u.engine.DestroyLive(ctx)
			return nil
		case <-ticker.C:
			dlog.Info(ctx, "rebuilding ruleset")
			if err := u.engine.RunUpdate(ctx); err != nil {
				var storeErr *compiler.StoreError
				if errors.As(err, &storeErr) {
					dlog.Errorf(ctx, "ruleset rebuild aborted on store write failure, canceling: %v", err)
					u.engine.DestroyLive(ctx)
					return pkgerrors.Wrap(err, "ruleset rebuild")
				}
				dlog.Errorf(ctx, "ruleset rebuild failed: %v", err)
			}
		}
	}
}
