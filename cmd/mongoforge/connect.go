package main

import (
	"context"
	"time"

	"github.com/dwoolworth/mongoforge/connection"
)

const defaultDialTimeout = 10 * time.Second

// oneShotConnect establishes a single managed client for the lifetime of one
// CLI invocation. The CLI never keeps connections warm between commands the
// way the desktop workbench does, so a fresh Manager per command is correct.
func oneShotConnect(uri string) (*connection.Manager, connection.ConnID, func(), error) {
	mgr := connection.NewManager()
	id := connection.ConnID("cli")

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if _, err := mgr.Connect(ctx, connection.Profile{ID: id, URI: uri}); err != nil {
		return nil, "", nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
		defer cancel()
		_ = mgr.Disconnect(ctx, id)
	}
	return mgr, id, cleanup, nil
}
